// Package models defines the formulations of the Bioristor physical model the
// solvers work on, and provides the reference implementations.
//
// Implementations must be pure functions of their inputs and of the constants
// captured at construction, so a single model can be shared by concurrent
// callers.
package models

import (
	"github.com/copyleftdev/bioristor/internal/device"
)

// Model is the common surface of every formulation.
type Model interface {
	// Params returns the physical constants of the device.
	Params() device.ModelParams
	// Currents returns the measured currents the model was built for.
	Currents() device.Currents
}

// EquationModel reduces the physics to a single equation in the
// concentration. Resistance and saturation follow from the concentration in
// closed form.
type EquationModel interface {
	Model

	// Value returns the equation output; it is zero at the solution.
	Value(concentration float32) float32
	// Gradient returns the first derivative of Value.
	Gradient(concentration float32) float32
	// Resistance returns the wet channel resistance [Ohm].
	Resistance(concentration float32) float32
	// Saturation returns the water saturation.
	Saturation(concentration float32) float32
}

// SystemModel formulates the physics as three equations in three variables.
type SystemModel interface {
	Model

	// Value returns the measured and predicted side of each equation.
	Value(v device.Variables) device.Residual
	// Jacobian returns the partial derivatives of the system with respect
	// to the variables.
	Jacobian(v device.Variables) Jacobian
}
