package solver

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/copyleftdev/bioristor/internal/device"
	"github.com/copyleftdev/bioristor/internal/optimization"
	"github.com/copyleftdev/bioristor/internal/optimization/algorithms"
	"github.com/copyleftdev/bioristor/internal/optimization/grid"
)

// Formulations.
const (
	FormulationEquation = "equation"
	FormulationSystem   = "system"
)

// Algorithm names.
const (
	AlgorithmBruteForce      = "brute_force"
	AlgorithmAdaptive        = "adaptive"
	AlgorithmAdaptive2       = "adaptive2"
	AlgorithmGradientDescent = "gradient_descent"
	AlgorithmNewton          = "newton"
)

// Loss names. Absolute and squared score the equation formulation, the
// relative losses score the system formulation.
const (
	LossAbsolute     = "absolute"
	LossSquared      = "squared"
	LossMaxRelative  = "max_relative"
	LossMeanRelative = "mean_relative"
	LossSumRelative  = "sum_relative"
)

// Profile selects an algorithm and carries the hyperparameters of every
// algorithm together with the device constants. Only the section of the
// selected algorithm is validated and used.
type Profile struct {
	Formulation string `json:"formulation" yaml:"formulation" validate:"required"`
	Algorithm   string `json:"algorithm" yaml:"algorithm" validate:"required"`
	Loss        string `json:"loss" yaml:"loss" validate:"required"`

	Model device.ModelParams `json:"model" yaml:"model"`

	BruteForce      algorithms.BruteForceParams      `json:"brute_force" yaml:"brute_force" validate:"-"`
	Adaptive        algorithms.AdaptiveParams        `json:"adaptive" yaml:"adaptive" validate:"-"`
	Adaptive2       algorithms.Adaptive2Params       `json:"adaptive2" yaml:"adaptive2" validate:"-"`
	GradientDescent algorithms.GradientDescentParams `json:"gradient_descent" yaml:"gradient_descent" validate:"-"`
	Newton          algorithms.NewtonParams          `json:"newton" yaml:"newton" validate:"-"`
}

// DefaultModelParams returns the constants of the reference device.
func DefaultModelParams() device.ModelParams {
	return device.ModelParams{
		ModParams: device.ModulationParams{A: 0, B: -0.01463, C: -0.32},
		RDry:      38.2,
		ResParams: device.StemResistanceInvParams{A: 1.35e-6, B: 2.73e-4},
		Voltages:  device.Voltages{VDS: -0.05, VGS: 0.5},
	}
}

// DefaultCurrents returns a measurement of the reference device.
func DefaultCurrents() device.Currents {
	return device.Currents{
		IDSOn:  -0.0026829,
		IDSOff: -0.0030365,
		IGSOn:  1.169828e-6,
	}
}

// DefaultProfile returns the profile used when none is configured: the
// shrinking-window zoom on the equation formulation.
//
// The gradient descent section is complete but does not converge on the
// reference device: from DefaultCurrents the second step leaves the domain
// of the logarithm and the run ends with optimization.ErrDiverged.
func DefaultProfile() Profile {
	concentration := grid.NewStepRange(1e-4, 1e-1, 1000)
	resistance := grid.NewStepRange(10, 100, 100)
	saturation := grid.NewStepRange(0, 1, 100)

	return Profile{
		Formulation: FormulationEquation,
		Algorithm:   AlgorithmAdaptive2,
		Loss:        LossAbsolute,
		Model:       DefaultModelParams(),
		BruteForce: algorithms.BruteForceParams{
			ConcentrationRange: concentration,
			ResistanceRange:    resistance,
			SaturationRange:    saturation,
		},
		Adaptive: algorithms.AdaptiveParams{
			ConcentrationGuess: 1e-2,
			ConcentrationSteps: 100,
			MaxIterations:      10,
			ResistanceRange:    resistance,
			SaturationRange:    saturation,
			Ensemble:           10,
		},
		Adaptive2: algorithms.Adaptive2Params{
			ConcentrationRange: concentration,
			MaxIterations:      10,
			ReductionFactor:    0.2,
			ResistanceRange:    resistance,
			SaturationRange:    saturation,
			Tolerance:          1e-15,
			Ensemble:           10,
		},
		GradientDescent: algorithms.GradientDescentParams{
			ConcentrationInit: 1e-2,
			GradTolerance:     1e-12,
			LearningRateInit:  1e-3,
			MaxIterations:     100,
			Tolerance:         1e-9,
		},
		Newton: algorithms.NewtonParams{
			ConcentrationInit: 1e-2,
			GradTolerance:     1e-12,
			MaxIterations:     50,
			Tolerance:         1e-9,
		},
	}
}

// section returns the hyperparameters of the selected algorithm.
func (p Profile) section() (interface{}, error) {
	switch p.Algorithm {
	case AlgorithmBruteForce:
		return p.BruteForce, nil
	case AlgorithmAdaptive:
		return p.Adaptive, nil
	case AlgorithmAdaptive2:
		return p.Adaptive2, nil
	case AlgorithmGradientDescent:
		return p.GradientDescent, nil
	case AlgorithmNewton:
		return p.Newton, nil
	default:
		return nil, unsupported(p)
	}
}

// Validator checks profiles against their struct tags.
type Validator struct {
	v *validator.Validate
}

// NewValidator creates a profile validator.
func NewValidator() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate checks the selection fields and the section of the selected
// algorithm. Tag violations wrap both optimization.ErrInvalidParams and the
// validator.ValidationErrors; unknown names are optimization.ErrUnsupported.
func (v *Validator) Validate(p Profile) error {
	if err := v.v.Struct(p); err != nil {
		return fmt.Errorf("%w: %w", optimization.ErrInvalidParams, err)
	}

	section, err := p.section()
	if err != nil {
		return err
	}
	if err := v.v.Struct(section); err != nil {
		return fmt.Errorf("%w: %s: %w", optimization.ErrInvalidParams, p.Algorithm, err)
	}
	return nil
}

func unsupported(p Profile) error {
	return optimization.WrapErrorf(optimization.ErrUnsupported,
		"algorithm %q, formulation %q, loss %q", p.Algorithm, p.Formulation, p.Loss).
		WithComponent("solver")
}
