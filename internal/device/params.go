// Package device holds the value types describing a Bioristor sensor: its
// physical constants, the currents measured on it and the variables the
// solvers estimate.
package device

import "math"

// stemExponent is the exponent of the concentration in the inverse stem
// resistance relation.
const stemExponent = 0.955

// Variables represents one point in the search space.
type Variables struct {
	// Concentration of ions in the electrolyte [Molarity].
	Concentration float32 `json:"concentration" yaml:"concentration"`
	// Resistance of the wet PEDOT channel when the gate is off [Ohm].
	Resistance float32 `json:"resistance" yaml:"resistance"`
	// Saturation of the water in the system [dimensionless].
	Saturation float32 `json:"saturation" yaml:"saturation"`
}

// Currents are the output currents of the device, in Ampere.
type Currents struct {
	// IDSOff is measured between drain and source when the gate is off.
	IDSOff float32 `json:"i_ds_off" yaml:"i_ds_off"`
	// IDSOn is measured between drain and source when the gate is on.
	IDSOn float32 `json:"i_ds_on" yaml:"i_ds_on"`
	// IGSOn is measured between gate and source when the gate is on.
	IGSOn float32 `json:"i_gs_on" yaml:"i_gs_on"`
}

// Voltages are the input voltages of the device, in Volt.
type Voltages struct {
	VDS float32 `json:"v_ds" yaml:"v_ds"`
	VGS float32 `json:"v_gs" yaml:"v_gs"`
}

// ModulationParams parameterize the channel modulation
//
//	m(c) = A*c + B*ln(c) + C
type ModulationParams struct {
	A float32 `json:"a" yaml:"a"`
	B float32 `json:"b" yaml:"b"`
	C float32 `json:"c" yaml:"c"`
}

// StemResistanceInvParams parameterize the inverse of the stem resistance
//
//	r(c) = A + B*c^0.955
type StemResistanceInvParams struct {
	A float32 `json:"a" yaml:"a"`
	B float32 `json:"b" yaml:"b"`
}

// ModelParams are the physical constants of a device. They are supplied once
// when a model is built and never change afterwards.
type ModelParams struct {
	ModParams ModulationParams `json:"modulation" yaml:"modulation"`
	// RDry is the resistance of the dry PEDOT channel [Ohm].
	RDry      float32                 `json:"r_dry" yaml:"r_dry"`
	ResParams StemResistanceInvParams `json:"stem_resistance_inv" yaml:"stem_resistance_inv"`
	Voltages  Voltages                `json:"voltages" yaml:"voltages"`
}

// Modulation returns the modulation of the channel at the given concentration.
func (p ModelParams) Modulation(concentration float32) float32 {
	m := p.ModParams
	return m.A*concentration + m.B*float32(math.Log(float64(concentration))) + m.C
}

// ModulationGradient returns dm/dc.
func (p ModelParams) ModulationGradient(concentration float32) float32 {
	return p.ModParams.A + p.ModParams.B/concentration
}

// StemResistanceInv returns the inverse of the stem resistance.
func (p ModelParams) StemResistanceInv(concentration float32) float32 {
	r := p.ResParams
	return r.A + r.B*float32(math.Pow(float64(concentration), stemExponent))
}

// StemResistanceInvGradient returns dr/dc.
func (p ModelParams) StemResistanceInvGradient(concentration float32) float32 {
	return stemExponent * p.ResParams.B *
		float32(math.Pow(float64(concentration), stemExponent-1))
}
