package models

import (
	"github.com/copyleftdev/bioristor/internal/device"
)

// Equation is the single-variable formulation. The coefficients that depend
// only on the constants and the currents are computed once in NewEquation.
type Equation struct {
	params   device.ModelParams
	currents device.Currents

	// f(c) = f0 + (f1*r + f2*r*m) / (f3*m)
	f0, f1, f2, f3 float32
	// R(c) = r0*(m+1) / (r1 + r2*m)
	r0, r1, r2 float32
	// S(c) = (s0 + s1*m) / (s2*m)
	s0, s1, s2 float32
}

// NewEquation builds the equation formulation for the given device.
func NewEquation(p device.ModelParams, c device.Currents) *Equation {
	vds, vgs, rDry := p.Voltages.VDS, p.Voltages.VGS, p.RDry

	// Terms shared by several coefficients.
	net := c.IDSOff - c.IDSOn + c.IGSOn
	off := c.IDSOff * (vds - c.IDSOn*rDry + c.IGSOn*rDry)

	return &Equation{
		params:   p,
		currents: c,

		f0: c.IGSOn,
		f1: vgs * vds * net,
		f2: vgs * off,
		f3: c.IDSOff * rDry * (c.IDSOn - c.IGSOn),

		r0: rDry * vds * net,
		r1: vds * net,
		r2: off,

		s0: vds * net,
		s1: off,
		s2: c.IDSOff * rDry * (c.IGSOn - c.IDSOn),
	}
}

// Params implements Model.
func (e *Equation) Params() device.ModelParams { return e.params }

// Currents implements Model.
func (e *Equation) Currents() device.Currents { return e.currents }

// Value implements EquationModel.
func (e *Equation) Value(c float32) float32 {
	m := e.params.Modulation(c)
	r := e.params.StemResistanceInv(c)

	return e.f0 + (e.f1*r+e.f2*r*m)/(e.f3*m)
}

// Gradient implements EquationModel.
func (e *Equation) Gradient(c float32) float32 {
	m := e.params.Modulation(c)
	r := e.params.StemResistanceInv(c)
	dm := e.params.ModulationGradient(c)
	dr := e.params.StemResistanceInvGradient(c)

	return (e.f1*dr+e.f2*(m*dr+dm*r))/(e.f3*m) -
		((e.f1+e.f2*m)*r*dm)/(e.f3*m*m)
}

// Resistance implements EquationModel.
func (e *Equation) Resistance(c float32) float32 {
	m := e.params.Modulation(c)
	return (e.r0 * (m + 1)) / (e.r1 + e.r2*m)
}

// Saturation implements EquationModel.
func (e *Equation) Saturation(c float32) float32 {
	m := e.params.Modulation(c)
	return (e.s0 + e.s1*m) / (e.s2 * m)
}
