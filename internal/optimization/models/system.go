package models

import (
	"github.com/copyleftdev/bioristor/internal/device"
)

// System is the three-equation formulation:
//
//	I_ds_on  = I_gs_on + V_ds / (R_dry + s*(R/(m(c)+1) - R_dry))
//	I_ds_off = V_ds / (R_dry + s*(R - R_dry))
//	I_gs_on  = V_gs * s * r(c)
type System struct {
	params   device.ModelParams
	currents device.Currents
}

// NewSystem builds the system formulation for the given device.
func NewSystem(p device.ModelParams, c device.Currents) *System {
	return &System{params: p, currents: c}
}

// Params implements Model.
func (s *System) Params() device.ModelParams { return s.params }

// Currents implements Model.
func (s *System) Currents() device.Currents { return s.currents }

// Value implements SystemModel.
func (s *System) Value(v device.Variables) device.Residual {
	p, c := s.params, s.currents
	m := p.Modulation(v.Concentration)

	return device.Residual{
		{
			Measured:  c.IDSOn,
			Predicted: c.IGSOn + p.Voltages.VDS/(p.RDry+v.Saturation*(v.Resistance/(m+1)-p.RDry)),
		},
		{
			Measured:  c.IDSOff,
			Predicted: p.Voltages.VDS / (p.RDry + v.Saturation*(v.Resistance-p.RDry)),
		},
		{
			Measured:  c.IGSOn,
			Predicted: p.Voltages.VGS * v.Saturation * p.StemResistanceInv(v.Concentration),
		},
	}
}

// Jacobian implements SystemModel. Rows follow the equations, columns the
// variables (concentration, resistance, saturation).
func (s *System) Jacobian(v device.Variables) Jacobian {
	p := s.params
	vds, vgs, rDry := p.Voltages.VDS, p.Voltages.VGS, p.RDry
	m := p.Modulation(v.Concentration)
	dm := p.ModulationGradient(v.Concentration)
	r := p.StemResistanceInv(v.Concentration)
	dr := p.StemResistanceInvGradient(v.Concentration)

	d1 := rDry - v.Saturation*(rDry-v.Resistance/(m+1))
	d1 *= d1
	d2 := rDry + v.Saturation*(v.Resistance-rDry)
	d2 *= d2

	return Jacobian{
		{
			-(v.Resistance * v.Saturation * vds * dm) / ((m + 1) * (m + 1) * d1),
			(v.Saturation * vds) / ((m + 1) * d1),
			-(vds * (rDry - v.Resistance/(m+1))) / d1,
		},
		{
			0,
			(v.Saturation * vds) / d2,
			(vds * (v.Resistance - rDry)) / d2,
		},
		{
			-v.Saturation * vgs * dr,
			0,
			-vgs * r,
		},
	}
}
