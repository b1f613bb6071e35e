package algorithms

import (
	"math"

	"github.com/copyleftdev/bioristor/internal/device"
	"github.com/copyleftdev/bioristor/internal/optimization/models"
)

type nopModel struct{}

func (nopModel) Params() device.ModelParams { return device.ModelParams{} }
func (nopModel) Currents() device.Currents   { return device.Currents{} }

// quadratic has its root and minimum at k; resistance and saturation mirror
// the concentration.
type quadratic struct {
	nopModel
	k float32
}

func (q quadratic) Value(c float32) float32      { return (c - q.k) * (c - q.k) }
func (q quadratic) Gradient(c float32) float32   { return 2 * (c - q.k) }
func (q quadratic) Resistance(c float32) float32 { return c }
func (q quadratic) Saturation(c float32) float32 { return c }

// cosCubic is cos(x) - x^3, with a single root near 0.8654740.
type cosCubic struct{ nopModel }

func (cosCubic) Value(c float32) float32 {
	return float32(math.Cos(float64(c))) - c*c*c
}

func (cosCubic) Gradient(c float32) float32 {
	return -3*c*c - float32(math.Sin(float64(c)))
}

func (cosCubic) Resistance(c float32) float32 { return c }
func (cosCubic) Saturation(c float32) float32 { return c }

// flat never reaches zero and has a vanishing but nonzero slope.
type flat struct{ nopModel }

func (flat) Value(float32) float32      { return 1 }
func (flat) Gradient(float32) float32   { return math.SmallestNonzeroFloat32 }
func (flat) Resistance(float32) float32 { return 0 }
func (flat) Saturation(float32) float32 { return 0 }

// constant has a constant value and slope, so the gradient of its square
// never changes between steps.
type constant struct {
	nopModel
	slope float32
}

func (constant) Value(float32) float32        { return 1 }
func (k constant) Gradient(float32) float32   { return k.slope }
func (constant) Resistance(c float32) float32 { return c }
func (constant) Saturation(c float32) float32 { return c }

// logarithm is ln(c), undefined for negative concentrations.
type logarithm struct{ nopModel }

func (logarithm) Value(c float32) float32 {
	return float32(math.Log(float64(c)))
}

func (logarithm) Gradient(c float32) float32   { return 1 / c }
func (logarithm) Resistance(c float32) float32 { return c }
func (logarithm) Saturation(c float32) float32 { return c }

// target is a system whose predicted side equals the variables, so the
// residual vanishes at want.
type target struct {
	nopModel
	want device.Variables
}

func (t target) Value(v device.Variables) device.Residual {
	return device.Residual{
		{Measured: t.want.Concentration, Predicted: v.Concentration},
		{Measured: t.want.Resistance, Predicted: v.Resistance},
		{Measured: t.want.Saturation, Predicted: v.Saturation},
	}
}

func (target) Jacobian(device.Variables) models.Jacobian {
	return models.Jacobian{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

var (
	_ models.EquationModel = quadratic{}
	_ models.EquationModel = cosCubic{}
	_ models.EquationModel = flat{}
	_ models.EquationModel = constant{}
	_ models.EquationModel = logarithm{}
	_ models.SystemModel   = target{}
)
