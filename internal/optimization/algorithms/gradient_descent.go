package algorithms

import (
	"github.com/copyleftdev/bioristor/internal/device"
	"github.com/copyleftdev/bioristor/internal/optimization"
	"github.com/copyleftdev/bioristor/internal/optimization/losses"
	"github.com/copyleftdev/bioristor/internal/optimization/models"
)

// GradientDescentEquation minimizes f(c)^2 for an equation model. The first
// step uses the configured learning rate, later ones the Barzilai-Borwein
// estimate |dc*dgrad| / dgrad^2.
type GradientDescentEquation[M models.EquationModel, L losses.ScalarLoss] struct {
	params GradientDescentParams
	model  M
	loss   L
}

// NewGradientDescentEquation creates the gradient descent for an equation
// model.
func NewGradientDescentEquation[M models.EquationModel, L losses.ScalarLoss](params GradientDescentParams, model M, loss L) (*GradientDescentEquation[M, L], error) {
	if err := checkIterations("gradient_descent", params.MaxIterations); err != nil {
		return nil, err
	}
	if !(params.LearningRateInit > 0) {
		return nil, invalid("gradient_descent", "learning rate %v <= 0", params.LearningRateInit)
	}
	if err := checkTolerance("gradient_descent", "tolerance", params.Tolerance); err != nil {
		return nil, err
	}
	if err := checkTolerance("gradient_descent", "grad tolerance", params.GradTolerance); err != nil {
		return nil, err
	}
	return &GradientDescentEquation[M, L]{params: params, model: model, loss: loss}, nil
}

func (a *GradientDescentEquation[M, L]) gradient(c float32) float32 {
	return 2 * a.model.Value(c) * a.model.Gradient(c)
}

// Run implements optimization.Algorithm. A non-finite final concentration
// or error is returned together with optimization.ErrDiverged.
func (a *GradientDescentEquation[M, L]) Run() (optimization.Solution, error) {
	c := a.params.ConcentrationInit
	grad := a.gradient(c)
	rate := a.params.LearningRateInit
	errC := a.loss.EvaluateScalar(a.model.Value(c))
	evals := 1

	iterations := 0
	for iterations < a.params.MaxIterations &&
		errC > a.params.Tolerance &&
		abs(grad) > a.params.GradTolerance {
		prevC, prevGrad := c, grad

		c -= rate * grad
		grad = a.gradient(c)

		dg := grad - prevGrad
		rate = abs((c-prevC)*dg) / (dg * dg)

		errC = a.loss.EvaluateScalar(a.model.Value(c))
		evals++
		iterations++
	}

	sol := optimization.Solution{
		Variables: device.Variables{
			Concentration: c,
			Resistance:    a.model.Resistance(c),
			Saturation:    a.model.Saturation(c),
		},
		Error:       errC,
		Iterations:  iterations,
		Evaluations: evals,
	}
	if !isFinite(c) || !isFinite(errC) {
		return sol, diverged("gradient_descent", c, iterations)
	}
	return sol, nil
}
