package algorithms

import (
	"github.com/copyleftdev/bioristor/internal/device"
	"github.com/copyleftdev/bioristor/internal/optimization"
	"github.com/copyleftdev/bioristor/internal/optimization/losses"
	"github.com/copyleftdev/bioristor/internal/optimization/models"
)

// NewtonEquation finds a root of an equation model with the Newton-Raphson
// update c -= f(c)/f'(c).
type NewtonEquation[M models.EquationModel, L losses.ScalarLoss] struct {
	params NewtonParams
	model  M
	loss   L
}

// NewNewtonEquation creates the Newton-Raphson iteration for an equation
// model.
func NewNewtonEquation[M models.EquationModel, L losses.ScalarLoss](params NewtonParams, model M, loss L) (*NewtonEquation[M, L], error) {
	if err := checkIterations("newton", params.MaxIterations); err != nil {
		return nil, err
	}
	if err := checkTolerance("newton", "tolerance", params.Tolerance); err != nil {
		return nil, err
	}
	if err := checkTolerance("newton", "grad tolerance", params.GradTolerance); err != nil {
		return nil, err
	}
	return &NewtonEquation[M, L]{params: params, model: model, loss: loss}, nil
}

// Run implements optimization.Algorithm. The loop stops early when
// |f'(c)| falls to GradTolerance; a gradient that vanishes without reaching
// it sends the estimate to infinity. A non-finite final concentration or
// error is reported as optimization.ErrDiverged together with the last
// solution.
func (a *NewtonEquation[M, L]) Run() (optimization.Solution, error) {
	c := a.params.ConcentrationInit
	grad := a.model.Gradient(c)
	value := a.model.Value(c)
	errC := a.loss.EvaluateScalar(value)
	evals := 1

	iterations := 0
	for iterations < a.params.MaxIterations &&
		errC > a.params.Tolerance &&
		abs(grad) > a.params.GradTolerance {
		c -= value / grad
		grad = a.model.Gradient(c)

		value = a.model.Value(c)
		errC = a.loss.EvaluateScalar(value)
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
		return sol, diverged("newton", c, iterations)
	}
	return sol, nil
}
