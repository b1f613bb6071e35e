package algorithms

import (
	"github.com/copyleftdev/bioristor/internal/device"
	"github.com/copyleftdev/bioristor/internal/optimization"
	"github.com/copyleftdev/bioristor/internal/optimization/grid"
	"github.com/copyleftdev/bioristor/internal/optimization/losses"
	"github.com/copyleftdev/bioristor/internal/optimization/models"
)

// nextSupport moves the support toward the side of the sampled interval
// [start, end) holding the ensemble mean.
func nextSupport(support, mean, start, end float32) float32 {
	if (mean-start)/(end-start) > 0.5 {
		return support * 2
	}
	return support * 0.5
}

// AdaptiveEquation zooms on the concentration by sampling
// [support/10, support*10) each round and doubling or halving the support
// depending on where the best candidates fall.
type AdaptiveEquation[M models.EquationModel, L losses.ScalarLoss] struct {
	params AdaptiveParams
	model  M
	loss   L
}

// NewAdaptiveEquation creates the support-doubling zoom for an equation
// model.
func NewAdaptiveEquation[M models.EquationModel, L losses.ScalarLoss](params AdaptiveParams, model M, loss L) (*AdaptiveEquation[M, L], error) {
	if err := checkAdaptive(params); err != nil {
		return nil, err
	}
	return &AdaptiveEquation[M, L]{params: params, model: model, loss: loss}, nil
}

// Run implements optimization.Algorithm. It runs exactly MaxIterations
// rounds and returns the ensemble average of the last one.
func (a *AdaptiveEquation[M, L]) Run() (optimization.Solution, error) {
	var best grid.BestCandidates
	if err := best.Init(a.params.Ensemble); err != nil {
		return optimization.Solution{}, invalid("adaptive", "%v", err)
	}

	support := a.params.ConcentrationGuess
	evals := 0

	for i := 0; i < a.params.MaxIterations; i++ {
		best.Clear()

		start, end := support/10, support*10
		for c := range grid.NewStepRange(start, end, a.params.ConcentrationSteps).All() {
			best.AddConcentration(c, a.loss.EvaluateScalar(a.model.Value(c)))
			evals++
		}

		mean, ok := best.MeanConcentration()
		if !ok {
			return optimization.Solution{}, noCandidate("adaptive")
		}
		support = nextSupport(support, mean, start, end)
	}

	v, _, ok := best.Best()
	if !ok {
		return optimization.Solution{}, noCandidate("adaptive")
	}
	c := v.Concentration

	return optimization.Solution{
		Variables: device.Variables{
			Concentration: c,
			Resistance:    a.model.Resistance(c),
			Saturation:    a.model.Saturation(c),
		},
		Error:       a.loss.EvaluateScalar(a.model.Value(c)),
		Iterations:  a.params.MaxIterations,
		Evaluations: evals + 1,
	}, nil
}

// AdaptiveSystem is AdaptiveEquation for a system model: each round sweeps
// the resistance and saturation grids for every sampled concentration.
type AdaptiveSystem[M models.SystemModel, L losses.Loss] struct {
	params AdaptiveParams
	model  M
	loss   L
}

// NewAdaptiveSystem creates the support-doubling zoom for a system model.
func NewAdaptiveSystem[M models.SystemModel, L losses.Loss](params AdaptiveParams, model M, loss L) (*AdaptiveSystem[M, L], error) {
	if err := checkAdaptive(params); err != nil {
		return nil, err
	}
	if err := checkRange("adaptive", "resistance range", params.ResistanceRange); err != nil {
		return nil, err
	}
	if err := checkRange("adaptive", "saturation range", params.SaturationRange); err != nil {
		return nil, err
	}
	return &AdaptiveSystem[M, L]{params: params, model: model, loss: loss}, nil
}

// Run implements optimization.Algorithm. It runs exactly MaxIterations
// rounds and returns the ensemble average of the last one.
func (a *AdaptiveSystem[M, L]) Run() (optimization.Solution, error) {
	var best grid.BestCandidates
	if err := best.Init(a.params.Ensemble); err != nil {
		return optimization.Solution{}, invalid("adaptive", "%v", err)
	}

	support := a.params.ConcentrationGuess
	evals := 0

	for i := 0; i < a.params.MaxIterations; i++ {
		best.Clear()

		start, end := support/10, support*10
		for c := range grid.NewStepRange(start, end, a.params.ConcentrationSteps).All() {
			for s := range a.params.SaturationRange.All() {
				for r := range a.params.ResistanceRange.All() {
					v := device.Variables{Concentration: c, Resistance: r, Saturation: s}
					best.Add(v, a.loss.Evaluate(a.model.Value(v)))
					evals++
				}
			}
		}

		mean, ok := best.MeanConcentration()
		if !ok {
			return optimization.Solution{}, noCandidate("adaptive")
		}
		support = nextSupport(support, mean, start, end)
	}

	v, e, ok := best.Best()
	if !ok {
		return optimization.Solution{}, noCandidate("adaptive")
	}

	return optimization.Solution{
		Variables:   v,
		Error:       e,
		Iterations:  a.params.MaxIterations,
		Evaluations: evals,
	}, nil
}

func checkAdaptive(p AdaptiveParams) error {
	if p.ConcentrationSteps < 1 {
		return invalid("adaptive", "concentration steps %d < 1", p.ConcentrationSteps)
	}
	if err := checkIterations("adaptive", p.MaxIterations); err != nil {
		return err
	}
	return checkEnsemble("adaptive", p.Ensemble)
}
