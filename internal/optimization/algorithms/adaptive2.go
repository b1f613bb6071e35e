package algorithms

import (
	"math"

	"github.com/copyleftdev/bioristor/internal/device"
	"github.com/copyleftdev/bioristor/internal/optimization"
	"github.com/copyleftdev/bioristor/internal/optimization/grid"
	"github.com/copyleftdev/bioristor/internal/optimization/losses"
	"github.com/copyleftdev/bioristor/internal/optimization/models"
)

// window tracks the concentration interval swept by the shrinking-window
// zoom.
type window struct {
	current   grid.StepRange
	semiWidth float32
	min, max  float32
}

func newWindow(r grid.StepRange) window {
	return window{
		current:   r,
		semiWidth: (r.End - r.Start) * 0.5,
		min:       r.Start,
		max:       r.End,
	}
}

// shrink narrows the window by factor and recenters it on mean, clamped to
// the initial bounds.
func (w *window) shrink(mean, factor float32) {
	w.semiWidth *= factor
	w.current = grid.NewStepRange(
		max(mean-w.semiWidth, w.min),
		min(mean+w.semiWidth, w.max),
		w.current.Steps,
	)
}

// Adaptive2Equation sweeps a concentration window, recenters it on the mean
// of the best candidates and shrinks it by a constant factor until the error
// at the mean reaches the tolerance.
type Adaptive2Equation[M models.EquationModel, L losses.ScalarLoss] struct {
	params Adaptive2Params
	model  M
	loss   L
}

// NewAdaptive2Equation creates the shrinking-window zoom for an equation
// model.
func NewAdaptive2Equation[M models.EquationModel, L losses.ScalarLoss](params Adaptive2Params, model M, loss L) (*Adaptive2Equation[M, L], error) {
	if err := checkAdaptive2(params); err != nil {
		return nil, err
	}
	return &Adaptive2Equation[M, L]{params: params, model: model, loss: loss}, nil
}

// Run implements optimization.Algorithm.
func (a *Adaptive2Equation[M, L]) Run() (optimization.Solution, error) {
	var best grid.BestCandidates
	if err := best.Init(a.params.Ensemble); err != nil {
		return optimization.Solution{}, invalid("adaptive2", "%v", err)
	}

	w := newWindow(a.params.ConcentrationRange)
	errAtMean := float32(math.Inf(1))
	iterations, evals := 0, 0

	for iterations < a.params.MaxIterations && errAtMean > a.params.Tolerance {
		best.Clear()

		for c := range w.current.All() {
			best.AddConcentration(c, a.loss.EvaluateScalar(a.model.Value(c)))
			evals++
		}

		mean, ok := best.MeanConcentration()
		if !ok {
			return optimization.Solution{}, noCandidate("adaptive2")
		}
		errAtMean = a.loss.EvaluateScalar(a.model.Value(mean))
		evals++

		w.shrink(mean, a.params.ReductionFactor)
		iterations++
	}

	v, _, ok := best.Best()
	if !ok {
		return optimization.Solution{}, noCandidate("adaptive2")
	}
	c := v.Concentration

	return optimization.Solution{
		Variables: device.Variables{
			Concentration: c,
			Resistance:    a.model.Resistance(c),
			Saturation:    a.model.Saturation(c),
		},
		Error:       a.loss.EvaluateScalar(a.model.Value(c)),
		Iterations:  iterations,
		Evaluations: evals + 1,
	}, nil
}

// Adaptive2System is Adaptive2Equation for a system model. The window only
// moves along the concentration; resistance and saturation are swept over
// their full ranges every round.
type Adaptive2System[M models.SystemModel, L losses.Loss] struct {
	params Adaptive2Params
	model  M
	loss   L
}

// NewAdaptive2System creates the shrinking-window zoom for a system model.
func NewAdaptive2System[M models.SystemModel, L losses.Loss](params Adaptive2Params, model M, loss L) (*Adaptive2System[M, L], error) {
	if err := checkAdaptive2(params); err != nil {
		return nil, err
	}
	if err := checkRange("adaptive2", "resistance range", params.ResistanceRange); err != nil {
		return nil, err
	}
	if err := checkRange("adaptive2", "saturation range", params.SaturationRange); err != nil {
		return nil, err
	}
	return &Adaptive2System[M, L]{params: params, model: model, loss: loss}, nil
}

// Run implements optimization.Algorithm.
func (a *Adaptive2System[M, L]) Run() (optimization.Solution, error) {
	var best grid.BestCandidates
	if err := best.Init(a.params.Ensemble); err != nil {
		return optimization.Solution{}, invalid("adaptive2", "%v", err)
	}

	w := newWindow(a.params.ConcentrationRange)
	errAtMean := float32(math.Inf(1))
	iterations, evals := 0, 0

	for iterations < a.params.MaxIterations && errAtMean > a.params.Tolerance {
		best.Clear()

		for c := range w.current.All() {
			for r := range a.params.ResistanceRange.All() {
				for s := range a.params.SaturationRange.All() {
					v := device.Variables{Concentration: c, Resistance: r, Saturation: s}
					best.Add(v, a.loss.Evaluate(a.model.Value(v)))
					evals++
				}
			}
		}

		mean, _, ok := best.Best()
		if !ok {
			return optimization.Solution{}, noCandidate("adaptive2")
		}
		errAtMean = a.loss.Evaluate(a.model.Value(mean))
		evals++

		w.shrink(mean.Concentration, a.params.ReductionFactor)
		iterations++
	}

	v, _, ok := best.Best()
	if !ok {
		return optimization.Solution{}, noCandidate("adaptive2")
	}

	return optimization.Solution{
		Variables:   v,
		Error:       errAtMean,
		Iterations:  iterations,
		Evaluations: evals,
	}, nil
}

func checkAdaptive2(p Adaptive2Params) error {
	if err := checkRange("adaptive2", "concentration range", p.ConcentrationRange); err != nil {
		return err
	}
	if err := checkIterations("adaptive2", p.MaxIterations); err != nil {
		return err
	}
	if !(p.ReductionFactor > 0 && p.ReductionFactor < 1) {
		return invalid("adaptive2", "reduction factor %v not in (0, 1)", p.ReductionFactor)
	}
	if err := checkTolerance("adaptive2", "tolerance", p.Tolerance); err != nil {
		return err
	}
	return checkEnsemble("adaptive2", p.Ensemble)
}
