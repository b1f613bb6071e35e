package algorithms

import (
	"github.com/copyleftdev/bioristor/internal/device"
	"github.com/copyleftdev/bioristor/internal/optimization"
	"github.com/copyleftdev/bioristor/internal/optimization/losses"
	"github.com/copyleftdev/bioristor/internal/optimization/models"
)

// BruteForceEquation evaluates the equation formulation at every
// concentration of the range and keeps the global minimum.
type BruteForceEquation[M models.EquationModel, L losses.ScalarLoss] struct {
	params BruteForceParams
	model  M
	loss   L
}

// NewBruteForceEquation creates the exhaustive search for an equation model.
func NewBruteForceEquation[M models.EquationModel, L losses.ScalarLoss](params BruteForceParams, model M, loss L) (*BruteForceEquation[M, L], error) {
	if err := checkRange("brute_force", "concentration range", params.ConcentrationRange); err != nil {
		return nil, err
	}
	return &BruteForceEquation[M, L]{params: params, model: model, loss: loss}, nil
}

// Run implements optimization.Algorithm. On equal errors the first
// concentration found wins.
func (a *BruteForceEquation[M, L]) Run() (optimization.Solution, error) {
	var (
		bestC     float32
		bestError float32
		found     bool
		evals     int
	)

	for c := range a.params.ConcentrationRange.All() {
		err := a.loss.EvaluateScalar(a.model.Value(c))
		evals++
		if !found || less(err, bestError) {
			bestC, bestError, found = c, err, true
		}
	}

	if !found {
		return optimization.Solution{}, noCandidate("brute_force")
	}

	return optimization.Solution{
		Variables: device.Variables{
			Concentration: bestC,
			Resistance:    a.model.Resistance(bestC),
			Saturation:    a.model.Saturation(bestC),
		},
		Error:       bestError,
		Iterations:  1,
		Evaluations: evals,
	}, nil
}

// BruteForceSystem sweeps the full concentration × resistance × saturation
// grid of a system model and keeps the global minimum.
type BruteForceSystem[M models.SystemModel, L losses.Loss] struct {
	params BruteForceParams
	model  M
	loss   L
}

// NewBruteForceSystem creates the exhaustive search for a system model.
func NewBruteForceSystem[M models.SystemModel, L losses.Loss](params BruteForceParams, model M, loss L) (*BruteForceSystem[M, L], error) {
	if err := checkRange("brute_force", "concentration range", params.ConcentrationRange); err != nil {
		return nil, err
	}
	if err := checkRange("brute_force", "resistance range", params.ResistanceRange); err != nil {
		return nil, err
	}
	if err := checkRange("brute_force", "saturation range", params.SaturationRange); err != nil {
		return nil, err
	}
	return &BruteForceSystem[M, L]{params: params, model: model, loss: loss}, nil
}

// Run implements optimization.Algorithm. The sweep order is concentration,
// then resistance, then saturation; on equal errors the first point found
// wins.
func (a *BruteForceSystem[M, L]) Run() (optimization.Solution, error) {
	var (
		best      device.Variables
		bestError float32
		found     bool
		evals     int
	)

	for c := range a.params.ConcentrationRange.All() {
		for r := range a.params.ResistanceRange.All() {
			for s := range a.params.SaturationRange.All() {
				v := device.Variables{Concentration: c, Resistance: r, Saturation: s}
				err := a.loss.Evaluate(a.model.Value(v))
				evals++
				if !found || less(err, bestError) {
					best, bestError, found = v, err, true
				}
			}
		}
	}

	if !found {
		return optimization.Solution{}, noCandidate("brute_force")
	}

	return optimization.Solution{
		Variables:   best,
		Error:       bestError,
		Iterations:  1,
		Evaluations: evals,
	}, nil
}
