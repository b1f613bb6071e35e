// Package algorithms implements the Bioristor solvers. Each solver is
// generic over the model formulation and the loss, so the metric is fixed
// at compile time and the hot loops make no interface calls on the loss.
package algorithms

import (
	"fmt"
	"math"

	"github.com/copyleftdev/bioristor/internal/optimization"
	"github.com/copyleftdev/bioristor/internal/optimization/grid"
)

// BruteForceParams are the hyperparameters of the exhaustive search.
// Resistance and saturation ranges are only swept by the system
// formulation.
type BruteForceParams struct {
	ConcentrationRange grid.StepRange `json:"concentration_range" yaml:"concentration_range"`
	ResistanceRange    grid.StepRange `json:"resistance_range" yaml:"resistance_range"`
	SaturationRange    grid.StepRange `json:"saturation_range" yaml:"saturation_range"`
}

// AdaptiveParams are the hyperparameters of the support-doubling zoom.
type AdaptiveParams struct {
	// ConcentrationGuess is the initial support; each round samples
	// [support/10, support*10).
	ConcentrationGuess float32 `json:"concentration_guess" yaml:"concentration_guess"`
	// ConcentrationSteps is the number of concentration samples per round.
	ConcentrationSteps int `json:"concentration_steps" yaml:"concentration_steps" validate:"gte=1"`
	// MaxIterations is the exact number of rounds.
	MaxIterations   int            `json:"max_iterations" yaml:"max_iterations" validate:"gte=1"`
	ResistanceRange grid.StepRange `json:"resistance_range" yaml:"resistance_range"`
	SaturationRange grid.StepRange `json:"saturation_range" yaml:"saturation_range"`
	// Ensemble is the number of best candidates averaged per round.
	Ensemble int `json:"ensemble" yaml:"ensemble" validate:"gte=1,lte=64"`
}

// Adaptive2Params are the hyperparameters of the shrinking-window zoom.
type Adaptive2Params struct {
	// ConcentrationRange is the first window and the global bounds every
	// later window is clamped to.
	ConcentrationRange grid.StepRange `json:"concentration_range" yaml:"concentration_range"`
	MaxIterations      int            `json:"max_iterations" yaml:"max_iterations" validate:"gte=1"`
	// ReductionFactor scales the window half-width after each round.
	ReductionFactor float32        `json:"reduction_factor" yaml:"reduction_factor" validate:"gt=0,lt=1"`
	ResistanceRange grid.StepRange `json:"resistance_range" yaml:"resistance_range"`
	SaturationRange grid.StepRange `json:"saturation_range" yaml:"saturation_range"`
	// Tolerance stops the refinement once the error at the ensemble mean
	// is at or below it.
	Tolerance float32 `json:"tolerance" yaml:"tolerance" validate:"gte=0"`
	Ensemble  int     `json:"ensemble" yaml:"ensemble" validate:"gte=1,lte=64"`
}

// GradientDescentParams are the hyperparameters of the gradient descent.
type GradientDescentParams struct {
	ConcentrationInit float32 `json:"concentration_init" yaml:"concentration_init"`
	GradTolerance     float32 `json:"grad_tolerance" yaml:"grad_tolerance" validate:"gte=0"`
	// LearningRateInit is used for the first step only; later steps use the
	// Barzilai-Borwein estimate.
	LearningRateInit float32 `json:"learning_rate_init" yaml:"learning_rate_init" validate:"gt=0"`
	MaxIterations    int     `json:"max_iterations" yaml:"max_iterations" validate:"gte=1"`
	Tolerance        float32 `json:"tolerance" yaml:"tolerance" validate:"gte=0"`
}

// NewtonParams are the hyperparameters of the Newton-Raphson iteration.
type NewtonParams struct {
	ConcentrationInit float32 `json:"concentration_init" yaml:"concentration_init"`
	GradTolerance     float32 `json:"grad_tolerance" yaml:"grad_tolerance" validate:"gte=0"`
	MaxIterations     int     `json:"max_iterations" yaml:"max_iterations" validate:"gte=1"`
	Tolerance         float32 `json:"tolerance" yaml:"tolerance" validate:"gte=0"`
}

// invalid builds the error returned by constructors on bad hyperparameters.
func invalid(component, format string, args ...interface{}) error {
	return optimization.WrapErrorf(optimization.ErrInvalidParams, format, args...).
		WithComponent(component).
		WithOperation("new")
}

func checkRange(component, name string, r grid.StepRange) error {
	if err := r.Validate(); err != nil {
		return invalid(component, "%s %s: %v", name, r, err)
	}
	return nil
}

func checkEnsemble(component string, n int) error {
	if n < 1 || n > grid.MaxCandidates {
		return invalid(component, "ensemble %d not in [1, %d]", n, grid.MaxCandidates)
	}
	return nil
}

func checkIterations(component string, n int) error {
	if n < 1 {
		return invalid(component, "max iterations %d < 1", n)
	}
	return nil
}

func checkTolerance(component, name string, v float32) error {
	if v < 0 || math.IsNaN(float64(v)) {
		return invalid(component, "%s %v < 0", name, v)
	}
	return nil
}

// diverged reports a non-finite estimate.
func diverged(component string, c float32, iterations int) error {
	return optimization.WrapError(optimization.ErrDiverged,
		fmt.Sprintf("concentration %v after %d iterations", c, iterations)).
		WithComponent(component).
		WithOperation("run")
}

// noCandidate reports an empty search space.
func noCandidate(component string) error {
	return (&optimization.Error{Err: optimization.ErrNoCandidate}).
		WithComponent(component).
		WithOperation("run")
}

func isFinite(v float32) bool {
	return !math.IsInf(float64(v), 0) && !math.IsNaN(float64(v))
}

func abs(v float32) float32 {
	return float32(math.Abs(float64(v)))
}

// less orders errors ascending with NaN last, so a NaN seen first never
// shadows a later comparable error.
func less(a, b float32) bool {
	if math.IsNaN(float64(b)) {
		return !math.IsNaN(float64(a))
	}
	return a < b
}
