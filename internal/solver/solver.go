// Package solver runs the Bioristor algorithms from a named profile. It
// validates the profile, builds the model and the algorithm for the chosen
// loss, times the run and reports it to the logs and metrics.
package solver

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/copyleftdev/bioristor/internal/device"
	"github.com/copyleftdev/bioristor/internal/logging"
	"github.com/copyleftdev/bioristor/internal/metrics"
	"github.com/copyleftdev/bioristor/internal/optimization"
)

// Report is the outcome of a Solve call.
type Report struct {
	Solution    optimization.Solution `json:"solution" yaml:"solution"`
	Elapsed     time.Duration         `json:"elapsed_ns" yaml:"elapsed"`
	Algorithm   string                `json:"algorithm" yaml:"algorithm"`
	Formulation string                `json:"formulation" yaml:"formulation"`
	Loss        string                `json:"loss" yaml:"loss"`
	// Condition is the 2-norm condition number of the system Jacobian at
	// the solution. It is zero for the equation formulation and when the
	// Jacobian is singular.
	Condition float64 `json:"condition,omitempty" yaml:"condition,omitempty"`
	// Determinant of the system Jacobian at the solution.
	Determinant float64 `json:"determinant,omitempty" yaml:"determinant,omitempty"`
	// Residuals holds measured minus predicted for each governing equation
	// at the solution. Only set for the system formulation.
	Residuals []float32 `json:"residuals,omitempty" yaml:"residuals,omitempty"`
}

// Solver runs profiles. It is safe for concurrent use; every call builds
// its own model and algorithm.
type Solver struct {
	logger    *logging.Logger
	metrics   *metrics.Metrics
	validator *Validator
}

// New creates a Solver. A nil metrics records nothing.
func New(logger *logging.Logger, m *metrics.Metrics) *Solver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Solver{
		logger:    logger.WithField("component", "solver"),
		metrics:   m,
		validator: NewValidator(),
	}
}

// Validate checks a profile without running it.
func (s *Solver) Validate(p Profile) error {
	if err := s.validator.Validate(p); err != nil {
		return err
	}
	_, _, err := build(p, device.Currents{})
	return err
}

// Solve estimates the variables for the measured currents. The context is
// only checked before the run starts; a run is bounded by its iteration
// limits. On optimization.ErrDiverged the report still holds the last
// estimate.
func (s *Solver) Solve(ctx context.Context, p Profile, currents device.Currents) (Report, error) {
	report := Report{
		Algorithm:   p.Algorithm,
		Formulation: p.Formulation,
		Loss:        p.Loss,
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}
	if err := s.validator.Validate(p); err != nil {
		return report, err
	}

	alg, sys, err := build(p, currents)
	if err != nil {
		return report, err
	}

	start := time.Now()
	sol, err := alg.Run()
	report.Elapsed = time.Since(start)
	report.Solution = sol

	logger := s.logger.WithFields(map[string]interface{}{
		"algorithm":   p.Algorithm,
		"formulation": p.Formulation,
		"loss":        p.Loss,
		"elapsed":     report.Elapsed.String(),
	})

	status := metrics.StatusOK
	switch {
	case errors.Is(err, optimization.ErrDiverged):
		status = metrics.StatusDiverged
	case err != nil:
		status = metrics.StatusError
	}
	s.metrics.ObserveRun(p.Algorithm, p.Formulation, status, report.Elapsed, sol.Iterations, sol.Error)

	if err != nil {
		logger.WithError(err).Warn("Solve failed", map[string]interface{}{
			"iterations": sol.Iterations,
		})
		return report, err
	}

	if sys != nil {
		j := sys.Jacobian(sol.Variables)
		if det := j.Determinant(); finite(det) {
			report.Determinant = det
		}
		if cond := j.Condition(); finite(cond) {
			report.Condition = cond
		} else {
			logger.Warn("Singular Jacobian at solution")
		}

		d := sys.Value(sol.Variables).Differences()
		if finite(float64(d[0])) && finite(float64(d[1])) && finite(float64(d[2])) {
			report.Residuals = d[:]
		}
	}

	logger.Info("Solved", map[string]interface{}{
		"concentration": sol.Variables.Concentration,
		"resistance":    sol.Variables.Resistance,
		"saturation":    sol.Variables.Saturation,
		"loss_value":    sol.Error,
		"iterations":    sol.Iterations,
		"evaluations":   sol.Evaluations,
	})

	return report, nil
}

func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
