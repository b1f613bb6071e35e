package solver

import (
	"context"
	"math"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/copyleftdev/bioristor/internal/logging"
	"github.com/copyleftdev/bioristor/internal/metrics"
	"github.com/copyleftdev/bioristor/internal/optimization"
	"github.com/copyleftdev/bioristor/internal/optimization/algorithms"
	"github.com/copyleftdev/bioristor/internal/optimization/grid"
	"github.com/copyleftdev/bioristor/internal/optimization/models"
)

// rootConcentration is where the reference device's equation crosses zero.
const rootConcentration = 0.0052

func testSolver(t *testing.T) (*Solver, *metrics.Metrics, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	m := metrics.New(prometheus.NewRegistry())
	return New(logging.NewWithCore(core), m), m, logs
}

func TestSolveDefaultProfile(t *testing.T) {
	s, m, logs := testSolver(t)

	report, err := s.Solve(context.Background(), DefaultProfile(), DefaultCurrents())
	require.NoError(t, err)

	assert.Equal(t, AlgorithmAdaptive2, report.Algorithm)
	assert.Equal(t, FormulationEquation, report.Formulation)
	assert.Equal(t, LossAbsolute, report.Loss)
	assert.Zero(t, report.Condition)

	v := report.Solution.Variables
	assert.InDelta(t, rootConcentration, v.Concentration, 5e-4)
	assert.InDelta(t, 9.04, v.Resistance, 0.5)
	assert.InDelta(t, 0.745, v.Saturation, 0.05)
	assert.LessOrEqual(t, report.Solution.Iterations, 10)
	assert.True(t, report.Elapsed > 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Solves.WithLabelValues(AlgorithmAdaptive2, FormulationEquation, metrics.StatusOK)))

	solved := logs.FilterMessage("Solved").All()
	require.Len(t, solved, 1)
	assert.Equal(t, AlgorithmAdaptive2, solved[0].ContextMap()["algorithm"])
}

func TestSolveEquationAlgorithms(t *testing.T) {
	tests := []struct {
		algorithm string
		loss      string
	}{
		{AlgorithmBruteForce, LossAbsolute},
		{AlgorithmBruteForce, LossSquared},
		{AlgorithmAdaptive, LossAbsolute},
		{AlgorithmAdaptive2, LossSquared},
	}

	for _, tt := range tests {
		t.Run(tt.algorithm+"/"+tt.loss, func(t *testing.T) {
			s, _, _ := testSolver(t)
			p := DefaultProfile()
			p.Algorithm = tt.algorithm
			p.Loss = tt.loss

			report, err := s.Solve(context.Background(), p, DefaultCurrents())
			require.NoError(t, err)
			assert.InDelta(t, rootConcentration, report.Solution.Variables.Concentration, 1e-3)
		})
	}
}

func TestSolveSystem(t *testing.T) {
	s, _, _ := testSolver(t)

	p := DefaultProfile()
	p.Formulation = FormulationSystem
	p.Algorithm = AlgorithmBruteForce
	p.Loss = LossSumRelative
	p.BruteForce.ConcentrationRange = grid.NewStepRange(1e-3, 1e-2, 10)
	p.BruteForce.ResistanceRange = grid.NewStepRange(5, 15, 10)
	p.BruteForce.SaturationRange = grid.NewStepRange(0.5, 1, 10)

	report, err := s.Solve(context.Background(), p, DefaultCurrents())
	require.NoError(t, err)

	assert.Equal(t, FormulationSystem, report.Formulation)
	assert.Equal(t, 1000, report.Solution.Evaluations)
	assert.False(t, math.IsNaN(float64(report.Solution.Error)))
	assert.GreaterOrEqual(t, report.Condition, 0.0)

	sys := models.NewSystem(p.Model, DefaultCurrents())
	assert.Equal(t, sys.Jacobian(report.Solution.Variables).Determinant(), report.Determinant)
	want := sys.Value(report.Solution.Variables).Differences()
	assert.Equal(t, want[:], report.Residuals)
}

func TestSolveEquationOmitsSystemDiagnostics(t *testing.T) {
	s, _, _ := testSolver(t)

	report, err := s.Solve(context.Background(), DefaultProfile(), DefaultCurrents())
	require.NoError(t, err)

	assert.Zero(t, report.Condition)
	assert.Zero(t, report.Determinant)
	assert.Nil(t, report.Residuals)
}

func TestSolveUnsupported(t *testing.T) {
	tests := []struct {
		name        string
		formulation string
		algorithm   string
		loss        string
	}{
		{"unknown algorithm", FormulationEquation, "simplex", LossAbsolute},
		{"unknown formulation", "matrix", AlgorithmNewton, LossAbsolute},
		{"unknown loss", FormulationEquation, AlgorithmNewton, "huber"},
		{"relative loss on equation", FormulationEquation, AlgorithmBruteForce, LossSumRelative},
		{"scalar loss on system", FormulationSystem, AlgorithmBruteForce, LossAbsolute},
		{"newton on system", FormulationSystem, AlgorithmNewton, LossMaxRelative},
		{"gradient descent on system", FormulationSystem, AlgorithmGradientDescent, LossSumRelative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _ := testSolver(t)
			p := DefaultProfile()
			p.Formulation, p.Algorithm, p.Loss = tt.formulation, tt.algorithm, tt.loss

			_, err := s.Solve(context.Background(), p, DefaultCurrents())
			require.Error(t, err)
			assert.ErrorIs(t, err, optimization.ErrUnsupported)
			assert.ErrorIs(t, s.Validate(p), optimization.ErrUnsupported)
		})
	}
}

func TestSolveInvalidParams(t *testing.T) {
	s, m, _ := testSolver(t)

	p := DefaultProfile()
	p.Adaptive2.ReductionFactor = 1.5

	_, err := s.Solve(context.Background(), p, DefaultCurrents())
	require.Error(t, err)
	assert.ErrorIs(t, err, optimization.ErrInvalidParams)

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "ReductionFactor", verrs[0].Field())

	// Rejected before running.
	assert.Equal(t, 0, testutil.CollectAndCount(m.Solves))
}

func TestSolveIgnoresUnselectedSections(t *testing.T) {
	s, _, _ := testSolver(t)

	p := DefaultProfile()
	p.Newton = algorithms.NewtonParams{}
	p.Algorithm = AlgorithmBruteForce

	assert.NoError(t, s.Validate(p))
}

func TestSolveMissingNames(t *testing.T) {
	s, _, _ := testSolver(t)

	_, err := s.Solve(context.Background(), Profile{}, DefaultCurrents())
	require.Error(t, err)
	assert.ErrorIs(t, err, optimization.ErrInvalidParams)
}

func TestSolveCanceledContext(t *testing.T) {
	s, _, _ := testSolver(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Solve(ctx, DefaultProfile(), DefaultCurrents())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSolveDiverged(t *testing.T) {
	s, m, logs := testSolver(t)

	p := DefaultProfile()
	p.Algorithm = AlgorithmGradientDescent
	// The first step overshoots to a negative concentration, where the
	// logarithm of the modulation is undefined.
	p.GradientDescent.LearningRateInit = 1e12
	p.GradientDescent.Tolerance = 0
	p.GradientDescent.GradTolerance = 0

	report, err := s.Solve(context.Background(), p, DefaultCurrents())
	require.Error(t, err)
	assert.ErrorIs(t, err, optimization.ErrDiverged)
	assert.Equal(t, 1, report.Solution.Iterations)
	assert.Less(t, report.Solution.Variables.Concentration, float32(0))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Solves.WithLabelValues(AlgorithmGradientDescent, FormulationEquation, metrics.StatusDiverged)))
	assert.Equal(t, 1, logs.FilterMessage("Solve failed").Len())
}

func TestAlgorithms(t *testing.T) {
	s, _, _ := testSolver(t)

	combos := Algorithms()
	require.Len(t, combos, 8)

	for _, c := range combos {
		for _, loss := range c.Losses {
			p := DefaultProfile()
			p.Algorithm, p.Formulation, p.Loss = c.Algorithm, c.Formulation, loss

			assert.NoError(t, s.Validate(p), "%s/%s/%s", c.Algorithm, c.Formulation, loss)
			_, _, err := build(p, DefaultCurrents())
			assert.NoError(t, err, "%s/%s/%s", c.Algorithm, c.Formulation, loss)
		}
	}
}

func TestAlgorithmsCoverEverySupportedCombination(t *testing.T) {
	s, _, _ := testSolver(t)

	advertised := make(map[string]bool)
	for _, c := range Algorithms() {
		for _, loss := range c.Losses {
			advertised[c.Algorithm+"/"+c.Formulation+"/"+loss] = true
		}
	}

	all := []string{AlgorithmBruteForce, AlgorithmAdaptive, AlgorithmAdaptive2, AlgorithmGradientDescent, AlgorithmNewton}
	formulations := []string{FormulationEquation, FormulationSystem}
	lossNames := []string{LossAbsolute, LossSquared, LossMaxRelative, LossMeanRelative, LossSumRelative}

	for _, a := range all {
		for _, f := range formulations {
			for _, l := range lossNames {
				p := DefaultProfile()
				p.Algorithm, p.Formulation, p.Loss = a, f, l

				key := a + "/" + f + "/" + l
				assert.Equal(t, advertised[key], s.Validate(p) == nil, key)
			}
		}
	}
}
