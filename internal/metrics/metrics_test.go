package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRun(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	m := New(reg)

	m.ObserveRun("newton", "equation", StatusOK, 2*time.Millisecond, 5, 0.25)
	m.ObserveRun("newton", "equation", StatusDiverged, time.Millisecond, 20, 0)
	m.ObserveRun("brute_force", "system", StatusOK, time.Second, 1, 0.5)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Solves.WithLabelValues("newton", "equation", StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Solves.WithLabelValues("newton", "equation", StatusDiverged)))
	assert.Equal(t, 0.25, testutil.ToFloat64(m.LastError.WithLabelValues("newton", "equation")))
	assert.Equal(t, 0.5, testutil.ToFloat64(m.LastError.WithLabelValues("brute_force", "system")))

	n, err := testutil.GatherAndCount(reg, "bioristor_solver_run_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = testutil.GatherAndCount(reg, "bioristor_solver_iterations")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRun("adaptive", "equation", StatusOK, time.Millisecond, 1, 0)
	})
}

func TestUnregistered(t *testing.T) {
	m := New(nil)
	m.ObserveRun("adaptive", "equation", StatusError, time.Millisecond, 0, 0)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Solves.WithLabelValues("adaptive", "equation", StatusError)))
}
