// Package metrics exposes Prometheus collectors for solver runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bioristor"

// Status label values.
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusDiverged = "diverged"
)

// Metrics holds the solver collectors. A nil *Metrics records nothing.
type Metrics struct {
	Solves     *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
	Iterations *prometheus.HistogramVec
	LastError  *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "runs_total",
			Help:      "Solver runs by algorithm, formulation and outcome.",
		}, []string{"algorithm", "formulation", "status"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a single solver run.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
		}, []string{"algorithm", "formulation"}),
		Iterations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "iterations",
			Help:      "Refinement rounds executed per run.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"algorithm", "formulation"}),
		LastError: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "last_loss",
			Help:      "Loss of the most recent successful run.",
		}, []string{"algorithm", "formulation"}),
	}

	if reg != nil {
		reg.MustRegister(m.Solves, m.Duration, m.Iterations, m.LastError)
	}
	return m
}

// ObserveRun records one run. iterations and loss are only recorded for
// successful runs.
func (m *Metrics) ObserveRun(algorithm, formulation, status string, elapsed time.Duration, iterations int, loss float32) {
	if m == nil {
		return
	}
	m.Solves.WithLabelValues(algorithm, formulation, status).Inc()
	m.Duration.WithLabelValues(algorithm, formulation).Observe(elapsed.Seconds())
	if status == StatusOK {
		m.Iterations.WithLabelValues(algorithm, formulation).Observe(float64(iterations))
		m.LastError.WithLabelValues(algorithm, formulation).Set(float64(loss))
	}
}
