// Package metrics exports engine counters in the Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "engine"

// Metrics holds the engine collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ShotsTotal         *prometheus.CounterVec
	BatchTasksTotal    *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
}

// New registers the engine collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		ShotsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "shots_total",
				Help:      "Shots processed by terminal state",
			},
			[]string{"state"},
		),
		BatchTasksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batch_tasks_total",
				Help:      "Batch tasks processed by outcome",
			},
			[]string{"outcome"},
		),
		GenerationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_duration_seconds",
				Help:      "Duration of provider generation calls",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"kind", "provider"},
		),
	}
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ShotFinished counts a shot reaching state.
func (m *Metrics) ShotFinished(state string) {
	if m == nil {
		return
	}
	m.ShotsTotal.WithLabelValues(state).Inc()
}

// BatchTask counts a batch task outcome (success, failed, dry_run).
func (m *Metrics) BatchTask(outcome string) {
	if m == nil {
		return
	}
	m.BatchTasksTotal.WithLabelValues(outcome).Inc()
}

// ObserveGeneration records how long a provider call took.
func (m *Metrics) ObserveGeneration(kind, provider string, started time.Time) {
	if m == nil {
		return
	}
	m.GenerationDuration.WithLabelValues(kind, provider).Observe(time.Since(started).Seconds())
}
