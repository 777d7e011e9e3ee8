// Package metrics provides Prometheus metrics for the ranking pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ContentRanker/internal/domain"
)

const namespace = "contentranker"

// Recorder owns the pipeline collectors. A nil *Recorder is a no-op.
type Recorder struct {
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	stageItems      *prometheus.HistogramVec
	filteredTotal   *prometheus.CounterVec
	dependencyError *prometheus.CounterVec
	emittedTotal    prometheus.Counter
	runDuration     prometheus.Histogram
}

// New registers all collectors on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of pipeline runs by status",
			},
			[]string{"status"},
		),
		stageItems: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_items",
				Help:      "Items surviving each pipeline stage",
				Buckets:   []float64{0, 1, 5, 10, 20, 50, 100, 250, 500, 1000},
			},
			[]string{"stage"},
		),
		filteredTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "filtered_total",
				Help:      "Runs in which a filter label was observed",
			},
			[]string{"label"},
		),
		dependencyError: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dependency_errors_total",
				Help:      "Ignored collaborator failures by dependency and operation",
			},
			[]string{"dependency", "operation"},
		),
		emittedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "emitted_items_total",
				Help:      "Items handed to the processor queue",
			},
		),
		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of pipeline runs in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}

// RecordRun observes the outcome of one ProcessItems call.
func (r *Recorder) RecordRun(status domain.RunStatus, stats domain.Stats, seconds float64) {
	if r == nil {
		return
	}
	r.runsTotal.WithLabelValues(string(status)).Inc()
	r.runDuration.Observe(seconds)

	r.stageItems.WithLabelValues("input").Observe(float64(stats.Input))
	r.stageItems.WithLabelValues("valid").Observe(float64(stats.Valid))
	r.stageItems.WithLabelValues("deduplicated").Observe(float64(stats.Deduplicated))
	r.stageItems.WithLabelValues("scored").Observe(float64(stats.Scored))
	r.stageItems.WithLabelValues("ranked").Observe(float64(stats.Ranked))

	for _, label := range stats.FilteredBy {
		r.filteredTotal.WithLabelValues(label).Inc()
	}
}

// RecordDependencyError counts a fail-open collaborator failure.
func (r *Recorder) RecordDependencyError(dependency, operation string) {
	if r == nil {
		return
	}
	r.dependencyError.WithLabelValues(dependency, operation).Inc()
}

// RecordEmitted counts items sent to the queue.
func (r *Recorder) RecordEmitted(n int) {
	if r == nil {
		return
	}
	r.emittedTotal.Add(float64(n))
}

// Registry exposes the underlying registry for tests and custom exporters.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
