// Package metrics exports Prometheus collectors for the benchmark driver:
// update throughput, per-operation latency, build invocations and phase
// durations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NewRegistry creates a registry with all driver collectors registered.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.initUpdateMetrics()
	r.initDriverMetrics()
	return r
}

func (r *Registry) initUpdateMetrics() {
	r.UpdatesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphbench_updates_total",
			Help: "Total number of update operations applied to the library",
		},
		[]string{"operation"},
	)

	r.UpdateRetriesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "graphbench_update_retries_total",
			Help: "Total number of add_edge retries due to in-flight vertex insertions",
		},
	)

	r.UpdateLatency = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graphbench_update_latency_seconds",
			Help:    "Per-operation update latency",
			Buckets: []float64{1e-7, 1e-6, 1e-5, 1e-4, 1e-3, 1e-2, 0.1, 1},
		},
	)

	r.UpdateThroughput = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphbench_update_throughput_ops",
			Help: "Most recently reported update throughput in operations per second",
		},
	)
}

func (r *Registry) initDriverMetrics() {
	r.BuildInvocationsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "graphbench_build_invocations_total",
			Help: "Total number of snapshot/delta build invocations",
		},
	)

	r.WorkerQueueOps = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "graphbench_worker_queue_ops",
			Help: "Operations queued per worker after the load phase",
		},
		[]string{"worker"},
	)

	r.PhaseDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graphbench_phase_duration_seconds",
			Help:    "Driver phase duration",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 12),
		},
		[]string{"phase"},
	)

	r.RunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphbench_runs_total",
			Help: "Completed benchmark runs by outcome",
		},
		[]string{"outcome"},
	)
}

// RecordUpdates adds n applied operations of the given kind.
func (r *Registry) RecordUpdates(operation string, n int) {
	r.UpdatesTotal.WithLabelValues(operation).Add(float64(n))
}

// RecordPhase records the duration of a driver phase.
func (r *Registry) RecordPhase(phase string, duration time.Duration) {
	r.PhaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// RecordRun records a completed run with the given outcome
// ("match", "mismatch" or "error").
func (r *Registry) RecordRun(outcome string) {
	r.RunsTotal.WithLabelValues(outcome).Inc()
}
