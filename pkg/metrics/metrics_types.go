package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics exported by the benchmark driver.
type Registry struct {
	// Update metrics
	UpdatesTotal       *prometheus.CounterVec
	UpdateRetriesTotal prometheus.Counter
	UpdateLatency      prometheus.Histogram
	UpdateThroughput   prometheus.Gauge

	// Driver metrics
	BuildInvocationsTotal prometheus.Counter
	WorkerQueueOps        *prometheus.GaugeVec
	PhaseDuration         *prometheus.HistogramVec
	RunsTotal             *prometheus.CounterVec

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// Default returns the process-wide metrics registry.
func Default() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// PrometheusRegistry exposes the underlying registry for an HTTP handler.
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.registry
}
