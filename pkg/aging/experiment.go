// Package aging implements the update-driver benchmark: replay a recorded
// insert/delete log against a pluggable graph library from a pool of
// writer threads, interleave background snapshot builds, and measure
// throughput, latency and final-graph correctness.
package aging

import (
	"fmt"
	"time"

	"graphbench/pkg/library"
	"graphbench/pkg/logging"
	"graphbench/pkg/metrics"
)

// Defaults for the driver knobs.
const (
	DefaultWorkerGranularity = 1024
	DefaultMaxEdgeRetries    = 1 << 20
)

// Experiment configures and runs an aging benchmark. Configure it through
// the setters, then call Execute. Not safe for concurrent use; a fresh
// library instance is expected per run.
type Experiment struct {
	library     library.Update
	libraryName string
	logPath     string

	numThreads        int
	workerGranularity int
	maxWeight         float64
	buildFrequency    time.Duration
	reportProgress    bool
	numReportsPerOps  uint64
	measureLatency    bool
	maxEdgeRetries    int

	logger  logging.Logger
	metrics *metrics.Registry
	stop    <-chan struct{}
}

// NewExperiment returns an experiment with the default knobs.
func NewExperiment() *Experiment {
	return &Experiment{
		numThreads:        1,
		workerGranularity: DefaultWorkerGranularity,
		maxWeight:         1.0,
		numReportsPerOps:  1,
		maxEdgeRetries:    DefaultMaxEdgeRetries,
		logger:            logging.DefaultLogger(),
	}
}

// SetLibrary sets the library to evaluate. Required.
func (e *Experiment) SetLibrary(name string, lib library.Update) {
	e.libraryName = name
	e.library = lib
}

// SetLogPath sets the path to the update log. Required.
func (e *Experiment) SetLogPath(path string) {
	e.logPath = path
}

// SetParallelismDegree sets the number of writer threads.
func (e *Experiment) SetParallelismDegree(numThreads int) {
	e.numThreads = numThreads
}

// SetWorkerGranularity sets how many contiguous operations a worker
// performs between progress polls.
func (e *Experiment) SetWorkerGranularity(granularity int) {
	e.workerGranularity = granularity
}

// SetMaxWeight records the weight cap the log was generated with. Not used
// at run time.
func (e *Experiment) SetMaxWeight(maxWeight float64) {
	e.maxWeight = maxWeight
}

// SetBuildFrequency sets the cadence of the background build service.
// Zero disables it.
func (e *Experiment) SetBuildFrequency(frequency time.Duration) {
	e.buildFrequency = frequency
}

// SetReportProgress enables progress lines on stdout.
func (e *Experiment) SetReportProgress(report bool) {
	e.reportProgress = report
}

// SetNumReportsPerOps sets the progress granularity: N reports every
// num_edges operations. Minimum 1.
func (e *Experiment) SetNumReportsPerOps(n uint64) {
	e.numReportsPerOps = n
}

// SetMeasureLatency enables per-operation latency recording.
func (e *Experiment) SetMeasureLatency(measure bool) {
	e.measureLatency = measure
}

// SetMaxEdgeRetries bounds how often a single add_edge may report "retry
// later" before the run aborts, so a broken library cannot livelock the
// driver.
func (e *Experiment) SetMaxEdgeRetries(maxRetries int) {
	e.maxEdgeRetries = maxRetries
}

// SetLogger routes driver logging. Defaults to the process logger.
func (e *Experiment) SetLogger(logger logging.Logger) {
	e.logger = logger
}

// SetMetrics attaches a metrics registry. Nil disables metrics.
func (e *Experiment) SetMetrics(registry *metrics.Registry) {
	e.metrics = registry
}

// SetStopChannel attaches an external shutdown request. When the channel
// closes, the master stops the build service and the workers abort at
// their next chunk boundary.
func (e *Experiment) SetStopChannel(stop <-chan struct{}) {
	e.stop = stop
}

func (e *Experiment) validate() error {
	if e.library == nil {
		return fmt.Errorf("%w: no library set", ErrConfig)
	}
	if e.logPath == "" {
		return fmt.Errorf("%w: no log path set", ErrConfig)
	}
	if e.numThreads < 1 {
		return fmt.Errorf("%w: num_threads must be >= 1, got %d", ErrConfig, e.numThreads)
	}
	if e.workerGranularity < 1 {
		return fmt.Errorf("%w: worker_granularity must be >= 1, got %d", ErrConfig, e.workerGranularity)
	}
	if e.numReportsPerOps < 1 {
		return fmt.Errorf("%w: num_reports_per_ops must be >= 1, got %d", ErrConfig, e.numReportsPerOps)
	}
	if e.maxEdgeRetries < 1 {
		return fmt.Errorf("%w: max_edge_retries must be >= 1, got %d", ErrConfig, e.maxEdgeRetries)
	}
	return nil
}

// Execute runs the experiment with the configured parameters.
func (e *Experiment) Execute() (*Result, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}
	m, err := newMaster(e)
	if err != nil {
		return nil, err
	}
	return m.execute()
}
