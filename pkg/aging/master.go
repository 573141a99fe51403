package aging

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"graphbench/pkg/graphlog"
	"graphbench/pkg/library"
	"graphbench/pkg/logging"
	"graphbench/pkg/metrics"
)

// master orchestrates a run: it parses the log header, spawns the workers,
// streams edge batches to them with double buffering, drives the build
// service, removes the temporary vertices and collects the results.
type master struct {
	exp     *Experiment
	lib     library.Update
	logger  logging.Logger
	metrics *metrics.Registry

	log      *graphlog.Log
	workers  []*worker
	progress *progressReporter
	result   *Result

	latencies []time.Duration

	// verticesContained gates add_vertex calls: LoadOrStore gives the
	// single-writer-per-key "was-absent" answer without locking.
	verticesContained sync.Map

	printMu sync.Mutex

	mainInited   bool
	masterInited bool
}

func newMaster(exp *Experiment) (*master, error) {
	m := &master{
		exp:     exp,
		lib:     exp.library,
		logger:  exp.logger.With(logging.Library(exp.libraryName)),
		metrics: exp.metrics,
		result:  &Result{},
	}

	log, err := graphlog.Open(exp.logPath)
	if err != nil {
		return nil, phaseError("init", fmt.Errorf("%w: %v", ErrLog, err))
	}
	m.log = log

	props := log.Properties()
	var perr error
	readProp := func(key string) uint64 {
		value, err := props.Uint64(key)
		if err != nil && perr == nil {
			perr = err
		}
		return value
	}
	m.result.NumArtificialVertices = readProp(graphlog.PropNumTempVtx)
	m.result.NumVerticesLoad = readProp(graphlog.PropNumVertices)
	m.result.NumEdgesLoad = readProp(graphlog.PropNumEdgesFinal)
	m.result.NumOperationsTotal = readProp(graphlog.PropNumOperations)
	if perr != nil {
		log.Close()
		return nil, phaseError("init", fmt.Errorf("%w: %v", ErrLog, perr))
	}

	m.progress = newProgressReporter(
		m.result.NumOperationsTotal,
		m.result.NumEdgesLoad,
		exp.numReportsPerOps,
		exp.reportProgress,
		&m.printMu,
		m.metrics,
	)
	if exp.measureLatency {
		m.latencies = make([]time.Duration, m.result.NumOperationsTotal)
	}

	// Thread-id convention: workers take [0,T), the master takes T, the
	// build service takes T+1, and the library is told about all T+2.
	if err := m.lib.OnMainInit(exp.numThreads + 2); err != nil {
		log.Close()
		return nil, phaseError("init", sutError(err))
	}
	m.mainInited = true

	timer := logging.StartTimer(m.logger, "workers initialised", logging.Int("num_threads", exp.numThreads))
	m.workers = make([]*worker, exp.numThreads)
	for id := range m.workers {
		m.workers[id] = newWorker(m, id)
	}
	timer.End()

	if err := m.lib.OnThreadInit(exp.numThreads); err != nil {
		m.teardown()
		return nil, phaseError("init", sutError(err))
	}
	m.masterInited = true

	return m, nil
}

func (m *master) execute() (*Result, error) {
	defer m.teardown()

	if err := m.loadEdges(); err != nil {
		return nil, err
	}
	if err := m.checkStop("load"); err != nil {
		return nil, err
	}
	if err := m.runExperiment(); err != nil {
		return nil, err
	}
	if err := m.removeVertices(); err != nil {
		return nil, err
	}
	m.storeResults()
	m.reportMatch()
	return m.result, nil
}

// loadEdges streams the EDGES section to the workers with two buffers: the
// workers partition batch i while the master reads batch i+1, then the
// barrier flips the buffers.
func (m *master) loadEdges() error {
	timer := logging.StartTimer(m.logger, "update log loaded", logging.Phase("load"), logging.String("path", m.exp.logPath))
	phaseStart := time.Now()

	reader, err := m.log.EdgeReader()
	if err != nil {
		return phaseError("load", fmt.Errorf("%w: %v", ErrLog, err))
	}

	front := &graphlog.EdgeBlock{}
	back := &graphlog.EdgeBlock{}
	var base uint64

	n, err := reader.Next(front)
	if err != nil && err != io.EOF {
		return phaseError("load", fmt.Errorf("%w: %v", ErrLog, err))
	}
	for n > 0 {
		if m.result.RandomVertexID == 0 {
			m.seedRandomVertexID(front, n)
		}
		for _, w := range m.workers {
			w.send(command{kind: cmdLoadEdges, block: front, blockLen: n, baseIndex: base})
		}
		base += uint64(n)

		nextN, nextErr := reader.Next(back)

		var werr error
		for _, w := range m.workers {
			if err := w.wait(); err != nil && werr == nil {
				werr = err
			}
		}
		if werr != nil {
			return werr
		}
		if nextErr != nil && nextErr != io.EOF {
			return phaseError("load", fmt.Errorf("%w: %v", ErrLog, nextErr))
		}
		front, back = back, front
		n = nextN
	}

	if base != m.result.NumOperationsTotal {
		return phaseError("load", fmt.Errorf("%w: log declares %d operations, found %d",
			ErrLog, m.result.NumOperationsTotal, base))
	}

	if m.metrics != nil {
		for _, w := range m.workers {
			m.metrics.WorkerQueueOps.WithLabelValues(strconv.Itoa(w.id)).Set(float64(w.queueLen()))
		}
		m.metrics.RecordPhase("load", time.Since(phaseStart))
	}
	timer.End()
	return nil
}

// seedRandomVertexID picks the source of the first insertion in the batch.
// Done by the master before dispatch, so the choice is deterministic for a
// given log.
func (m *master) seedRandomVertexID(block *graphlog.EdgeBlock, n int) {
	for i := 0; i < n; i++ {
		if block.Weights[i] > 0 {
			m.result.RandomVertexID = block.Sources[i]
			return
		}
	}
}

// runExperiment is the measured phase: workers drain their queues against
// the library while the build service snapshots at its cadence.
func (m *master) runExperiment() error {
	m.logger.Info("experiment started", logging.Phase("execute"),
		logging.Uint64("num_operations", m.result.NumOperationsTotal),
		logging.Int("num_threads", m.exp.numThreads))

	start := time.Now()
	m.progress.start(start)

	build := newBuildService(m.lib, m.exp.numThreads+1, m.exp.buildFrequency, m.metrics)
	build.start()

	for _, w := range m.workers {
		w.send(command{kind: cmdExecuteUpdates})
	}
	var werr error
	for _, w := range m.workers {
		if err := w.wait(); err != nil && werr == nil {
			werr = err
		}
	}

	invocations, berr := build.stop()
	if werr != nil {
		return werr
	}
	if berr != nil {
		return phaseError("execute", berr)
	}
	// Flush residual writes after the service has joined.
	if err := m.lib.Build(); err != nil {
		return phaseError("execute", sutError(err))
	}

	m.result.CompletionTime = time.Since(start)
	m.result.NumBuildInvocations = invocations

	if m.metrics != nil {
		m.metrics.RecordPhase("execute", m.result.CompletionTime)
	}
	m.logger.Info("experiment completed", logging.Phase("execute"),
		logging.Duration("completion_time", m.result.CompletionTime),
		logging.Uint64("build_invocations", invocations),
		logging.Throughput(m.result.Throughput()))
	return nil
}

// removeVertices deletes the temporary vertices the log injected into the
// update stream. The master owns the id buffer and keeps it alive until
// every worker has passed the barrier.
func (m *master) removeVertices() error {
	timer := logging.StartTimer(m.logger, "temporary vertices removed", logging.Phase("cleanup"))
	phaseStart := time.Now()

	reader, err := m.log.VertexReader()
	if err != nil {
		return phaseError("cleanup", fmt.Errorf("%w: %v", ErrLog, err))
	}
	vertices := make([]uint64, m.result.NumArtificialVertices)
	n, err := reader.Load(vertices)
	if err != nil {
		return phaseError("cleanup", fmt.Errorf("%w: %v", ErrLog, err))
	}
	vertices = vertices[:n]
	m.result.NumArtificialVertices = uint64(n)

	for _, w := range m.workers {
		w.send(command{kind: cmdRemoveVertices, vertices: vertices})
	}
	var werr error
	for _, w := range m.workers {
		if err := w.wait(); err != nil && werr == nil {
			werr = err
		}
	}
	if werr != nil {
		return werr
	}
	if err := m.lib.Build(); err != nil {
		return phaseError("cleanup", sutError(err))
	}
	if m.metrics != nil {
		m.metrics.RecordPhase("cleanup", time.Since(phaseStart))
	}
	timer.End()
	return nil
}

// storeResults reads the final cardinalities; only valid after quiescence.
func (m *master) storeResults() {
	m.result.NumVerticesFinalGraph = m.lib.NumVertices()
	m.result.NumEdgesFinalGraph = m.lib.NumEdges()
	m.result.ReportedTimes = m.progress.snapshot()
	if m.exp.measureLatency {
		m.result.Latencies = m.latencies
	}
}

// reportMatch emits the cardinality check. A mismatch is diagnostic, not a
// failed run: the result is still returned to the caller.
func (m *master) reportMatch() {
	r := m.result
	vertexMatch, edgeMatch := "yes", "yes"
	if !r.VerticesMatch() {
		vertexMatch = fmt.Sprintf("no, expected %d", r.NumVerticesLoad)
	}
	if !r.EdgesMatch() {
		edgeMatch = fmt.Sprintf("no, expected %d", r.NumEdgesLoad)
	}
	m.printMu.Lock()
	fmt.Printf("[Aging] number of stored vertices: %d [match: %s], number of stored edges: %d [match: %s]\n",
		r.NumVerticesFinalGraph, vertexMatch, r.NumEdgesFinalGraph, edgeMatch)
	m.printMu.Unlock()

	outcome := "match"
	if !r.Matches() {
		outcome = "mismatch"
		m.logger.Warn("final graph does not match the log's declared cardinalities",
			logging.Uint64("vertices", r.NumVerticesFinalGraph),
			logging.Uint64("vertices_expected", r.NumVerticesLoad),
			logging.Uint64("edges", r.NumEdgesFinalGraph),
			logging.Uint64("edges_expected", r.NumEdgesLoad))
	}
	if m.metrics != nil {
		m.metrics.RecordRun(outcome)
	}
}

// ensureVertex inserts a vertex exactly once across all workers.
func (m *master) ensureVertex(v uint64) error {
	if _, loaded := m.verticesContained.LoadOrStore(v, struct{}{}); loaded {
		return nil
	}
	if _, err := m.lib.AddVertex(v); err != nil {
		return sutError(err)
	}
	return nil
}

// stopped reports whether an external shutdown was requested.
func (m *master) stopped() bool {
	if m.exp.stop == nil {
		return false
	}
	select {
	case <-m.exp.stop:
		return true
	default:
		return false
	}
}

func (m *master) checkStop(phase string) error {
	if m.stopped() {
		return phaseError(phase, ErrStopRequested)
	}
	return nil
}

// teardown unwinds whatever init managed to set up, in reverse order.
// Best-effort: teardown failures are logged, not returned, so they never
// mask a run error.
func (m *master) teardown() {
	for _, w := range m.workers {
		w.send(command{kind: cmdShutdown})
	}
	for _, w := range m.workers {
		if err := w.wait(); err != nil {
			m.logger.Error("worker shutdown failed", logging.Worker(w.id), logging.Error(err))
		}
	}
	m.workers = nil

	if m.masterInited {
		if err := m.lib.OnThreadDestroy(m.exp.numThreads); err != nil {
			m.logger.Error("master thread destroy failed", logging.Error(err))
		}
		m.masterInited = false
	}
	if m.mainInited {
		if err := m.lib.OnMainDestroy(); err != nil {
			m.logger.Error("main destroy failed", logging.Error(err))
		}
		m.mainInited = false
	}
	if m.log != nil {
		m.log.Close()
		m.log = nil
	}
}
