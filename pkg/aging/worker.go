package aging

import (
	"fmt"
	"time"

	"graphbench/pkg/graph"
	"graphbench/pkg/graphlog"
)

type commandKind int

const (
	cmdLoadEdges commandKind = iota
	cmdExecuteUpdates
	cmdRemoveVertices
	cmdShutdown
)

// command is the single-producer (master) single-consumer (worker) protocol.
// Every command is answered on the reply channel, giving the master a wait
// barrier per command so it can pipeline log batches.
type command struct {
	kind      commandKind
	block     *graphlog.EdgeBlock
	blockLen  int
	baseIndex uint64
	vertices  []uint64
}

// operation is one partitioned update owned by a worker's queue.
type operation struct {
	source      uint64
	destination uint64
	weight      float64
	index       uint64 // global position in the log, also the latency slot
	attempts    int
}

// worker owns a FIFO of partitioned updates and a dedicated goroutine that
// registers itself with the library under its worker id and blocks on the
// command channel.
type worker struct {
	id     int
	master *master

	queue    []operation
	head     int
	commands chan command
	replies  chan error
}

func newWorker(m *master, id int) *worker {
	w := &worker{
		id:       id,
		master:   m,
		commands: make(chan command, 1),
		replies:  make(chan error, 1),
	}
	go w.run()
	return w
}

// send enqueues a command; the worker replies exactly once per command.
func (w *worker) send(cmd command) {
	w.commands <- cmd
}

// wait blocks until the worker has finished its current command.
func (w *worker) wait() error {
	return <-w.replies
}

func (w *worker) run() {
	initErr := w.master.lib.OnThreadInit(w.id)
	if initErr != nil {
		initErr = workerError("init", w.id, sutError(initErr))
	}
	for cmd := range w.commands {
		if cmd.kind == cmdShutdown {
			err := initErr
			if err == nil {
				if derr := w.master.lib.OnThreadDestroy(w.id); derr != nil {
					err = workerError("teardown", w.id, sutError(derr))
				}
			}
			w.replies <- err
			return
		}
		if initErr != nil {
			w.replies <- initErr
			continue
		}
		var err error
		switch cmd.kind {
		case cmdLoadEdges:
			w.loadEdges(cmd)
		case cmdExecuteUpdates:
			err = w.executeUpdates()
		case cmdRemoveVertices:
			err = w.removeVertices(cmd.vertices)
		}
		w.replies <- err
	}
}

// loadEdges appends this worker's share of the batch to its queue. All
// workers scan the same read-only block; ownership is decided per edge by
// the symmetric partition hash, so the scan needs no coordination.
func (w *worker) loadEdges(cmd command) {
	numWorkers := len(w.master.workers)
	for i := 0; i < cmd.blockLen; i++ {
		src := cmd.block.Sources[i]
		dst := cmd.block.Destinations[i]
		if PartitionWorker(src, dst, numWorkers) != w.id {
			continue
		}
		w.queue = append(w.queue, operation{
			source:      src,
			destination: dst,
			weight:      cmd.block.Weights[i],
			index:       cmd.baseIndex + uint64(i),
		})
	}
}

// queueLen reports the number of queued operations. Only meaningful to the
// master after a wait barrier.
func (w *worker) queueLen() int {
	return len(w.queue) - w.head
}

// executeUpdates drains the queue into the library in granularity-bounded
// chunks, polling the progress reporter between chunks. An add_edge that
// reports "retry later" is re-enqueued at the tail: the same-edge ordering
// invariant guarantees no conflicting operation on that edge sits ahead of
// it, so per-edge log order is preserved.
func (w *worker) executeUpdates() error {
	m := w.master
	granularity := m.exp.workerGranularity
	measureLatency := m.exp.measureLatency
	maxRetries := m.exp.maxEdgeRetries

	for w.head < len(w.queue) {
		if m.stopped() {
			return workerError("execute", w.id, ErrStopRequested)
		}
		end := w.head + granularity
		if end > len(w.queue) {
			end = len(w.queue)
		}
		var adds, removes int
		for w.head < end {
			op := w.queue[w.head]
			w.head++

			var t0 time.Time
			if measureLatency {
				t0 = time.Now()
			}
			if op.weight > 0 {
				if err := m.ensureVertex(op.source); err != nil {
					return workerError("execute", w.id, err)
				}
				if err := m.ensureVertex(op.destination); err != nil {
					return workerError("execute", w.id, err)
				}
				ok, err := m.lib.AddEdge(graph.WeightedEdge{Source: op.source, Destination: op.destination, Weight: op.weight})
				if err != nil {
					return workerError("execute", w.id, sutError(err))
				}
				if !ok {
					// The endpoints may still be in flight on another
					// worker; try again once the queue drains back here.
					op.attempts++
					if op.attempts > maxRetries {
						return workerError("execute", w.id, fmt.Errorf("%w: %w", ErrSUT, ErrRetryExhausted))
					}
					w.queue = append(w.queue, op)
					if m.metrics != nil {
						m.metrics.UpdateRetriesTotal.Inc()
					}
					continue
				}
				adds++
			} else {
				if _, err := m.lib.RemoveEdge(graph.WeightedEdge{Source: op.source, Destination: op.destination}); err != nil {
					return workerError("execute", w.id, sutError(err))
				}
				removes++
			}
			if measureLatency {
				elapsed := time.Since(t0)
				m.latencies[op.index] = elapsed
				if m.metrics != nil {
					m.metrics.UpdateLatency.Observe(elapsed.Seconds())
				}
			}
			m.progress.add(1)
		}
		if m.metrics != nil {
			m.metrics.RecordUpdates("add_edge", adds)
			m.metrics.RecordUpdates("remove_edge", removes)
		}
		m.progress.poll()
	}
	return nil
}

// removeVertices deletes this worker's round-robin share of the temporary
// vertex list. The master owns the slice and holds it until the barrier.
func (w *worker) removeVertices(vertices []uint64) error {
	numWorkers := len(w.master.workers)
	for i := w.id; i < len(vertices); i += numWorkers {
		if _, err := w.master.lib.RemoveVertex(vertices[i]); err != nil {
			return workerError("cleanup", w.id, sutError(err))
		}
	}
	return nil
}
