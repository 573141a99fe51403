// Package library defines the capability surfaces a system under test must
// expose to be driven by the benchmark, and ships an in-memory adjacency
// list as the reference implementation.
package library

import (
	"graphbench/pkg/graph"
)

// Update is the capability set required by the aging driver. Implementations
// are told the total number of participating threads up front via
// OnMainInit; each thread then calls OnThreadInit once with a unique id in
// [0, numThreads) from its own goroutine, and OnThreadDestroy before exit.
//
// All mutation calls are safe to invoke concurrently from threads that have
// completed OnThreadInit with distinct ids. NumVertices, NumEdges and Build
// may only assume exclusive access once all writers have quiesced.
type Update interface {
	// OnMainInit is invoked once before any thread is attached.
	OnMainInit(numThreads int) error
	// OnMainDestroy is invoked once after all threads have detached.
	OnMainDestroy() error

	// OnThreadInit attaches the calling goroutine under the given id.
	OnThreadInit(threadID int) error
	// OnThreadDestroy detaches the given id.
	OnThreadDestroy(threadID int) error

	// AddVertex inserts a vertex. The boolean reports whether the call
	// changed state.
	AddVertex(vertex uint64) (bool, error)
	// RemoveVertex deletes a vertex and its incident edges.
	RemoveVertex(vertex uint64) (bool, error)

	// AddEdge inserts an edge with the given weight. A false return with a
	// nil error means "retry later": an endpoint is not visible yet because
	// its insertion is still in flight on another thread.
	AddEdge(edge graph.WeightedEdge) (bool, error)
	// RemoveEdge deletes an edge. The weight of the argument is ignored.
	RemoveEdge(edge graph.WeightedEdge) (bool, error)

	// IsDirected reports whether the implementation stores directed edges.
	// Immutable over the lifetime of the instance.
	IsDirected() bool

	// Build asks the implementation to materialize a new snapshot or delta.
	// May be a no-op.
	Build() error

	// NumVertices returns the vertex count. Only valid after quiescence.
	NumVertices() uint64
	// NumEdges returns the edge count. Only valid after quiescence.
	NumEdges() uint64
}

// Loader is the optional bulk-load capability: populate the graph from a
// file in one shot instead of through the update surface.
type Loader interface {
	Load(path string) error
}

// Analytics is the optional read-side capability used by kernels outside
// the update driver. Implementations that also serve analytic workloads
// expose point lookups over the materialized graph.
type Analytics interface {
	HasVertex(vertex uint64) bool
	HasEdge(source, destination uint64) bool
	// Weight returns the stored weight of an edge, or NaN if absent.
	Weight(source, destination uint64) float64
}
