package aging

import (
	"sync"
	"sync/atomic"

	"graphbench/pkg/graph"
	"graphbench/pkg/library"
)

// mockLibrary is a test double for the update capability with injectable
// behavior and call accounting.
type mockLibrary struct {
	mu sync.Mutex

	mainInits     int
	mainDestroys  int
	threadInits   map[int]int
	threadDestroy map[int]int

	builds      atomic.Uint64
	addEdges    atomic.Uint64
	removeEdges atomic.Uint64

	// hooks, nil means default success
	onBuild   func() error
	onAddEdge func(e graph.WeightedEdge) (bool, error)

	delegate library.Update // optional: forward mutations to a real store
}

var _ library.Update = (*mockLibrary)(nil)

func newMockLibrary() *mockLibrary {
	return &mockLibrary{
		threadInits:   make(map[int]int),
		threadDestroy: make(map[int]int),
	}
}

func (m *mockLibrary) OnMainInit(numThreads int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mainInits++
	if m.delegate != nil {
		return m.delegate.OnMainInit(numThreads)
	}
	return nil
}

func (m *mockLibrary) OnMainDestroy() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mainDestroys++
	if m.delegate != nil {
		return m.delegate.OnMainDestroy()
	}
	return nil
}

func (m *mockLibrary) OnThreadInit(threadID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threadInits[threadID]++
	if m.delegate != nil {
		return m.delegate.OnThreadInit(threadID)
	}
	return nil
}

func (m *mockLibrary) OnThreadDestroy(threadID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threadDestroy[threadID]++
	if m.delegate != nil {
		return m.delegate.OnThreadDestroy(threadID)
	}
	return nil
}

func (m *mockLibrary) AddVertex(v uint64) (bool, error) {
	if m.delegate != nil {
		return m.delegate.AddVertex(v)
	}
	return true, nil
}

func (m *mockLibrary) RemoveVertex(v uint64) (bool, error) {
	if m.delegate != nil {
		return m.delegate.RemoveVertex(v)
	}
	return true, nil
}

func (m *mockLibrary) AddEdge(e graph.WeightedEdge) (bool, error) {
	m.addEdges.Add(1)
	if m.onAddEdge != nil {
		return m.onAddEdge(e)
	}
	if m.delegate != nil {
		return m.delegate.AddEdge(e)
	}
	return true, nil
}

func (m *mockLibrary) RemoveEdge(e graph.WeightedEdge) (bool, error) {
	m.removeEdges.Add(1)
	if m.delegate != nil {
		return m.delegate.RemoveEdge(e)
	}
	return true, nil
}

func (m *mockLibrary) IsDirected() bool {
	return false
}

func (m *mockLibrary) Build() error {
	m.builds.Add(1)
	if m.onBuild != nil {
		return m.onBuild()
	}
	if m.delegate != nil {
		return m.delegate.Build()
	}
	return nil
}

func (m *mockLibrary) NumVertices() uint64 {
	if m.delegate != nil {
		return m.delegate.NumVertices()
	}
	return 0
}

func (m *mockLibrary) NumEdges() uint64 {
	if m.delegate != nil {
		return m.delegate.NumEdges()
	}
	return 0
}
