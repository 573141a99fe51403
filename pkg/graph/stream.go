package graph

import (
	"math/rand"
)

// EdgeStream holds an in-memory sequence of weighted edges. It is the
// staging structure for log generation and for the update tests: build a
// final edge set, permute it, feed it to a library or a log writer.
type EdgeStream struct {
	edges []WeightedEdge
}

// NewEdgeStream wraps the given edges. The slice is owned by the stream
// afterwards.
func NewEdgeStream(edges []WeightedEdge) *EdgeStream {
	return &EdgeStream{edges: edges}
}

// NumEdges returns the number of edges in the stream.
func (s *EdgeStream) NumEdges() int {
	return len(s.edges)
}

// Get returns the edge at position i.
func (s *EdgeStream) Get(i int) WeightedEdge {
	return s.edges[i]
}

// Edges returns the backing slice.
func (s *EdgeStream) Edges() []WeightedEdge {
	return s.edges
}

// MaxVertexID returns the largest vertex id referenced by any edge, or 0
// for an empty stream.
func (s *EdgeStream) MaxVertexID() uint64 {
	var max uint64
	for _, e := range s.edges {
		if e.Source > max {
			max = e.Source
		}
		if e.Destination > max {
			max = e.Destination
		}
	}
	return max
}

// NumVertices returns the number of distinct vertex ids in the stream.
func (s *EdgeStream) NumVertices() int {
	seen := make(map[uint64]struct{}, len(s.edges))
	for _, e := range s.edges {
		seen[e.Source] = struct{}{}
		seen[e.Destination] = struct{}{}
	}
	return len(seen)
}

// Permute shuffles the stream in place using the given seed, so that runs
// are reproducible.
func (s *EdgeStream) Permute(seed int64) {
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(s.edges), func(i, j int) {
		s.edges[i], s.edges[j] = s.edges[j], s.edges[i]
	})
}

// GenerateUniform builds a deterministic undirected edge set over vertex
// ids [1, maxVertexID): for every i, edges (i, j) with j = i+2, i+4, ...
// and weight 1000*j + i. The weight encoding makes each edge's expected
// weight recomputable from its endpoints, which the update tests rely on.
func GenerateUniform(maxVertexID uint64) *EdgeStream {
	var edges []WeightedEdge
	for i := uint64(1); i < maxVertexID; i++ {
		for j := i + 2; j < maxVertexID; j += 2 {
			edges = append(edges, WeightedEdge{Source: i, Destination: j, Weight: float64(j*1000 + i)})
		}
	}
	return NewEdgeStream(edges)
}
