package graphlog

import (
	"fmt"
	"math/rand"
	"sort"

	"graphbench/pkg/graph"
)

// GeneratorConfig drives log generation: take a final edge set and produce
// an aging update stream whose net effect is exactly that graph, padded
// with churn on final edges and with temporary edges over temporary
// vertices that the driver deletes in its cleanup phase.
type GeneratorConfig struct {
	// FinalEdges is the net graph the stream converges to.
	FinalEdges *graph.EdgeStream
	// OperationFactor scales the stream: total operations ~ factor * final
	// edges. Values <= 1 add no churn: the stream is then the final inserts
	// plus the temporary-edge insert/delete pairs.
	OperationFactor float64
	// TempVertexRatio is the number of temporary vertices per final vertex.
	TempVertexRatio float64
	// MaxWeight caps the weights of generated churn insertions.
	MaxWeight float64
	// EdgesPerBlock is the block granularity; <= 0 selects the default.
	EdgesPerBlock int
	// Seed makes the stream reproducible.
	Seed int64
}

type event struct {
	key float64
	seq int
	op  graph.WeightedEdge
}

// Generate builds the update stream and returns a Writer ready to emit it.
func Generate(cfg GeneratorConfig) (*Writer, error) {
	if cfg.FinalEdges == nil {
		return nil, fmt.Errorf("graphlog: generator needs a final edge set")
	}
	if cfg.MaxWeight <= 0 {
		cfg.MaxWeight = 1.0
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	final := cfg.FinalEdges.Edges()
	finalVertices := collectVertices(final)
	maxID := cfg.FinalEdges.MaxVertexID()

	numTemp := int(cfg.TempVertexRatio * float64(len(finalVertices)))
	tempVertices := make([]uint64, numTemp)
	for i := range tempVertices {
		tempVertices[i] = maxID + 1 + uint64(i)
	}

	target := len(final)
	if scaled := int(cfg.OperationFactor * float64(len(final))); scaled > target {
		target = scaled
	}

	// Temporary edges: each temporary vertex is attached to a random final
	// vertex, inserted and later deleted.
	type churnEdge struct {
		src, dst uint64
	}
	var tempEdges []churnEdge
	if len(finalVertices) > 0 {
		for _, tv := range tempVertices {
			anchor := finalVertices[rng.Intn(len(finalVertices))]
			tempEdges = append(tempEdges, churnEdge{src: tv, dst: anchor})
		}
	}

	// Remaining budget becomes delete/re-insert churn on final edges.
	used := len(final) + 2*len(tempEdges)
	churnCounts := make(map[int]int)
	if len(final) > 0 {
		for used+2 <= target {
			churnCounts[rng.Intn(len(final))]++
			used += 2
		}
	}

	var events []event
	seq := 0
	emit := func(op graph.WeightedEdge, key float64) {
		events = append(events, event{key: key, seq: seq, op: op})
		seq++
	}

	// Final edges: (insert, delete)*churn followed by the final insert,
	// ordered by ascending draw so the last entry carries the final weight.
	for i, e := range final {
		churn := churnCounts[i]
		keys := drawKeys(rng, 2*churn+1)
		for c := 0; c < churn; c++ {
			emit(graph.WeightedEdge{Source: e.Source, Destination: e.Destination, Weight: randWeight(rng, cfg.MaxWeight)}, keys[2*c])
			emit(graph.WeightedEdge{Source: e.Source, Destination: e.Destination, Weight: -1}, keys[2*c+1])
		}
		emit(e, keys[2*churn])
	}

	// Temporary edges: insert then delete.
	for _, te := range tempEdges {
		keys := drawKeys(rng, 2)
		emit(graph.WeightedEdge{Source: te.src, Destination: te.dst, Weight: randWeight(rng, cfg.MaxWeight)}, keys[0])
		emit(graph.WeightedEdge{Source: te.src, Destination: te.dst, Weight: -1}, keys[1])
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].key != events[j].key {
			return events[i].key < events[j].key
		}
		return events[i].seq < events[j].seq
	})

	w := NewWriter(cfg.EdgesPerBlock)
	for _, ev := range events {
		w.AppendOperation(ev.op)
	}
	w.SetTemporaryVertices(tempVertices)
	w.SetFinalCardinalities(uint64(len(finalVertices)), uint64(len(final)))
	w.SetMaxWeight(cfg.MaxWeight)
	return w, nil
}

// WriteGeneratedLog generates a stream and writes it to path in one call.
func WriteGeneratedLog(path string, cfg GeneratorConfig) error {
	w, err := Generate(cfg)
	if err != nil {
		return err
	}
	return w.WriteFile(path)
}

func collectVertices(edges []graph.WeightedEdge) []uint64 {
	seen := make(map[uint64]struct{}, len(edges))
	var vertices []uint64
	for _, e := range edges {
		if _, ok := seen[e.Source]; !ok {
			seen[e.Source] = struct{}{}
			vertices = append(vertices, e.Source)
		}
		if _, ok := seen[e.Destination]; !ok {
			seen[e.Destination] = struct{}{}
			vertices = append(vertices, e.Destination)
		}
	}
	sort.Slice(vertices, func(i, j int) bool { return vertices[i] < vertices[j] })
	return vertices
}

// drawKeys returns n random ordering keys, sorted ascending, so that a
// per-edge event sequence keeps its relative order after the global sort.
func drawKeys(rng *rand.Rand, n int) []float64 {
	keys := make([]float64, n)
	for i := range keys {
		keys[i] = rng.Float64()
	}
	sort.Float64s(keys)
	return keys
}

func randWeight(rng *rand.Rand, maxWeight float64) float64 {
	return (1 - rng.Float64()) * maxWeight
}
