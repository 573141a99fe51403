package graphlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphbench/pkg/graph"
)

func generateOps(t *testing.T, cfg GeneratorConfig) (*Writer, []graph.WeightedEdge) {
	t.Helper()
	w, err := Generate(cfg)
	require.NoError(t, err)
	return w, w.ops
}

func TestGeneratorNetEffect(t *testing.T) {
	final := graph.GenerateUniform(64)
	w, ops := generateOps(t, GeneratorConfig{
		FinalEdges:      final,
		OperationFactor: 6,
		TempVertexRatio: 0.5,
		MaxWeight:       10,
		Seed:            42,
	})

	assert.GreaterOrEqual(t, len(ops), final.NumEdges())
	assert.LessOrEqual(t, len(ops), 6*final.NumEdges())

	// Replay the stream: inserts must hit absent edges, deletes present
	// ones, and the surviving multiset must be exactly the final graph.
	type key [2]uint64
	live := make(map[key]float64)
	for _, op := range ops {
		lo, hi := op.Sorted()
		k := key{lo, hi}
		_, present := live[k]
		if op.IsInsert() {
			require.False(t, present, "insert of an already-present edge (%d,%d)", lo, hi)
			live[k] = op.Weight
		} else {
			require.True(t, present, "delete of an absent edge (%d,%d)", lo, hi)
			delete(live, k)
		}
	}

	require.Equal(t, final.NumEdges(), len(live))
	for i := 0; i < final.NumEdges(); i++ {
		e := final.Get(i)
		lo, hi := e.Sorted()
		weight, ok := live[key{lo, hi}]
		require.True(t, ok, "final edge (%d,%d) missing from net effect", lo, hi)
		assert.Equal(t, e.Weight, weight, "final weight of (%d,%d)", lo, hi)
	}

	// Temporary vertices sit above the final id space and carry no net edges.
	maxID := final.MaxVertexID()
	for _, tv := range w.tempVertices {
		assert.Greater(t, tv, maxID)
	}
	assert.Equal(t, uint64(final.NumVertices()), w.numFinalVertices)
	assert.Equal(t, uint64(final.NumEdges()), w.numFinalEdges)
}

func TestGeneratorChurnWeightsRespectCap(t *testing.T) {
	final := graph.GenerateUniform(16)
	_, ops := generateOps(t, GeneratorConfig{
		FinalEdges:      final,
		OperationFactor: 10,
		MaxWeight:       0.5,
		Seed:            1,
	})

	finalWeights := make(map[[2]uint64]float64)
	for _, e := range final.Edges() {
		lo, hi := e.Sorted()
		finalWeights[[2]uint64{lo, hi}] = e.Weight
	}
	for _, op := range ops {
		if !op.IsInsert() {
			continue
		}
		lo, hi := op.Sorted()
		if op.Weight == finalWeights[[2]uint64{lo, hi}] {
			continue // the closing insert carries the final weight
		}
		assert.LessOrEqual(t, op.Weight, 0.5)
		assert.Greater(t, op.Weight, 0.0)
	}
}

func TestGeneratorDeterministic(t *testing.T) {
	cfg := GeneratorConfig{
		FinalEdges:      graph.GenerateUniform(32),
		OperationFactor: 4,
		TempVertexRatio: 0.25,
		Seed:            7,
	}
	_, first := generateOps(t, cfg)
	cfg.FinalEdges = graph.GenerateUniform(32)
	_, second := generateOps(t, cfg)
	assert.Equal(t, first, second)
}

func TestGeneratorRequiresEdgeSet(t *testing.T) {
	_, err := Generate(GeneratorConfig{})
	assert.Error(t, err)
}

func TestGeneratorEmptyFinalGraph(t *testing.T) {
	w, ops := generateOps(t, GeneratorConfig{
		FinalEdges:      graph.NewEdgeStream(nil),
		OperationFactor: 4,
		TempVertexRatio: 1,
		Seed:            3,
	})
	assert.Empty(t, ops)
	assert.Empty(t, w.tempVertices)
}
