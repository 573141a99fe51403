package aging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLatencyStats(t *testing.T) {
	assert.Equal(t, LatencyStats{}, ComputeLatencyStats(nil))

	samples := make([]time.Duration, 100)
	for i := range samples {
		samples[i] = time.Duration(i+1) * time.Microsecond
	}
	stats := ComputeLatencyStats(samples)
	assert.Equal(t, 100, stats.Count)
	assert.Equal(t, 100*time.Microsecond, stats.Max)
	assert.Equal(t, 50*time.Microsecond, stats.P50)
	assert.Equal(t, 90*time.Microsecond, stats.P90)
	assert.Equal(t, 99*time.Microsecond, stats.P99)
	assert.Equal(t, 50500*time.Nanosecond, stats.Mean)

	// input must not be reordered
	assert.Equal(t, time.Microsecond, samples[0])
}

func TestResultMatches(t *testing.T) {
	r := &Result{
		NumVerticesLoad:       10,
		NumEdgesLoad:          20,
		NumVerticesFinalGraph: 10,
		NumEdgesFinalGraph:    20,
	}
	assert.True(t, r.Matches())

	r.NumEdgesFinalGraph = 19
	assert.True(t, r.VerticesMatch())
	assert.False(t, r.EdgesMatch())
	assert.False(t, r.Matches())
}

func TestResultThroughput(t *testing.T) {
	r := &Result{NumOperationsTotal: 1000, CompletionTime: time.Second}
	assert.InDelta(t, 1000, r.Throughput(), 0.01)

	r.CompletionTime = 0
	assert.Zero(t, r.Throughput())
}
