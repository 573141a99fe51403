package aging

import (
	"sort"
	"time"
)

// Result accumulates the metrics of a single benchmark run.
type Result struct {
	// NumOperationsTotal is the number of updates declared by the log.
	NumOperationsTotal uint64
	// NumArtificialVertices is the number of temporary vertices removed in
	// the cleanup phase.
	NumArtificialVertices uint64
	// NumVerticesLoad / NumEdgesLoad are the final cardinalities declared
	// by the log.
	NumVerticesLoad uint64
	NumEdgesLoad    uint64
	// NumVerticesFinalGraph / NumEdgesFinalGraph are the cardinalities
	// reported by the library after the run.
	NumVerticesFinalGraph uint64
	NumEdgesFinalGraph    uint64
	// CompletionTime is the duration of the execute phase, including the
	// final build flush.
	CompletionTime time.Duration
	// NumBuildInvocations counts the background build() calls.
	NumBuildInvocations uint64
	// ReportedTimes are the elapsed times at which each progress quantum
	// was crossed, in log order. Non-decreasing.
	ReportedTimes []time.Duration
	// Latencies holds one per-operation sample, indexed by the operation's
	// position in the log. Empty unless latency measurement was enabled.
	Latencies []time.Duration
	// RandomVertexID is a vertex drawn from the first insertion of the
	// first batch. Never zero for a non-empty log.
	RandomVertexID uint64
}

// VerticesMatch reports whether the library holds exactly the declared
// number of vertices.
func (r *Result) VerticesMatch() bool {
	return r.NumVerticesFinalGraph == r.NumVerticesLoad
}

// EdgesMatch reports whether the library holds exactly the declared number
// of edges.
func (r *Result) EdgesMatch() bool {
	return r.NumEdgesFinalGraph == r.NumEdgesLoad
}

// Matches reports whether both cardinalities match the log's declaration.
func (r *Result) Matches() bool {
	return r.VerticesMatch() && r.EdgesMatch()
}

// Throughput returns the average update rate of the execute phase.
func (r *Result) Throughput() float64 {
	if r.CompletionTime <= 0 {
		return 0
	}
	return float64(r.NumOperationsTotal) / r.CompletionTime.Seconds()
}

// LatencyStats is a summary over the recorded per-operation samples.
type LatencyStats struct {
	Count int
	Mean  time.Duration
	P50   time.Duration
	P90   time.Duration
	P99   time.Duration
	Max   time.Duration
}

// LatencySummary computes percentile statistics over the recorded samples.
// Returns the zero value when latency measurement was disabled.
func (r *Result) LatencySummary() LatencyStats {
	return ComputeLatencyStats(r.Latencies)
}

// ComputeLatencyStats summarizes a sample set. The input is not modified.
func ComputeLatencyStats(samples []time.Duration) LatencyStats {
	if len(samples) == 0 {
		return LatencyStats{}
	}
	sorted := make([]time.Duration, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, s := range sorted {
		total += s
	}
	percentile := func(p float64) time.Duration {
		idx := int(p * float64(len(sorted)-1))
		return sorted[idx]
	}
	return LatencyStats{
		Count: len(sorted),
		Mean:  total / time.Duration(len(sorted)),
		P50:   percentile(0.50),
		P90:   percentile(0.90),
		P99:   percentile(0.99),
		Max:   sorted[len(sorted)-1],
	}
}
