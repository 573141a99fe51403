package aging

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestPartitionProperties verifies the invariants the worker partitioning
// depends on: symmetry under endpoint swap, a valid worker range, and
// determinism across calls.
func TestPartitionProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("symmetric under endpoint swap", prop.ForAll(
		func(a, b uint64, workers int8) bool {
			numWorkers := int(workers&0x0f) + 1
			return PartitionWorker(a, b, numWorkers) == PartitionWorker(b, a, numWorkers)
		},
		gen.UInt64(),
		gen.UInt64(),
		gen.Int8(),
	))

	properties.Property("result is a valid worker id", prop.ForAll(
		func(a, b uint64, workers int8) bool {
			numWorkers := int(workers&0x0f) + 1
			w := PartitionWorker(a, b, numWorkers)
			return w >= 0 && w < numWorkers
		},
		gen.UInt64(),
		gen.UInt64(),
		gen.Int8(),
	))

	properties.Property("deterministic across calls", prop.ForAll(
		func(a, b uint64) bool {
			return PartitionWorker(a, b, 7) == PartitionWorker(a, b, 7)
		},
		gen.UInt64(),
		gen.UInt64(),
	))

	properties.TestingRun(t)
}

// TestPartitionSingleWorker pins the degenerate case.
func TestPartitionSingleWorker(t *testing.T) {
	for a := uint64(0); a < 100; a++ {
		if got := PartitionWorker(a, a*31+7, 1); got != 0 {
			t.Fatalf("PartitionWorker(%d, %d, 1) = %d, want 0", a, a*31+7, got)
		}
	}
}

// TestPartitionSpreads checks that a modest edge population reaches every
// worker; a degenerate hash would funnel everything into a few.
func TestPartitionSpreads(t *testing.T) {
	const numWorkers = 8
	counts := make([]int, numWorkers)
	for a := uint64(1); a <= 200; a++ {
		for b := a + 1; b <= a+10; b++ {
			counts[PartitionWorker(a, b, numWorkers)]++
		}
	}
	for w, c := range counts {
		if c == 0 {
			t.Fatalf("worker %d received no edges", w)
		}
	}
}
