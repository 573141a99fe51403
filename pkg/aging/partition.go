package aging

import (
	"encoding/binary"

	"github.com/spaolacci/murmur3"
)

// PartitionWorker maps an edge to the worker that owns it. The hash is
// computed over the sorted endpoint pair, so it is symmetric under swap,
// stable across runs, and independent of batch boundaries and of the
// worker count (the modulo provides the distribution). All operations on
// the same undirected edge therefore land on one worker's FIFO queue,
// which serializes them without locking.
func PartitionWorker(a, b uint64, numWorkers int) int {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], lo)
	binary.LittleEndian.PutUint64(buf[8:16], hi)
	return int(murmur3.Sum64(buf[:]) % uint64(numWorkers))
}
