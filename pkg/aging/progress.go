package aging

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"graphbench/pkg/metrics"
)

// progressReporter aggregates completed-operation counts across workers and
// stamps elapsed times whenever the count crosses a quantum boundary.
//
// Workers bump completedOps once per applied operation and call poll at
// every granularity boundary. The worker whose poll first advances
// lastBucket claims all buckets up to the current one and stamps their
// slots; losers of the CAS continue without blocking. Each slot is written
// by exactly one worker, and the master reads the slots only after all
// workers have quiesced.
type progressReporter struct {
	quantum      uint64
	numEdgesLoad uint64

	completedOps atomic.Uint64
	lastBucket   atomic.Uint64

	reportedTimes []uint64 // elapsed microseconds, slot i-1 for bucket i
	timeStart     time.Time

	report  bool
	printMu *sync.Mutex

	metrics *metrics.Registry
}

func newProgressReporter(totalOps, numEdgesLoad, numReportsPerOps uint64, report bool, printMu *sync.Mutex, m *metrics.Registry) *progressReporter {
	quantum := uint64(1)
	capacity := uint64(1)
	if numEdgesLoad > 0 {
		quantum = numEdgesLoad / numReportsPerOps
		if quantum == 0 {
			quantum = 1
		}
		capacity = (totalOps+numEdgesLoad-1)/numEdgesLoad*numReportsPerOps + 1
	}
	return &progressReporter{
		quantum:       quantum,
		numEdgesLoad:  numEdgesLoad,
		reportedTimes: make([]uint64, capacity),
		report:        report,
		printMu:       printMu,
		metrics:       m,
	}
}

// start records the experiment start time all stamps are relative to.
func (p *progressReporter) start(t time.Time) {
	p.timeStart = t
}

// add registers n freshly completed operations.
func (p *progressReporter) add(n uint64) {
	p.completedOps.Add(n)
}

// poll claims any quantum buckets crossed since the last report. Called by
// workers at granularity boundaries; non-blocking for losers.
func (p *progressReporter) poll() {
	ops := p.completedOps.Load()
	bucket := ops / p.quantum
	for {
		last := p.lastBucket.Load()
		if bucket <= last {
			return
		}
		if !p.lastBucket.CompareAndSwap(last, bucket) {
			continue
		}
		elapsed := time.Since(p.timeStart)
		micros := uint64(elapsed.Microseconds())
		for i := last + 1; i <= bucket && i <= uint64(len(p.reportedTimes)); i++ {
			p.reportedTimes[i-1] = micros
		}
		throughput := 0.0
		if elapsed > 0 {
			throughput = float64(ops) / elapsed.Seconds()
		}
		if p.metrics != nil {
			p.metrics.UpdateThroughput.Set(throughput)
		}
		if p.report {
			p.printMu.Lock()
			fmt.Printf("[Aging] progress: %.2fx ops (%d), elapsed: %v, throughput: %.0f ops/s\n",
				float64(ops)/float64(p.numEdgesLoad), ops, elapsed.Round(time.Millisecond), throughput)
			p.printMu.Unlock()
		}
		return
	}
}

// snapshot returns the stamped slots, valid only after workers quiesce.
func (p *progressReporter) snapshot() []time.Duration {
	count := p.lastBucket.Load()
	if count > uint64(len(p.reportedTimes)) {
		count = uint64(len(p.reportedTimes))
	}
	times := make([]time.Duration, count)
	for i := range times {
		times[i] = time.Duration(p.reportedTimes[i]) * time.Microsecond
	}
	return times
}
