package aging

import (
	"sync"
	"sync/atomic"
	"time"

	"graphbench/pkg/library"
	"graphbench/pkg/metrics"
)

// buildService periodically invokes the library's snapshot/delta hook from
// a dedicated thread while the workers run, so that the graph "ages"
// through multiple deltas rather than one final build. With a zero
// frequency the service is inert.
type buildService struct {
	library   library.Update
	threadID  int
	frequency time.Duration

	invocations atomic.Uint64
	stopCh      chan struct{}
	doneCh      chan struct{}
	stopOnce    sync.Once
	started     bool
	err         error // written by the service goroutine before doneCh closes

	metrics *metrics.Registry
}

func newBuildService(lib library.Update, threadID int, frequency time.Duration, m *metrics.Registry) *buildService {
	return &buildService{
		library:   lib,
		threadID:  threadID,
		frequency: frequency,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		metrics:   m,
	}
}

// start launches the service goroutine. No-op when the frequency is zero.
func (b *buildService) start() {
	if b.frequency <= 0 {
		return
	}
	b.started = true
	go b.run()
}

func (b *buildService) run() {
	defer close(b.doneCh)

	if err := b.library.OnThreadInit(b.threadID); err != nil {
		b.err = sutError(err)
		return
	}
	timer := time.NewTimer(b.frequency)
	defer timer.Stop()
	for {
		select {
		case <-b.stopCh:
			b.err = b.destroy(nil)
			return
		case <-timer.C:
			if err := b.library.Build(); err != nil {
				b.err = b.destroy(sutError(err))
				return
			}
			b.invocations.Add(1)
			if b.metrics != nil {
				b.metrics.BuildInvocationsTotal.Inc()
			}
			timer.Reset(b.frequency)
		}
	}
}

func (b *buildService) destroy(runErr error) error {
	if err := b.library.OnThreadDestroy(b.threadID); err != nil && runErr == nil {
		return sutError(err)
	}
	return runErr
}

// stop requests a cooperative stop, waits for the service to join, and
// returns the number of build invocations performed. The select in run
// interrupts the inter-build sleep, so joining is prompt rather than
// bounded by a full cadence period.
func (b *buildService) stop() (uint64, error) {
	if !b.started {
		return 0, nil
	}
	b.stopOnce.Do(func() { close(b.stopCh) })
	<-b.doneCh
	return b.invocations.Load(), b.err
}

