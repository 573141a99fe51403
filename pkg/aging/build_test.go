package aging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildServiceInertWithZeroFrequency(t *testing.T) {
	lib := newMockLibrary()
	b := newBuildService(lib, 5, 0, nil)
	b.start()

	invocations, err := b.stop()
	require.NoError(t, err)
	assert.Zero(t, invocations)
	assert.Empty(t, lib.threadInits, "inert service must not attach a thread")
}

func TestBuildServiceInvokesAtCadence(t *testing.T) {
	lib := newMockLibrary()
	b := newBuildService(lib, 5, 10*time.Millisecond, nil)
	b.start()
	time.Sleep(250 * time.Millisecond)

	invocations, err := b.stop()
	require.NoError(t, err)

	// 250ms at a 10ms cadence; leave slack for scheduler jitter
	assert.GreaterOrEqual(t, invocations, uint64(5))
	assert.Equal(t, invocations, lib.builds.Load())
	assert.Equal(t, 1, lib.threadInits[5])
	assert.Equal(t, 1, lib.threadDestroy[5])
}

func TestBuildServiceStopIsPrompt(t *testing.T) {
	lib := newMockLibrary()
	b := newBuildService(lib, 3, time.Hour, nil)
	b.start()

	start := time.Now()
	_, err := b.stop()
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second, "stop must interrupt the sleep")
}

func TestBuildServiceStopIsIdempotent(t *testing.T) {
	lib := newMockLibrary()
	b := newBuildService(lib, 3, 5*time.Millisecond, nil)
	b.start()
	time.Sleep(20 * time.Millisecond)

	first, err := b.stop()
	require.NoError(t, err)
	second, err := b.stop()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuildServiceSurfacesBuildError(t *testing.T) {
	lib := newMockLibrary()
	boom := errors.New("snapshot failed")
	lib.onBuild = func() error { return boom }

	b := newBuildService(lib, 3, 5*time.Millisecond, nil)
	b.start()
	time.Sleep(50 * time.Millisecond)

	_, err := b.stop()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSUT)
	assert.Equal(t, 1, lib.threadDestroy[3], "thread must detach even on error")
}
