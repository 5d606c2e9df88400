package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReporter_AddBytes_AccumulatesDownloaded(t *testing.T) {
	r := newReporter("file.bin")
	r.addBytes(100)
	r.addBytes(50)

	snap := r.snapshot("task-1")
	assert.Equal(t, int64(150), snap.Downloaded)
}

func TestReporter_SpeedOnlyRecomputedAfterSampleInterval(t *testing.T) {
	r := newReporter("file.bin")
	r.lastSampleTime = time.Now()

	r.addBytes(1000)
	assert.Equal(t, float64(0), r.snapshot("t").SpeedBPS, "speed should not move before the sample interval elapses")

	r.mu.Lock()
	r.lastSampleTime = time.Now().Add(-sampleInterval)
	r.mu.Unlock()

	r.addBytes(1000)
	assert.Greater(t, r.snapshot("t").SpeedBPS, float64(0))
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusError.Terminal())
	assert.True(t, StatusStopped.Terminal())
	assert.False(t, StatusQueued.Terminal())
	assert.False(t, StatusDownloading.Terminal())
	assert.False(t, StatusPaused.Terminal())
}
