package engine

import (
	"sync"
	"time"
)

// sampleInterval is how often speed_bps is recomputed.
const sampleInterval = 500 * time.Millisecond

// reporter holds the progress counters and speed-sampling state guarded by
// a single mutex. The mutex protects counters and sampling only — it is
// never held across I/O.
type reporter struct {
	mu sync.Mutex

	downloaded      int64
	total           *int64
	speedBPS        float64
	status          Status
	errMsg          string
	lastSampleTime  time.Time
	lastSampleBytes int64

	name string
}

func newReporter(name string) *reporter {
	return &reporter{status: StatusQueued, name: name, lastSampleTime: time.Now()}
}

// addBytes bumps downloaded by k and, if at least sampleInterval elapsed
// since the last sample, recomputes the instantaneous speed and resets the
// sample anchors.
func (r *reporter) addBytes(k int64) {
	r.mu.Lock()
	r.downloaded += k
	now := time.Now()
	if elapsed := now.Sub(r.lastSampleTime); elapsed >= sampleInterval {
		delta := r.downloaded - r.lastSampleBytes
		r.speedBPS = float64(delta) / elapsed.Seconds()
		r.lastSampleTime = now
		r.lastSampleBytes = r.downloaded
	}
	r.mu.Unlock()
}

func (r *reporter) setTotal(total *int64) {
	r.mu.Lock()
	r.total = total
	r.mu.Unlock()
}

func (r *reporter) setName(name string) {
	r.mu.Lock()
	r.name = name
	r.mu.Unlock()
}

func (r *reporter) setStatus(status Status, errMsg string) {
	r.mu.Lock()
	r.status = status
	r.errMsg = errMsg
	r.mu.Unlock()
}

func (r *reporter) currentStatus() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// snapshot returns the value to hand a subscriber.
func (r *reporter) snapshot(taskID string) DownloadProgress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return DownloadProgress{
		TaskID:     taskID,
		Downloaded: r.downloaded,
		Total:      r.total,
		SpeedBPS:   r.speedBPS,
		Status:     r.status,
		Name:       r.name,
		Error:      r.errMsg,
	}
}
