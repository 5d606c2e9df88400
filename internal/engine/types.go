// Package engine implements the download engine: task lifecycle, range
// planning, the multi-connection fetch/merge pipeline, progress reporting,
// and temp-file cleanup.
package engine

import (
	"fmt"
	"time"
)

// Size constants.
const (
	KB = 1024
	MB = 1024 * KB
	GB = 1024 * MB
)

// TaskConfig holds the per-task, immutable tuning knobs.
type TaskConfig struct {
	Parts          int           // number of ranges to split a resource into
	ChunkSize      int64         // bytes read/written per I/O step
	Timeout        time.Duration // applied to connect and to socket reads
	MaxConnections int           // per-task concurrency cap
}

// DefaultTaskConfig returns the engine's default tuning knobs.
func DefaultTaskConfig() TaskConfig {
	return TaskConfig{
		Parts:          6,
		ChunkSize:      1 * MB,
		Timeout:        30 * time.Second,
		MaxConnections: 4,
	}
}

// normalized returns a copy with every count clamped to its minimum of 1;
// a non-positive Timeout becomes the 30s default.
func (c TaskConfig) normalized() TaskConfig {
	if c.Parts < 1 {
		c.Parts = 1
	}
	if c.ChunkSize < 1 {
		c.ChunkSize = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxConnections < 1 {
		c.MaxConnections = 1
	}
	return c
}

// DownloadRequest is the immutable input handed to Manager.Add.
type DownloadRequest struct {
	URL    string
	Output string // optional; empty means "derive from the URL"
}

// Status is one of a task's lifecycle states.
type Status string

const (
	StatusQueued      Status = "queued"
	StatusDownloading Status = "downloading"
	StatusPaused      Status = "paused"
	StatusStopped     Status = "stopped"
	StatusCompleted   Status = "completed"
	StatusError       Status = "error"
)

// Terminal reports whether status cannot be left once entered.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusStopped, StatusError:
		return true
	default:
		return false
	}
}

// DownloadProgress is the value emitted to subscribers.
type DownloadProgress struct {
	TaskID     string
	Downloaded int64
	Total      *int64 // nil when the server never revealed a length
	SpeedBPS   float64
	Status     Status
	Name       string
	Error      string
}

// ByteRange is a half-open-in-concept, inclusive-endpoint byte window.
type ByteRange struct {
	Start int64
	End   int64 // inclusive
}

func (r ByteRange) Length() int64 { return r.End - r.Start + 1 }

// ErrorKind classifies a task failure at the surface a caller can act on.
type ErrorKind string

const (
	ErrKindConnection   ErrorKind = "connection"
	ErrKindProtocol     ErrorKind = "protocol"
	ErrKindRangeViolate ErrorKind = "range_violation"
	ErrKindTimeout      ErrorKind = "timeout"
	ErrKindFilesystem   ErrorKind = "filesystem"
	ErrKindInternal     ErrorKind = "internal"
)

// TaskError wraps an underlying failure with the kind that classifies it.
type TaskError struct {
	Kind ErrorKind
	Err  error
}

func (e *TaskError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

func newTaskError(kind ErrorKind, err error) *TaskError {
	return &TaskError{Kind: kind, Err: err}
}
