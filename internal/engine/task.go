package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"

	"github.com/alter-dl/alter/internal/filename"
)

// errStop is an internal sentinel: a checkpoint returns it to unwind a
// fetch loop when Stop() was called. It is never surfaced as a task error.
var errStop = errors.New("task stopped")

// Task is a single download's state machine. It is created and owned by a
// Manager; callers interact with it through Start, Pause, Resume, Stop, and
// Snapshot.
type Task struct {
	ID       string
	URL      string
	Config   TaskConfig
	TempRoot string
	Runtime  *RuntimeConfig

	report *reporter

	pathMu    sync.Mutex
	output    string
	autoNamed bool

	pauseMu   sync.Mutex
	pauseCond *sync.Cond
	paused    bool
	stopFlag  atomic.Bool

	started atomic.Bool

	temp *tempCoordinator // non-nil only once a multipart fetch allocates it

	out       chan<- DownloadProgress
	doneCh    chan struct{}
	closeOnce sync.Once
}

// newTask constructs a task in the queued state and resolves its initial
// output path/name, but does not start it.
func newTask(id, rawURL string, req DownloadRequest, cfg TaskConfig, tempRoot string, rc *RuntimeConfig, out chan<- DownloadProgress) *Task {
	resolved := filename.Resolve(rawURL, req.Output)
	t := &Task{
		ID:        id,
		URL:       rawURL,
		Config:    cfg.normalized(),
		TempRoot:  tempRoot,
		Runtime:   rc,
		report:    newReporter(resolved.Name),
		output:    resolved.Output,
		autoNamed: resolved.AutoNamed,
		out:       out,
		doneCh:    make(chan struct{}),
	}
	t.pauseCond = sync.NewCond(&t.pauseMu)
	return t
}

func (t *Task) currentOutput() string {
	t.pathMu.Lock()
	defer t.pathMu.Unlock()
	return t.output
}

func (t *Task) setOutput(output, name string) {
	t.pathMu.Lock()
	t.output = output
	t.pathMu.Unlock()
	t.report.setName(name)
}

// Snapshot returns the task's current progress value.
func (t *Task) Snapshot() DownloadProgress {
	return t.report.snapshot(t.ID)
}

// OutputPath returns the task's current resolved output path. It is not
// part of the progress event a subscriber receives, since a consumer only
// needs the display name; callers that do need the path (e.g. a
// post-completion CLI summary) use this directly.
func (t *Task) OutputPath() string {
	return t.currentOutput()
}

// Start begins the probe→fetch→merge→cleanup pipeline in the background.
// Calling Start on an already-started task is a no-op.
func (t *Task) Start() {
	if !t.started.CompareAndSwap(false, true) {
		return
	}
	go t.run()
}

// Pause is a no-op outside the downloading state; otherwise it clears the
// pause gate so in-flight workers block at their next chunk boundary.
func (t *Task) Pause() {
	if t.report.currentStatus() != StatusDownloading {
		return
	}
	t.pauseMu.Lock()
	t.paused = true
	t.pauseMu.Unlock()
	t.emitStatus(StatusPaused, "")
}

// Resume is a no-op outside the paused state; otherwise it sets the pause
// gate and wakes any worker blocked on it.
func (t *Task) Resume() {
	if t.report.currentStatus() != StatusPaused {
		return
	}
	t.pauseMu.Lock()
	t.paused = false
	t.pauseCond.Broadcast()
	t.pauseMu.Unlock()
	t.emitStatus(StatusDownloading, "")
}

// Stop is a no-op in a terminal state; otherwise it sets the (monotonic,
// absorbing) stop flag and wakes any paused worker so it can observe it.
// Stop is fire-and-forget: it does not block for the task to actually
// finish tearing down; poll Snapshot().Status to join.
func (t *Task) Stop() {
	if t.report.currentStatus().Terminal() {
		return
	}
	t.stopFlag.Store(true)
	t.pauseMu.Lock()
	t.pauseCond.Broadcast()
	t.pauseMu.Unlock()
}

// checkpoint is called between chunks by every fetch loop: it honours stop
// first, then blocks on the pause gate, and returns errStop if stop was
// observed at any point during the wait.
func (t *Task) checkpoint() error {
	if t.stopFlag.Load() {
		return errStop
	}
	t.pauseMu.Lock()
	for t.paused {
		if t.stopFlag.Load() {
			t.pauseMu.Unlock()
			return errStop
		}
		t.pauseCond.Wait()
	}
	t.pauseMu.Unlock()
	if t.stopFlag.Load() {
		return errStop
	}
	return nil
}

func (t *Task) emitStatus(status Status, errMsg string) {
	t.report.setStatus(status, errMsg)
	t.emit(true)
}

// emit publishes the current snapshot. Status transitions are delivered
// with a blocking send (never dropped); byte-progress events use a
// non-blocking send and may be coalesced if the subscriber is behind.
func (t *Task) emit(statusChange bool) {
	if t.out == nil {
		return
	}
	p := t.report.snapshot(t.ID)
	if statusChange {
		t.out <- p
		return
	}
	select {
	case t.out <- p:
	default:
	}
}

// run drives the full lifecycle: probe, fetch (single or multipart), and
// cleanup on every non-completed exit path.
func (t *Task) run() {
	t.emitStatus(StatusDownloading, "")

	client := newHTTPClient(t.Config.Timeout, t.Config.MaxConnections, t.Runtime)
	ctx := context.Background()

	pr := runProbe(ctx, client, t.URL, t.currentOutput(), t.autoNamed, t.Runtime)
	if pr.Upgraded {
		t.setOutput(pr.Output, pr.Name)
	}
	t.report.setTotal(pr.Total)

	var err error
	if pr.SupportsRange && pr.Total != nil && t.Config.Parts > 1 {
		err = t.downloadMultipart(ctx, client, *pr.Total)
	} else {
		err = t.downloadSingle(ctx, client)
	}

	if t.stopFlag.Load() {
		t.cleanup()
		t.emitStatus(StatusStopped, "")
		t.finish()
		return
	}
	if err != nil {
		t.cleanup()
		t.emitStatus(StatusError, err.Error())
		t.finish()
		return
	}
	t.emitStatus(StatusCompleted, "")
	t.finish()
}

func (t *Task) finish() {
	t.closeOnce.Do(func() { close(t.doneCh) })
}

// cleanup best-effort removes the partial output file and the temp
// directory, swallowing errors. Safe to call unconditionally.
func (t *Task) cleanup() {
	removeIfExists(t.currentOutput())
	if t.temp != nil {
		t.temp.remove()
	}
}

func (t *Task) downloadSingle(ctx context.Context, client *http.Client) error {
	output := t.currentOutput()
	if err := ensureParentDir(output); err != nil {
		return newTaskError(ErrKindFilesystem, err)
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return newTaskError(ErrKindFilesystem, err)
	}
	defer f.Close()

	reqCtx, guard := newStallGuard(ctx, t.Config.Timeout)
	defer guard.Stop()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, t.URL, nil)
	if err != nil {
		return newTaskError(ErrKindInternal, err)
	}
	req.Header.Set("User-Agent", t.Runtime.GetUserAgent())

	resp, err := client.Do(req)
	if err != nil {
		return classifyRequestError(err)
	}
	defer resp.Body.Close()
	if !is2xx(resp.StatusCode) {
		return newTaskError(ErrKindProtocol, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	return t.streamToFile(resp.Body, f, guard)
}

// streamToFile reads resp.Body in Config.ChunkSize chunks, honouring stop
// and pause between chunks, writing each chunk and updating progress.
func (t *Task) streamToFile(body io.Reader, f *os.File, guard *stallGuard) error {
	buf := make([]byte, t.Config.ChunkSize)
	for {
		if err := t.checkpoint(); err != nil {
			if errors.Is(err, errStop) {
				return nil
			}
			return err
		}

		n, rerr := body.Read(buf)
		if n > 0 {
			guard.Kick()
			if _, werr := f.Write(buf[:n]); werr != nil {
				return newTaskError(ErrKindFilesystem, werr)
			}
			t.report.addBytes(int64(n))
			t.emit(false)
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return classifyRequestError(rerr)
		}
	}
}

func classifyRequestError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return newTaskError(ErrKindTimeout, err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newTaskError(ErrKindTimeout, err)
	}
	return newTaskError(ErrKindConnection, err)
}
