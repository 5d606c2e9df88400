package engine

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Manager owns the set of in-flight and finished tasks for one run of the
// engine. It is the only thing callers (the CLI, a TUI, a test) need to
// talk to.
//
// Callers should hand NewManager a reasonably buffered channel (a few dozen
// to a few hundred slots). The engine never drops a status-transition
// event, so an undersized channel just makes Add/Pause/Resume calls block
// slightly longer on delivery; it never loses information.
type Manager struct {
	mu       sync.Mutex
	tasks    map[string]*Task
	order    []string
	tempRoot string
	runtime  *RuntimeConfig
	out      chan<- DownloadProgress
}

// NewManager creates a Manager that publishes every task's progress onto out
// and stages multipart part files under tempRoot, using package-default
// engine-wide HTTP tuning.
func NewManager(out chan<- DownloadProgress, tempRoot string) *Manager {
	return NewManagerWithRuntime(out, tempRoot, nil)
}

// NewManagerWithRuntime is NewManager with an explicit RuntimeConfig
// override for engine-wide HTTP tuning (connection pool size, keep-alive,
// probe timeout, user agent).
func NewManagerWithRuntime(out chan<- DownloadProgress, tempRoot string, rc *RuntimeConfig) *Manager {
	return &Manager{
		tasks:    make(map[string]*Task),
		tempRoot: tempRoot,
		runtime:  rc,
		out:      out,
	}
}

// Add registers a new task in the queued state and returns its ID. It does
// not start the task; call Start with the returned ID.
func (m *Manager) Add(req DownloadRequest, cfg TaskConfig) string {
	id := uuid.NewString()
	task := newTask(id, req.URL, req, cfg, m.tempRoot, m.runtime, m.out)

	m.mu.Lock()
	m.tasks[id] = task
	m.order = append(m.order, id)
	m.mu.Unlock()

	task.emit(true) // publish the initial queued snapshot
	return id
}

func (m *Manager) get(id string) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok {
		return nil, fmt.Errorf("unknown task %q", id)
	}
	return task, nil
}

func (m *Manager) find(id string) *Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tasks[id]
}

// Start begins a task's download pipeline. An unknown id is a no-op.
func (m *Manager) Start(id string) {
	if task := m.find(id); task != nil {
		task.Start()
	}
}

// Pause requests that a downloading task suspend at its next chunk
// boundary. An unknown id is a no-op.
func (m *Manager) Pause(id string) {
	if task := m.find(id); task != nil {
		task.Pause()
	}
}

// Resume releases a paused task's workers. An unknown id is a no-op.
func (m *Manager) Resume(id string) {
	if task := m.find(id); task != nil {
		task.Resume()
	}
}

// Stop requests that a task abandon its download and clean up. An unknown
// id is a no-op.
func (m *Manager) Stop(id string) {
	if task := m.find(id); task != nil {
		task.Stop()
	}
}

// OutputPath returns a task's current resolved output path.
func (m *Manager) OutputPath(id string) (string, error) {
	task, err := m.get(id)
	if err != nil {
		return "", err
	}
	return task.OutputPath(), nil
}

// Get returns a single task's current progress snapshot.
func (m *Manager) Get(id string) (DownloadProgress, error) {
	task, err := m.get(id)
	if err != nil {
		return DownloadProgress{}, err
	}
	return task.Snapshot(), nil
}

// List returns every task's progress snapshot, in the order tasks were added.
func (m *Manager) List() []DownloadProgress {
	m.mu.Lock()
	ids := append([]string(nil), m.order...)
	m.mu.Unlock()

	out := make([]DownloadProgress, 0, len(ids))
	for _, id := range ids {
		if task, err := m.get(id); err == nil {
			out = append(out, task.Snapshot())
		}
	}
	return out
}

// Remove drops a task from the registry unconditionally, whatever its
// status. It does not stop a still-running task or touch any file on disk;
// a caller that wants a clean stop first should call Stop and wait for a
// terminal snapshot before removing.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.tasks, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.mu.Unlock()
}
