// Package lock provides the single-instance advisory lock the CLI takes
// over its temp root before touching any task's part files.
package lock

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// InstanceLock wraps an advisory file lock scoped to one temp root.
type InstanceLock struct {
	flock *flock.Flock
}

// Acquire tries to take the lock file at <tempRoot>/alter.lock. It returns
// ok=false (no error) if another instance already holds it.
func Acquire(tempRoot string) (l *InstanceLock, ok bool, err error) {
	path := filepath.Join(tempRoot, "alter.lock")
	fl := flock.New(path)

	locked, err := fl.TryLock()
	if err != nil {
		return nil, false, fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return nil, false, nil
	}
	return &InstanceLock{flock: fl}, true, nil
}

// Release gives up the lock. Safe to call on a nil receiver.
func (l *InstanceLock) Release() error {
	if l == nil || l.flock == nil {
		return nil
	}
	return l.flock.Unlock()
}
