// Package guard keeps a single bot instance per host and drops repeated
// update deliveries.
package guard

import (
	"errors"
	"fmt"
	"os"

	"github.com/gofrs/flock"
)

// DefaultLockPath is the advisory lock file shared by all instances on a host.
const DefaultLockPath = "/tmp/bmchatbot.lock"

// ErrAlreadyRunning is returned when another process holds the lock.
var ErrAlreadyRunning = errors.New("another bot instance is already running")

// InstanceLock is an exclusive, non-blocking advisory file lock.
type InstanceLock struct {
	lock *flock.Flock
}

// AcquireInstanceLock takes the lock at path or fails immediately.
func AcquireInstanceLock(path string) (*InstanceLock, error) {
	if path == "" {
		path = DefaultLockPath
	}

	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !locked {
		return nil, ErrAlreadyRunning
	}

	return &InstanceLock{lock: lock}, nil
}

// Path returns the lock file location.
func (l *InstanceLock) Path() string {
	return l.lock.Path()
}

// Release unlocks and removes the lock file.
func (l *InstanceLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("unlock %s: %w", l.lock.Path(), err)
	}
	if err := os.Remove(l.lock.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", l.lock.Path(), err)
	}
	return nil
}
