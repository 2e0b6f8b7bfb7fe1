package shared

import (
	"fmt"

	"github.com/gofrs/flock"
)

// DatabaseLock guards a database file against a second long-running writer (a server next to a TUI, say).
type DatabaseLock struct {
	lock *flock.Flock
}

// LockPath returns the lock file used for the database at path.
func LockPath(path string) string {
	return path + ".lock"
}

// LockDatabase takes an exclusive, non-blocking lock on the database at path.
//
// In-memory databases need no lock and get a no-op [DatabaseLock].
// Returns [ErrDatabaseLocked] when another process holds the lock.
func LockDatabase(path string) (*DatabaseLock, error) {
	if isMemoryPath(path) {
		return &DatabaseLock{}, nil
	}

	lock := flock.New(LockPath(path))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock database: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrDatabaseLocked, LockPath(path))
	}
	return &DatabaseLock{lock: lock}, nil
}

// Unlock releases the lock. Safe to call more than once.
func (l *DatabaseLock) Unlock() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock database: %w", err)
	}
	return nil
}
