// Package synclock guards sync runs with a host-level lock file shared by
// the CLI, the scheduler and the HTTP API.
package synclock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

var ErrLocked = errors.New("another meetups sync is already running on this host")

func DefaultPath() string {
	return filepath.Join(os.TempDir(), "meetups-sync.lock")
}

// Acquire takes the lock without blocking. It returns ErrLocked when another
// holder has it. The caller must Unlock the returned lock.
func Acquire(path string) (*flock.Flock, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		trimmed = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lock := flock.New(trimmed)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", trimmed, err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return lock, nil
}
