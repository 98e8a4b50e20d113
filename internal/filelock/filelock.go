// Package filelock serializes runs against a shared guidewalk home
// directory and provides atomic writes so readers never observe partial
// files.
package filelock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// RunLock guards a guidewalk home directory. Two concurrent runs would
// fight over the browser profile, the artifacts directory, and the history
// database, so exactly one run may hold the lock at a time.
type RunLock struct {
	flock *flock.Flock
	path  string
}

// AcquireRunLock attempts to take the run lock for homeDir without
// blocking. It returns an error when another run already holds it.
func AcquireRunLock(homeDir string) (*RunLock, error) {
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		return nil, fmt.Errorf("create home directory %s: %w", homeDir, err)
	}

	path := filepath.Join(homeDir, "run.lock")
	fl := flock.New(path)
	acquired, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to try lock on %s: %w", path, err)
	}
	if !acquired {
		return nil, fmt.Errorf("another run is already in progress (lock held on %s)", path)
	}
	return &RunLock{flock: fl, path: path}, nil
}

// Path returns the lock file location.
func (l *RunLock) Path() string {
	return l.path
}

// Release releases the run lock.
func (l *RunLock) Release() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}

// AtomicWrite writes data to a file atomically using a temp file and rename
// strategy. Readers never see partial writes, even if the write is
// interrupted: the temp file lives in the target's directory so the final
// rename stays on one filesystem.
//
// If the operation fails at any point, the original file (if it exists)
// remains unchanged.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, 0o644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	tempFile = nil
	return nil
}
