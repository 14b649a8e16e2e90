// Package filelock provides the file locking and atomic write primitives the
// exporter uses to keep CSV output consistent: an exclusive run lock so two
// exports never interleave writes under the same output root, and
// temp-file-plus-rename writes so a reader never sees a partial CSV.
package filelock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// RunLock is an advisory, process-level lock guarding an export output root.
type RunLock struct {
	flock *flock.Flock
	path  string
}

// NewRunLock creates a lock backed by the lock file at path.
// The lock file is created on first acquisition.
func NewRunLock(path string) *RunLock {
	return &RunLock{
		flock: flock.New(path),
		path:  path,
	}
}

// TryLock attempts to acquire the lock without blocking.
// Returns false when another process already holds it.
func (rl *RunLock) TryLock() (bool, error) {
	acquired, err := rl.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to try lock on %s: %w", rl.path, err)
	}
	return acquired, nil
}

// Lock acquires the lock, blocking until it is available.
func (rl *RunLock) Lock() error {
	if err := rl.flock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", rl.path, err)
	}
	return nil
}

// Unlock releases the lock.
func (rl *RunLock) Unlock() error {
	if err := rl.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", rl.path, err)
	}
	return nil
}

// Path returns the lock file path.
func (rl *RunLock) Path() string {
	return rl.path
}

// AtomicWrite writes data to path via a temp file in the same directory
// followed by a rename, creating parent directories as needed. If the write
// fails at any point the existing file, if any, is left untouched. The temp
// file lives next to the target so the rename stays on one filesystem, where
// it is atomic.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
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
	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	// Rename succeeded; disarm the cleanup.
	tempFile = nil
	return nil
}
