package scanitems

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"syscall"
	"time"
)

// ErrLockTimeout is returned when another writer holds the store lock for
// longer than the lock's retry budget.
var ErrLockTimeout = errors.New("timed out waiting for scan item store lock")

const (
	defaultLockRetries = 250
	defaultLockBackoff = 20 * time.Millisecond
	// unreadableLockAge is how long a lock with no readable owner PID is
	// trusted. A writer creates the file before writing its PID into it.
	unreadableLockAge = 30 * time.Second
)

// fileLock is an advisory lockfile next to the store. The holder writes its
// PID into the file; a lock whose owner process has exited is broken at once.
type fileLock struct {
	path           string
	retries        int
	backoff        time.Duration
	unreadableAge  time.Duration
	ownerIsRunning func(pid int) bool
}

func newFileLock(storePath string) *fileLock {
	return &fileLock{
		path:           storePath + ".lock",
		retries:        defaultLockRetries,
		backoff:        defaultLockBackoff,
		unreadableAge:  unreadableLockAge,
		ownerIsRunning: processRunning,
	}
}

// acquire blocks until the lock is held and returns its release function.
func (l *fileLock) acquire() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o750); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	for range l.retries {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			_, writeErr := f.WriteString(strconv.Itoa(os.Getpid()))
			closeErr := f.Close()
			if writeErr != nil || closeErr != nil {
				_ = os.Remove(l.path)
				return nil, fmt.Errorf("writing lock owner: %w", errors.Join(writeErr, closeErr))
			}
			return func() { _ = os.Remove(l.path) }, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("creating lock file: %w", err)
		}
		if l.breakAbandoned() {
			continue
		}
		time.Sleep(l.backoff)
	}
	return nil, fmt.Errorf("%w: %s held by another process", ErrLockTimeout, l.path)
}

// breakAbandoned removes the lock when its owner is gone, or when the owner
// cannot be read and the file is older than unreadableAge. It reports whether
// the caller should retry at once.
func (l *fileLock) breakAbandoned() bool {
	content, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return true
	}
	if err != nil {
		return false
	}

	if pid, ok := parseLockOwner(content); ok {
		if l.ownerIsRunning(pid) {
			return false
		}
	} else {
		info, statErr := os.Stat(l.path)
		if statErr != nil {
			return os.IsNotExist(statErr)
		}
		if time.Since(info.ModTime()) <= l.unreadableAge {
			return false
		}
	}

	// Another waiter may have broken the lock and taken it in the meantime.
	current, err := os.ReadFile(l.path)
	if err != nil {
		return os.IsNotExist(err)
	}
	if !bytes.Equal(current, content) {
		return true
	}
	_ = os.Remove(l.path)
	return true
}

func parseLockOwner(content []byte) (int, bool) {
	pid, err := strconv.Atoi(string(bytes.TrimSpace(content)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// processRunning reports whether pid names a live process.
func processRunning(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	if runtime.GOOS == "windows" {
		// FindProcess only succeeds for live processes there.
		_ = proc.Release()
		return true
	}
	// Signal 0 checks for existence. EPERM means it exists under another user.
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
