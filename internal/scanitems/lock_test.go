package scanitems

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newQuickLock returns a lock that gives up after a few short retries.
func newQuickLock(t *testing.T, running func(int) bool) *fileLock {
	t.Helper()
	l := newFileLock(filepath.Join(t.TempDir(), "items.json"))
	l.retries = 5
	l.backoff = time.Millisecond
	l.ownerIsRunning = running
	return l
}

func writeLock(t *testing.T, l *fileLock, content string, age time.Duration) {
	t.Helper()
	require.NoError(t, os.WriteFile(l.path, []byte(content), 0o600))
	mtime := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(l.path, mtime, mtime))
}

func TestFileLock_Acquire(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		age     time.Duration
		running bool
		wantErr error
	}{
		{name: "no lock file", content: ""},
		{name: "fresh lock of exited owner is broken", content: "4242", running: false},
		{name: "old lock of exited owner is broken", content: "4242", age: time.Hour, running: false},
		{name: "running owner keeps the lock", content: "4242", running: true, wantErr: ErrLockTimeout},
		{name: "running owner keeps an old lock", content: "4242", age: time.Hour, running: true, wantErr: ErrLockTimeout},
		{name: "fresh lock without pid is trusted", content: "garbage", wantErr: ErrLockTimeout},
		{name: "old lock without pid is broken", content: "garbage", age: time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var asked []int
			l := newQuickLock(t, func(pid int) bool {
				asked = append(asked, pid)
				return tt.running
			})
			if tt.content != "" {
				writeLock(t, l, tt.content, tt.age)
			}

			release, err := l.acquire()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				data, readErr := os.ReadFile(l.path)
				require.NoError(t, readErr)
				assert.Equal(t, tt.content, string(data), "held lock is untouched")
				return
			}
			require.NoError(t, err)

			data, err := os.ReadFile(l.path)
			require.NoError(t, err)
			assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))
			if tt.content == "4242" {
				assert.Contains(t, asked, 4242)
			}

			release()
			assert.NoFileExists(t, l.path)
		})
	}
}

func TestFileLock_SecondHolderWaits(t *testing.T) {
	t.Parallel()

	storePath := filepath.Join(t.TempDir(), "items.json")
	release, err := newFileLock(storePath).acquire()
	require.NoError(t, err)

	other := newFileLock(storePath)
	other.retries = 3
	other.backoff = time.Millisecond
	_, err = other.acquire()
	require.ErrorIs(t, err, ErrLockTimeout, "own process is running")

	release()
	releaseOther, err := other.acquire()
	require.NoError(t, err)
	releaseOther()
}

func TestParseLockOwner(t *testing.T) {
	tests := []struct {
		in      string
		wantPID int
		wantOK  bool
	}{
		{in: "1234", wantPID: 1234, wantOK: true},
		{in: " 77\n", wantPID: 77, wantOK: true},
		{in: ""},
		{in: "0"},
		{in: "-5"},
		{in: "pid=12"},
	}
	for _, tt := range tests {
		pid, ok := parseLockOwner([]byte(tt.in))
		assert.Equal(t, tt.wantOK, ok, "input %q", tt.in)
		assert.Equal(t, tt.wantPID, pid, "input %q", tt.in)
	}
}

func TestProcessRunning(t *testing.T) {
	assert.True(t, processRunning(os.Getpid()))
}
