package tui

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/backoffice/internal/batch"
)

type fakeController struct {
	snap    batch.Progress
	cancels int
	closes  int
}

func (f *fakeController) Snapshot() batch.Progress { return f.snap }
func (f *fakeController) Cancel()                  { f.cancels++ }
func (f *fakeController) Close()                   { f.closes++ }

func runningSnapshot() batch.Progress {
	return batch.Progress{
		IsOpen:      true,
		Title:       "Moving items",
		Total:       4,
		Current:     2,
		Errors:      1,
		CurrentItem: "QR-3",
		Elapsed:     2 * time.Second,
	}
}

func completedSnapshot() batch.Progress {
	p := runningSnapshot()
	p.Current = 4
	p.CurrentItem = ""
	p.IsCompleted = true
	return p
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func update(t *testing.T, m BatchModel, msg tea.Msg) (BatchModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	bm, ok := next.(BatchModel)
	require.True(t, ok)
	return bm, cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestNewBatchModel(t *testing.T) {
	ctrl := &fakeController{snap: runningSnapshot()}
	updates := make(chan batch.Progress, 1)

	m := NewBatchModel(ctrl, updates)
	assert.Equal(t, runningSnapshot(), m.Progress())
	assert.False(t, m.Completed())

	cmd := m.Init()
	require.NotNil(t, cmd)

	updates <- completedSnapshot()
	msg := cmd()
	assert.Equal(t, BatchProgressMsg{Progress: completedSnapshot()}, msg)
}

func TestWaitForProgress_ClosedChannel(t *testing.T) {
	updates := make(chan batch.Progress)
	close(updates)
	assert.Equal(t, BatchUpdatesClosedMsg{}, WaitForProgress(updates)())
}

func TestBatchModel_ProgressMsg(t *testing.T) {
	ctrl := &fakeController{}
	m := NewBatchModel(ctrl, make(chan batch.Progress))

	m, cmd := update(t, m, BatchProgressMsg{Progress: runningSnapshot()})
	assert.Equal(t, 2, m.Progress().Current)
	assert.NotNil(t, cmd, "keeps listening")

	m, _ = update(t, m, BatchProgressMsg{Progress: completedSnapshot()})
	assert.True(t, m.Completed())
}

func TestBatchModel_UpdatesClosedQuits(t *testing.T) {
	m := NewBatchModel(&fakeController{}, make(chan batch.Progress))
	_, cmd := update(t, m, BatchUpdatesClosedMsg{})
	assert.True(t, isQuit(cmd))
}

func TestBatchModel_CancelKeysWhileRunning(t *testing.T) {
	for _, key := range []string{"c", "esc", "ctrl+c"} {
		t.Run(key, func(t *testing.T) {
			ctrl := &fakeController{snap: runningSnapshot()}
			m := NewBatchModel(ctrl, make(chan batch.Progress))

			m, cmd := update(t, m, keyMsg(key))
			assert.Nil(t, cmd, "cancelling does not quit")
			assert.Equal(t, 1, ctrl.cancels)
			assert.Zero(t, ctrl.closes)
			assert.Contains(t, m.View(), "Cancelling after the current item")

			// A second press does not cancel again.
			_, _ = update(t, m, keyMsg(key))
			assert.Equal(t, 1, ctrl.cancels)
		})
	}
}

func TestBatchModel_CloseKeysIgnoredWhileRunning(t *testing.T) {
	ctrl := &fakeController{snap: runningSnapshot()}
	m := NewBatchModel(ctrl, make(chan batch.Progress))

	for _, key := range []string{"enter", "q"} {
		var cmd tea.Cmd
		m, cmd = update(t, m, keyMsg(key))
		assert.Nil(t, cmd)
	}
	assert.Zero(t, ctrl.closes)
	assert.Zero(t, ctrl.cancels)
}

func TestBatchModel_CloseKeysWhenCompleted(t *testing.T) {
	for _, key := range []string{"enter", "q", "esc", "ctrl+c"} {
		t.Run(key, func(t *testing.T) {
			ctrl := &fakeController{snap: completedSnapshot()}
			m := NewBatchModel(ctrl, make(chan batch.Progress))

			m, cmd := update(t, m, keyMsg(key))
			assert.True(t, isQuit(cmd))
			assert.True(t, m.Closed())
			assert.Equal(t, 1, ctrl.closes)
			assert.Zero(t, ctrl.cancels)
		})
	}
}

func TestBatchModel_OtherKeysIgnoredWhenCompleted(t *testing.T) {
	ctrl := &fakeController{snap: completedSnapshot()}
	m := NewBatchModel(ctrl, make(chan batch.Progress))

	m, cmd := update(t, m, keyMsg("x"))
	assert.Nil(t, cmd)
	assert.False(t, m.Closed())
}

func TestBatchModel_WindowResize(t *testing.T) {
	m := NewBatchModel(&fakeController{}, make(chan batch.Progress))

	tests := []struct {
		width int
		want  int
	}{
		{width: 200, want: maxBarWidth},
		{width: 50, want: 42},
		{width: 5, want: 10},
	}
	for _, tt := range tests {
		m, _ = update(t, m, tea.WindowSizeMsg{Width: tt.width, Height: 20})
		assert.Equal(t, tt.want, m.bar.Width)
	}
}

func TestBatchModel_View(t *testing.T) {
	t.Run("idle renders nothing", func(t *testing.T) {
		m := NewBatchModel(&fakeController{}, make(chan batch.Progress))
		assert.Empty(t, m.View())
	})

	t.Run("running", func(t *testing.T) {
		m := NewBatchModel(&fakeController{snap: runningSnapshot()}, make(chan batch.Progress))
		view := m.View()
		assert.Contains(t, view, "Moving items")
		assert.Contains(t, view, "2/4 items")
		assert.Contains(t, view, "1 failed")
		assert.Contains(t, view, "QR-3")
		assert.Contains(t, view, "c/esc: cancel")
	})

	t.Run("completed", func(t *testing.T) {
		m := NewBatchModel(&fakeController{snap: completedSnapshot()}, make(chan batch.Progress))
		view := m.View()
		assert.Contains(t, view, "3 of 4 succeeded, 1 failed")
		assert.Contains(t, view, "Finished in 2s")
		assert.Contains(t, view, "enter/q: close")
		assert.NotContains(t, view, "QR-3")
	})
}

// TestBatchModel_DrivesRunner exercises the model against a real runner
// without a Bubble Tea program.
func TestBatchModel_DrivesRunner(t *testing.T) {
	release := make(chan struct{})
	r := batch.NewRunner[string]()
	updates, stop := r.Updates(16)
	defer stop()

	require.NoError(t, r.Execute(context.Background(), batch.Config[string]{
		Title: "Deleting",
		Items: []string{"a", "b", "c"},
		Operation: func(_ context.Context, item string) error {
			if item == "a" {
				<-release
				return nil
			}
			return errors.New("unreachable after cancel")
		},
	}))

	m := NewBatchModel(r, updates)
	m, _ = update(t, m, WaitForProgress(updates)())
	assert.False(t, m.Completed())

	m, _ = update(t, m, keyMsg("c"))
	close(release)

	for !m.Completed() {
		m, _ = update(t, m, WaitForProgress(updates)())
	}
	assert.Equal(t, batch.OutcomeCancelled, m.Progress().Outcome())
	assert.Equal(t, 1, m.Progress().Current)

	m, cmd := update(t, m, keyMsg("enter"))
	assert.True(t, isQuit(cmd))
	assert.Equal(t, batch.StateIdle, r.State())
	_ = m
}

func TestLinePresenter(t *testing.T) {
	var buf bytes.Buffer
	lp := NewLinePresenter(&buf)

	r := batch.NewRunner[string]()
	unsubscribe := r.Subscribe(lp.Handle)
	defer unsubscribe()

	require.NoError(t, r.Execute(context.Background(), batch.Config[string]{
		Title: "Moving",
		Items: []string{"a", "b"},
		Operation: func(_ context.Context, item string) error {
			if item == "b" {
				return errors.New("boom")
			}
			return nil
		},
	}))
	final, err := r.Wait(context.Background())
	require.NoError(t, err)
	require.True(t, final.IsCompleted)

	r.Close()
	require.NoError(t, lp.Err())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 4)
	assert.Equal(t, "Moving: 0/2 (0%), current: a", string(lines[0]))
	assert.Equal(t, "Moving: 1/2 (50%), current: b", string(lines[1]))
	assert.Equal(t, "Moving: 2/2 (100%), 1 failed", string(lines[2]))
	assert.Contains(t, string(lines[3]), "Moving: 1 of 2 succeeded, 1 failed in ")
}

type failingWriter struct{ writes int }

func (f *failingWriter) Write([]byte) (int, error) {
	f.writes++
	return 0, errors.New("closed pipe")
}

func TestLinePresenter_StopsAfterWriteError(t *testing.T) {
	w := &failingWriter{}
	lp := NewLinePresenter(w)

	lp.Handle(runningSnapshot())
	p := runningSnapshot()
	p.Current = 3
	lp.Handle(p)

	require.Error(t, lp.Err())
	assert.Equal(t, 1, w.writes)
}

func TestLinePresenter_SkipsDuplicatesAndIdle(t *testing.T) {
	var buf bytes.Buffer
	lp := NewLinePresenter(&buf)

	lp.Handle(batch.Progress{})
	lp.Handle(runningSnapshot())
	lp.Handle(runningSnapshot())

	assert.Equal(t, "Moving items: 2/4 (50%), 1 failed, current: QR-3\n", buf.String())
}
