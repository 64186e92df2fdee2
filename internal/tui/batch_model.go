package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/backoffice/internal/batch"
)

// BatchController is the part of a batch.Runner the view drives.
type BatchController interface {
	Snapshot() batch.Progress
	Cancel()
	Close()
}

// BatchProgressMsg carries a snapshot from the runner into the Bubble Tea loop.
type BatchProgressMsg struct {
	Progress batch.Progress
}

// BatchUpdatesClosedMsg is sent when the update channel is closed.
type BatchUpdatesClosedMsg struct{}

// WaitForProgress returns a command that blocks for the next snapshot on updates.
func WaitForProgress(updates <-chan batch.Progress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-updates
		if !ok {
			return BatchUpdatesClosedMsg{}
		}
		return BatchProgressMsg{Progress: p}
	}
}

// BatchModel is the Bubble Tea model for a running batch operation.
//
// While the run is in progress c, esc or ctrl+c request cancellation. Once it
// has completed, enter, q, esc or ctrl+c close the run and quit.
//
//nolint:recvcheck // Bubble Tea requires value receivers for Init/Update/View interface methods.
type BatchModel struct {
	ctrl    BatchController
	updates <-chan batch.Progress

	progress        batch.Progress
	bar             progress.Model
	width           int
	cancelRequested bool
	closed          bool
}

// NewBatchModel creates a view over ctrl, fed by updates.
func NewBatchModel(ctrl BatchController, updates <-chan batch.Progress) BatchModel {
	return BatchModel{
		ctrl:     ctrl,
		updates:  updates,
		progress: ctrl.Snapshot(),
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(defaultBarWidth),
		),
		width: defaultWidth,
	}
}

// Init starts listening for snapshots (Bubble Tea interface).
func (m BatchModel) Init() tea.Cmd {
	return WaitForProgress(m.updates)
}

// Update handles messages and updates the model state (Bubble Tea interface).
func (m BatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = clampBarWidth(msg.Width)
		return m, nil

	case BatchProgressMsg:
		m.progress = msg.Progress
		return m, WaitForProgress(m.updates)

	case BatchUpdatesClosedMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m BatchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.Completed() {
		switch key {
		case "enter", "q", "esc", "ctrl+c":
			m.ctrl.Close()
			m.closed = true
			return m, tea.Quit
		}
		return m, nil
	}

	switch key {
	case "c", "esc", "ctrl+c":
		if !m.cancelRequested {
			m.ctrl.Cancel()
			m.cancelRequested = true
		}
	}
	return m, nil
}

// Completed reports whether the last snapshot seen was terminal.
func (m BatchModel) Completed() bool {
	return m.progress.IsCompleted
}

// Closed reports whether the user dismissed the completed run.
func (m BatchModel) Closed() bool {
	return m.closed
}

// Progress returns the last snapshot seen.
func (m BatchModel) Progress() batch.Progress {
	return m.progress
}

// View renders the model (Bubble Tea interface).
func (m BatchModel) View() string {
	p := m.progress
	if !p.IsOpen {
		return ""
	}

	var sb strings.Builder
	if p.Title != "" {
		sb.WriteString(TitleStyle.Render(p.Title))
		sb.WriteString("\n\n")
	}

	if p.IsCompleted {
		sb.WriteString(m.renderCompleted())
	} else {
		sb.WriteString(m.renderRunning())
	}

	return BoxStyle.Render(sb.String()) + "\n"
}

func (m BatchModel) renderRunning() string {
	p := m.progress
	var sb strings.Builder

	sb.WriteString(m.bar.ViewAs(p.Ratio()))
	sb.WriteString("\n")
	sb.WriteString(printer.Sprintf("%d/%d items", p.Current, p.Total))
	if p.Errors > 0 {
		sb.WriteString("  ")
		sb.WriteString(ErrorStyle.Render(printer.Sprintf("%d failed", p.Errors)))
	}
	if eta := p.EstimatedTimeRemaining(); eta > 0 {
		sb.WriteString(MutedStyle.Render(fmt.Sprintf("  ~%s left", formatElapsed(eta))))
	}
	sb.WriteString("\n")

	if p.CurrentItem != "" {
		sb.WriteString(fmt.Sprintf("%s %s\n", IconRunning, p.CurrentItem))
	}

	sb.WriteString("\n")
	if m.cancelRequested {
		sb.WriteString(WarnStyle.Render("Cancelling after the current item..."))
	} else {
		sb.WriteString(MutedStyle.Render("c/esc: cancel"))
	}
	return sb.String()
}

func (m BatchModel) renderCompleted() string {
	p := m.progress
	icon, render := outcomeStyle(p.Outcome())

	var sb strings.Builder
	sb.WriteString(m.bar.ViewAs(p.Ratio()))
	sb.WriteString("\n")
	sb.WriteString(render(icon + " " + RenderSummary(p)))
	sb.WriteString("\n")
	sb.WriteString(MutedStyle.Render(printer.Sprintf("Finished in %s", formatElapsed(p.Elapsed))))
	sb.WriteString("\n\n")
	sb.WriteString(MutedStyle.Render("enter/q: close"))
	return sb.String()
}

func clampBarWidth(termWidth int) int {
	w := termWidth - horizontalPad*2
	switch {
	case w > maxBarWidth:
		return maxBarWidth
	case w < 10:
		return 10
	default:
		return w
	}
}
