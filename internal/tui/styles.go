package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette shared by all views.
const (
	ColorHeader  = lipgloss.Color("12")  // bright blue
	ColorBorder  = lipgloss.Color("240") // gray
	ColorOK      = lipgloss.Color("10")  // green
	ColorWarning = lipgloss.Color("11")  // yellow
	ColorError   = lipgloss.Color("9")   // red
	ColorMuted   = lipgloss.Color("245") // light gray
)

// Status icons.
const (
	IconSuccess   = "✓"
	IconPartial   = "!"
	IconFailure   = "✗"
	IconCancelled = "■"
	IconRunning   = "›"
)

// Layout defaults.
const (
	defaultWidth    = 80
	defaultHeight   = 24
	defaultBarWidth = 40
	maxBarWidth     = 72
	horizontalPad   = 4
)

//nolint:gochecknoglobals // Immutable style definitions.
var (
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorHeader)
	OKStyle    = lipgloss.NewStyle().Foreground(ColorOK).Bold(true)
	WarnStyle  = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	ErrorStyle = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	MutedStyle = lipgloss.NewStyle().Foreground(ColorMuted)

	// BoxStyle frames the batch view.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)
)
