package tui

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/backoffice/internal/batch"
)

//nolint:gochecknoglobals // Printer is safe for concurrent use.
var printer = message.NewPrinter(language.English)

// RenderSummary describes a completed run in one plain-text line.
// It returns an empty string while the run is still in progress.
func RenderSummary(p batch.Progress) string {
	switch p.Outcome() {
	case batch.OutcomeEmpty:
		return "Nothing to do: no items selected"
	case batch.OutcomeSuccess:
		if p.Total == 1 {
			return "1 item succeeded"
		}
		return printer.Sprintf("All %d items succeeded", p.Total)
	case batch.OutcomeFailed:
		if p.Total == 1 {
			return "1 item failed"
		}
		return printer.Sprintf("All %d items failed", p.Total)
	case batch.OutcomePartial:
		return printer.Sprintf("%d of %d succeeded, %d failed", p.Succeeded(), p.Total, p.Errors)
	case batch.OutcomeCancelled:
		s := printer.Sprintf("Cancelled after %d of %d", p.Current, p.Total)
		if p.Errors > 0 {
			s += printer.Sprintf(" (%d failed)", p.Errors)
		}
		return s
	case batch.OutcomeNone:
		return ""
	}
	return ""
}

// RenderProgressLine renders a running snapshot as "Title: 3/10 (30%), 1 failed, current: X".
// Completed snapshots render as the title followed by the summary.
func RenderProgressLine(p batch.Progress) string {
	var sb strings.Builder
	if p.Title != "" {
		sb.WriteString(p.Title)
		sb.WriteString(": ")
	}

	if p.IsCompleted {
		sb.WriteString(RenderSummary(p))
		sb.WriteString(printer.Sprintf(" in %s", formatElapsed(p.Elapsed)))
		return sb.String()
	}

	sb.WriteString(printer.Sprintf("%d/%d (%.0f%%)", p.Current, p.Total, p.PercentComplete()))
	if p.Errors > 0 {
		sb.WriteString(printer.Sprintf(", %d failed", p.Errors))
	}
	if p.CurrentItem != "" {
		sb.WriteString(", current: ")
		sb.WriteString(p.CurrentItem)
	}
	return sb.String()
}

// formatElapsed rounds durations for display.
func formatElapsed(d time.Duration) string {
	switch {
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return d.Round(100 * time.Millisecond).String()
	default:
		return d.Round(time.Second).String()
	}
}

// outcomeStyle returns the icon and style for a completed run.
func outcomeStyle(o batch.Outcome) (string, func(...string) string) {
	switch o {
	case batch.OutcomeSuccess, batch.OutcomeEmpty:
		return IconSuccess, OKStyle.Render
	case batch.OutcomePartial:
		return IconPartial, WarnStyle.Render
	case batch.OutcomeFailed:
		return IconFailure, ErrorStyle.Render
	case batch.OutcomeCancelled:
		return IconCancelled, WarnStyle.Render
	case batch.OutcomeNone:
		return IconRunning, MutedStyle.Render
	}
	return IconRunning, MutedStyle.Render
}
