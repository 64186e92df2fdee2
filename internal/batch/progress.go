package batch

import (
	"time"
)

// percentMultiplier is used to convert a ratio to percentage (0-100).
const percentMultiplier = 100

// State is the lifecycle state of a Runner.
type State int

// Runner states.
const (
	StateIdle State = iota
	StateRunning
	StateCompleted
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Outcome classifies a finished run for presentation.
type Outcome string

// Run outcomes.
const (
	OutcomeNone      Outcome = ""
	OutcomeEmpty     Outcome = "empty"
	OutcomeSuccess   Outcome = "success"
	OutcomePartial   Outcome = "partial"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
)

// Progress is an immutable snapshot of a run.
//
// Errors <= Current <= Total always holds. IsCompleted is true once processing
// has stopped, either because every item was attempted or because the run was
// cancelled.
type Progress struct {
	// IsOpen is true while a run is active or its terminal snapshot is still shown.
	IsOpen bool

	// Title labels the run for presenters.
	Title string

	// Total is the number of items submitted.
	Total int

	// Current is the number of items processed so far, successes and failures.
	Current int

	// Errors is the number of processed items whose operation failed.
	Errors int

	// CurrentItem is the label of the item being processed, empty when none.
	CurrentItem string

	// IsCompleted is true once processing has stopped.
	IsCompleted bool

	// Cancelled is true when the run stopped because cancellation was requested.
	Cancelled bool

	// StartedAt is when the run started.
	StartedAt time.Time

	// FinishedAt is when the run completed; zero while running.
	FinishedAt time.Time

	// Elapsed is the run duration at the time of the snapshot.
	Elapsed time.Duration
}

// Succeeded returns the number of processed items that did not fail.
func (p Progress) Succeeded() int {
	return p.Current - p.Errors
}

// Remaining returns the number of items not yet processed.
func (p Progress) Remaining() int {
	return p.Total - p.Current
}

// PercentComplete returns the completion percentage (0-100).
func (p Progress) PercentComplete() float64 {
	if p.Total == 0 {
		return 0
	}
	return (float64(p.Current) / float64(p.Total)) * percentMultiplier
}

// Ratio returns Current/Total in the range 0-1, for progress bars.
func (p Progress) Ratio() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Current) / float64(p.Total)
}

// ItemsPerSecond returns the processing rate over the elapsed time.
func (p Progress) ItemsPerSecond() float64 {
	seconds := p.Elapsed.Seconds()
	if seconds == 0 {
		return 0
	}
	return float64(p.Current) / seconds
}

// EstimatedTimeRemaining estimates the remaining time from the average item duration.
// Returns 0 if no items have been processed yet or the run is completed.
func (p Progress) EstimatedTimeRemaining() time.Duration {
	if p.Current == 0 || p.IsCompleted {
		return 0
	}
	avgPerItem := p.Elapsed / time.Duration(p.Current)
	return avgPerItem * time.Duration(p.Remaining())
}

// Outcome classifies the run. It returns OutcomeNone until the run is completed.
func (p Progress) Outcome() Outcome {
	switch {
	case !p.IsCompleted:
		return OutcomeNone
	case p.Cancelled:
		return OutcomeCancelled
	case p.Total == 0:
		return OutcomeEmpty
	case p.Errors == 0:
		return OutcomeSuccess
	case p.Errors == p.Current:
		return OutcomeFailed
	default:
		return OutcomePartial
	}
}
