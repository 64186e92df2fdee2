package tui

import (
	"fmt"
	"io"
	"sync"

	"github.com/rshade/backoffice/internal/batch"
)

// LinePresenter writes one line per progress change to w. It is the
// presenter for pipes, CI logs and other non-interactive output.
//
// Repeated snapshots with unchanged counts are skipped, as are snapshots of a
// closed (idle) run.
type LinePresenter struct {
	mu   sync.Mutex
	w    io.Writer
	last batch.Progress
	seen bool
	err  error
}

// NewLinePresenter returns a presenter that writes to w.
func NewLinePresenter(w io.Writer) *LinePresenter {
	return &LinePresenter{w: w}
}

// Handle renders p. It has the batch.Listener signature and can be passed to Subscribe.
func (lp *LinePresenter) Handle(p batch.Progress) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	if !p.IsOpen || lp.err != nil {
		return
	}
	if lp.seen && sameLine(lp.last, p) {
		return
	}
	lp.last = p
	lp.seen = true

	if _, err := fmt.Fprintln(lp.w, RenderProgressLine(p)); err != nil {
		lp.err = err
	}
}

// Err returns the first write error, if any. Output stops after a write error.
func (lp *LinePresenter) Err() error {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return lp.err
}

func sameLine(a, b batch.Progress) bool {
	return a.Current == b.Current &&
		a.Total == b.Total &&
		a.Errors == b.Errors &&
		a.CurrentItem == b.CurrentItem &&
		a.IsCompleted == b.IsCompleted &&
		a.Cancelled == b.Cancelled
}
