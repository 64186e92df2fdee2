package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Common runner errors.
var (
	ErrAlreadyRunning = errors.New("a batch run is already in progress")
	ErrNilOperation   = errors.New("batch operation cannot be nil")
	ErrOperationPanic = errors.New("batch operation panicked")
)

// Operation performs the work for a single item. A non-nil error marks the item as failed.
type Operation[T any] func(ctx context.Context, item T) error

// CompleteFunc is called once when a run stops, before the terminal snapshot is published.
type CompleteFunc func(ctx context.Context, progress Progress)

// Config describes one run.
type Config[T any] struct {
	// Title labels the run for presenters.
	Title string

	// Items are processed in order. An empty list completes immediately.
	Items []T

	// Operation is called once per item. Required.
	Operation Operation[T]

	// ItemID returns the display label of an item. Defaults to fmt.Sprint.
	ItemID func(item T) string

	// OnComplete is optional.
	OnComplete CompleteFunc
}

// ItemError records a failed item.
type ItemError struct {
	ID  string
	Err error
}

// Error implements error.
func (e ItemError) Error() string {
	return fmt.Sprintf("%s: %v", e.ID, e.Err)
}

// Unwrap returns the operation error.
func (e ItemError) Unwrap() error {
	return e.Err
}

// Listener receives every published snapshot.
type Listener func(Progress)

// Option configures a Runner.
type Option func(*options)

type options struct {
	logger    zerolog.Logger
	clock     Clock
	itemDelay time.Duration
}

// WithLogger sets the logger used for run lifecycle events.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithClock sets the clock used for timestamps and item delays.
func WithClock(clock Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithItemDelay inserts a pause between consecutive items.
// Useful when the operation calls a rate-limited API.
func WithItemDelay(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.itemDelay = d
		}
	}
}

// run is the bookkeeping of one Execute call.
type run struct {
	cancel     chan struct{}
	cancelOnce sync.Once
	done       chan struct{}

	// final is set before done is closed.
	final Progress
}

func (r *run) requestCancel() {
	r.cancelOnce.Do(func() { close(r.cancel) })
}

// Runner executes an Operation over a list of items, strictly one at a time.
//
// A Runner owns its progress state exclusively. Consumers read snapshots via
// Snapshot, Subscribe or Updates and control the run with Cancel and Close.
// Listeners are invoked synchronously from the run goroutine and must not call
// Execute or Close themselves.
type Runner[T any] struct {
	opts options

	// mu protects state, progress, failures, current and listeners.
	mu        sync.Mutex
	state     State
	progress  Progress
	failures  []ItemError
	current   *run
	listeners map[int]Listener
	nextID    int

	// deliverMu serializes snapshot delivery so listeners observe publish order.
	deliverMu sync.Mutex
}

// NewRunner creates an idle Runner.
func NewRunner[T any](opts ...Option) *Runner[T] {
	o := options{
		logger: zerolog.Nop(),
		clock:  realClock{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Runner[T]{
		opts:      o,
		listeners: make(map[int]Listener),
	}
}

// Execute starts a run over cfg.Items and returns immediately.
// Progress is observed through snapshots; per-item failures never surface here.
// Cancelling ctx has the same effect as Cancel. Execute returns ErrAlreadyRunning
// if a run is in progress. A completed run that was not closed is superseded.
func (r *Runner[T]) Execute(ctx context.Context, cfg Config[T]) error {
	if cfg.Operation == nil {
		return ErrNilOperation
	}
	if ctx == nil {
		ctx = context.Background()
	}
	itemID := cfg.ItemID
	if itemID == nil {
		itemID = func(item T) string { return fmt.Sprint(item) }
	}

	// Snapshot the caller's slice so later mutation cannot affect the run.
	items := make([]T, len(cfg.Items))
	copy(items, cfg.Items)

	r.deliverMu.Lock()
	r.mu.Lock()
	if r.state == StateRunning {
		r.mu.Unlock()
		r.deliverMu.Unlock()
		return ErrAlreadyRunning
	}

	cur := &run{
		cancel: make(chan struct{}),
		done:   make(chan struct{}),
	}
	r.current = cur
	r.state = StateRunning
	r.failures = nil
	r.progress = Progress{
		IsOpen:    true,
		Title:     cfg.Title,
		Total:     len(items),
		StartedAt: r.opts.clock.Now(),
	}
	if len(items) > 0 {
		r.progress.CurrentItem = itemID(items[0])
	}
	r.mu.Unlock()
	r.deliverMu.Unlock()

	r.opts.logger.Info().
		Str("title", cfg.Title).
		Int("total", len(items)).
		Msg("batch run started")

	go r.loop(ctx, cur, items, cfg.Operation, itemID, cfg.OnComplete)
	return nil
}

func (r *Runner[T]) loop(
	ctx context.Context,
	cur *run,
	items []T,
	op Operation[T],
	itemID func(T) string,
	onComplete CompleteFunc,
) {
	defer close(cur.done)

	r.publish(nil)

	cancelled := false
	for i, item := range items {
		if i > 0 && r.opts.itemDelay > 0 {
			select {
			case <-r.opts.clock.After(r.opts.itemDelay):
			case <-cur.cancel:
			case <-ctx.Done():
			}
		}
		if stopRequested(ctx, cur) {
			cancelled = true
			break
		}

		id := itemID(item)
		err := r.invoke(ctx, op, item)
		if err != nil {
			r.opts.logger.Warn().Err(err).Str("item", id).Msg("batch item failed")
		}

		next := ""
		if i+1 < len(items) {
			next = itemID(items[i+1])
		}
		r.publish(func(p *Progress) {
			p.Current++
			if err != nil {
				p.Errors++
				r.failures = append(r.failures, ItemError{ID: id, Err: err})
			}
			p.CurrentItem = next
		})
	}

	if cancelled {
		r.mu.Lock()
		r.progress.CurrentItem = ""
		r.progress.Cancelled = true
		r.mu.Unlock()
	}

	if onComplete != nil {
		onComplete(ctx, r.Snapshot())
	}

	final := r.publishTerminal()
	cur.final = final

	r.opts.logger.Info().
		Str("title", final.Title).
		Int("total", final.Total).
		Int("processed", final.Current).
		Int("errors", final.Errors).
		Bool("cancelled", final.Cancelled).
		Dur("elapsed", final.Elapsed).
		Msg("batch run completed")
}

// invoke runs op for one item, converting a panic into an error.
func (r *Runner[T]) invoke(ctx context.Context, op Operation[T], item T) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.opts.logger.Error().
				Interface("panic", rec).
				Str("stack", string(debug.Stack())).
				Msg("batch operation panicked")
			err = fmt.Errorf("%w: %v", ErrOperationPanic, rec)
		}
	}()
	return op(ctx, item)
}

func stopRequested(ctx context.Context, cur *run) bool {
	select {
	case <-cur.cancel:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// publish applies mutate under the lock and delivers the resulting snapshot.
func (r *Runner[T]) publish(mutate func(*Progress)) {
	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()

	r.mu.Lock()
	if mutate != nil {
		mutate(&r.progress)
	}
	r.progress.Elapsed = r.opts.clock.Now().Sub(r.progress.StartedAt)
	snap := r.progress
	listeners := r.listenersLocked()
	r.mu.Unlock()

	deliver(listeners, snap)
}

// publishTerminal moves the runner to Completed and delivers the final snapshot.
func (r *Runner[T]) publishTerminal() Progress {
	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()

	r.mu.Lock()
	now := r.opts.clock.Now()
	r.state = StateCompleted
	r.progress.IsCompleted = true
	r.progress.CurrentItem = ""
	r.progress.FinishedAt = now
	r.progress.Elapsed = now.Sub(r.progress.StartedAt)
	snap := r.progress
	listeners := r.listenersLocked()
	r.mu.Unlock()

	deliver(listeners, snap)
	return snap
}

func (r *Runner[T]) listenersLocked() []Listener {
	out := make([]Listener, 0, len(r.listeners))
	for id := 0; id < r.nextID; id++ {
		if l, ok := r.listeners[id]; ok {
			out = append(out, l)
		}
	}
	return out
}

func deliver(listeners []Listener, snap Progress) {
	for _, l := range listeners {
		l(snap)
	}
}

// Cancel requests cooperative cancellation of the current run.
// The in-flight item is allowed to settle; no further item is started.
// Calling Cancel when idle, completed, or more than once has no effect.
func (r *Runner[T]) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRunning || r.current == nil {
		return
	}
	r.current.requestCancel()
}

// Close discards a completed run and returns the runner to Idle.
// Calling Close while a run is in progress is ignored.
func (r *Runner[T]) Close() {
	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()

	r.mu.Lock()
	switch r.state {
	case StateRunning:
		r.mu.Unlock()
		r.opts.logger.Debug().Msg("ignoring close while batch run is in progress")
		return
	case StateIdle:
		r.mu.Unlock()
		return
	}
	r.state = StateIdle
	r.progress = Progress{}
	r.failures = nil
	r.current = nil
	snap := r.progress
	listeners := r.listenersLocked()
	r.mu.Unlock()

	deliver(listeners, snap)
}

// Snapshot returns a copy of the current progress.
func (r *Runner[T]) Snapshot() Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress
}

// State returns the runner's lifecycle state.
func (r *Runner[T]) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Failures returns the failed items of the current run, in processing order.
func (r *Runner[T]) Failures() []ItemError {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ItemError, len(r.failures))
	copy(out, r.failures)
	return out
}

// Subscribe registers fn to receive every published snapshot.
// The returned function removes the listener.
func (r *Runner[T]) Subscribe(fn Listener) func() {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = fn
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.listeners, id)
			r.mu.Unlock()
		})
	}
}

// Updates returns a channel of snapshots for consumers that poll, such as
// Bubble Tea commands. When the channel is full the oldest pending snapshot is
// dropped so the newest one is always delivered. The returned function
// unsubscribes and closes the channel; it must not be called from a Listener.
func (r *Runner[T]) Updates(buffer int) (<-chan Progress, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Progress, buffer)
	unsubscribe := r.Subscribe(func(p Progress) {
		for {
			select {
			case ch <- p:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
		}
	})

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.deliverMu.Lock()
			defer r.deliverMu.Unlock()
			unsubscribe()
			close(ch)
		})
	}
}

// Wait blocks until the current run completes and returns its terminal snapshot.
// When no run is in progress it returns the current snapshot immediately.
func (r *Runner[T]) Wait(ctx context.Context) (Progress, error) {
	r.mu.Lock()
	cur := r.current
	r.mu.Unlock()

	if cur == nil {
		return r.Snapshot(), nil
	}

	select {
	case <-cur.done:
		return cur.final, nil
	case <-ctx.Done():
		return r.Snapshot(), ctx.Err()
	}
}
