package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/backoffice/internal/batch"
	"github.com/rshade/backoffice/internal/logging"
	"github.com/rshade/backoffice/internal/tui"
)

// updatesBuffer is the snapshot buffer between the runner and the Bubble Tea program.
const updatesBuffer = 16

// BatchExitError carries the process exit code for a bulk run that did not
// fully succeed.
type BatchExitError struct {
	ExitCode int
	Reason   string
}

func (e *BatchExitError) Error() string {
	return e.Reason
}

// batchOptions controls how a bulk command runs and is presented.
type batchOptions struct {
	Title       string
	ItemDelay   time.Duration
	StopOnError bool
}

// batchResult is what a bulk command reports after the run.
type batchResult struct {
	Final    batch.Progress
	Failures []batch.ItemError
}

// runBatch executes op over items through a batch.Runner and presents progress
// with the Bubble Tea view on a terminal, or one line per change otherwise.
// It returns once the run has completed and been dismissed.
func runBatch[T any](
	cmd *cobra.Command,
	opts batchOptions,
	items []T,
	itemID func(T) string,
	op batch.Operation[T],
) (batchResult, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := logging.ComponentLogger(*logging.FromContext(ctx), "batch")

	runner := batch.NewRunner[T](
		batch.WithLogger(log),
		batch.WithItemDelay(opts.ItemDelay),
	)

	var (
		mu     sync.Mutex
		result batchResult
	)
	unsubscribe := runner.Subscribe(func(p batch.Progress) {
		if p.IsCompleted {
			mu.Lock()
			result.Final = p
			mu.Unlock()
		}
	})
	defer unsubscribe()

	runOp := op
	if opts.StopOnError {
		runOp = func(ctx context.Context, item T) error {
			err := op(ctx, item)
			if err != nil {
				runner.Cancel()
			}
			return err
		}
	}

	cfg := batch.Config[T]{
		Title:     opts.Title,
		Items:     items,
		Operation: runOp,
		ItemID:    itemID,
		OnComplete: func(_ context.Context, _ batch.Progress) {
			failures := runner.Failures()
			mu.Lock()
			result.Failures = failures
			mu.Unlock()
		},
	}

	var err error
	if tui.IsInteractive(cmd.InOrStdin(), cmd.OutOrStdout()) {
		err = runInteractive(ctx, cmd, runner, cfg)
	} else {
		err = runPlain(ctx, cmd, runner, cfg)
	}
	runner.Close()

	mu.Lock()
	defer mu.Unlock()
	return result, err
}

// runInteractive drives the run with the Bubble Tea view. The view closes the
// runner when the user dismisses the summary.
func runInteractive[T any](
	ctx context.Context,
	cmd *cobra.Command,
	runner *batch.Runner[T],
	cfg batch.Config[T],
) error {
	updates, stopUpdates := runner.Updates(updatesBuffer)
	defer stopUpdates()

	g, gctx := errgroup.WithContext(ctx)
	if err := runner.Execute(gctx, cfg); err != nil {
		return err
	}

	program := tea.NewProgram(
		tui.NewBatchModel(runner, updates),
		tea.WithContext(gctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)

	g.Go(func() error {
		_, err := program.Run()
		// The view only quits early when killed; stop the run with it.
		runner.Cancel()
		if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("running progress view: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		_, err := runner.Wait(context.Background())
		return err
	})
	return g.Wait()
}

// runPlain drives the run with line output. SIGINT and SIGTERM cancel the run
// after the in-flight item.
func runPlain[T any](
	ctx context.Context,
	cmd *cobra.Command,
	runner *batch.Runner[T],
	cfg batch.Config[T],
) error {
	presenter := tui.NewLinePresenter(cmd.OutOrStdout())
	unsubscribe := runner.Subscribe(presenter.Handle)
	defer unsubscribe()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runner.Execute(sigCtx, cfg); err != nil {
		return err
	}
	if _, err := runner.Wait(context.Background()); err != nil {
		return err
	}
	return presenter.Err()
}

// reportBatch prints failures and converts an unsuccessful run into a BatchExitError.
func reportBatch(cmd *cobra.Command, res batchResult) error {
	for _, f := range res.Failures {
		cmd.PrintErrf("  %s %s: %v\n", tui.IconFailure, f.ID, f.Err)
	}

	p := res.Final
	logger.Info().
		Ctx(cmd.Context()).
		Str("title", p.Title).
		Str("outcome", string(p.Outcome())).
		Int("processed", p.Current).
		Int("failed", p.Errors).
		Msg("bulk operation finished")

	switch p.Outcome() {
	case batch.OutcomeFailed, batch.OutcomePartial, batch.OutcomeCancelled:
		return &BatchExitError{ExitCode: 1, Reason: tui.RenderSummary(p)}
	case batch.OutcomeSuccess, batch.OutcomeEmpty, batch.OutcomeNone:
		return nil
	}
	return nil
}
