package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"psxinstall/internal/services"
	"psxinstall/internal/workflow"
)

type startFunc func(context.Context, *workflow.Manager) (string, error)

// cliError carries the display text for a failed run while keeping the
// underlying error for errors.Is checks.
type cliError struct {
	text string
	err  error
}

func (e *cliError) Error() string { return e.text }

func (e *cliError) Unwrap() error { return e.err }

func userFacingError(err error) error {
	if err == nil {
		return nil
	}
	text := services.UserMessage(err)
	if hint := services.Hint(err); hint != "" {
		text += "\nHint: " + hint
	}
	return &cliError{text: text, err: err}
}

// runOperation starts a run, renders its progress, and blocks until it ends.
// Interrupts cancel the run at the next phase boundary.
func runOperation(cmd *cobra.Command, ctx *commandContext, start startFunc) error {
	return ctx.withManager(cmd, func(mgr *workflow.Manager) error {
		runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		view := newProgressView(out)
		updates, unsubscribe := mgr.Session().Subscribe()
		followed := followSession(view, updates)

		_, err := start(runCtx, mgr)
		var outcome workflow.Outcome
		if err == nil {
			outcome, err = mgr.Wait(context.Background())
		}
		unsubscribe()
		<-followed
		view.finish(mgr.Session().Snapshot())

		if err != nil {
			return userFacingError(err)
		}
		printOutcome(out, outcome)
		if outcome.Succeeded() {
			return nil
		}
		if errors.Is(outcome.Err, context.Canceled) {
			fmt.Fprintln(cmd.ErrOrStderr(), services.UserMessage(outcome.Err))
		}
		return userFacingError(outcome.Err)
	})
}

func printOutcome(out io.Writer, outcome workflow.Outcome) {
	if outcome.Primary.Total > 0 || outcome.Primary.Skipped {
		fmt.Fprintln(out, summaryLine("FMV", outcome.Primary.Total, outcome.Primary.Succeeded, outcome.Primary.Skipped))
	}
	if outcome.Secondary.Total > 0 || outcome.Secondary.Skipped {
		fmt.Fprintln(out, summaryLine("XA", outcome.Secondary.Total, outcome.Secondary.Succeeded, outcome.Secondary.Skipped))
	}
	if outcome.Deleted.Files > 0 {
		fmt.Fprintf(out, "Deleted: %d files (%s)\n", outcome.Deleted.Files, humanize.IBytes(uint64(outcome.Deleted.Bytes)))
	}
	if !outcome.Started.IsZero() && !outcome.Finished.IsZero() {
		elapsed := outcome.Finished.Sub(outcome.Started).Round(time.Second)
		fmt.Fprintf(out, "Finished %s in %s (run %s)\n", outcome.Kind, elapsed, shortID(outcome.RunID))
	}
}

func summaryLine(label string, total, succeeded int, skipped bool) string {
	if skipped {
		return fmt.Sprintf("%s: skipped (no media found)", label)
	}
	return fmt.Sprintf("%s: %d/%d converted", label, succeeded, total)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
