package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"psxinstall/internal/logs"
	"psxinstall/internal/workflow"
)

func newLogCommand(ctx *commandContext) *cobra.Command {
	var (
		lines  int
		follow bool
	)

	cmd := &cobra.Command{
		Use:   "log [run-id]",
		Short: "Show the transcript of the latest or a given run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var runID string
			if len(args) == 1 {
				runID = args[0]
			}
			dir := workflow.NewRunLog(cfg).Dir()
			transcript, err := logs.FindTranscript(dir, runID)
			if err != nil {
				if errors.Is(err, logs.ErrNoTranscript) {
					return fmt.Errorf("%w (runs are logged under %s)", err, dir)
				}
				return err
			}

			tailCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			result, err := logs.Tail(tailCtx, transcript.Path, logs.TailOptions{Offset: -1, Limit: lines})
			if err != nil {
				return err
			}
			for _, line := range result.Lines {
				fmt.Fprintln(out, line)
			}
			for follow {
				result, err = logs.Tail(tailCtx, transcript.Path, logs.TailOptions{
					Offset: result.Offset,
					Follow: true,
					Wait:   time.Second,
				})
				if err != nil {
					if tailCtx.Err() != nil {
						return nil
					}
					return err
				}
				for _, line := range result.Lines {
					fmt.Fprintln(out, line)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 100, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing lines as the run writes them")
	return cmd
}
