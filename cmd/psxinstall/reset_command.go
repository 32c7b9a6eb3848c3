package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"psxinstall/internal/workflow"
)

func newResetCommand(ctx *commandContext) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every game file not listed in the baseline manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Fprintf(cmd.OutOrStdout(), "Reset removes every file under %s that is not listed in %s.\n",
					cfg.Paths.GameDir, cfg.Paths.Manifest)
				return errors.New("reset not confirmed (pass --yes to proceed)")
			}
			return runOperation(cmd, ctx, func(runCtx context.Context, mgr *workflow.Manager) (string, error) {
				return mgr.ResetInstallation(runCtx)
			})
		},
	}

	cmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "Confirm deletion")
	return cmd
}
