package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"psxinstall/internal/workflow"
)

func newInstallCommand(ctx *commandContext) *cobra.Command {
	var (
		discOne    string
		discTwo    string
		singleDisc bool
		noConvert  bool
	)

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Extract both discs and convert their media",
		Long: "Extract the game files from one or two disc images into the data directory,\n" +
			"then convert FMV and XA media and remove files the game does not need.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			req := workflow.InstallRequest{
				DiscOne:      strings.TrimSpace(discOne),
				DiscTwo:      strings.TrimSpace(discTwo),
				SingleDisc:   singleDisc,
				ConvertMedia: cfg.Conversion.Enabled && !noConvert,
			}
			return runOperation(cmd, ctx, func(runCtx context.Context, mgr *workflow.Manager) (string, error) {
				return mgr.StartInstall(runCtx, req)
			})
		},
	}

	cmd.Flags().StringVar(&discOne, "disc1", "", "Disc 1 image (.bin, .cue, or .iso)")
	cmd.Flags().StringVar(&discTwo, "disc2", "", "Disc 2 image")
	cmd.Flags().BoolVar(&singleDisc, "single-disc", false, "Install from Disc 1 only")
	cmd.Flags().BoolVar(&noConvert, "no-convert", false, "Skip media conversion and cleanup")
	return cmd
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "convert",
		Short: "Convert FMV and XA media in an existing install",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, ctx, func(runCtx context.Context, mgr *workflow.Manager) (string, error) {
				return mgr.StartMediaConversion(runCtx)
			})
		},
	}
}

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove extraction leftovers the game does not need",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, ctx, func(runCtx context.Context, mgr *workflow.Manager) (string, error) {
				return mgr.RunCleanup(runCtx)
			})
		},
	}
}
