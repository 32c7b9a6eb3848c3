package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"psxinstall/internal/config"
	"psxinstall/internal/gamedir"
	"psxinstall/internal/history"
	"psxinstall/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show install state, dependencies, and the last run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := isTerminal(out)

			lines := installLines(gamedir.FromConfig(cfg), colorize)
			lines = append(lines, "")
			lines = append(lines, dependencyLines(preflight.RunAll(cfg, preflight.ScopeStatus), colorize)...)

			last, err := lastRun(cmd.Context(), ctx)
			if err != nil {
				return err
			}
			lines = append(lines, "")
			lines = append(lines, lastRunLines(last, colorize)...)
			lines = append(lines, "", configLine(ctx, cfg))

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}
}

func installLines(layout gamedir.Layout, colorize bool) []string {
	lines := []string{renderSectionHeader("Installation", colorize)}
	if layout.Installed() {
		lines = append(lines, renderStatusLine("Game", statusOK, "Installed in "+layout.GameDir, colorize))
	} else {
		missing := layout.MissingMarkers()
		lines = append(lines, renderStatusLine("Game", statusWarn, "Not installed (missing "+strings.Join(missing, ", ")+")", colorize))
	}
	lines = append(lines, renderStatusLine("Data directory", statusInfo, layout.DataDir, colorize))
	return lines
}

// dependencyLines renders one line per check followed by a summary.
func dependencyLines(results []preflight.Result, colorize bool) []string {
	lines := []string{renderSectionHeader("Dependencies", colorize)}
	var blocking []string
	for _, result := range results {
		kind := statusOK
		switch {
		case result.Blocking():
			kind = statusError
			blocking = append(blocking, result.Name)
		case !result.Passed:
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(result.Name, kind, result.Detail, colorize))
	}
	if len(blocking) > 0 {
		lines = append(lines, renderStatusLine("Summary", statusError, "Blocked by: "+strings.Join(blocking, ", "), colorize))
	} else {
		lines = append(lines, renderStatusLine("Summary", statusOK, "Ready", colorize))
	}
	return lines
}

func lastRun(ctx context.Context, cmdCtx *commandContext) (*history.Record, error) {
	store, err := cmdCtx.openHistory()
	if err != nil || store == nil {
		return nil, err
	}
	defer store.Close()
	records, err := store.List(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("list run history: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

func lastRunLines(rec *history.Record, colorize bool) []string {
	lines := []string{renderSectionHeader("Last run", colorize)}
	if rec == nil {
		return append(lines, renderStatusLine("Run", statusInfo, "none recorded", colorize))
	}
	kind := statusInfo
	switch {
	case rec.ErrorMessage != "":
		kind = statusError
	case rec.Finished():
		kind = statusOK
	}
	detail := fmt.Sprintf("%s %s, %s", rec.Kind, rec.State.Label(), humanize.Time(rec.StartedAt))
	lines = append(lines, renderStatusLine("Run "+shortID(rec.ID), kind, detail, colorize))
	if rec.ErrorMessage != "" {
		lines = append(lines, renderStatusLine("Error", statusError, rec.ErrorMessage, colorize))
	}
	if rec.Finished() {
		lines = append(lines, renderStatusLine("Duration", statusInfo, rec.Duration(time.Now()).Round(time.Second).String(), colorize))
	}
	return lines
}

func configLine(ctx *commandContext, cfg *config.Config) string {
	path := ctx.configPath
	if !ctx.configSeen {
		path = "defaults"
	}
	return fmt.Sprintf("Config: %s (history: %s)", path, yesNo(cfg.History.Enabled))
}
