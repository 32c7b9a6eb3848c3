package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"psxinstall/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				records, err := store.List(cmd.Context(), limit)
				if err != nil {
					return fmt.Errorf("list run history: %w", err)
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				fmt.Fprintln(out, renderHistory(records, time.Now()))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return fmt.Errorf("clear run history: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d runs\n", removed)
				return nil
			})
		},
	})
	return cmd
}

var historyColumns = []column{
	{title: "Run"},
	{title: "Kind"},
	{title: "State"},
	{title: "Started"},
	{title: "Duration", numeric: true},
	{title: "FMV", numeric: true},
	{title: "XA", numeric: true},
	{title: "Deleted", numeric: true},
	{title: "Error"},
}

func renderHistory(records []*history.Record, now time.Time) string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			shortID(rec.ID),
			string(rec.Kind),
			rec.State.Label(),
			humanize.RelTime(rec.StartedAt, now, "ago", "from now"),
			rec.Duration(now).Round(time.Second).String(),
			ratio(rec.PrimarySucceeded, rec.PrimaryTotal),
			ratio(rec.SecondarySucceeded, rec.SecondaryTotal),
			deletedCell(rec.FilesDeleted, rec.BytesDeleted),
			string(rec.ErrorKind),
		})
	}
	return renderTable(historyColumns, rows)
}

func ratio(done, total int) string {
	if total == 0 {
		return "-"
	}
	return strconv.Itoa(done) + "/" + strconv.Itoa(total)
}

func deletedCell(files int, bytes int64) string {
	if files == 0 {
		return "-"
	}
	return fmt.Sprintf("%d (%s)", files, humanize.IBytes(uint64(bytes)))
}
