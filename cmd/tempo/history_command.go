package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tempo/internal/runs"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			history, err := runs.Open(cfg)
			if err != nil {
				return err
			}
			defer history.Close()

			recent, err := history.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(recent) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet")
				return nil
			}

			headers := []string{"Started", "Status", "Elapsed", "Releases", "Tracks", "Features", "Error"}
			aligns := []columnAlignment{
				alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft,
			}

			rows := make([][]string, 0, len(recent))
			for _, run := range recent {
				rows = append(rows, historyRow(run))
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	return cmd
}

func historyRow(run *runs.Run) []string {
	elapsed := "-"
	if run.FinishedAt != nil {
		elapsed = run.Elapsed(time.Now()).Round(time.Millisecond).String()
	}

	releases, tracks, features := "-", "-", "-"
	if run.Extraction != nil {
		releases = fmt.Sprintf("%d", run.Extraction.NumReleases)
	}
	if run.Transform != nil {
		tracks = fmt.Sprintf("%d", run.Transform.NumTracks)
		features = fmt.Sprintf("%d", run.Transform.NumTrackFeatures)
	}

	errText := ""
	if run.ErrorMessage != "" {
		errText = run.ErrorMessage
		if len(errText) > 60 {
			errText = errText[:57] + "..."
		}
	}

	return []string{
		run.StartedAt.Local().Format("2006-01-02 15:04:05"),
		string(run.Status),
		elapsed,
		releases,
		tracks,
		features,
		errText,
	}
}
