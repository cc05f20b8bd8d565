package main

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"tempo/internal/notifications"
	"tempo/internal/pipeline"
	"tempo/internal/runs"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Extract a raw snapshot from the Spotify API",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, history, err := ctx.newRunner(cmd.Context())
			if err != nil {
				return err
			}
			defer history.Close()

			extracted, err := runner.Extract(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Raw snapshot: %s\n", extracted.RawPath)
			fmt.Fprintf(out, "Releases: %d, audio features: %d, categories: %d\n",
				extracted.Stats.NumReleases,
				extracted.Stats.NumAudioFeatures,
				extracted.Stats.NumCategories,
			)
			return nil
		},
	}
}

func newTransformCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "transform",
		Short: "Transform the latest raw snapshot into flat tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := ctx.newOfflineRunner()
			if err != nil {
				return err
			}

			transformed, err := runner.TransformLatest(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Raw snapshot: %s\n", transformed.RawPath)
			names := make([]string, 0, len(transformed.Tables))
			for name := range transformed.Tables {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(out, "%s: %d rows\n", name, transformed.Tables[name].Len())
			}
			return nil
		},
	}
}

func newLoadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Transform the latest raw snapshot and write processed tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := ctx.newOfflineRunner()
			if err != nil {
				return err
			}

			transformed, err := runner.TransformLatest(cmd.Context())
			if err != nil {
				return err
			}
			loaded, err := runner.Load(transformed.Tables)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, entry := range loaded.Saved {
				fmt.Fprintf(out, "Saved: %s (%d rows)\n", entry.Path, entry.Rows)
			}
			if len(loaded.Saved) == 0 {
				fmt.Fprintln(out, "All tables empty; nothing written")
			}
			return nil
		},
	}
}

func newNotifyCommand(ctx *commandContext) *cobra.Command {
	var testFlag bool

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send the summary of the most recent run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			notifier := notifications.NewService(cfg)
			if testFlag {
				if err := notifier.TestNotification(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
				return nil
			}

			history, err := runs.Open(cfg)
			if err != nil {
				return err
			}
			defer history.Close()

			recent, err := history.Recent(cmd.Context(), 1)
			if err != nil {
				return err
			}
			if len(recent) == 0 {
				return fmt.Errorf("no runs recorded yet")
			}

			// A run still in flight carries no stats to report yet;
			// fall back to the last finished success.
			current := recent[0]
			if current.Status == runs.StatusRunning {
				fallback, err := history.LastSuccessful(cmd.Context())
				if err != nil {
					return err
				}
				if fallback != nil {
					current = fallback
				}
			}

			result := resultFromRun(current)
			fmt.Fprint(cmd.OutOrStdout(), result.Summary())

			if result.Status == pipeline.StatusFailed {
				return notifier.NotifyPipelineFailed(cmd.Context(), result.FailedStage, result.Err)
			}
			var albums, tracks, features int
			if result.Transform != nil {
				albums = result.Transform.NumAlbums
				tracks = result.Transform.NumTracks
				features = result.Transform.NumTrackFeatures
			}
			return notifier.NotifyPipelineCompleted(cmd.Context(), albums, tracks, features, result.Elapsed)
		},
	}

	cmd.Flags().BoolVar(&testFlag, "test", false, "Send a test notification instead of the last run summary")
	return cmd
}

// resultFromRun reconstructs a Result from a recorded run so its
// summary can be re-rendered and re-sent.
func resultFromRun(run *runs.Run) *pipeline.Result {
	result := &pipeline.Result{
		RunID:      run.ID,
		Status:     pipeline.StatusSuccess,
		Elapsed:    run.Elapsed(time.Now()),
		Extraction: run.Extraction,
		Transform:  run.Transform,
	}
	if run.Status == runs.StatusFailed {
		result.Status = pipeline.StatusFailed
		if run.ErrorMessage != "" {
			result.Err = errors.New(run.ErrorMessage)
		}
	}
	return result
}
