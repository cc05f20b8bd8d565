// Package pipeline sequences the four stages of a catalog run:
// extract, transform, load, notify. Each stage is also callable on its
// own so the CLI can re-run one from intermediate state.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"

	"tempo/internal/config"
	"tempo/internal/dataset"
	"tempo/internal/logging"
	"tempo/internal/notifications"
	"tempo/internal/runs"
	"tempo/internal/store"
	"tempo/internal/transform"
)

// Stage names used in run records, logs, and failure notifications.
const (
	StageExtract   = "extract"
	StageTransform = "transform"
	StageLoad      = "load"
	StageNotify    = "notify"
)

// Extractor produces the raw snapshot. Satisfied by spotify.Client.
type Extractor interface {
	BuildDataset(ctx context.Context) (*dataset.Dataset, error)
}

// ExtractResult is the outcome of the extraction stage.
type ExtractResult struct {
	RawPath string
	Stats   runs.ExtractionStats
}

// TransformResult is the outcome of the transformation stage.
type TransformResult struct {
	RawPath string
	Tables  map[string]transform.Table
	Stats   runs.TransformStats
}

// LoadResult is the outcome of the load stage.
type LoadResult struct {
	Saved []store.SavedTable
}

// Runner wires the stage collaborators together.
type Runner struct {
	cfg      *config.Config
	logger   *slog.Logger
	client   Extractor
	store    *store.Store
	history  *runs.Store
	notifier notifications.Service
}

// New creates a Runner from its collaborators. The history store and
// notifier may be nil for standalone stage invocations that do not
// record runs.
func New(cfg *config.Config, logger *slog.Logger, client Extractor, st *store.Store, history *runs.Store, notifier notifications.Service) *Runner {
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Runner{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		client:   client,
		store:    st,
		history:  history,
		notifier: notifier,
	}
}

// Run executes the full pipeline under the data-dir lock, recording
// progress in the run history. Stage failures come back as a failed
// Result rather than a panic; the error is also returned for callers
// that propagate exit codes.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	lock := flock.New(r.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another pipeline run holds %s", r.cfg.LockPath())
	}
	defer func() {
		_ = lock.Unlock()
	}()

	started := time.Now()
	run, err := r.history.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("record run start: %w", err)
	}
	r.logger.Info("pipeline run started", logging.RunID(run.ID))

	result := &Result{RunID: run.ID, Status: StatusSuccess}

	extracted, err := r.Extract(ctx)
	if err != nil {
		return r.fail(ctx, run, result, StageExtract, err, started), err
	}
	run.RawFile = extracted.RawPath
	run.Extraction = &extracted.Stats
	result.Extraction = &extracted.Stats
	if err := r.history.Update(ctx, run); err != nil {
		r.logger.Error("persist extraction progress", logging.RunID(run.ID), logging.Error(err))
	}

	transformed, err := r.transformRaw(extracted.RawPath)
	if err != nil {
		return r.fail(ctx, run, result, StageTransform, err, started), err
	}
	run.Transform = &transformed.Stats
	result.Transform = &transformed.Stats

	loaded, err := r.Load(transformed.Tables)
	if err != nil {
		return r.fail(ctx, run, result, StageLoad, err, started), err
	}
	result.Saved = loaded.Saved
	for _, entry := range loaded.Saved {
		run.ProcessedPaths = append(run.ProcessedPaths, entry.Path)
	}

	finished := time.Now().UTC()
	run.Status = runs.StatusSucceeded
	run.FinishedAt = &finished
	if err := r.history.Update(ctx, run); err != nil {
		r.logger.Error("persist run completion", logging.RunID(run.ID), logging.Error(err))
	}
	result.Elapsed = time.Since(started)

	r.notify(ctx, result)
	r.logger.Info("pipeline run complete",
		logging.RunID(run.ID),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// Extract builds the raw snapshot and persists it to the raw tier.
func (r *Runner) Extract(ctx context.Context) (*ExtractResult, error) {
	r.logger.Info("stage started", logging.Stage(StageExtract))

	ds, err := r.client.BuildDataset(ctx)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	rawPath, err := r.store.SaveRaw(ds, store.Timestamp())
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	return &ExtractResult{
		RawPath: rawPath,
		Stats: runs.ExtractionStats{
			NumReleases:      len(ds.Releases),
			NumAudioFeatures: len(ds.AudioFeatures),
			NumCategories:    len(ds.Categories),
			ExtractedAt:      ds.ExtractionTimestamp,
		},
	}, nil
}

// TransformLatest reshapes the newest raw snapshot on disk. Standalone
// entry point for the transform command.
func (r *Runner) TransformLatest(ctx context.Context) (*TransformResult, error) {
	rawPath, err := r.store.LatestRaw()
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	return r.transformRaw(rawPath)
}

func (r *Runner) transformRaw(rawPath string) (*TransformResult, error) {
	r.logger.Info("stage started", logging.Stage(StageTransform), logging.String("raw", rawPath))

	ds, err := dataset.Read(rawPath)
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}

	transformer := transform.New(ds, r.logger)
	tables := transformer.All()
	if r.cfg.Transform.MergeTracksFeatures {
		tables[transform.TableMerged] = transformer.MergeTrackAudioFeatures()
	}

	return &TransformResult{
		RawPath: rawPath,
		Tables:  tables,
		Stats: runs.TransformStats{
			NumAlbums:        tables[transform.TableAlbums].Len(),
			NumTracks:        tables[transform.TableTracks].Len(),
			NumTrackFeatures: tables[transform.TableAudioFeatures].Len(),
		},
	}, nil
}

// Load writes the non-empty tables to the processed tier and refreshes
// the latest links.
func (r *Runner) Load(tables map[string]transform.Table) (*LoadResult, error) {
	r.logger.Info("stage started", logging.Stage(StageLoad))

	saved, err := r.store.SaveTables(tables, store.Timestamp())
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	if err := r.store.LinkLatest(saved); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return &LoadResult{Saved: saved}, nil
}

// notify pushes the completion or empty-dataset event. Notification
// failures never fail the run.
func (r *Runner) notify(ctx context.Context, result *Result) {
	var err error
	if result.Extraction != nil && result.Extraction.NumReleases == 0 {
		err = r.notifier.NotifyEmptyDataset(ctx)
	} else {
		var albums, tracks, features int
		if result.Transform != nil {
			albums = result.Transform.NumAlbums
			tracks = result.Transform.NumTracks
			features = result.Transform.NumTrackFeatures
		}
		err = r.notifier.NotifyPipelineCompleted(ctx, albums, tracks, features, result.Elapsed)
	}
	if err != nil {
		r.logger.Error("send completion notification", logging.Stage(StageNotify), logging.Error(err))
	}
}

func (r *Runner) fail(ctx context.Context, run *runs.Run, result *Result, stage string, err error, started time.Time) *Result {
	r.logger.Error("stage failed", logging.Stage(stage), logging.RunID(run.ID), logging.Error(err))

	finished := time.Now().UTC()
	run.Status = runs.StatusFailed
	run.FinishedAt = &finished
	run.ErrorMessage = err.Error()
	if updateErr := r.history.Update(ctx, run); updateErr != nil {
		r.logger.Error("persist run failure", logging.RunID(run.ID), logging.Error(updateErr))
	}

	if notifyErr := r.notifier.NotifyPipelineFailed(ctx, stage, err); notifyErr != nil {
		r.logger.Error("send failure notification", logging.Stage(StageNotify), logging.Error(notifyErr))
	}

	result.Status = StatusFailed
	result.FailedStage = stage
	result.Err = err
	result.Elapsed = time.Since(started)
	return result
}
