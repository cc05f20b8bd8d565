// Package runs records pipeline run history: one row per run with its
// status, artifacts, and per-stage statistics. Standalone stage
// commands read the history to pick up where a previous run stopped.
package runs

import "time"

// Status is the lifecycle state of a pipeline run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// ExtractionStats summarizes what the extraction stage collected.
type ExtractionStats struct {
	NumReleases      int    `json:"num_releases"`
	NumAudioFeatures int    `json:"num_audio_features"`
	NumCategories    int    `json:"num_categories"`
	ExtractedAt      string `json:"timestamp"`
}

// TransformStats summarizes the tables the transformation produced.
type TransformStats struct {
	NumAlbums        int `json:"num_albums"`
	NumTracks        int `json:"num_tracks"`
	NumTrackFeatures int `json:"num_audio_features"`
}

// Run is one pipeline execution.
type Run struct {
	ID             string
	Status         Status
	StartedAt      time.Time
	FinishedAt     *time.Time
	ErrorMessage   string
	RawFile        string
	ProcessedPaths []string
	Extraction     *ExtractionStats
	Transform      *TransformStats
}

// Elapsed returns the run duration, using now for unfinished runs.
func (r *Run) Elapsed(now time.Time) time.Duration {
	end := now
	if r.FinishedAt != nil {
		end = *r.FinishedAt
	}
	return end.Sub(r.StartedAt)
}
