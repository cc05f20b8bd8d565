package pipeline

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"tempo/internal/runs"
	"tempo/internal/store"
)

// Result statuses reported to callers and rendered in summaries.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Result is the structured outcome of one pipeline run.
type Result struct {
	RunID       string
	Status      string
	FailedStage string
	Elapsed     time.Duration
	Extraction  *runs.ExtractionStats
	Transform   *runs.TransformStats
	Saved       []store.SavedTable
	Err         error
}

// Summary renders the human-readable run report. Counts use
// English-locale grouping; missing stats render as zeros so a summary
// can always be produced, even for a run that failed mid-stage.
func (r *Result) Summary() string {
	printer := message.NewPrinter(language.English)

	extraction := runs.ExtractionStats{}
	if r.Extraction != nil {
		extraction = *r.Extraction
	}
	transform := runs.TransformStats{}
	if r.Transform != nil {
		transform = *r.Transform
	}

	var builder strings.Builder
	builder.WriteString(printer.Sprintf("Pipeline %s in %s\n", r.Status, r.Elapsed.Round(time.Millisecond)))
	if r.Status == StatusFailed {
		if r.FailedStage != "" {
			builder.WriteString(printer.Sprintf("Failed stage: %s\n", r.FailedStage))
		}
		if r.Err != nil {
			builder.WriteString(printer.Sprintf("Error: %s\n", r.Err))
		}
	}
	builder.WriteString(printer.Sprintf("Extracted: %d releases, %d audio features, %d categories\n",
		extraction.NumReleases, extraction.NumAudioFeatures, extraction.NumCategories))
	builder.WriteString(printer.Sprintf("Transformed: %d albums, %d tracks, %d track features\n",
		transform.NumAlbums, transform.NumTracks, transform.NumTrackFeatures))
	for _, entry := range r.Saved {
		builder.WriteString(printer.Sprintf("Saved: %s (%d rows)\n", entry.Path, entry.Rows))
	}
	return builder.String()
}
