package transform

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/parquet-go/parquet-go"
)

// Table is the uniform surface the loader consumes: row count, column
// order, and the two supported serializations.
type Table interface {
	Len() int
	Columns() []string
	WriteCSV(w io.Writer) error
	WriteParquet(w io.Writer) error
}

// AlbumTable is a flat table of AlbumRow records.
type AlbumTable []AlbumRow

// TrackTable is a flat table of TrackRow records.
type TrackTable []TrackRow

// AudioFeatureTable is a flat table of AudioFeatureRow records.
type AudioFeatureTable []AudioFeatureRow

// MergedTable is a flat table of MergedRow records.
type MergedTable []MergedRow

// CategoryTable is a flat table of CategoryRow records.
type CategoryTable []CategoryRow

func (t AlbumTable) Len() int { return len(t) }

func (t AlbumTable) Columns() []string {
	return []string{
		"album_id", "album_name", "album_type", "release_date", "total_tracks",
		"popularity", "main_artist_id", "main_artist_name", "artist_genres",
		"image_url", "spotify_url", "extraction_date",
	}
}

func (t AlbumTable) WriteCSV(w io.Writer) error     { return writeCSV(w, t.Columns(), t) }
func (t AlbumTable) WriteParquet(w io.Writer) error { return writeParquet(w, []AlbumRow(t)) }

func (r AlbumRow) record() []string {
	return []string{
		r.AlbumID, r.AlbumName, cellString(r.AlbumType), cellString(r.ReleaseDate),
		cellInt(r.TotalTracks), cellInt(r.Popularity), cellString(r.MainArtistID),
		cellString(r.MainArtistName), r.ArtistGenres, cellString(r.ImageURL),
		cellString(r.SpotifyURL), r.ExtractionDate,
	}
}

func (t TrackTable) Len() int { return len(t) }

func (t TrackTable) Columns() []string {
	return []string{
		"track_id", "track_name", "album_id", "artists", "track_number",
		"duration_ms", "explicit", "spotify_url", "extraction_date",
	}
}

func (t TrackTable) WriteCSV(w io.Writer) error     { return writeCSV(w, t.Columns(), t) }
func (t TrackTable) WriteParquet(w io.Writer) error { return writeParquet(w, []TrackRow(t)) }

func (r TrackRow) record() []string {
	return []string{
		r.TrackID, cellString(r.TrackName), r.AlbumID, r.Artists,
		cellInt(r.TrackNumber), cellInt(r.DurationMS), strconv.FormatBool(r.Explicit),
		cellString(r.SpotifyURL), r.ExtractionDate,
	}
}

func (t AudioFeatureTable) Len() int { return len(t) }

func (t AudioFeatureTable) Columns() []string {
	return []string{"track_id", "danceability", "energy", "loudness", "tempo", "extraction_date"}
}

func (t AudioFeatureTable) WriteCSV(w io.Writer) error { return writeCSV(w, t.Columns(), t) }
func (t AudioFeatureTable) WriteParquet(w io.Writer) error {
	return writeParquet(w, []AudioFeatureRow(t))
}

func (r AudioFeatureRow) record() []string {
	return []string{
		r.TrackID, cellFloat(r.Danceability), cellFloat(r.Energy),
		cellFloat(r.Loudness), cellFloat(r.Tempo), r.ExtractionDate,
	}
}

func (t MergedTable) Len() int { return len(t) }

func (t MergedTable) Columns() []string {
	return []string{
		"track_id", "track_name", "album_id", "artists", "track_number",
		"duration_ms", "explicit", "spotify_url", "extraction_date",
		"danceability", "energy", "loudness", "tempo",
	}
}

func (t MergedTable) WriteCSV(w io.Writer) error     { return writeCSV(w, t.Columns(), t) }
func (t MergedTable) WriteParquet(w io.Writer) error { return writeParquet(w, []MergedRow(t)) }

func (r MergedRow) record() []string {
	return []string{
		r.TrackID, cellString(r.TrackName), r.AlbumID, r.Artists,
		cellInt(r.TrackNumber), cellInt(r.DurationMS), strconv.FormatBool(r.Explicit),
		cellString(r.SpotifyURL), r.ExtractionDate,
		cellFloat(r.Danceability), cellFloat(r.Energy), cellFloat(r.Loudness), cellFloat(r.Tempo),
	}
}

func (t CategoryTable) Len() int { return len(t) }

func (t CategoryTable) Columns() []string {
	return []string{"category_id", "category_name", "extraction_date"}
}

func (t CategoryTable) WriteCSV(w io.Writer) error     { return writeCSV(w, t.Columns(), t) }
func (t CategoryTable) WriteParquet(w io.Writer) error { return writeParquet(w, []CategoryRow(t)) }

func (r CategoryRow) record() []string {
	return []string{r.CategoryID, r.CategoryName, r.ExtractionDate}
}

type csvRecord interface {
	record() []string
}

func writeCSV[T csvRecord](w io.Writer, columns []string, rows []T) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row.record()); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeParquet[T any](w io.Writer, rows []T) error {
	pw := parquet.NewGenericWriter[T](w)
	if len(rows) > 0 {
		if _, err := pw.Write(rows); err != nil {
			_ = pw.Close()
			return fmt.Errorf("write parquet rows: %w", err)
		}
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// Null cells render as empty strings in CSV output.

func cellString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func cellInt(value *int64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatInt(*value, 10)
}

func cellFloat(value *float64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}
