// Package dataset defines the raw extraction snapshot exchanged between
// the Spotify client, the raw file tier, and the transformer. Optional
// fields are pointers so that "absent" survives a JSON round trip
// instead of collapsing into a zero value.
package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Dataset is one full extraction snapshot.
type Dataset struct {
	ExtractionTimestamp string  `json:"extraction_timestamp"`
	Releases            []Album `json:"releases"`
	// AudioFeatures preserves null entries: the API returns null for
	// tracks it has no analysis for, and the transformer skips them.
	AudioFeatures []*AudioFeature `json:"audio_features"`
	// Categories are carried through untransformed.
	Categories []json.RawMessage `json:"categories"`
}

// Album is one enriched release.
type Album struct {
	AlbumID           string         `json:"album_id"`
	AlbumName         string         `json:"album_name"`
	AlbumType         *string        `json:"album_type"`
	ReleaseDate       *string        `json:"release_date"`
	TotalTracks       *int64         `json:"total_tracks"`
	Popularity        *int64         `json:"popularity"`
	Artists           []ArtistRef    `json:"artists"`
	MainArtistDetails *ArtistDetails `json:"main_artist_details"`
	Tracks            []Track        `json:"tracks"`
	ImageURL          *string        `json:"image_url"`
	SpotifyURL        *string        `json:"spotify_url"`
	AvailableMarkets  []string       `json:"available_markets"`
}

// ArtistRef is the id/name pair embedded in albums and tracks.
type ArtistRef struct {
	ID   *string `json:"id"`
	Name *string `json:"name"`
}

// ArtistDetails is the full artist record fetched for an album's main artist.
type ArtistDetails struct {
	ID         *string  `json:"id"`
	Name       *string  `json:"name"`
	Genres     []string `json:"genres"`
	Popularity *int64   `json:"popularity"`
}

// AudioFeature is one track's audio analysis values. Whole entries may
// be null in the source sequence when the API has no analysis for a
// track; individual values may also be absent within an entry.
type AudioFeature struct {
	ID           string   `json:"id"`
	Danceability *float64 `json:"danceability"`
	Energy       *float64 `json:"energy"`
	Loudness     *float64 `json:"loudness"`
	Tempo        *float64 `json:"tempo"`
}

// Track is a raw album track as returned by the API.
type Track struct {
	ID           string       `json:"id"`
	Name         *string      `json:"name"`
	TrackNumber  *int64       `json:"track_number"`
	DurationMS   *int64       `json:"duration_ms"`
	Explicit     *bool        `json:"explicit"`
	Artists      []ArtistRef  `json:"artists"`
	ExternalURLs ExternalURLs `json:"external_urls"`
}

// ExternalURLs carries the subset of external links the pipeline uses.
type ExternalURLs struct {
	Spotify *string `json:"spotify"`
}

// Decode reads a dataset from r. Absent keys decode to nil or empty
// values; only malformed JSON is an error.
func Decode(r io.Reader) (*Dataset, error) {
	var ds Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return &ds, nil
}

// Read loads a dataset from a raw tier file.
func Read(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()
	return Decode(file)
}
