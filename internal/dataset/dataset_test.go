package dataset_test

import (
	"strings"
	"testing"

	"tempo/internal/dataset"
)

func TestDecodeTolerantOfAbsentKeys(t *testing.T) {
	ds, err := dataset.Decode(strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if len(ds.Releases) != 0 || len(ds.AudioFeatures) != 0 || len(ds.Categories) != 0 {
		t.Fatalf("expected empty collections, got %+v", ds)
	}
	if ds.ExtractionTimestamp != "" {
		t.Fatalf("expected empty timestamp, got %q", ds.ExtractionTimestamp)
	}
}

func TestDecodePreservesNullAudioFeatureEntries(t *testing.T) {
	body := `{
		"audio_features": [
			{"id": "T1", "danceability": 0.8},
			null,
			{"id": "T2"}
		]
	}`
	ds, err := dataset.Decode(strings.NewReader(body))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if len(ds.AudioFeatures) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(ds.AudioFeatures))
	}
	if ds.AudioFeatures[1] != nil {
		t.Fatal("expected null entry preserved as nil")
	}
	if ds.AudioFeatures[0].Danceability == nil || *ds.AudioFeatures[0].Danceability != 0.8 {
		t.Fatalf("unexpected danceability: %+v", ds.AudioFeatures[0])
	}
	if ds.AudioFeatures[2].Danceability != nil {
		t.Fatal("expected absent danceability to decode as nil")
	}
}

func TestDecodeOptionalAlbumFields(t *testing.T) {
	body := `{
		"releases": [
			{
				"album_id": "A1",
				"album_name": "First",
				"tracks": [
					{"id": "T1", "artists": [{"name": "X"}], "external_urls": {"spotify": "https://open.spotify.com/track/T1"}}
				]
			}
		]
	}`
	ds, err := dataset.Decode(strings.NewReader(body))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	album := ds.Releases[0]
	if album.Popularity != nil {
		t.Fatal("expected absent popularity to stay nil")
	}
	if album.MainArtistDetails != nil {
		t.Fatal("expected absent main_artist_details to stay nil")
	}
	track := album.Tracks[0]
	if track.Explicit != nil {
		t.Fatal("expected absent explicit to stay nil")
	}
	if track.ExternalURLs.Spotify == nil || *track.ExternalURLs.Spotify != "https://open.spotify.com/track/T1" {
		t.Fatalf("unexpected external url: %+v", track.ExternalURLs)
	}
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	if _, err := dataset.Decode(strings.NewReader(`{"releases": [`)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}
