package spotify_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"tempo/internal/config"
	"tempo/internal/logging"
	"tempo/internal/spotify"
)

func testConfig(serverURL string) *config.Config {
	cfg := config.Default()
	cfg.Spotify.ClientID = "test-client"
	cfg.Spotify.ClientSecret = "test-secret"
	cfg.Spotify.BaseURL = serverURL
	cfg.Spotify.TokenURL = serverURL + "/api/token"
	return &cfg
}

func tokenHandler(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse token form: %v", err)
		}
		if got := r.Form.Get("grant_type"); got != "client_credentials" {
			t.Errorf("grant_type = %q, want client_credentials", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"test-token","token_type":"Bearer","expires_in":3600}`))
	}
}

func TestBuildDataset(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", tokenHandler(t))
	mux.HandleFunc("/browse/new-releases", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, want Bearer test-token", got)
		}
		w.Write([]byte(`{"albums":{"items":[
			{"id":"alb1","name":"First Album","album_type":"album","release_date":"2026-08-01",
			 "total_tracks":2,"artists":[{"id":"art1","name":"Band"}],
			 "images":[{"url":"https://img.example/large.jpg"},{"url":"https://img.example/small.jpg"}],
			 "external_urls":{"spotify":"https://open.spotify.com/album/alb1"},
			 "available_markets":["US","GB"]},
			{"id":"alb2","name":"Empty Album","artists":[]}
		]}}`))
	})
	mux.HandleFunc("/albums/alb1/tracks", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[
			{"id":"trk1","name":"Opener","track_number":1,"duration_ms":180000,"explicit":false,
			 "artists":[{"id":"art1","name":"Band"}],
			 "external_urls":{"spotify":"https://open.spotify.com/track/trk1"}},
			{"id":"trk2","name":"Closer","track_number":2,"duration_ms":210000,"explicit":true,
			 "artists":[{"id":"art1","name":"Band"}],
			 "external_urls":{"spotify":"https://open.spotify.com/track/trk2"}}
		]}`))
	})
	mux.HandleFunc("/albums/alb2/tracks", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[]}`))
	})
	mux.HandleFunc("/artists/art1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"art1","name":"Band","genres":["indie","rock"],"popularity":61}`))
	})
	mux.HandleFunc("/audio-features", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("ids"); got != "trk1,trk2" {
			t.Errorf("ids = %q, want trk1,trk2", got)
		}
		w.Write([]byte(`{"audio_features":[
			{"id":"trk1","danceability":0.71,"energy":0.52,"loudness":-7.3,"tempo":120.5},
			null
		]}`))
	})
	mux.HandleFunc("/browse/categories", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"categories":{"items":[{"id":"cat1","name":"Pop"}]}}`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := spotify.NewClient(context.Background(), testConfig(server.URL), logging.NewNop())
	ds, err := client.BuildDataset(context.Background())
	if err != nil {
		t.Fatalf("BuildDataset: %v", err)
	}

	if len(ds.Releases) != 1 {
		t.Fatalf("len(Releases) = %d, want 1 (trackless album skipped)", len(ds.Releases))
	}
	album := ds.Releases[0]
	if album.AlbumID != "alb1" {
		t.Errorf("AlbumID = %q, want alb1", album.AlbumID)
	}
	if album.Popularity == nil || *album.Popularity != 0 {
		t.Errorf("Popularity = %v, want 0 default for missing value", album.Popularity)
	}
	if album.ImageURL == nil || *album.ImageURL != "https://img.example/large.jpg" {
		t.Errorf("ImageURL = %v, want first image url", album.ImageURL)
	}
	if album.SpotifyURL == nil || *album.SpotifyURL != "https://open.spotify.com/album/alb1" {
		t.Errorf("SpotifyURL = %v", album.SpotifyURL)
	}
	if album.MainArtistDetails == nil {
		t.Fatal("MainArtistDetails is nil")
	}
	if got := strings.Join(album.MainArtistDetails.Genres, ","); got != "indie,rock" {
		t.Errorf("genres = %q, want indie,rock", got)
	}
	if len(album.Tracks) != 2 {
		t.Fatalf("len(Tracks) = %d, want 2", len(album.Tracks))
	}

	if len(ds.AudioFeatures) != 2 {
		t.Fatalf("len(AudioFeatures) = %d, want 2 (null entry preserved)", len(ds.AudioFeatures))
	}
	if ds.AudioFeatures[1] != nil {
		t.Error("second audio feature entry should stay null")
	}
	if len(ds.Categories) != 1 {
		t.Errorf("len(Categories) = %d, want 1", len(ds.Categories))
	}
	if ds.ExtractionTimestamp == "" {
		t.Error("ExtractionTimestamp is empty")
	}
}

func TestBuildDatasetNewReleasesFailureAborts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", tokenHandler(t))
	mux.HandleFunc("/browse/new-releases", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"status":500,"message":"server error"}}`, http.StatusInternalServerError)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := spotify.NewClient(context.Background(), testConfig(server.URL), logging.NewNop())
	if _, err := client.BuildDataset(context.Background()); err == nil {
		t.Fatal("expected error when new releases endpoint fails")
	}
}

func TestBuildDatasetEmptyReleases(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", tokenHandler(t))
	mux.HandleFunc("/browse/new-releases", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"albums":{"items":[]}}`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := spotify.NewClient(context.Background(), testConfig(server.URL), logging.NewNop())
	ds, err := client.BuildDataset(context.Background())
	if err != nil {
		t.Fatalf("BuildDataset: %v", err)
	}
	if len(ds.Releases) != 0 || len(ds.AudioFeatures) != 0 {
		t.Errorf("expected empty dataset, got %d releases and %d features",
			len(ds.Releases), len(ds.AudioFeatures))
	}
	if ds.ExtractionTimestamp == "" {
		t.Error("ExtractionTimestamp should be set even for empty dataset")
	}
}

func TestBuildDatasetDegradesOnEnrichmentFailures(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", tokenHandler(t))
	mux.HandleFunc("/browse/new-releases", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"albums":{"items":[
			{"id":"alb1","name":"Good","artists":[{"id":"art1","name":"Band"}]},
			{"id":"alb2","name":"Broken","artists":[{"id":"art2","name":"Other"}]}
		]}}`))
	})
	mux.HandleFunc("/albums/alb1/tracks", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"id":"trk1","name":"Song","artists":[{"id":"art1","name":"Band"}]}]}`))
	})
	mux.HandleFunc("/albums/alb2/tracks", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	mux.HandleFunc("/artists/art1", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	mux.HandleFunc("/audio-features", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"audio_features":[{"id":"trk1","tempo":99.0}]}`))
	})
	mux.HandleFunc("/browse/categories", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := spotify.NewClient(context.Background(), testConfig(server.URL), logging.NewNop())
	ds, err := client.BuildDataset(context.Background())
	if err != nil {
		t.Fatalf("BuildDataset: %v", err)
	}
	if len(ds.Releases) != 1 {
		t.Fatalf("len(Releases) = %d, want 1 (failed album dropped)", len(ds.Releases))
	}
	if ds.Releases[0].MainArtistDetails != nil {
		t.Error("MainArtistDetails should be nil after lookup failure")
	}
	if len(ds.AudioFeatures) != 1 {
		t.Errorf("len(AudioFeatures) = %d, want 1", len(ds.AudioFeatures))
	}
	if len(ds.Categories) != 0 {
		t.Errorf("len(Categories) = %d, want 0 after failure", len(ds.Categories))
	}
}

func TestAudioFeaturesBatching(t *testing.T) {
	var featureCalls atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", tokenHandler(t))
	mux.HandleFunc("/browse/new-releases", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"albums":{"items":[{"id":"alb1","name":"Album","artists":[]}]}}`))
	})
	mux.HandleFunc("/albums/alb1/tracks", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"id":"trk1"},{"id":"trk2"},{"id":"trk3"}]}`))
	})
	mux.HandleFunc("/audio-features", func(w http.ResponseWriter, r *http.Request) {
		featureCalls.Add(1)
		ids := strings.Split(r.URL.Query().Get("ids"), ",")
		if len(ids) > 2 {
			t.Errorf("batch of %d ids exceeds configured size 2", len(ids))
		}
		var entries []string
		for _, id := range ids {
			entries = append(entries, `{"id":"`+id+`","tempo":100.0}`)
		}
		w.Write([]byte(`{"audio_features":[` + strings.Join(entries, ",") + `]}`))
	})
	mux.HandleFunc("/browse/categories", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"categories":{"items":[]}}`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Spotify.FeatureBatchSize = 2

	client := spotify.NewClient(context.Background(), cfg, logging.NewNop())
	ds, err := client.BuildDataset(context.Background())
	if err != nil {
		t.Fatalf("BuildDataset: %v", err)
	}
	if got := featureCalls.Load(); got != 2 {
		t.Errorf("audio features calls = %d, want 2", got)
	}
	if len(ds.AudioFeatures) != 3 {
		t.Errorf("len(AudioFeatures) = %d, want 3", len(ds.AudioFeatures))
	}
}

func TestCountryParameterForwarded(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", tokenHandler(t))
	mux.HandleFunc("/browse/new-releases", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("country"); got != "SE" {
			t.Errorf("country = %q, want SE", got)
		}
		if got := r.URL.Query().Get("limit"); got != "10" {
			t.Errorf("limit = %q, want 10", got)
		}
		w.Write([]byte(`{"albums":{"items":[]}}`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Spotify.Country = "SE"
	cfg.Spotify.ReleaseLimit = 10

	client := spotify.NewClient(context.Background(), cfg, logging.NewNop())
	if _, err := client.NewReleases(context.Background()); err != nil {
		t.Fatalf("NewReleases: %v", err)
	}
}
