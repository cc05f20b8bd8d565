package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tempo/internal/config"
)

func TestLoadDefaultsAndEnvCredentials(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("SPOTIFY_CLIENT_ID", "id-from-env")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "secret-from-env")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "tempo", "data")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Spotify.ClientID != "id-from-env" {
		t.Fatalf("expected client id from env, got %q", cfg.Spotify.ClientID)
	}
	if cfg.Spotify.ClientSecret != "secret-from-env" {
		t.Fatalf("expected client secret from env, got %q", cfg.Spotify.ClientSecret)
	}
	if cfg.Output.Format != "csv" {
		t.Fatalf("unexpected default format: %q", cfg.Output.Format)
	}
	if !cfg.Transform.MergeTracksFeatures {
		t.Fatal("expected merge_tracks_features enabled by default")
	}
	if cfg.RawDir() != filepath.Join(wantData, "raw") {
		t.Fatalf("unexpected raw dir: %q", cfg.RawDir())
	}
}

func TestLoadParsesFileAndCapsLimits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[spotify]
client_id = "abc"
client_secret = "def"
country = "us"
release_limit = 500
feature_batch_size = 1000

[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[output]
format = "PARQUET"
prefix = "  spotify  "
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if cfg.Spotify.ReleaseLimit != 50 {
		t.Fatalf("expected release limit capped at 50, got %d", cfg.Spotify.ReleaseLimit)
	}
	if cfg.Spotify.FeatureBatchSize != 100 {
		t.Fatalf("expected batch size capped at 100, got %d", cfg.Spotify.FeatureBatchSize)
	}
	if cfg.Spotify.Country != "US" {
		t.Fatalf("expected country upper-cased, got %q", cfg.Spotify.Country)
	}
	if cfg.Output.Format != "parquet" {
		t.Fatalf("expected normalized format, got %q", cfg.Output.Format)
	}
	if cfg.Output.Prefix != "spotify" {
		t.Fatalf("expected trimmed prefix, got %q", cfg.Output.Prefix)
	}
}

func TestLoadRejectsUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[output]\nformat = \"xlsx\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error for unsupported output format")
	}
	if !strings.Contains(err.Error(), "output.format") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequireCredentials(t *testing.T) {
	cfg := config.Default()
	if err := cfg.RequireCredentials(); err == nil {
		t.Fatal("expected error when credentials absent")
	}
	cfg.Spotify.ClientID = "a"
	cfg.Spotify.ClientSecret = "b"
	if err := cfg.RequireCredentials(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnsureDirectoriesCreatesTiers(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, sub := range []string{cfg.RawDir(), cfg.ProcessedDir(), cfg.FinalDir(), cfg.Paths.LogDir} {
		info, err := os.Stat(sub)
		if err != nil {
			t.Fatalf("stat %s: %v", sub, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected directory at %s", sub)
		}
	}
}

func TestCreateSampleWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(body), "[spotify]") {
		t.Fatal("sample config missing [spotify] section")
	}
}
