package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tempo/internal/config"
	"tempo/internal/runs"
)

func writeNotifyConfig(t *testing.T, topic string) (string, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "tempo.toml")
	content := "[paths]\n" +
		"data_dir = \"" + filepath.Join(dir, "data") + "\"\n" +
		"log_dir = \"" + filepath.Join(dir, "logs") + "\"\n" +
		"[notifications]\n" +
		"ntfy_topic = \"" + topic + "\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	return path, &cfg
}

func TestNotifyTestFlagSendsTestNotification(t *testing.T) {
	var titles []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		titles = append(titles, r.Header.Get("Title"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	path, _ := writeNotifyConfig(t, server.URL)
	out, err := executeCommand(t, "--config", path, "notify", "--test")
	if err != nil {
		t.Fatalf("notify --test: %v", err)
	}
	if !strings.Contains(out, "Test notification sent") {
		t.Errorf("output = %q", out)
	}
	if len(titles) != 1 || titles[0] != "Tempo - Test" {
		t.Errorf("titles = %v, want one test notification", titles)
	}
}

func TestNotifyFallsBackToLastSuccessWhileRunInFlight(t *testing.T) {
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		bodies = append(bodies, string(body))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	path, cfg := writeNotifyConfig(t, server.URL)

	history, err := runs.Open(cfg)
	if err != nil {
		t.Fatalf("runs.Open: %v", err)
	}
	ctx := context.Background()

	done, err := history.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	finished := time.Now().UTC()
	done.Status = runs.StatusSucceeded
	done.FinishedAt = &finished
	done.Transform = &runs.TransformStats{NumAlbums: 3, NumTracks: 40, NumTrackFeatures: 38}
	if err := history.Update(ctx, done); err != nil {
		t.Fatalf("Update: %v", err)
	}
	time.Sleep(2 * time.Millisecond)

	// The newest record is still running and carries no stats.
	if _, err := history.Begin(ctx); err != nil {
		t.Fatalf("Begin running: %v", err)
	}
	if err := history.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	out, err := executeCommand(t, "--config", path, "notify")
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if !strings.Contains(out, "3 albums, 40 tracks, 38 track features") {
		t.Errorf("summary missing fallback stats:\n%s", out)
	}
	if len(bodies) != 1 || !strings.Contains(bodies[0], "3 albums, 40 tracks, 38 audio features") {
		t.Errorf("notification bodies = %v, want the last successful run's stats", bodies)
	}
}
