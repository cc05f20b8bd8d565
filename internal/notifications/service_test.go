package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tempo/internal/config"
	"tempo/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func captureServer(t *testing.T, sink *[]captured) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		*sink = append(*sink, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(http.StatusOK)
	}))
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyPipelineFailed(context.Background(), "extract", errors.New("boom")); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNotifyPipelineCompleted(t *testing.T) {
	var sink []captured
	server := captureServer(t, &sink)
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	err := svc.NotifyPipelineCompleted(context.Background(), 12, 150, 140, 42*time.Second)
	if err != nil {
		t.Fatalf("NotifyPipelineCompleted: %v", err)
	}
	if len(sink) != 1 {
		t.Fatalf("got %d requests, want 1", len(sink))
	}
	got := sink[0]
	if got.title != "Tempo - Pipeline Complete" {
		t.Errorf("title = %q", got.title)
	}
	if got.tags != "tempo,pipeline,completed" {
		t.Errorf("tags = %q", got.tags)
	}
	want := "Pipeline complete: 12 albums, 150 tracks, 140 audio features in 42s"
	if got.body != want {
		t.Errorf("body = %q, want %q", got.body, want)
	}
}

func TestNotifyPipelineFailedSetsPriority(t *testing.T) {
	var sink []captured
	server := captureServer(t, &sink)
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	err := svc.NotifyPipelineFailed(context.Background(), "transform", errors.New("merge inputs empty"))
	if err != nil {
		t.Fatalf("NotifyPipelineFailed: %v", err)
	}
	if len(sink) != 1 {
		t.Fatalf("got %d requests, want 1", len(sink))
	}
	got := sink[0]
	if got.priority != "high" {
		t.Errorf("priority = %q, want high", got.priority)
	}
	if got.body != "Pipeline failed during transform: merge inputs empty" {
		t.Errorf("body = %q", got.body)
	}
}

func TestSuppressionToggles(t *testing.T) {
	var sink []captured
	server := captureServer(t, &sink)
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.OnSuccess = false
	cfg.Notifications.OnFailure = false
	cfg.Notifications.OnEmptyDataset = false
	svc := notifications.NewService(&cfg)

	ctx := context.Background()
	if err := svc.NotifyPipelineCompleted(ctx, 1, 1, 1, time.Second); err != nil {
		t.Fatalf("NotifyPipelineCompleted: %v", err)
	}
	if err := svc.NotifyPipelineFailed(ctx, "load", errors.New("boom")); err != nil {
		t.Fatalf("NotifyPipelineFailed: %v", err)
	}
	if err := svc.NotifyEmptyDataset(ctx); err != nil {
		t.Fatalf("NotifyEmptyDataset: %v", err)
	}
	if len(sink) != 0 {
		t.Fatalf("suppressed events still sent %d requests", len(sink))
	}

	// The test notification ignores toggles.
	if err := svc.TestNotification(ctx); err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	if len(sink) != 1 {
		t.Fatalf("test notification not delivered, got %d requests", len(sink))
	}
}

func TestSendReportsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyEmptyDataset(context.Background()); err == nil {
		t.Fatal("expected error from 503 response")
	}
}
