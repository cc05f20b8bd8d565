// Package notifications delivers pipeline lifecycle events over ntfy.
package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tempo/internal/config"
)

const userAgent = "tempo/0.1.0"

// Service defines the notification surface exposed to the pipeline.
type Service interface {
	NotifyPipelineCompleted(ctx context.Context, albums, tracks, features int, duration time.Duration) error
	NotifyPipelineFailed(ctx context.Context, stage string, err error) error
	NotifyEmptyDataset(ctx context.Context) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:       topic,
		client:         &http.Client{Timeout: timeout},
		onSuccess:      cfg.Notifications.OnSuccess,
		onFailure:      cfg.Notifications.OnFailure,
		onEmptyDataset: cfg.Notifications.OnEmptyDataset,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint       string
	client         *http.Client
	onSuccess      bool
	onFailure      bool
	onEmptyDataset bool
}

func (n *ntfyService) NotifyPipelineCompleted(ctx context.Context, albums, tracks, features int, duration time.Duration) error {
	if !n.onSuccess {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	data := payload{
		title: "Tempo - Pipeline Complete",
		message: fmt.Sprintf("Pipeline complete: %d albums, %d tracks, %d audio features in %s",
			albums, tracks, features, duration),
		tags: []string{"tempo", "pipeline", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPipelineFailed(ctx context.Context, stage string, err error) error {
	if !n.onFailure {
		return nil
	}

	var builder strings.Builder
	builder.WriteString("Pipeline failed")
	if stage = strings.TrimSpace(stage); stage != "" {
		builder.WriteString(" during ")
		builder.WriteString(stage)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Tempo - Pipeline Failed",
		message:  builder.String(),
		tags:     []string{"tempo", "pipeline", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyEmptyDataset(ctx context.Context) error {
	if !n.onEmptyDataset {
		return nil
	}
	data := payload{
		title:   "Tempo - Empty Dataset",
		message: "Extraction returned no new releases; nothing to transform",
		tags:    []string{"tempo", "pipeline", "empty"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Tempo - Test",
		message:  "Notification system test",
		tags:     []string{"tempo", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyPipelineCompleted(context.Context, int, int, int, time.Duration) error {
	return nil
}
func (noopService) NotifyPipelineFailed(context.Context, string, error) error { return nil }
func (noopService) NotifyEmptyDataset(context.Context) error                  { return nil }
func (noopService) TestNotification(context.Context) error                    { return nil }
