package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vibemix/internal/config"
)

const userAgent = "VibeMix-Go/0.1.0"

// Service is the notification surface used by the pipeline and CLI.
type Service interface {
	NotifyGenerationCompleted(ctx context.Context, title, outputPath string, elapsed time.Duration) error
	NotifyGenerationFailed(ctx context.Context, title string, err error) error
	NotifyCutStarted(ctx context.Context, title, segmentsDir string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:   topic,
		client:     &http.Client{Timeout: timeout},
		completion: cfg.Notifications.Completion,
		errors:     cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	completion bool
	errors     bool
}

func (n *ntfyService) NotifyGenerationCompleted(ctx context.Context, title, outputPath string, elapsed time.Duration) error {
	if !n.completion {
		return nil
	}
	message := fmt.Sprintf("🎬 Video ready: %s", strings.TrimSpace(title))
	if elapsed > 0 {
		message = fmt.Sprintf("%s (%s)", message, elapsed.Round(time.Second))
	}
	if outputPath = strings.TrimSpace(outputPath); outputPath != "" {
		message = fmt.Sprintf("%s\nFile: %s", message, outputPath)
	}
	return n.send(ctx, payload{
		title:    "VibeMix - Complete",
		message:  message,
		tags:     []string{"vibemix", "generate", "completed"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyGenerationFailed(ctx context.Context, title string, err error) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Generation failed")
	if title = strings.TrimSpace(title); title != "" {
		builder.WriteString(" for ")
		builder.WriteString(title)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "VibeMix - Error",
		message:  builder.String(),
		tags:     []string{"vibemix", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyCutStarted(ctx context.Context, title, segmentsDir string) error {
	if !n.completion {
		return nil
	}
	return n.send(ctx, payload{
		title:   "VibeMix - Splitting",
		message: fmt.Sprintf("✂️ Splitting %s into %s", strings.TrimSpace(title), strings.TrimSpace(segmentsDir)),
		tags:    []string{"vibemix", "cut", "started"},
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "VibeMix - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"vibemix", "test"},
		priority: "low",
	})
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

func (noopService) NotifyGenerationCompleted(context.Context, string, string, time.Duration) error {
	return nil
}
func (noopService) NotifyGenerationFailed(context.Context, string, error) error { return nil }
func (noopService) NotifyCutStarted(context.Context, string, string) error      { return nil }
func (noopService) TestNotification(context.Context) error                      { return nil }
