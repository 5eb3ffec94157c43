package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"interviewcoach/internal/config"
)

const userAgent = "InterviewCoach-Go/0.1.0"

// Event identifies a notification type.
type Event string

const (
	EventSessionStarted Event = "session_started"
	EventAnalysisReady  Event = "analysis_ready"
	EventSessionFailed  Event = "session_failed"
	EventTest           Event = "test"
)

// Payload carries event-specific values.
type Payload map[string]any

// Service publishes notification events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
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
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		analysis: cfg.Notifications.Analysis,
		errors:   cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	analysis bool
	errors   bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, data Payload) error {
	message, ok := n.format(event, data)
	if !ok {
		return nil
	}
	return n.send(ctx, message)
}

func (n *ntfyService) format(event Event, data Payload) (payload, bool) {
	switch event {
	case EventAnalysisReady:
		if !n.analysis {
			return payload{}, false
		}
		lines := []string{fmt.Sprintf("✅ Interview analysis ready (session %s)", shortID(text(data, "sessionID")))}
		if confidence, ok := data["confidence"].(float64); ok {
			lines = append(lines, fmt.Sprintf("Confidence: %.1f%%", confidence*100))
		}
		if tip := text(data, "tip"); tip != "" {
			lines = append(lines, "Tip: "+tip)
		}
		return payload{
			title:    "Interview Coach - Analysis Ready",
			message:  strings.Join(lines, "\n"),
			tags:     []string{"interviewcoach", "analysis", "completed"},
			priority: "high",
		}, true
	case EventSessionFailed:
		if !n.errors {
			return payload{}, false
		}
		status := text(data, "status")
		if status == "" {
			status = "unknown failure"
		}
		return payload{
			title:    "Interview Coach - Session Failed",
			message:  "❌ " + status,
			tags:     []string{"interviewcoach", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return payload{
			title:    "Interview Coach - Test",
			message:  "🧪 Notification system test",
			tags:     []string{"interviewcoach", "test"},
			priority: "low",
		}, true
	default:
		return payload{}, false
	}
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

func text(data Payload, key string) string {
	if data == nil {
		return ""
	}
	switch v := data[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	default:
		return ""
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
