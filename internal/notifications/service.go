package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelgen/internal/config"
)

const userAgent = "reelgen/0.1.0"

// Event identifies a run milestone.
type Event string

// Supported events.
const (
	EventRunCompleted  Event = "run_completed"
	EventPublished     Event = "published"
	EventPublishFailed Event = "publish_failed"
	EventError         Event = "error"
	EventTest          Event = "test"
)

// Payload carries event fields keyed by name.
type Payload map[string]any

// Service publishes run events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
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

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	completion bool
	errors     bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := n.format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventRunCompleted:
		if !n.completion {
			return message{}, false
		}
		body := fmt.Sprintf("🎬 Day %s reel rendered: %s", field(payload, "day"), field(payload, "output"))
		if cards := field(payload, "cards"); cards != "" {
			body += fmt.Sprintf("\n%s captions over %ss", cards, field(payload, "duration"))
		}
		return message{
			title: "Reelgen - Rendered",
			body:  body,
			tags:  []string{"reelgen", "render", "completed"},
		}, true
	case EventPublished:
		if !n.completion {
			return message{}, false
		}
		return message{
			title:    "Reelgen - Published",
			body:     fmt.Sprintf("✅ Uploaded: %s\nPlatforms: %s", field(payload, "title"), field(payload, "platforms")),
			tags:     []string{"reelgen", "publish", "completed"},
			priority: "high",
		}, true
	case EventPublishFailed:
		if !n.errors {
			return message{}, false
		}
		return message{
			title:    "Reelgen - Upload Failed",
			body:     fmt.Sprintf("⚠️ Upload failed: %s\nFile kept at %s", field(payload, "error"), field(payload, "output")),
			tags:     []string{"reelgen", "publish", "failed"},
			priority: "high",
		}, true
	case EventError:
		if !n.errors {
			return message{}, false
		}
		var builder strings.Builder
		builder.WriteString("❌ Error")
		if stage := field(payload, "stage"); stage != "" {
			builder.WriteString(" in ")
			builder.WriteString(stage)
		}
		builder.WriteString(": ")
		if text := field(payload, "error"); text != "" {
			builder.WriteString(text)
		} else {
			builder.WriteString("unknown")
		}
		return message{
			title:    "Reelgen - Error",
			body:     builder.String(),
			tags:     []string{"reelgen", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Reelgen - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"reelgen", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func field(payload Payload, key string) string {
	value, ok := payload[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case []string:
		return strings.Join(v, ", ")
	case error:
		return strings.TrimSpace(v.Error())
	case float64:
		return fmt.Sprintf("%.1f", v)
	default:
		return fmt.Sprint(v)
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
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

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
