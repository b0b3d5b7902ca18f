package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"docvault/internal/config"
)

const userAgent = "docvault/0.1"

// Event names a notification-worthy occurrence.
type Event string

const (
	EventDocumentArchived  Event = "document_archived"
	EventArchiveAbandoned  Event = "archive_abandoned"
	EventReconcileRequired Event = "reconcile_required"
	EventTest              Event = "test"
)

// Payload carries event-specific values keyed by name.
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds an ntfy-backed notifier, or a no-op when no topic is set.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		archived: cfg.Notifications.Archived,
		failures: cfg.Notifications.Failures,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	archived bool
	failures bool
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
	case EventDocumentArchived:
		if !n.archived {
			return message{}, false
		}
		name := filepath.Base(payload.text("path"))
		body := "Archived: " + name
		if dest := payload.text("destination"); dest != "" {
			body += "\nTo: " + dest
		}
		return message{
			title: "docvault - Archived",
			body:  body,
			tags:  []string{"docvault", "archive", "completed"},
		}, true
	case EventArchiveAbandoned:
		if !n.failures {
			return message{}, false
		}
		body := fmt.Sprintf("Gave up archiving %s after %s attempts",
			filepath.Base(payload.text("path")), payload.text("attempts"))
		if errText := payload.text("error"); errText != "" {
			body += "\n" + errText
		}
		return message{
			title:    "docvault - Archive Failed",
			body:     body,
			tags:     []string{"docvault", "archive", "failed"},
			priority: "high",
		}, true
	case EventReconcileRequired:
		if !n.failures {
			return message{}, false
		}
		return message{
			title:    "docvault - Reconcile Needed",
			body:     fmt.Sprintf("%s was moved but its record was not updated\nRun: docvault reconcile", filepath.Base(payload.text("path"))),
			tags:     []string{"docvault", "reconcile"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "docvault - Test",
			body:     "Notification system test",
			tags:     []string{"docvault", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
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
	if msg.priority != "" {
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

func (p Payload) text(key string) string {
	if p == nil {
		return ""
	}
	value, ok := p[key]
	if !ok || value == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
