package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"docvault/internal/config"
	"docvault/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventTest, nil); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "archived",
			event: notifications.EventDocumentArchived,
			payload: notifications.Payload{
				"path":        "/home/u/Desktop/2024-03-15_Plan.docx",
				"destination": "/archive/Word/2024/03/2024-03-15_Plan.docx",
			},
			expectTitle:   "docvault - Archived",
			expectMessage: "Archived: 2024-03-15_Plan.docx\nTo: /archive/Word/2024/03/2024-03-15_Plan.docx",
			expectTags:    "docvault,archive,completed",
		},
		{
			name:  "abandoned",
			event: notifications.EventArchiveAbandoned,
			payload: notifications.Payload{
				"path":     "/home/u/Desktop/notes.md",
				"attempts": 5,
				"error":    "permission denied",
			},
			expectTitle:    "docvault - Archive Failed",
			expectMessage:  "Gave up archiving notes.md after 5 attempts\npermission denied",
			expectTags:     "docvault,archive,failed",
			expectPriority: "high",
		},
		{
			name:           "reconcile",
			event:          notifications.EventReconcileRequired,
			payload:        notifications.Payload{"path": "/tmp/sheet.xlsx"},
			expectTitle:    "docvault - Reconcile Needed",
			expectMessage:  "sheet.xlsx was moved but its record was not updated\nRun: docvault reconcile",
			expectTags:     "docvault,reconcile",
			expectPriority: "high",
		},
		{
			name:           "test",
			event:          notifications.EventTest,
			expectTitle:    "docvault - Test",
			expectMessage:  "Notification system test",
			expectTags:     "docvault,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Errorf("read body: %v", err)
				}
				captured.body = string(body)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeoutSeconds = 5

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceHonorsSuppression(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call for suppressed event: %s", r.Header.Get("Title"))
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Archived = false
	cfg.Notifications.Failures = false

	svc := notifications.NewService(&cfg)
	for _, event := range []notifications.Event{
		notifications.EventDocumentArchived,
		notifications.EventArchiveAbandoned,
		notifications.EventReconcileRequired,
		notifications.Event("unknown"),
	} {
		if err := svc.Publish(context.Background(), event, notifications.Payload{"path": "/x"}); err != nil {
			t.Fatalf("expected no error for suppressed event %s, got %v", event, err)
		}
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventTest, nil); err == nil {
		t.Fatal("expected error for 403 response")
	}
}
