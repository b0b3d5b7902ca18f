package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"docvault/internal/archiver"
	"docvault/internal/notifications"
	"docvault/internal/watch"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
	last   notifications.Payload
	err    error
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.last = payload
	return r.err
}

func (r *recordingNotifier) snapshot() ([]notifications.Event, notifications.Payload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notifications.Event(nil), r.events...), r.last
}

func TestOutcomesAreNotified(t *testing.T) {
	tests := []struct {
		name     string
		errs     []error
		attempts int
		sweeps   int
		want     notifications.Event
	}{
		{"archived", nil, 5, 2, notifications.EventDocumentArchived},
		{"metadata failure", []error{fmt.Errorf("%w: disk I/O", archiver.ErrMetadataUpdate)}, 5, 2, notifications.EventReconcileRequired},
		{"abandoned", []error{fmt.Errorf("%w: read-only", archiver.ErrMoveFailed)}, 1, 2, notifications.EventArchiveAbandoned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prober := newScriptedProber()
			prober.set("/docs/a.docx", watch.ObservedLocked, watch.ObservedUnlocked)
			arch := &fakeArchiver{errs: tt.errs, result: archiver.Result{FileID: 3, Destination: "/archive/a.docx"}}
			notifier := &recordingNotifier{}
			m := New(nil, prober, arch, &fakeFailures{}, fixedSettings{}, Options{
				MaxArchiveAttempts: tt.attempts,
				Notifier:           notifier,
			})
			m.Register("/docs/a.docx")
			for i := 0; i < tt.sweeps; i++ {
				sweepAndWait(m)
			}

			events, payload := notifier.snapshot()
			if len(events) != 1 || events[0] != tt.want {
				t.Fatalf("expected single %s event, got %v", tt.want, events)
			}
			if payload["path"] != "/docs/a.docx" {
				t.Fatalf("unexpected payload %v", payload)
			}
		})
	}
}

func TestNotificationFailureDoesNotBlockArchive(t *testing.T) {
	prober := newScriptedProber()
	prober.set("/docs/a.docx", watch.ObservedLocked, watch.ObservedUnlocked)
	arch := &fakeArchiver{}
	notifier := &recordingNotifier{err: errors.New("ntfy down")}
	m := New(nil, prober, arch, nil, fixedSettings{}, Options{Notifier: notifier})
	m.Register("/docs/a.docx")

	sweepAndWait(m)
	sweepAndWait(m)
	if m.Registry().Len() != 0 {
		t.Fatal("archived document should be unregistered even when the notification fails")
	}
}
