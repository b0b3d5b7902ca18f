package watch

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestRegisterIsIdempotent(t *testing.T) {
	r := NewRegistry()
	if !r.Register("/tmp/a.docx") {
		t.Fatal("expected first register to add entry")
	}
	r.Update("/tmp/a.docx", func(e *Entry) { e.State = StateLocked })
	if r.Register("/tmp/a.docx") {
		t.Fatal("expected second register to report existing entry")
	}
	entry, ok := r.Get("/tmp/a.docx")
	if !ok {
		t.Fatal("expected entry to exist")
	}
	if entry.State != StateLocked {
		t.Fatalf("re-register must not reset state, got %s", entry.State)
	}
	if r.Len() != 1 {
		t.Fatalf("expected one entry, got %d", r.Len())
	}
}

func TestRegisterStartsAwaitingLock(t *testing.T) {
	r := NewRegistry()
	fixed := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }
	r.Register("/docs/report.docx")

	entry, _ := r.Get("/docs/report.docx")
	if entry.State != StateAwaitingLock {
		t.Fatalf("unexpected initial state %s", entry.State)
	}
	if !entry.LastCheckedAt.Equal(fixed) || !entry.RegisteredAt.Equal(fixed) {
		t.Fatalf("unexpected timestamps %+v", entry)
	}
}

func TestUnregisterMissingIsNoop(t *testing.T) {
	r := NewRegistry()
	if r.Unregister("/nope") {
		t.Fatal("expected no removal")
	}
	r.Register("/yes")
	if !r.Unregister("/yes") {
		t.Fatal("expected removal")
	}
	if _, ok := r.Get("/yes"); ok {
		t.Fatal("entry should be gone")
	}
}

func TestSnapshotReturnsCopies(t *testing.T) {
	r := NewRegistry()
	r.Register("/a")
	snap := r.Snapshot()
	snap[0].State = StateArchiving

	entry, _ := r.Get("/a")
	if entry.State != StateAwaitingLock {
		t.Fatalf("snapshot mutation leaked into registry: %s", entry.State)
	}
}

func TestBeginExcludesConcurrentClaims(t *testing.T) {
	r := NewRegistry()
	if r.Begin("/a") {
		t.Fatal("unregistered paths cannot be claimed")
	}
	r.Register("/a")
	if !r.Begin("/a") {
		t.Fatal("expected first claim to succeed")
	}
	if r.Begin("/a") {
		t.Fatal("expected second claim to be refused")
	}
	r.End("/a")
	if !r.Begin("/a") {
		t.Fatal("expected claim after End to succeed")
	}
}

func TestUpdateMissingPath(t *testing.T) {
	r := NewRegistry()
	called := false
	if r.Update("/a", func(*Entry) { called = true }) {
		t.Fatal("expected update of missing path to fail")
	}
	if called {
		t.Fatal("fn should not run for missing path")
	}
}

func TestCounts(t *testing.T) {
	r := NewRegistry()
	r.Register("/a")
	r.Register("/b")
	r.Update("/b", func(e *Entry) { e.State = StateLocked })
	counts := r.Counts()
	if counts[string(StateAwaitingLock)] != 1 || counts[string(StateLocked)] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestConcurrentRegisterAndSweep(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			path := fmt.Sprintf("/doc-%d", i%10)
			r.Register(path)
			if r.Begin(path) {
				r.Update(path, func(e *Entry) { e.Attempts++ })
				r.End(path)
			}
		}()
		go func() {
			defer wg.Done()
			for _, e := range r.Snapshot() {
				if i%7 == 0 {
					r.Unregister(e.Path)
				}
			}
		}()
	}
	wg.Wait()
	if r.Len() > 10 {
		t.Fatalf("at most one entry per path expected, got %d", r.Len())
	}
}

func TestRegisterAsStartsInGivenState(t *testing.T) {
	r := NewRegistry()
	if !r.RegisterAs("/docs/edited.docx", StateLocked) {
		t.Fatal("expected entry to be added")
	}
	if r.RegisterAs("/docs/edited.docx", StateAwaitingLock) {
		t.Fatal("existing entry must not be replaced")
	}
	entry, _ := r.Get("/docs/edited.docx")
	if entry.State != StateLocked || entry.RegisteredAt.IsZero() {
		t.Fatalf("unexpected entry %+v", entry)
	}
}
