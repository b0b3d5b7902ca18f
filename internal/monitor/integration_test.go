package monitor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"docvault/internal/archiver"
	"docvault/internal/lockprobe"
	"docvault/internal/records"
	"docvault/internal/settings"
	"docvault/internal/testsupport"
)

// TestRoundTrip creates a record, simulates an editor through an Office owner
// file, releases it, and expects the document in the dated archive.
func TestRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	manager := settings.NewManager(store, cfg)
	arch := archiver.New(store, manager, archiver.Options{
		Journal: archiver.NewJournal(cfg.ReconcileJournalPath()),
	})
	prober := lockprobe.New(lockprobe.Options{})
	m := New(nil, prober, arch, store, manager, Options{
		PollInterval:       cfg.PollInterval(),
		MaxConcurrency:     cfg.Monitor.MaxConcurrency,
		MaxArchiveAttempts: cfg.Monitor.MaxArchiveAttempts,
	})

	created := time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local)
	doc := testsupport.NewActiveFile(t, store, filepath.Join(cfg.Paths.OutputDir, "Report.docx"), created)
	_, closeDoc := testsupport.OpenInEditor(t, doc.Path, testsupport.EditorWord)

	m.Register(doc.Path)
	sweepAndWait(m)
	sweepAndWait(m)
	entry, ok := m.Registry().Get(doc.Path)
	if !ok || entry.State != "locked" {
		t.Fatalf("expected locked entry, got %+v", entry)
	}

	closeDoc()
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop()

	want := filepath.Join(cfg.Archive.Root, "2024", "03", "docx", "Report.docx")
	deadline := time.Now().Add(3 * time.Second)
	var record *records.File
	for time.Now().Before(deadline) {
		var err error
		record, err = store.GetByID(context.Background(), doc.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if record.Status == records.StatusArchived {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if record.Status != records.StatusArchived || record.Path != want {
		t.Fatalf("expected archived record at %q, got %+v", want, record)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("archived file missing: %v", err)
	}
	if m.Registry().Len() != 0 {
		t.Fatal("archived document should not be watched")
	}
}
