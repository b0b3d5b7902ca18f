package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"docvault/internal/config"
	"docvault/internal/records"
)

// MustOpenStore opens a records.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *records.Store {
	t.Helper()

	store, err := records.Open(cfg.DatabasePath())
	if err != nil {
		t.Fatalf("records.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewActiveFile writes a small document at path and inserts its active record
// with the given creation time. The document's mtime matches that time, as if
// nobody had opened it since.
func NewActiveFile(t testing.TB, store *records.Store, path string, created time.Time) *records.File {
	t.Helper()

	WriteDocument(t, path, "draft of "+filepath.Base(path))
	if err := os.Chtimes(path, created, created); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
	name := filepath.Base(path)
	ext := filepath.Ext(name)
	file, err := store.Create(context.Background(), records.NewFile{
		Title:     name[:len(name)-len(ext)],
		Filename:  name,
		Path:      path,
		Extension: trimDot(ext),
		CreatedAt: created,
	})
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return file
}

func trimDot(ext string) string {
	if len(ext) > 0 && ext[0] == '.' {
		return ext[1:]
	}
	return ext
}
