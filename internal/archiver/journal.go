package archiver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"docvault/internal/fileutil"
	"docvault/internal/logging"
	"docvault/internal/records"
)

// JournalEntry is one archived document whose record was not updated.
type JournalEntry struct {
	FileID      int64     `json:"file_id"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	ArchivedAt  time.Time `json:"archived_at"`
	Error       string    `json:"error,omitempty"`
}

// Journal is an append-only JSON lines file.
type Journal struct {
	mu   sync.Mutex
	path string
}

// NewJournal returns a journal stored at path. The file is created lazily.
func NewJournal(path string) *Journal {
	return &Journal{path: path}
}

// Path returns the journal location.
func (j *Journal) Path() string {
	return j.path
}

// Append adds one entry and syncs it to disk.
func (j *Journal) Append(entry JournalEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Entries returns every decodable entry. Malformed lines are skipped and
// counted.
func (j *Journal) Entries() ([]JournalEntry, int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.read()
}

func (j *Journal) read() ([]JournalEntry, int, error) {
	data, err := os.ReadFile(j.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	var (
		entries   []JournalEntry
		malformed int
	)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var entry JournalEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			malformed++
			continue
		}
		entries = append(entries, entry)
	}
	return entries, malformed, scanner.Err()
}

// rewrite replaces the journal contents atomically. An empty slice removes the
// file.
func (j *Journal) rewrite(entries []JournalEntry) error {
	if len(entries) == 0 {
		if err := os.Remove(j.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, entry := range entries {
		if err := enc.Encode(entry); err != nil {
			return err
		}
	}
	tmp := j.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, j.path)
}

// ReconcileReport summarises a journal replay.
type ReconcileReport struct {
	Replayed  int `json:"replayed"`
	Dropped   int `json:"dropped"`
	Remaining int `json:"remaining"`
	Malformed int `json:"malformed"`
}

// MarkArchiver is the record update reconciliation replays.
type MarkArchiver interface {
	MarkArchived(ctx context.Context, id int64, finalPath string, archivedAt time.Time) error
}

// Reconcile replays MarkArchived for each journaled document whose archived
// copy still exists. Entries whose copy is gone or whose record no longer
// exists are dropped; entries that fail again stay in the journal.
func (j *Journal) Reconcile(ctx context.Context, store MarkArchiver, logger *slog.Logger) (ReconcileReport, error) {
	logger = logging.NewComponentLogger(logger, "reconcile")
	j.mu.Lock()
	defer j.mu.Unlock()

	entries, malformed, err := j.read()
	if err != nil {
		return ReconcileReport{}, fmt.Errorf("read journal: %w", err)
	}
	report := ReconcileReport{Malformed: malformed}
	remaining := make([]JournalEntry, 0, len(entries))
	for _, entry := range entries {
		attrs := []logging.Attr{
			logging.FileID(entry.FileID),
			logging.Destination(entry.Destination),
		}
		exists, err := fileutil.Exists(entry.Destination)
		if err != nil {
			remaining = append(remaining, entry)
			continue
		}
		if !exists {
			report.Dropped++
			logging.WarnWithContext(logger, "archived copy missing; dropping journal entry", "reconcile_dropped",
				append(attrs,
					logging.Hint("locate the document manually"),
					logging.Impact("record stays active without a file"),
				)...,
			)
			continue
		}
		err = store.MarkArchived(ctx, entry.FileID, entry.Destination, entry.ArchivedAt)
		switch {
		case err == nil:
			report.Replayed++
			logger.Info("archive record reconciled", logging.Args(attrs...)...)
		case errors.Is(err, records.ErrNotFound):
			report.Dropped++
			logging.WarnWithContext(logger, "record missing; dropping journal entry", "reconcile_dropped",
				append(attrs, logging.Error(err))...,
			)
		default:
			entry.Error = err.Error()
			remaining = append(remaining, entry)
		}
	}
	report.Remaining = len(remaining)
	if err := j.rewrite(remaining); err != nil {
		return report, fmt.Errorf("rewrite journal: %w", err)
	}
	return report, nil
}
