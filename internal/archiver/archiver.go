package archiver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docvault/internal/logging"
	"docvault/internal/metrics"
	"docvault/internal/records"
	"docvault/internal/services"
	"docvault/internal/settings"
)

// RecordStore is the slice of the records store the archiver depends on.
type RecordStore interface {
	FindByPath(ctx context.Context, path string) (*records.File, error)
	MarkArchived(ctx context.Context, id int64, finalPath string, archivedAt time.Time) error
}

// Result describes a completed (or partially completed) archive.
type Result struct {
	FileID      int64
	Source      string
	Destination string
	CrossDevice bool
	ArchivedAt  time.Time
}

// Archiver moves documents into the archive tree.
type Archiver struct {
	store    RecordStore
	settings settings.Provider
	journal  *Journal
	metrics  *metrics.Metrics
	logger   *slog.Logger

	now    func() time.Time
	rename func(oldpath, newpath string) error
	remove func(path string) error
}

// Options wires optional collaborators.
type Options struct {
	// Journal receives documents whose record update failed after the move.
	Journal *Journal
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// New constructs an Archiver.
func New(store RecordStore, provider settings.Provider, opts Options) *Archiver {
	return &Archiver{
		store:    store,
		settings: provider,
		journal:  opts.Journal,
		metrics:  opts.Metrics,
		logger:   logging.NewComponentLogger(opts.Logger, "archiver"),
		now:      time.Now,
		rename:   os.Rename,
		remove:   os.Remove,
	}
}

// Archive moves the document at path into the archive and marks its record
// archived. Settings are read on every call.
func (a *Archiver) Archive(ctx context.Context, path string) (Result, error) {
	logger := logging.WithContext(services.WithPath(ctx, path), a.logger)
	result := Result{Source: path}

	record, err := a.store.FindByPath(ctx, path)
	if err != nil {
		return result, services.Wrap(ErrMoveFailed, "archiver", "find record", "Failed to look up file record", err)
	}
	if record == nil || record.Status != records.StatusActive {
		return result, fmt.Errorf("%w: %s", ErrRecordNotFound, path)
	}
	result.FileID = record.ID
	logger = logger.With(logging.FileID(record.ID))

	if _, err := os.Lstat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return result, fmt.Errorf("%w: %s", ErrSourceVanished, path)
		}
		return result, services.Wrap(ErrMoveFailed, "archiver", "stat source", "Failed to stat document", err)
	}

	current, err := a.settings.Settings(ctx)
	if err != nil {
		return result, services.Wrap(ErrMoveFailed, "archiver", "read settings", "Failed to read archive settings", err)
	}

	filename := strings.TrimSpace(record.Filename)
	if filename == "" {
		filename = filepath.Base(path)
	}
	ext := record.Extension
	if strings.TrimSpace(ext) == "" {
		ext = filepath.Ext(path)
	}
	dest := Destination(current.ArchiveRoot, record.CreatedAt, ext, filename)
	if err := os.MkdirAll(dest.Dir(), 0o755); err != nil {
		return result, services.Wrap(ErrMoveFailed, "archiver", "create directory", "Failed to create archive directory", err)
	}

	startedAt := a.now()
	millis := startedAt.UnixMilli()
	target, err := reserve(dest.Dir(), filename, millis)
	if err != nil {
		return result, services.Wrap(ErrMoveFailed, "archiver", "reserve name", "Failed to allocate archive filename", err)
	}

	moved, err := a.move(path, target, filename, millis)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return result, fmt.Errorf("%w: %s", ErrSourceVanished, path)
		}
		return result, services.Wrap(ErrMoveFailed, "archiver", "move", "Failed to move document into archive", err)
	}
	result.Destination = moved.destination
	result.CrossDevice = moved.crossDevice
	method := "rename"
	if moved.crossDevice {
		method = "copy"
	}
	a.metrics.RecordMove(method, a.now().Sub(startedAt))

	if moved.sourceErr != nil {
		return result, fmt.Errorf("%w: copied to %s but could not remove %s: %w", ErrPartialMove, moved.destination, path, moved.sourceErr)
	}

	return a.finish(ctx, logger, record.ID, result)
}

// Resume completes a cross-device move that previously stopped after the copy:
// it removes the source again and marks the record archived at dest.
func (a *Archiver) Resume(ctx context.Context, path, dest string) (Result, error) {
	logger := logging.WithContext(services.WithPath(ctx, path), a.logger)
	result := Result{Source: path, Destination: dest, CrossDevice: true}

	record, err := a.store.FindByPath(ctx, path)
	if err != nil {
		return result, services.Wrap(ErrMoveFailed, "archiver", "find record", "Failed to look up file record", err)
	}
	if record == nil || record.Status != records.StatusActive {
		return result, fmt.Errorf("%w: %s", ErrRecordNotFound, path)
	}
	result.FileID = record.ID
	logger = logger.With(logging.FileID(record.ID))

	if _, err := os.Stat(dest); err != nil {
		// The copy is gone; start over from the source on the next attempt.
		return Result{Source: path, FileID: record.ID}, services.Wrap(ErrMoveFailed, "archiver", "resume", "Archived copy missing", err)
	}
	if err := a.remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return result, fmt.Errorf("%w: copied to %s but could not remove %s: %w", ErrPartialMove, dest, path, err)
	}
	return a.finish(ctx, logger, record.ID, result)
}

func (a *Archiver) finish(ctx context.Context, logger *slog.Logger, id int64, result Result) (Result, error) {
	archivedAt := a.now().UTC()
	result.ArchivedAt = archivedAt
	if err := a.store.MarkArchived(ctx, id, result.Destination, archivedAt); err != nil {
		if !errors.Is(err, records.ErrNotFound) && a.journal != nil {
			entry := JournalEntry{
				FileID:      id,
				Source:      result.Source,
				Destination: result.Destination,
				ArchivedAt:  archivedAt,
				Error:       err.Error(),
			}
			if jerr := a.journal.Append(entry); jerr != nil {
				logging.ErrorWithContext(logger, "failed to journal unrecorded archive", "journal_append_failed",
					logging.Destination(result.Destination),
					logging.Error(jerr),
					logging.Hint("record the destination manually; reconcile cannot recover it"),
				)
			}
		}
		return result, fmt.Errorf("%w: %w", ErrMetadataUpdate, err)
	}

	logger.Info("document archived",
		logging.Destination(result.Destination),
		logging.Bool("cross_device", result.CrossDevice),
		logging.Event("file_archived"),
	)
	return result, nil
}
