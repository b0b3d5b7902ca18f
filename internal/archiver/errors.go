package archiver

import (
	"errors"
	"fmt"

	"docvault/internal/services"
)

var (
	// ErrRecordNotFound means no active FileRecord exists for the path.
	// Nothing was moved.
	ErrRecordNotFound = fmt.Errorf("archiver: record not found: %w", services.ErrNotFound)

	// ErrSourceVanished means the document disappeared before it could be
	// moved.
	ErrSourceVanished = fmt.Errorf("archiver: source vanished: %w", services.ErrNotFound)

	// ErrMoveFailed covers directory creation, name reservation, rename, and
	// copy failures. The source is still in place and the move can be retried.
	ErrMoveFailed = fmt.Errorf("archiver: move failed: %w", services.ErrTransient)

	// ErrPartialMove means a cross-device copy reached the archive but the
	// source could not be removed. Result.Destination names the copy.
	ErrPartialMove = fmt.Errorf("archiver: partial move: %w", ErrMoveFailed)

	// ErrMetadataUpdate means the file was moved but the record update failed.
	ErrMetadataUpdate = errors.New("archiver: metadata update failed")
)
