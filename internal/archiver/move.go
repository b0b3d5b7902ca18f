package archiver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"docvault/internal/fileutil"
)

const maxReserveAttempts = 1000

// reserve claims a free name in dir by creating an empty placeholder with
// O_EXCL. The preferred name is tried first; after that the _v<millis> suffix
// is tried with millis incremented until a name is free.
func reserve(dir, filename string, millis int64) (string, error) {
	candidate := filepath.Join(dir, filename)
	for attempt := 0; attempt < maxReserveAttempts; attempt++ {
		f, err := os.OpenFile(candidate, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			if cerr := f.Close(); cerr != nil {
				_ = os.Remove(candidate)
				return "", cerr
			}
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", err
		}
		candidate = filepath.Join(dir, versionedName(filename, millis+int64(attempt)))
	}
	return "", fmt.Errorf("no free archive name for %s in %s", filename, dir)
}

func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return errors.Is(linkErr.Err, syscall.EXDEV)
	}
	return errors.Is(err, syscall.EXDEV)
}

// moveResult describes how a move completed.
type moveResult struct {
	destination string
	crossDevice bool
	// sourceErr is set when a cross-device copy landed but the source could
	// not be removed.
	sourceErr error
}

// move renames src over the reserved placeholder dst. On EXDEV the
// placeholder is dropped and the file copied with verification, then the
// source removed. A copy that loses its name to another writer re-reserves.
func (a *Archiver) move(src, dst, filename string, millis int64) (moveResult, error) {
	err := a.rename(src, dst)
	if err == nil {
		return moveResult{destination: dst}, nil
	}
	if !isCrossDevice(err) {
		_ = os.Remove(dst)
		return moveResult{}, err
	}

	dir := filepath.Dir(dst)
	copied := false
	for attempt := 0; attempt < maxReserveAttempts && !copied; attempt++ {
		_ = os.Remove(dst)
		copyErr := fileutil.CopyFileVerified(src, dst)
		switch {
		case copyErr == nil:
			copied = true
		case errors.Is(copyErr, fs.ErrExist):
			next, reserveErr := reserve(dir, filename, millis+int64(attempt)+1)
			if reserveErr != nil {
				return moveResult{}, reserveErr
			}
			dst = next
		default:
			return moveResult{}, fmt.Errorf("cross-device copy: %w", copyErr)
		}
	}
	if !copied {
		_ = os.Remove(dst)
		return moveResult{}, fmt.Errorf("no free archive name for %s in %s", filename, dir)
	}

	result := moveResult{destination: dst, crossDevice: true}
	if err := a.remove(src); err != nil && !errors.Is(err, fs.ErrNotExist) {
		result.sourceErr = err
	}
	return result, nil
}
