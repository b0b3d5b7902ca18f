package lockprobe

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"docvault/internal/logging"
)

// ErrNotExist reports that the probed path does not exist.
var ErrNotExist = errors.New("lockprobe: file does not exist")

// Signal names the check that classified a file as locked.
type Signal string

const (
	SignalOpen     Signal = "open"
	SignalAdvisory Signal = "advisory"
	SignalSentinel Signal = "sentinel"
)

// Result is the outcome of one probe.
type Result struct {
	Locked  bool
	Signals []Signal
	// Sentinel is the owner file that fired the sentinel signal, if any.
	Sentinel string
	// Indeterminate holds an open error that could not be classified. The file
	// is reported unlocked when this is the only outcome.
	Indeterminate error
}

func (r *Result) add(signal Signal) {
	r.Locked = true
	r.Signals = append(r.Signals, signal)
}

// sentinelExtensions lists document types whose editors leave owner files.
var sentinelExtensions = map[string]struct{}{
	".docx": {}, ".xlsx": {}, ".pptx": {},
	".doc": {}, ".xls": {}, ".ppt": {},
	".odt": {}, ".ods": {}, ".odp": {},
}

// Word drops the first two characters of stems at least this long when it
// names the owner file.
const minTruncatedStem = 8

// Options configures a Prober.
type Options struct {
	// Advisory enables the flock signal.
	Advisory bool
	Logger   *slog.Logger
}

// Prober classifies documents as locked or unlocked. It holds no per-path
// state and is safe for concurrent use.
type Prober struct {
	advisory bool
	logger   *slog.Logger
}

// New constructs a Prober.
func New(opts Options) *Prober {
	return &Prober{
		advisory: opts.Advisory,
		logger:   logging.NewComponentLogger(opts.Logger, "lockprobe"),
	}
}

// Probe reports whether path is locked. It returns ErrNotExist when the file
// is missing; every other failure degrades to an unlocked result.
func (p *Prober) Probe(path string) (Result, error) {
	var result Result

	locked, err := openProbe(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return Result{}, fmt.Errorf("%w: %s", ErrNotExist, path)
	case err != nil:
		result.Indeterminate = err
		p.logger.Debug("open probe indeterminate; treating as unlocked",
			logging.Path(path),
			logging.Error(err),
			logging.Event("probe_indeterminate"),
		)
	case locked:
		result.add(SignalOpen)
	}

	if p.advisory && !result.Locked {
		held, err := advisoryProbe(path)
		if err != nil {
			p.logger.Debug("advisory probe failed",
				logging.Path(path),
				logging.Error(err),
			)
		} else if held {
			result.add(SignalAdvisory)
		}
	}

	if sentinel, ok := findSentinel(path); ok {
		result.add(SignalSentinel)
		result.Sentinel = sentinel
	}
	return result, nil
}

// openProbe opens path read-write without creating it and closes it straight
// away. It returns locked=true for the errno values editors produce while they
// hold a document, and the raw error for anything else.
func openProbe(path string) (bool, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err == nil {
		_ = file.Close()
		return false, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if isLockErrno(err) {
		return true, nil
	}
	return false, err
}

func isLockErrno(err error) bool {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return false
	}
	switch errno {
	case unix.EBUSY, unix.EACCES, unix.EPERM, unix.ETXTBSY:
		return true
	default:
		return false
	}
}

// advisoryProbe attempts a non-blocking exclusive flock and releases it at
// once. The file is opened read-only so the probe never creates it.
func advisoryProbe(path string) (bool, error) {
	lock := flock.New(path, flock.SetFlag(os.O_RDONLY))
	acquired, err := lock.TryLock()
	if err != nil {
		return false, err
	}
	if !acquired {
		return true, nil
	}
	return false, lock.Unlock()
}

// SentinelNames returns the owner-file names office suites create next to the
// document at path. It is empty for document types without owner files.
func SentinelNames(path string) []string {
	name := filepath.Base(path)
	if _, ok := sentinelExtensions[strings.ToLower(filepath.Ext(name))]; !ok {
		return nil
	}
	names := []string{"~$" + name, ".~lock." + name + "#"}
	if short, ok := truncatedOwner(name); ok {
		names = append(names, "~$"+short)
	}
	return names
}

// truncatedOwner returns the part of name Word keeps in its owner file when
// the stem is long enough to be shortened.
func truncatedOwner(name string) (string, bool) {
	stem := []rune(strings.TrimSuffix(name, filepath.Ext(name)))
	if len(stem) < minTruncatedStem {
		return "", false
	}
	return string([]rune(name)[2:]), true
}

func findSentinel(path string) (string, bool) {
	dir := filepath.Dir(path)
	short, truncated := truncatedOwner(filepath.Base(path))
	for _, name := range SentinelNames(path) {
		candidate := filepath.Join(dir, name)
		if _, err := os.Lstat(candidate); err != nil {
			continue
		}
		if truncated && name == "~$"+short {
			// The owner file belongs to the sibling it names in full.
			if _, err := os.Lstat(filepath.Join(dir, short)); err == nil {
				continue
			}
		}
		return candidate, true
	}
	return "", false
}
