package lockprobe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"
)

func writeDoc(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestProbeUnlockedFile(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "notes.md")
	result, err := New(Options{Advisory: true}).Probe(path)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if result.Locked || len(result.Signals) != 0 || result.Indeterminate != nil {
		t.Fatalf("expected unlocked result, got %+v", result)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("probe must leave the file in place: %v", err)
	}
}

func TestProbeMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.docx")
	_, err := New(Options{Advisory: true}).Probe(path)
	if !errors.Is(err, ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatal("probe must not create the file")
	}
}

func TestProbeOfficeSentinelForcesLocked(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "report.docx")
	prober := New(Options{})

	if locked, err := openProbe(path); err != nil || locked {
		t.Fatalf("open probe alone should report unlocked: locked=%v err=%v", locked, err)
	}

	sentinel := writeDoc(t, dir, "~$report.docx")
	result, err := prober.Probe(path)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if !result.Locked || !slices.Contains(result.Signals, SignalSentinel) {
		t.Fatalf("expected sentinel lock, got %+v", result)
	}
	if result.Sentinel != sentinel {
		t.Fatalf("expected sentinel %q, got %q", sentinel, result.Sentinel)
	}

	if err := os.Remove(sentinel); err != nil {
		t.Fatal(err)
	}
	result, err = prober.Probe(path)
	if err != nil || result.Locked {
		t.Fatalf("expected unlocked after sentinel removal, got %+v %v", result, err)
	}
}

func TestProbeLibreOfficeSentinel(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "budget.ods")
	writeDoc(t, dir, ".~lock.budget.ods#")

	result, err := New(Options{}).Probe(path)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if !result.Locked {
		t.Fatalf("expected LibreOffice lock file to lock, got %+v", result)
	}
}

func TestSentinelNames(t *testing.T) {
	tests := []struct {
		path    string
		want    []string
		without []string
	}{
		{path: "/tmp/notes.md"},
		{
			path: "/tmp/Quarterly.XLSX",
			want: []string{"~$Quarterly.XLSX", ".~lock.Quarterly.XLSX#", "~$arterly.XLSX"},
		},
		{
			path:    "/tmp/report.docx",
			want:    []string{"~$report.docx", ".~lock.report.docx#"},
			without: []string{"~$port.docx"},
		},
	}

	for _, tt := range tests {
		t.Run(filepath.Base(tt.path), func(t *testing.T) {
			names := SentinelNames(tt.path)
			if tt.want == nil && names != nil {
				t.Fatalf("expected no sentinels, got %v", names)
			}
			for _, want := range tt.want {
				if !slices.Contains(names, want) {
					t.Fatalf("expected %q in %v", want, names)
				}
			}
			for _, unwanted := range tt.without {
				if slices.Contains(names, unwanted) {
					t.Fatalf("unexpected %q in %v", unwanted, names)
				}
			}
		})
	}
}

func TestSiblingOwnerFileDoesNotLockNeighbour(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "report.docx")
	writeDoc(t, dir, "~$report.docx")
	neighbour := writeDoc(t, dir, "xyreport.docx")

	result, err := New(Options{}).Probe(neighbour)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if result.Locked {
		t.Fatalf("owner file of report.docx must not lock xyreport.docx, got %+v", result)
	}
}

func TestTruncatedOwnerFileLocksLongName(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "xyreport.docx")
	sentinel := writeDoc(t, dir, "~$report.docx")

	result, err := New(Options{}).Probe(path)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if !result.Locked || result.Sentinel != sentinel {
		t.Fatalf("expected truncated owner file to lock, got %+v", result)
	}
}

func TestProbeAdvisoryLock(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "draft.txt")

	holder := flock.New(path)
	locked, err := holder.TryLock()
	if err != nil || !locked {
		t.Fatalf("failed to take holder lock: %v", err)
	}
	defer holder.Unlock()

	result, err := New(Options{Advisory: true}).Probe(path)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if !result.Locked || !slices.Contains(result.Signals, SignalAdvisory) {
		t.Fatalf("expected advisory lock, got %+v", result)
	}

	result, err = New(Options{Advisory: false}).Probe(path)
	if err != nil || result.Locked {
		t.Fatalf("advisory disabled should report unlocked, got %+v %v", result, err)
	}
}

func TestProbeReadOnlyFileIsLocked(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses file permissions")
	}
	path := writeDoc(t, t.TempDir(), "readonly.docx")
	if err := os.Chmod(path, 0o444); err != nil {
		t.Fatal(err)
	}
	result, err := New(Options{}).Probe(path)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if !result.Locked || !slices.Contains(result.Signals, SignalOpen) {
		t.Fatalf("expected EACCES to classify as locked, got %+v", result)
	}
}

func TestProbeIndeterminateIsUnlocked(t *testing.T) {
	dir := t.TempDir()
	result, err := New(Options{}).Probe(dir)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if result.Locked {
		t.Fatalf("indeterminate probe must report unlocked, got %+v", result)
	}
	if result.Indeterminate == nil {
		t.Fatal("expected indeterminate cause for a directory")
	}
}

func TestIsLockErrno(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{&os.PathError{Op: "open", Path: "x", Err: unix.EBUSY}, true},
		{&os.PathError{Op: "open", Path: "x", Err: unix.EACCES}, true},
		{&os.PathError{Op: "open", Path: "x", Err: unix.EPERM}, true},
		{&os.PathError{Op: "open", Path: "x", Err: unix.ETXTBSY}, true},
		{&os.PathError{Op: "open", Path: "x", Err: unix.EISDIR}, false},
		{fmt.Errorf("wrapped: %w", unix.EBUSY), true},
		{errors.New("plain"), false},
	}
	for _, tc := range cases {
		if got := isLockErrno(tc.err); got != tc.want {
			t.Fatalf("isLockErrno(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
