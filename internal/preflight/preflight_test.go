package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docvault/internal/config"
)

func TestCheckDirectoryAccess(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		path string
		pass bool
	}{
		{"writable dir", t.TempDir(), true},
		{"missing", filepath.Join(t.TempDir(), "nope"), false},
		{"file", file, false},
		{"blank", " ", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckDirectoryAccess("test", tt.path)
			if result.Passed != tt.pass {
				t.Fatalf("expected passed=%v, got %+v", tt.pass, result)
			}
			if result.Detail == "" {
				t.Fatal("expected non-empty detail")
			}
		})
	}
}

func TestCheckTemplates(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"template.docx", "template.md", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	result := CheckTemplates(dir)
	if !result.Passed || !strings.Contains(result.Detail, "2 templates") {
		t.Fatalf("unexpected result %+v", result)
	}
	if missing := CheckTemplates(filepath.Join(dir, "absent")); !missing.Passed {
		t.Fatalf("missing templates dir should pass, got %+v", missing)
	}
}

func TestCheckCommand(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "opener")
	if err := os.WriteFile(present, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	if result := CheckCommand("Open command", present+" --new-window"); !result.Passed || result.Detail != present {
		t.Fatalf("expected stub to resolve, got %+v", result)
	}
	if result := CheckCommand("Open command", "clearly-not-present-binary"); result.Passed {
		t.Fatalf("expected missing binary to fail, got %+v", result)
	}
	if result := CheckCommand("Open command", ""); !result.Passed || result.Detail != "disabled" {
		t.Fatalf("expected empty command to pass as disabled, got %+v", result)
	}
}

func TestCheckNtfy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		pass   bool
	}{
		{"ok", http.StatusOK, true},
		{"forbidden", http.StatusForbidden, false},
		{"server error", http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if !strings.HasSuffix(r.URL.Path, "/json") {
					t.Errorf("unexpected path %q", r.URL.Path)
				}
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			result := CheckNtfy(context.Background(), srv.URL+"/docvault")
			if result.Passed != tt.pass {
				t.Fatalf("expected passed=%v, got %+v", tt.pass, result)
			}
		})
	}
}

func TestRunAll(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.TemplatesDir = ""
	cfg.Archive.Root = filepath.Join(t.TempDir(), "missing")
	cfg.Creator.OpenCommand = ""

	results := RunAll(context.Background(), &cfg, "")
	if len(results) != 5 {
		t.Fatalf("expected 5 checks without ntfy, got %d", len(results))
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Archive root" {
		t.Fatalf("expected only the archive root to fail, got %+v", failed)
	}

	override := t.TempDir()
	if failed := Failed(RunAll(context.Background(), &cfg, override)); len(failed) != 0 {
		t.Fatalf("expected settings archive root to be used, got %+v", failed)
	}
	if RunAll(context.Background(), nil, "") != nil {
		t.Fatal("expected nil results for nil config")
	}
}
