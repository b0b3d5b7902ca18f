package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"docvault/internal/api"
	"docvault/internal/records"
	"docvault/internal/testsupport"
)

func TestNewWatchAndFiles(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"new", "md", "Weekly", "Notes", "--date", "2024-03-15", "--tag", "work"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	want := filepath.Join(env.cfg.Paths.OutputDir, "2024-03-15_Weekly Notes.md")
	requireContains(t, out, "Created "+want)
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("expected document on disk: %v", err)
	}

	out, _, err = runCLI(t, []string{"watching"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("watching: %v", err)
	}
	requireContains(t, out, "awaiting_lock")

	out, _, err = runCLI(t, []string{"files", "--tag", "work"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("files: %v", err)
	}
	requireContains(t, out, "Weekly Notes")
	requireContains(t, out, "active")

	out, _, err = runCLI(t, []string{"--json", "files"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("files --json: %v", err)
	}
	var files []api.File
	if err := json.Unmarshal([]byte(out), &files); err != nil {
		t.Fatalf("decode files: %v\n%s", err, out)
	}
	if len(files) != 1 || files[0].Tags[0] != "work" {
		t.Fatalf("unexpected files %+v", files)
	}

	out, _, err = runCLI(t, []string{"tags"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("tags: %v", err)
	}
	requireContains(t, out, "work")

	out, _, err = runCLI(t, []string{"unwatch", want}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("unwatch: %v", err)
	}
	requireContains(t, out, "Stopped watching")

	out, _, err = runCLI(t, []string{"watch", want}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	requireContains(t, out, "Watching "+want)
}

func TestNewRejectsUnknownExtension(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"new", "exe", "Payload"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected unsupported extension to fail")
	}
}

func TestWatchRelativePathResolvesAgainstCLI(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.cfg.Paths.OutputDir, "Relative.docx")
	testsupport.NewActiveFile(t, env.store, path, time.Now())
	t.Chdir(env.cfg.Paths.OutputDir)

	out, _, err := runCLI(t, []string{"watch", "Relative.docx"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	requireContains(t, out, path)
}

func TestSettingsShowAndSet(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"settings", "set", "--delay", "45", "--template", "{title}_{date}"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("settings set: %v", err)
	}
	requireContains(t, out, "auto_archive_delay_seconds: 45")

	out, _, err = runCLI(t, []string{"settings", "show"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("settings show: %v", err)
	}
	requireContains(t, out, "{title}_{date}")
	requireContains(t, out, env.cfg.Archive.Root)

	if _, _, err := runCLI(t, []string{"settings", "set"}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected empty settings set to fail")
	}
}

func TestStatusAndReconcile(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.NewActiveFile(t, env.store, filepath.Join(env.cfg.Paths.OutputDir, "a.docx"), time.Now())

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Running (pid")
	requireContains(t, out, "active")
	requireContains(t, out, "Environment")
	requireContains(t, out, "Data directory")

	out, _, err = runCLI(t, []string{"--json", "status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	var status api.DaemonStatus
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Running || status.Files.Active != 1 {
		t.Fatalf("unexpected status %+v", status)
	}

	out, _, err = runCLI(t, []string{"reconcile"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	requireContains(t, out, "Replayed 0")

	out, _, err = runCLI(t, []string{"db-health"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("db-health: %v", err)
	}
	requireContains(t, out, "docvault.db")

	out, _, err = runCLI(t, []string{"test-notify"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "not configured")
}

func TestStatusFallsBackWhenDaemonDown(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DOCVAULT_ARCHIVE_ROOT", "")
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	store, err := records.Open(cfg.DatabasePath())
	if err != nil {
		t.Fatalf("records.Open: %v", err)
	}
	testsupport.NewActiveFile(t, store, filepath.Join(cfg.Paths.OutputDir, "offline.docx"), time.Now())
	store.Close()

	out, _, err := runCLI(t, []string{"--json", "status"}, "", configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var status api.DaemonStatus
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Running {
		t.Fatal("expected daemon reported as not running")
	}
	if status.Files.Active != 1 {
		t.Fatalf("expected offline stats, got %+v", status.Files)
	}
}

func TestCommandsReportMissingDaemon(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DOCVAULT_ARCHIVE_ROOT", "")
	socket := filepath.Join(t.TempDir(), "none.sock")
	_, _, err := runCLI(t, []string{"watching"}, socket, "")
	if err == nil || !strings.Contains(err.Error(), "docvault start") {
		t.Fatalf("expected start hint, got %v", err)
	}

	out, _, err := runCLI(t, []string{"stop"}, socket, "")
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "not running")
}

func TestLogsPrintsTail(t *testing.T) {
	env := setupCLITestEnv(t)
	logPath := env.daemon.LogPath()
	if err := os.WriteFile(logPath, []byte("one\ntwo\nthree\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	out, _, err := runCLI(t, []string{"logs", "-n", "2"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.TrimSpace(out) != "two\nthree" {
		t.Fatalf("unexpected log output %q", out)
	}
}

func TestCreatedDocumentArchivesAfterClose(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"--json", "new", "odt", "Scratch", "--date", "2024-05-02"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var created api.File
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// An editor lock file marks the document open; removing it closes it.
	_, closeDoc := testsupport.OpenInEditor(t, created.Path, testsupport.EditorLibreOffice)
	waitFor(t, 5*time.Second, func() bool {
		for _, e := range env.daemon.Watching() {
			if e.Path == created.Path && e.State == "locked" {
				return true
			}
		}
		return false
	})
	closeDoc()

	waitFor(t, 5*time.Second, func() bool {
		file, err := env.store.GetByID(context.Background(), created.ID)
		return err == nil && file.Status == records.StatusArchived
	})
	file, _ := env.store.GetByID(context.Background(), created.ID)
	if !strings.HasPrefix(file.Path, env.cfg.Archive.Root) {
		t.Fatalf("expected archived under %s, got %s", env.cfg.Archive.Root, file.Path)
	}
}
