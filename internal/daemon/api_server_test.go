package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"docvault/internal/api"
	"docvault/internal/logging"
	"docvault/internal/metrics"
	"docvault/internal/services"
	"docvault/internal/testsupport"
)

func newTestServer(t *testing.T, token string) (*Daemon, http.Handler) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Metrics.Bind = "127.0.0.1:0"
	cfg.Metrics.Token = token
	store := testsupport.MustOpenStore(t, cfg)
	m, err := metrics.New()
	if err != nil {
		t.Fatalf("metrics.New: %v", err)
	}
	d, err := New(cfg, store, logging.NewNop(), Options{Metrics: m})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.http == nil {
		t.Fatal("expected http server when bind is set")
	}
	return d, d.http.routes(token)
}

func TestAPIServerHandleFiles(t *testing.T) {
	d, handler := newTestServer(t, "")
	created := time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local)
	testsupport.NewActiveFile(t, d.store, filepath.Join(d.cfg.Paths.OutputDir, "Report.docx"), created)
	testsupport.NewActiveFile(t, d.store, filepath.Join(d.cfg.Paths.OutputDir, "Notes.md"), created)

	req := httptest.NewRequest(http.MethodGet, "/api/files?ext=docx", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	var resp api.FileListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(resp.Files))
	}
	if resp.Files[0].Filename != "Report.docx" || resp.Files[0].Status != "active" {
		t.Fatalf("unexpected file %+v", resp.Files[0])
	}
}

func TestAPIServerRejectsBadFilter(t *testing.T) {
	_, handler := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/files?status=lost", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAPIServerStatusAndWatching(t *testing.T) {
	d, handler := newTestServer(t, "")
	path := filepath.Join(d.cfg.Paths.OutputDir, "Plan.odt")
	testsupport.NewActiveFile(t, d.store, path, time.Now())
	if _, err := d.Watch(context.Background(), path); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var status api.DaemonStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Watching != 1 || status.Files.Active != 1 {
		t.Fatalf("unexpected status %+v", status)
	}
	if status.Settings.ArchiveRoot != d.cfg.Archive.Root {
		t.Fatalf("unexpected settings %+v", status.Settings)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/watching", nil))
	var watching api.WatchListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &watching); err != nil {
		t.Fatalf("decode watching: %v", err)
	}
	if len(watching.Entries) != 1 || watching.Entries[0].Path != path {
		t.Fatalf("unexpected entries %+v", watching.Entries)
	}
	if watching.Entries[0].State != "awaiting_lock" {
		t.Fatalf("unexpected state %q", watching.Entries[0].State)
	}
}

func TestAPIServerMethodNotAllowed(t *testing.T) {
	_, handler := newTestServer(t, "")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/status", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestAPIServerTokenAuth(t *testing.T) {
	_, handler := newTestServer(t, "s3cret")

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "Bearer nope", http.StatusUnauthorized},
		{"wrong scheme", "Basic s3cret", http.StatusUnauthorized},
		{"valid", "Bearer s3cret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/watching", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestAPIServerMetricsUnauthenticated(t *testing.T) {
	_, handler := newTestServer(t, "s3cret")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected metrics to be served, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "docvault_") {
		t.Fatal("expected docvault metric families")
	}
}

func TestAPIServerListensAndStops(t *testing.T) {
	d, _ := newTestServer(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.http.start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	addr := d.http.Addr()
	if addr == "" {
		t.Fatal("expected bound address")
	}
	resp, err := http.Get("http://" + addr + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code %d", resp.StatusCode)
	}
	d.http.stop()
	if d.http.Addr() != "" {
		t.Fatal("expected listener released")
	}
}

func TestNewAPIServerDisabledWithoutBind(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if srv := newAPIServer(cfg, &Daemon{}, logging.NewNop()); srv != nil {
		t.Fatal("expected nil server without bind")
	}
	var srv *apiServer
	if err := srv.start(context.Background()); err != nil {
		t.Fatalf("nil start: %v", err)
	}
	srv.stop()
}

func TestHTTPStatusForErrorKinds(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.Wrap(services.ErrValidation, "records", "list", "bad filter", nil), http.StatusBadRequest},
		{services.Wrap(services.ErrNotFound, "records", "get", "", nil), http.StatusNotFound},
		{services.Wrap(services.ErrConflict, "creator", "create", "", nil), http.StatusConflict},
		{errors.New("disk I/O error"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := httpStatusFor(tt.err); got != tt.want {
			t.Fatalf("httpStatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
