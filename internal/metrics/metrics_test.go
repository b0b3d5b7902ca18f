package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordArchiveOutcomes(t *testing.T) {
	m, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	m.RecordArchive(OutcomeArchived)
	m.RecordArchive(OutcomeArchived)
	m.RecordArchive(OutcomeMoveFailed)

	if got := testutil.ToFloat64(m.archivesTotal.WithLabelValues(OutcomeArchived)); got != 2 {
		t.Fatalf("expected 2 archived, got %v", got)
	}
	if got := testutil.ToFloat64(m.archivesTotal.WithLabelValues(OutcomeMoveFailed)); got != 1 {
		t.Fatalf("expected 1 move failure, got %v", got)
	}
}

func TestSetWatchEntriesResetsStaleStates(t *testing.T) {
	m, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	m.SetWatchEntries(map[string]int{"locked": 2, "archiving": 1})
	m.SetWatchEntries(map[string]int{"locked": 1})

	if got := testutil.ToFloat64(m.watchEntries.WithLabelValues("locked")); got != 1 {
		t.Fatalf("expected 1 locked entry, got %v", got)
	}
	if got := testutil.CollectAndCount(m.watchEntries); got != 1 {
		t.Fatalf("expected stale states dropped, got %d series", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordSweep(time.Millisecond)
	m.RecordProbe("locked")
	m.RecordArchive(OutcomeArchived)
	m.RecordMove("rename", time.Millisecond)
	m.RecordFileCreated("docx")
	m.SetWatchEntries(map[string]int{"locked": 1})
	m.SetReconcilePending(3)
}

func TestHandlerExposesRegistry(t *testing.T) {
	m, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	m.RecordSweep(5 * time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "docvault_sweeps_total 1") {
		t.Fatalf("expected sweep counter in output, got %q", w.Body.String())
	}
}
