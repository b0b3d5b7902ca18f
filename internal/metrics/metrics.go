// Package metrics exposes Prometheus collectors for the file-lifecycle monitor,
// the archiver, and the document creator.
//
// Every recording method is safe to call on a nil *Metrics so components can
// run without instrumentation in tests.
package metrics

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Archive outcome label values.
const (
	OutcomeArchived       = "archived"
	OutcomeSourceVanished = "source_vanished"
	OutcomeRecordMissing  = "record_not_found"
	OutcomeMoveFailed     = "move_failed"
	OutcomePartialMove    = "partial_move"
	OutcomeMetadataFailed = "metadata_failed"
	OutcomeAbandoned      = "abandoned"
)

// Metrics holds the collectors registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	watchEntries    *prometheus.GaugeVec
	sweepsTotal     prometheus.Counter
	sweepDuration   prometheus.Histogram
	probesTotal     *prometheus.CounterVec
	archivesTotal   *prometheus.CounterVec
	moveDuration    *prometheus.HistogramVec
	filesCreated    *prometheus.CounterVec
	reconcileQueued prometheus.Gauge
}

// New creates and registers the docvault collectors.
func New() (*Metrics, error) {
	m := &Metrics{registry: prometheus.NewRegistry()}
	m.initMetrics()
	if err := m.registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.watchEntries = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "docvault_watch_entries",
		Help: "Documents currently watched, by lifecycle state",
	}, []string{"state"})

	m.sweepsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "docvault_sweeps_total",
		Help: "Total number of monitor sweeps performed",
	})

	m.sweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "docvault_sweep_duration_seconds",
		Help:    "Time taken for one sweep over all watched documents",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	})

	m.probesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "docvault_lock_probes_total",
		Help: "Total number of lock probes, by result",
	}, []string{"result"}) // locked, unlocked, missing, indeterminate

	m.archivesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "docvault_archive_attempts_total",
		Help: "Total number of archive attempts, by outcome",
	}, []string{"outcome"})

	m.moveDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docvault_move_duration_seconds",
		Help:    "Time taken to move a document into the archive",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10), // 0.5ms to ~2min
	}, []string{"method"}) // rename, copy

	m.filesCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "docvault_files_created_total",
		Help: "Total number of documents created, by extension",
	}, []string{"extension"})

	m.reconcileQueued = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "docvault_reconcile_pending",
		Help: "Archived documents whose record update is awaiting reconciliation",
	})
}

// Describe implements the Collector interface.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.watchEntries.Describe(ch)
	m.sweepsTotal.Describe(ch)
	m.sweepDuration.Describe(ch)
	m.probesTotal.Describe(ch)
	m.archivesTotal.Describe(ch)
	m.moveDuration.Describe(ch)
	m.filesCreated.Describe(ch)
	m.reconcileQueued.Describe(ch)
}

// Collect implements the Collector interface.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.watchEntries.Collect(ch)
	m.sweepsTotal.Collect(ch)
	m.sweepDuration.Collect(ch)
	m.probesTotal.Collect(ch)
	m.archivesTotal.Collect(ch)
	m.moveDuration.Collect(ch)
	m.filesCreated.Collect(ch)
	m.reconcileQueued.Collect(ch)
}

// SetWatchEntries replaces the per-state gauge values.
func (m *Metrics) SetWatchEntries(counts map[string]int) {
	if m == nil {
		return
	}
	m.watchEntries.Reset()
	for state, count := range counts {
		m.watchEntries.WithLabelValues(state).Set(float64(count))
	}
}

// RecordSweep records one completed sweep.
func (m *Metrics) RecordSweep(duration time.Duration) {
	if m == nil {
		return
	}
	m.sweepsTotal.Inc()
	m.sweepDuration.Observe(duration.Seconds())
}

// RecordProbe records a lock probe result.
func (m *Metrics) RecordProbe(result string) {
	if m == nil {
		return
	}
	m.probesTotal.WithLabelValues(result).Inc()
}

// RecordArchive records the outcome of one archive attempt.
func (m *Metrics) RecordArchive(outcome string) {
	if m == nil {
		return
	}
	m.archivesTotal.WithLabelValues(outcome).Inc()
}

// RecordMove records how long a successful move took.
func (m *Metrics) RecordMove(method string, duration time.Duration) {
	if m == nil {
		return
	}
	m.moveDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordFileCreated records a document created by the creator.
func (m *Metrics) RecordFileCreated(extension string) {
	if m == nil {
		return
	}
	m.filesCreated.WithLabelValues(extension).Inc()
}

// SetReconcilePending records the journal length.
func (m *Metrics) SetReconcilePending(count int) {
	if m == nil {
		return
	}
	m.reconcileQueued.Set(float64(count))
}

// Handler returns the HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, "metrics handler: ", log.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}
