package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"docvault/internal/archiver"
	"docvault/internal/lockprobe"
	"docvault/internal/logging"
	"docvault/internal/metrics"
	"docvault/internal/notifications"
	"docvault/internal/services"
	"docvault/internal/settings"
	"docvault/internal/watch"
)

// Prober classifies a path as locked or unlocked.
type Prober interface {
	Probe(path string) (lockprobe.Result, error)
}

// Archiver moves released documents.
type Archiver interface {
	Archive(ctx context.Context, path string) (archiver.Result, error)
	Resume(ctx context.Context, path, dest string) (archiver.Result, error)
}

// FailureRecorder persists the terminal failure marker.
type FailureRecorder interface {
	MarkArchiveFailed(ctx context.Context, id int64, message string) error
}

// Options tunes the loop.
type Options struct {
	PollInterval       time.Duration
	MaxConcurrency     int
	MaxArchiveAttempts int
	Metrics            *metrics.Metrics
	Notifier           notifications.Service
	Logger             *slog.Logger
}

const (
	defaultPollInterval       = 2 * time.Second
	defaultMaxConcurrency     = 8
	defaultMaxArchiveAttempts = 5
)

// Monitor owns the registry and the ticker loop.
type Monitor struct {
	registry *watch.Registry
	prober   Prober
	archiver Archiver
	failures FailureRecorder
	settings settings.Provider
	metrics  *metrics.Metrics
	notifier notifications.Service
	logger   *slog.Logger

	pollInterval time.Duration
	maxAttempts  int
	sem          *semaphore.Weighted
	now          func() time.Time

	mu        sync.Mutex
	running   bool
	ctx       context.Context
	cancel    context.CancelFunc
	loopWG    sync.WaitGroup
	tasks     sync.WaitGroup
	lastDelay time.Duration
}

// New constructs a Monitor. registry may be nil, in which case an empty one
// is created.
func New(registry *watch.Registry, prober Prober, arch Archiver, failures FailureRecorder, provider settings.Provider, opts Options) *Monitor {
	if registry == nil {
		registry = watch.NewRegistry()
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	concurrency := opts.MaxConcurrency
	if concurrency <= 0 {
		concurrency = defaultMaxConcurrency
	}
	attempts := opts.MaxArchiveAttempts
	if attempts <= 0 {
		attempts = defaultMaxArchiveAttempts
	}
	return &Monitor{
		registry:     registry,
		prober:       prober,
		archiver:     arch,
		failures:     failures,
		settings:     provider,
		metrics:      opts.Metrics,
		notifier:     opts.Notifier,
		logger:       logging.NewComponentLogger(opts.Logger, "monitor"),
		pollInterval: poll,
		maxAttempts:  attempts,
		sem:          semaphore.NewWeighted(int64(concurrency)),
		now:          time.Now,
	}
}

// Registry exposes the watch set.
func (m *Monitor) Registry() *watch.Registry {
	return m.registry
}

// Register starts watching path. It returns false when already watched.
func (m *Monitor) Register(path string) bool {
	return m.register(path, watch.StateAwaitingLock)
}

// RegisterOpened watches a document known to have been opened already, such
// as one edited while the daemon was down. It starts Locked, so the first
// unlocked observation archives it.
func (m *Monitor) RegisterOpened(path string) bool {
	return m.register(path, watch.StateLocked)
}

func (m *Monitor) register(path string, state watch.State) bool {
	path = filepath.Clean(path)
	added := m.registry.RegisterAs(path, state)
	if added {
		m.logger.Info("watching document",
			logging.Path(path),
			logging.String(logging.FieldState, string(state)),
			logging.Event("watch_registered"),
		)
		m.metrics.SetWatchEntries(m.registry.Counts())
	}
	return added
}

// Unregister stops watching path.
func (m *Monitor) Unregister(path string) bool {
	path = filepath.Clean(path)
	removed := m.registry.Unregister(path)
	if removed {
		m.logger.Info("stopped watching document", logging.Path(path))
		m.metrics.SetWatchEntries(m.registry.Counts())
	}
	return removed
}

// Watching returns a snapshot of every watched document.
func (m *Monitor) Watching() []watch.Entry {
	return m.registry.Snapshot()
}

// Running reports whether the loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Start launches the poll loop.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("monitor already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.ctx = runCtx
	m.cancel = cancel
	m.running = true

	m.loopWG.Add(1)
	go m.loop(runCtx)
	m.logger.Info("monitor started",
		logging.Duration("poll_interval", m.pollInterval),
		logging.Int("max_archive_attempts", m.maxAttempts),
	)
	return nil
}

// Stop cancels the loop and waits for in-flight probes and archives.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.loopWG.Wait()
	m.tasks.Wait()
	m.logger.Info("monitor stopped")
}

func (m *Monitor) loop(ctx context.Context) {
	defer m.loopWG.Done()

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

// sweep dispatches one task per idle entry. It returns once every task has
// been launched; tasks still running at the next tick keep their paths busy.
func (m *Monitor) sweep(ctx context.Context) {
	started := m.now()
	delay := m.archiveDelay(ctx)

	for _, entry := range m.registry.Snapshot() {
		if !m.registry.Begin(entry.Path) {
			continue
		}
		if err := m.sem.Acquire(ctx, 1); err != nil {
			m.registry.End(entry.Path)
			return
		}
		m.tasks.Add(1)
		go m.process(ctx, entry.Path, delay)
	}
	m.metrics.RecordSweep(m.now().Sub(started))
	m.metrics.SetWatchEntries(m.registry.Counts())
}

func (m *Monitor) archiveDelay(ctx context.Context) time.Duration {
	if m.settings == nil {
		return 0
	}
	current, err := m.settings.Settings(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		logging.WarnWithContext(m.logger, "failed to read settings; reusing previous archive delay", "settings_unavailable",
			logging.Error(err),
			logging.Duration("archive_delay", m.lastDelay),
			logging.Impact("archive delay edits are not applied this sweep"),
		)
		return m.lastDelay
	}
	m.lastDelay = time.Duration(current.AutoArchiveDelaySeconds) * time.Second
	return m.lastDelay
}

func (m *Monitor) process(ctx context.Context, path string, delay time.Duration) {
	defer m.tasks.Done()
	defer m.sem.Release(1)
	defer m.registry.End(path)
	logger := m.logger.With(logging.Path(path))
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(logger, "watch task panicked", "watch_task_panic",
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())),
				logging.Hint("the path stays watched and is retried next sweep"),
			)
		}
	}()

	entry, ok := m.registry.Get(path)
	if !ok {
		return
	}
	obs, indeterminate := m.observe(path)
	if indeterminate != "" && indeterminate != entry.LastError {
		logging.WarnWithContext(logger, "lock probe indeterminate; treating as unlocked", "probe_indeterminate",
			logging.String("probe_error", indeterminate),
			logging.Hint("check file permissions and the filesystem holding the document"),
			logging.Impact("the document may be archived while still open"),
		)
	}

	tr := watch.Advance(entry, obs, m.now(), delay)
	if indeterminate != "" {
		tr.Next.LastError = indeterminate
	}
	if !m.registry.Update(path, func(e *watch.Entry) { *e = tr.Next }) {
		return
	}
	if tr.Changed(entry) {
		logger.Info("document state changed",
			logging.String("from", string(entry.State)),
			logging.String(logging.FieldState, string(tr.Next.State)),
			logging.String("observed", obs.String()),
			logging.Event("state_transition"),
		)
	}

	switch tr.Action {
	case watch.ActionRemove:
		m.registry.Unregister(path)
		logger.Info("document disappeared before it was opened; no longer watching",
			logging.Event("watch_removed"),
		)
	case watch.ActionArchive:
		// Archive work outlives the loop context so a started move completes.
		m.archive(context.WithoutCancel(ctx), path, tr.Next)
	}
}

func (m *Monitor) observe(path string) (watch.Observation, string) {
	result, err := m.prober.Probe(path)
	switch {
	case errors.Is(err, lockprobe.ErrNotExist):
		m.metrics.RecordProbe("missing")
		return watch.ObservedMissing, ""
	case err != nil:
		m.metrics.RecordProbe("indeterminate")
		return watch.ObservedUnlocked, err.Error()
	case result.Locked:
		m.metrics.RecordProbe("locked")
		return watch.ObservedLocked, ""
	case result.Indeterminate != nil:
		m.metrics.RecordProbe("indeterminate")
		return watch.ObservedUnlocked, result.Indeterminate.Error()
	default:
		m.metrics.RecordProbe("unlocked")
		return watch.ObservedUnlocked, ""
	}
}

func (m *Monitor) archive(ctx context.Context, path string, entry watch.Entry) {
	requestID := uuid.NewString()
	ctx = services.WithRequestID(services.WithPath(ctx, path), requestID)
	logger := logging.WithContext(ctx, m.logger)

	var (
		result archiver.Result
		err    error
	)
	if entry.PartialDestination != "" {
		result, err = m.archiver.Resume(ctx, path, entry.PartialDestination)
	} else {
		result, err = m.archiver.Archive(ctx, path)
	}
	if result.FileID != 0 {
		logger = logger.With(logging.FileID(result.FileID))
	}

	switch {
	case err == nil:
		m.registry.Unregister(path)
		m.metrics.RecordArchive(metrics.OutcomeArchived)
		m.notify(ctx, logger, notifications.EventDocumentArchived, notifications.Payload{
			"path":        path,
			"destination": result.Destination,
		})
	case errors.Is(err, archiver.ErrSourceVanished):
		m.registry.Unregister(path)
		m.metrics.RecordArchive(metrics.OutcomeSourceVanished)
		logger.Info("document vanished before it could be archived; no longer watching",
			logging.Event("source_vanished"),
		)
	case errors.Is(err, archiver.ErrRecordNotFound):
		m.registry.Unregister(path)
		m.metrics.RecordArchive(metrics.OutcomeRecordMissing)
		logging.WarnWithContext(logger, "watched document has no active record; not archived", "record_not_found",
			logging.Error(err),
			logging.Hint("the database and the watch set disagree; check docvault files"),
			logging.Impact("document left in place"),
		)
	case errors.Is(err, archiver.ErrMetadataUpdate):
		m.registry.Unregister(path)
		m.metrics.RecordArchive(metrics.OutcomeMetadataFailed)
		logging.ErrorWithContext(logger, "document archived but record update failed", "metadata_update_failed",
			logging.Destination(result.Destination),
			logging.Error(err),
			logging.Hint("run docvault reconcile"),
		)
		m.notify(ctx, logger, notifications.EventReconcileRequired, notifications.Payload{
			"path":        path,
			"destination": result.Destination,
		})
	default:
		m.handleMoveFailure(ctx, logger, path, entry, result, err)
	}
}

func (m *Monitor) handleMoveFailure(ctx context.Context, logger *slog.Logger, path string, entry watch.Entry, result archiver.Result, err error) {
	partial := errors.Is(err, archiver.ErrPartialMove)
	if partial {
		m.metrics.RecordArchive(metrics.OutcomePartialMove)
	} else {
		m.metrics.RecordArchive(metrics.OutcomeMoveFailed)
	}
	attempts := entry.Attempts + 1

	if attempts >= m.maxAttempts {
		m.registry.Unregister(path)
		m.metrics.RecordArchive(metrics.OutcomeAbandoned)
		message := fmt.Sprintf("archive abandoned after %d attempts: %v", attempts, err)
		if result.FileID != 0 && m.failures != nil {
			if markErr := m.failures.MarkArchiveFailed(ctx, result.FileID, message); markErr != nil {
				logger.Error("failed to persist archive failure marker", logging.Error(markErr))
			}
		}
		logging.ErrorWithContext(logger, "giving up on archiving document", "archive_abandoned",
			logging.Int("attempts", attempts),
			logging.String("partial_destination", result.Destination),
			logging.Error(err),
			logging.Hint("move the document manually or fix the archive root, then docvault watch it again"),
		)
		m.notify(ctx, logger, notifications.EventArchiveAbandoned, notifications.Payload{
			"path":     path,
			"attempts": attempts,
			"error":    err.Error(),
		})
		return
	}

	m.registry.Update(path, func(e *watch.Entry) {
		e.Attempts = attempts
		e.LastError = err.Error()
		if partial {
			e.PartialDestination = result.Destination
		} else {
			e.PartialDestination = ""
		}
	})
	logging.WarnWithContext(logger, "archive attempt failed; will retry", "archive_retry",
		logging.Int("attempt", attempts),
		logging.Int("max_attempts", m.maxAttempts),
		logging.Bool("partial", partial),
		logging.Error(err),
		logging.Hint("check archive root permissions and free space"),
		logging.Impact("document stays in place until the next sweep"),
	)
}

func (m *Monitor) notify(ctx context.Context, logger *slog.Logger, event notifications.Event, payload notifications.Payload) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Publish(ctx, event, payload); err != nil {
		logger.Warn("notification failed",
			logging.String("notification", string(event)),
			logging.Error(err),
		)
	}
}
