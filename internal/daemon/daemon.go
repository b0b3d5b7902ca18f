package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"docvault/internal/api"
	"docvault/internal/archiver"
	"docvault/internal/config"
	"docvault/internal/creator"
	"docvault/internal/lockprobe"
	"docvault/internal/logging"
	"docvault/internal/metrics"
	"docvault/internal/monitor"
	"docvault/internal/notifications"
	"docvault/internal/records"
	"docvault/internal/services"
	"docvault/internal/settings"
	"docvault/internal/watch"
)

// Daemon owns the monitor lifecycle and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *records.Store
	settings *settings.Manager
	journal  *archiver.Journal
	monitor  *monitor.Monitor
	creator  *creator.Creator
	metrics  *metrics.Metrics
	notifier notifications.Service
	http     *apiServer

	notifyConfigured bool

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Options carries optional collaborators.
type Options struct {
	Metrics *metrics.Metrics
	// Opener overrides the configured open command for new documents.
	Opener creator.Opener
	// Notifier overrides the ntfy notifier built from the configuration.
	Notifier notifications.Service
}

// Status represents daemon runtime information.
type Status struct {
	Running          bool
	PID              int
	Watching         int
	WatchStates      map[string]int
	Files            records.Stats
	ReconcilePending int
	Settings         settings.Settings
	DatabasePath     string
	LockPath         string
	JournalPath      string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *records.Store, logger *slog.Logger, opts Options) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and records store")
	}
	logger = logging.NewComponentLogger(logger, "daemon")

	manager := settings.NewManager(store, cfg)
	journal := archiver.NewJournal(cfg.ReconcileJournalPath())
	arch := archiver.New(store, manager, archiver.Options{
		Journal: journal,
		Metrics: opts.Metrics,
		Logger:  logger,
	})
	prober := lockprobe.New(lockprobe.Options{Advisory: cfg.Monitor.AdvisoryProbe, Logger: logger})
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	mon := monitor.New(watch.NewRegistry(), prober, arch, store, manager, monitor.Options{
		PollInterval:       cfg.PollInterval(),
		MaxConcurrency:     cfg.Monitor.MaxConcurrency,
		MaxArchiveAttempts: cfg.Monitor.MaxArchiveAttempts,
		Metrics:            opts.Metrics,
		Notifier:           notifier,
		Logger:             logger,
	})
	create := creator.New(cfg, store, manager, mon, creator.Options{
		Opener:  opts.Opener,
		Metrics: opts.Metrics,
		Logger:  logger,
	})

	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		settings: manager,
		journal:  journal,
		monitor:  mon,
		creator:  create,
		metrics:  opts.Metrics,
		notifier: notifier,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),

		notifyConfigured: opts.Notifier != nil || cfg.Notifications.NtfyTopic != "",
	}
	d.http = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, restores the watch set, and launches the
// monitor and the optional HTTP listener.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := checkWritable(d.cfg.Paths.DataDir); err != nil {
		return err
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another docvault daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	restored, opened, err := d.restoreWatchSet(runCtx)
	if err != nil {
		logging.WarnWithContext(d.logger, "failed to restore watch set", "watch_restore_failed",
			logging.Error(err),
			logging.Hint("check database access, then docvault watch documents manually"),
			logging.Impact("documents created before the restart are not monitored"),
		)
	}
	if err := d.monitor.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start monitor: %w", err)
	}
	if err := d.http.start(runCtx); err != nil {
		logging.WarnWithContext(d.logger, "http listener unavailable", "http_listen_failed",
			logging.Error(err),
			logging.Hint("check metrics.bind"),
			logging.Impact("metrics and the status API are not served"),
		)
	}
	d.refreshReconcileGauge()

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("docvault daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("restored", restored),
		logging.Int("restored_opened", opened),
		logging.Event("daemon_started"),
	)
	return nil
}

// Stop halts the monitor, waits for in-flight archives, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.http.stop()
	d.monitor.Stop()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.Error(err),
			logging.Hint("remove the lock file if the next start fails"),
		)
	}
	d.running.Store(false)
	d.logger.Info("docvault daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// editedSlack absorbs the gap between creating a record and writing its
// document.
const editedSlack = 2 * time.Second

// restoreWatchSet registers every active record whose document still exists.
// A document modified after its record was created has been opened before, so
// it resumes in Locked and is archived once found closed.
func (d *Daemon) restoreWatchSet(ctx context.Context) (restored, opened int, err error) {
	active, err := d.store.ListActive(ctx)
	if err != nil {
		return 0, 0, err
	}
	for _, file := range active {
		info, statErr := os.Stat(file.Path)
		if statErr != nil {
			d.logger.Debug("skipping missing document during restore",
				logging.FileID(file.ID),
				logging.Path(file.Path),
				logging.Error(statErr),
			)
			continue
		}
		if info.ModTime().After(file.CreatedAt.Add(editedSlack)) {
			if d.monitor.RegisterOpened(file.Path) {
				restored++
				opened++
			}
			continue
		}
		if d.monitor.Register(file.Path) {
			restored++
		}
	}
	return restored, opened, nil
}

func checkWritable(dir string) error {
	if err := unix.Access(dir, unix.W_OK|unix.X_OK); err != nil {
		return services.Wrap(services.ErrConfiguration, "daemon", "preflight",
			fmt.Sprintf("data directory %s is not writable", dir), err)
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Watching:     d.monitor.Registry().Len(),
		WatchStates:  d.monitor.Registry().Counts(),
		DatabasePath: d.store.Path(),
		LockPath:     d.lockPath,
		JournalPath:  d.journal.Path(),
	}
	if stats, err := d.store.Stats(ctx); err == nil {
		status.Files = stats
	} else {
		d.logger.Debug("stats unavailable", logging.Error(err))
	}
	if current, err := d.settings.Settings(ctx); err == nil {
		status.Settings = current
	}
	if entries, _, err := d.journal.Entries(); err == nil {
		status.ReconcilePending = len(entries)
	}
	return status
}

// CreateFile creates, records, and starts watching a new document.
func (d *Daemon) CreateFile(ctx context.Context, req creator.Request) (*records.File, error) {
	return d.creator.Create(ctx, req)
}

// Watch starts monitoring an existing document. The path must belong to an
// active record; a persisted archive failure is cleared so the document gets
// a fresh retry budget.
func (d *Daemon) Watch(ctx context.Context, path string) (bool, error) {
	abs, err := absPath(path)
	if err != nil {
		return false, err
	}
	record, err := d.store.FindByPath(ctx, abs)
	if err != nil {
		return false, err
	}
	if record == nil || record.Status != records.StatusActive {
		return false, services.Wrap(services.ErrNotFound, "daemon", "watch", fmt.Sprintf("no active record for %s", abs), nil)
	}
	if _, err := os.Stat(abs); err != nil {
		return false, services.Wrap(services.ErrNotFound, "daemon", "watch", "document missing", err)
	}
	if record.ArchiveError != "" {
		if err := d.store.ClearArchiveFailure(ctx, record.ID); err != nil {
			return false, err
		}
	}
	return d.monitor.Register(abs), nil
}

// Unwatch stops monitoring a document.
func (d *Daemon) Unwatch(path string) (bool, error) {
	abs, err := absPath(path)
	if err != nil {
		return false, err
	}
	return d.monitor.Unregister(abs), nil
}

// Watching returns the watch set.
func (d *Daemon) Watching() []watch.Entry {
	return d.monitor.Watching()
}

// ListFiles queries document records.
func (d *Daemon) ListFiles(ctx context.Context, filter records.Filter) ([]*records.File, error) {
	return d.store.List(ctx, filter)
}

// Tags lists tags by usage.
func (d *Daemon) Tags(ctx context.Context) ([]records.Tag, error) {
	return d.store.Tags(ctx)
}

// Settings returns the effective settings.
func (d *Daemon) Settings(ctx context.Context) (settings.Settings, error) {
	return d.settings.Settings(ctx)
}

// SaveSettings persists a settings patch.
func (d *Daemon) SaveSettings(ctx context.Context, patch settings.Patch) (settings.Settings, error) {
	saved, err := d.settings.Save(ctx, patch)
	if err != nil {
		return settings.Settings{}, err
	}
	d.logger.Info("settings updated",
		logging.String("archive_root", saved.ArchiveRoot),
		logging.String("naming_template", saved.NamingTemplate),
		logging.Int("auto_archive_delay_seconds", saved.AutoArchiveDelaySeconds),
		logging.Event("settings_saved"),
	)
	return saved, nil
}

// Reconcile replays record updates for archives journaled after a failure.
func (d *Daemon) Reconcile(ctx context.Context) (archiver.ReconcileReport, error) {
	report, err := d.journal.Reconcile(ctx, d.store, d.logger)
	d.refreshReconcileGauge()
	if err != nil {
		return report, err
	}
	d.logger.Info("reconciliation finished",
		logging.Int("replayed", report.Replayed),
		logging.Int("dropped", report.Dropped),
		logging.Int("remaining", report.Remaining),
		logging.Event("reconcile_finished"),
	)
	return report, nil
}

func (d *Daemon) refreshReconcileGauge() {
	if d.metrics == nil {
		return
	}
	if entries, _, err := d.journal.Entries(); err == nil {
		d.metrics.SetReconcilePending(len(entries))
	}
}

func absPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", services.Wrap(services.ErrValidation, "daemon", "resolve path", "path is required", nil)
	}
	expanded, err := config.ExpandPath(trimmed)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	return abs, nil
}

// API converts the status into its wire representation.
func (s Status) API() api.DaemonStatus {
	states := make(map[string]int, len(s.WatchStates))
	for k, v := range s.WatchStates {
		states[k] = v
	}
	return api.DaemonStatus{
		Running:          s.Running,
		PID:              s.PID,
		Watching:         s.Watching,
		WatchStates:      states,
		Files:            api.FromStats(s.Files),
		ReconcilePending: s.ReconcilePending,
		Settings:         api.FromSettings(s.Settings),
		DatabasePath:     s.DatabasePath,
		LockPath:         s.LockPath,
		JournalPath:      s.JournalPath,
	}
}

// DatabaseHealth returns detailed database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (records.DatabaseHealth, error) {
	return d.store.CheckHealth(ctx)
}

// LogPath returns the daemon log file, or "" when file logging is disabled.
func (d *Daemon) LogPath() string {
	if d.cfg.Paths.LogDir == "" {
		return ""
	}
	return filepath.Join(d.cfg.Paths.LogDir, logging.DaemonLogName)
}

// TestNotification publishes a test message through the configured notifier.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if !d.notifyConfigured {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.Publish(ctx, notifications.EventTest, nil); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}
