// Package daemonrun wires the daemon process: logging, the records store,
// metrics, the daemon itself, and the IPC socket.
package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"docvault/internal/config"
	"docvault/internal/daemon"
	"docvault/internal/daemonctl"
	"docvault/internal/ipc"
	"docvault/internal/logging"
	"docvault/internal/metrics"
	"docvault/internal/preflight"
	"docvault/internal/records"
)

// Options configures daemon process runtime behavior.
type Options struct {
	// LogLevel overrides logging.level when set.
	LogLevel string
}

// Run starts the docvault daemon and blocks until SIGINT, SIGTERM, or an IPC
// shutdown request.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, stopSignals := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()
	ctx, shutdown := context.WithCancel(signalCtx)
	defer shutdown()

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "*.log", Exclude: []string{filepath.Join(cfg.Paths.LogDir, logging.DaemonLogName)}},
	)

	store, err := records.Open(cfg.DatabasePath())
	if err != nil {
		logging.ErrorWithContext(logger, "open records store", "records_open_failed",
			logging.Error(err),
			logging.Hint("check paths.data_dir permissions"),
		)
		return err
	}

	m, err := metrics.New()
	if err != nil {
		store.Close()
		return fmt.Errorf("init metrics: %w", err)
	}

	d, err := daemon.New(cfg, store, logger, daemon.Options{Metrics: m})
	if err != nil {
		store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	// Take the single-instance lock before touching the socket so a second
	// daemon cannot unlink the first one's listener.
	if err := d.Start(ctx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	archiveRoot := ""
	if current, err := d.Settings(ctx); err == nil {
		archiveRoot = current.ArchiveRoot
	}
	for _, check := range preflight.Failed(preflight.RunAll(ctx, cfg, archiveRoot)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", check.Name),
			logging.String("detail", check.Detail),
		)
	}

	if err := daemonctl.WritePIDFile(cfg.PIDPath()); err != nil {
		logging.WarnWithContext(logger, "failed to write pid file", "pid_file_failed",
			logging.Error(err),
			logging.Impact("docvault stop cannot force-kill a hung daemon"),
		)
	}
	defer os.Remove(cfg.PIDPath())

	ipcServer, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logger, shutdown)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	<-ctx.Done()
	logger.Info("docvault daemon shutting down")
	return nil
}
