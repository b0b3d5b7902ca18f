package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"docvault/internal/api"
	"docvault/internal/daemonctl"
	"docvault/internal/daemonrun"
	"docvault/internal/ipc"
	"docvault/internal/preflight"
	"docvault/internal/records"
)

const (
	startWaitTimeout = 10 * time.Second
	stopGracePeriod  = 5 * time.Second
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the docvault daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startDaemon(cmd.OutOrStdout(), ctx)
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the docvault daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return stopDaemon(cmd.OutOrStdout(), ctx)
		},
	}

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the docvault daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if err := stopDaemon(out, ctx); err != nil {
				return err
			}
			return startDaemon(out, ctx)
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, document, and watch status",
		RunE: func(cmd *cobra.Command, args []string) error {
			status := buildStatusSnapshot(cmd.Context(), ctx)
			if ctx.jsonOutput() {
				return writeJSON(cmd, status)
			}
			out := cmd.OutOrStdout()
			colorize := colorEnabled(out)
			lines := statusLines(status, colorize)
			if cfg := ctx.configValue(); cfg != nil {
				checks := preflight.RunAll(cmd.Context(), cfg, status.Settings.ArchiveRoot)
				lines = append(lines, environmentLines(checks, colorize)...)
			}
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd}
}

func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	cmd := &cobra.Command{
		Use:    "daemon",
		Short:  "Run the docvault daemon in the foreground",
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{LogLevel: logLevel})
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	return cmd
}

func startDaemon(out io.Writer, ctx *commandContext) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	result, err := daemonctl.EnsureStarted(ctx.socketPath(), exe,
		daemonctl.LaunchOptions{ConfigPath: ctx.configPath()}, startWaitTimeout)
	if err != nil {
		return err
	}
	switch result.State {
	case daemonctl.StartStateStarted:
		fmt.Fprintf(out, "Daemon started (pid %d)\n", result.PID)
	case daemonctl.StartStateAlreadyRunning:
		fmt.Fprintf(out, "Daemon already running (pid %d)\n", result.PID)
	}
	return nil
}

func stopDaemon(out io.Writer, ctx *commandContext) error {
	pidPath := ""
	if cfg := ctx.configValue(); cfg != nil {
		pidPath = cfg.PIDPath()
	}
	result, err := daemonctl.Stop(ctx.socketPath(), pidPath, stopGracePeriod)
	if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		fmt.Fprintln(out, "Daemon is not running")
		return nil
	}
	if err != nil {
		return err
	}
	if result.ForcedKill {
		fmt.Fprintf(out, "Daemon did not exit in time; killed pid %d\n", result.PID)
		return nil
	}
	fmt.Fprintln(out, "Daemon stopped")
	return nil
}

// buildStatusSnapshot asks the daemon for status and falls back to reading
// record counts straight from the database when the daemon is unreachable.
func buildStatusSnapshot(cmdCtx context.Context, ctx *commandContext) api.DaemonStatus {
	client, err := ipc.Dial(ctx.socketPath())
	if err == nil {
		defer client.Close()
		if resp, statusErr := client.Status(); statusErr == nil && resp != nil {
			return *resp
		}
	}

	status := api.DaemonStatus{}
	cfg := ctx.configValue()
	if cfg == nil {
		return status
	}
	status.DatabasePath = cfg.DatabasePath()
	status.LockPath = cfg.LockPath()
	status.JournalPath = cfg.ReconcileJournalPath()
	status.Settings = api.Settings{
		ArchiveRoot:             cfg.Archive.Root,
		NamingTemplate:          cfg.Archive.NamingTemplate,
		AutoArchiveDelaySeconds: cfg.Archive.AutoArchiveDelaySeconds,
	}

	queryCtx, cancel := context.WithTimeout(cmdCtx, 2*time.Second)
	defer cancel()
	store, err := records.Open(cfg.DatabasePath())
	if err != nil {
		return status
	}
	defer store.Close()
	if stats, err := store.Stats(queryCtx); err == nil {
		status.Files = api.FromStats(stats)
	}
	return status
}

func statusLines(status api.DaemonStatus, colorize bool) []string {
	var lines []string
	lines = append(lines, sectionHeader("Daemon", colorize)...)
	if status.Running {
		lines = append(lines, statusLine("docvault", toneGood, "Running (pid "+strconv.Itoa(status.PID)+")", colorize))
	} else {
		lines = append(lines, statusLine("docvault", toneAttention, "Not running (run `docvault start`)", colorize))
	}
	if status.ReconcilePending > 0 {
		lines = append(lines, statusLine("Reconcile", toneAttention,
			fmt.Sprintf("%d archived documents need a record update (run `docvault reconcile`)", status.ReconcilePending), colorize))
	}
	if status.Files.Failed > 0 {
		lines = append(lines, statusLine("Archive failures", toneProblem,
			fmt.Sprintf("%d documents gave up archiving (see `docvault files --status active`)", status.Files.Failed), colorize))
	}
	lines = append(lines, "")

	lines = append(lines, sectionHeader("Settings", colorize)...)
	lines = append(lines,
		statusLine("Archive root", toneNeutral, orDash(status.Settings.ArchiveRoot), colorize),
		statusLine("Naming template", toneNeutral, orDash(status.Settings.NamingTemplate), colorize),
		statusLine("Archive delay", toneNeutral, fmt.Sprintf("%ds", status.Settings.AutoArchiveDelaySeconds), colorize),
		"",
	)

	lines = append(lines, sectionHeader("Documents", colorize)...)
	lines = append(lines, renderTable([]string{"Status", "Count"}, [][]string{
		{"active", strconv.Itoa(status.Files.Active)},
		{"archived", strconv.Itoa(status.Files.Archived)},
		{"deleted", strconv.Itoa(status.Files.Deleted)},
	}, []columnAlignment{alignLeft, alignRight}))

	if status.Running {
		lines = append(lines, sectionHeader("Watching", colorize)...)
		if status.Watching == 0 {
			lines = append(lines, lineIndent+"Nothing is being watched")
		} else {
			lines = append(lines, renderTable([]string{"State", "Count"}, watchStateRows(status.WatchStates),
				[]columnAlignment{alignLeft, alignRight}))
		}
	}
	return lines
}

func environmentLines(checks []preflight.Result, colorize bool) []string {
	if len(checks) == 0 {
		return nil
	}
	lines := append([]string{""}, sectionHeader("Environment", colorize)...)
	for _, check := range checks {
		lines = append(lines, checkLine(check, colorize))
	}
	return lines
}

func watchStateRows(states map[string]int) [][]string {
	names := make([]string, 0, len(states))
	for name := range states {
		names = append(names, name)
	}
	sort.Strings(names)
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name, strconv.Itoa(states[name])})
	}
	return rows
}
