package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir      string `toml:"data_dir"`
	LogDir       string `toml:"log_dir"`
	OutputDir    string `toml:"output_dir"`
	TemplatesDir string `toml:"templates_dir"`
}

// Archive contains the default archive layout. Stored settings override these
// values at runtime.
type Archive struct {
	Root                    string `toml:"root"`
	NamingTemplate          string `toml:"naming_template"`
	AutoArchiveDelaySeconds int    `toml:"auto_archive_delay_seconds"`
}

// Monitor contains configuration for the file-lifecycle poll loop.
type Monitor struct {
	PollIntervalMillis int  `toml:"poll_interval_ms"`
	MaxConcurrency     int  `toml:"max_concurrency"`
	MaxArchiveAttempts int  `toml:"max_archive_attempts"`
	AdvisoryProbe      bool `toml:"advisory_probe"`
}

// Creator contains configuration for new document creation.
type Creator struct {
	OpenCommand string   `toml:"open_command"`
	Extensions  []string `toml:"extensions"`
}

// Metrics contains configuration for the HTTP listener serving Prometheus
// metrics and the read-only status API.
type Metrics struct {
	Bind string `toml:"bind"`
	// Token, when set, is required as a bearer token on /api requests.
	Token string `toml:"token"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	Archived              bool   `toml:"archived"`
	Failures              bool   `toml:"failures"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for docvault.
//
// Configuration sections by subsystem:
//   - Paths: data, log, output, and template directories
//   - Archive: default archive root and naming template
//   - Monitor: poll interval, concurrency, and retry bounds
//   - Creator: opener command and allowed document types
//   - Metrics: optional HTTP listener for /metrics and /api
//   - Notifications: ntfy topic and which archive outcomes to push
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Archive       Archive       `toml:"archive"`
	Monitor       Monitor       `toml:"monitor"`
	Creator       Creator       `toml:"creator"`
	Metrics       Metrics       `toml:"metrics"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("docvault.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// The archive root is created on a best-effort basis so the daemon can run
// when external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Archive.Root) != "" {
		_ = os.MkdirAll(c.Archive.Root, 0o755)
	}
	return nil
}

// PollInterval returns the sweep cadence of the file-lifecycle monitor.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Monitor.PollIntervalMillis) * time.Millisecond
}

// DatabasePath returns the SQLite database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "docvault.db")
}

// SocketPath returns the daemon IPC socket location.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.DataDir, "docvault.sock")
}

// LockPath returns the daemon single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "docvaultd.lock")
}

// PIDPath returns the file holding the running daemon's process id.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.DataDir, "docvaultd.pid")
}

// ReconcileJournalPath returns the journal of archives whose record update failed.
func (c *Config) ReconcileJournalPath() string {
	return filepath.Join(c.Paths.DataDir, "reconcile.jsonl")
}

// AllowsExtension reports whether new documents of the given type may be created.
func (c *Config) AllowsExtension(ext string) bool {
	ext = normalizeExtension(ext)
	for _, allowed := range c.Creator.Extensions {
		if allowed == ext {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	return strings.TrimPrefix(ext, ".")
}
