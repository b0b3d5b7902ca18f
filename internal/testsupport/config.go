package testsupport

import (
	"path/filepath"
	"testing"

	"docvault/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The opener command is disabled, the poll interval shortened and the archive
// delay zeroed so monitor tests run quickly.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.OutputDir = filepath.Join(base, "desktop")
	cfgVal.Paths.TemplatesDir = filepath.Join(base, "templates")
	cfgVal.Archive.Root = filepath.Join(base, "archive")
	cfgVal.Monitor.PollIntervalMillis = 10
	cfgVal.Archive.AutoArchiveDelaySeconds = 0
	cfgVal.Creator.OpenCommand = ""

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithArchiveDelay sets the auto-archive settle delay in seconds.
func WithArchiveDelay(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Archive.AutoArchiveDelaySeconds = seconds
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
