package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeArchive(); err != nil {
		return err
	}
	c.normalizeMonitor()
	c.normalizeCreator()
	c.Metrics.Bind = strings.TrimSpace(c.Metrics.Bind)
	c.Metrics.Token = strings.TrimSpace(c.Metrics.Token)
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeoutSeconds
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.TemplatesDir, err = expandPath(strings.TrimSpace(c.Paths.TemplatesDir)); err != nil {
		return fmt.Errorf("paths.templates_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeArchive() error {
	if value, ok := os.LookupEnv("DOCVAULT_ARCHIVE_ROOT"); ok && strings.TrimSpace(value) != "" {
		c.Archive.Root = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Archive.Root) == "" {
		c.Archive.Root = defaultArchiveRoot
	}
	var err error
	if c.Archive.Root, err = expandPath(c.Archive.Root); err != nil {
		return fmt.Errorf("archive.root: %w", err)
	}
	c.Archive.NamingTemplate = strings.TrimSpace(c.Archive.NamingTemplate)
	if c.Archive.NamingTemplate == "" {
		c.Archive.NamingTemplate = defaultNamingTemplate
	}
	return nil
}

func (c *Config) normalizeMonitor() {
	if c.Monitor.PollIntervalMillis == 0 {
		c.Monitor.PollIntervalMillis = defaultPollIntervalMillis
	}
	if c.Monitor.MaxConcurrency == 0 {
		c.Monitor.MaxConcurrency = defaultMaxConcurrency
	}
	if c.Monitor.MaxArchiveAttempts == 0 {
		c.Monitor.MaxArchiveAttempts = defaultMaxArchiveAttempts
	}
}

func (c *Config) normalizeCreator() {
	c.Creator.OpenCommand = strings.TrimSpace(c.Creator.OpenCommand)
	if len(c.Creator.Extensions) == 0 {
		c.Creator.Extensions = append([]string(nil), defaultExtensions...)
		return
	}
	exts := make([]string, 0, len(c.Creator.Extensions))
	seen := make(map[string]struct{}, len(c.Creator.Extensions))
	for _, ext := range c.Creator.Extensions {
		normalized := normalizeExtension(ext)
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	c.Creator.Extensions = exts
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
