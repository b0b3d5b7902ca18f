package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateArchive(); err != nil {
		return err
	}
	if err := c.validateMonitor(); err != nil {
		return err
	}
	if len(c.Creator.Extensions) == 0 {
		return errors.New("creator.extensions must include at least one document type")
	}
	if topic := c.Notifications.NtfyTopic; topic != "" && !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic %q must be an http(s) URL", topic)
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	return nil
}

func (c *Config) validateArchive() error {
	if strings.TrimSpace(c.Archive.Root) == "" {
		return errors.New("archive.root must be set")
	}
	if !strings.Contains(c.Archive.NamingTemplate, "{title}") {
		return fmt.Errorf("archive.naming_template %q must contain {title}", c.Archive.NamingTemplate)
	}
	if c.Archive.AutoArchiveDelaySeconds < 0 {
		return errors.New("archive.auto_archive_delay_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateMonitor() error {
	return ensurePositiveMap(map[string]int{
		"monitor.poll_interval_ms":     c.Monitor.PollIntervalMillis,
		"monitor.max_concurrency":      c.Monitor.MaxConcurrency,
		"monitor.max_archive_attempts": c.Monitor.MaxArchiveAttempts,
	})
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
