// Package settings merges user-editable archive settings stored in the records
// database over the configured defaults.
package settings

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"docvault/internal/config"
	"docvault/internal/services"
)

const (
	KeyArchiveRoot      = "archive_root"
	KeyNamingTemplate   = "naming_template"
	KeyAutoArchiveDelay = "auto_archive_delay_seconds"
)

// Settings are the values the archiver and creator read on every operation.
type Settings struct {
	ArchiveRoot             string `json:"archive_root"`
	NamingTemplate          string `json:"naming_template"`
	AutoArchiveDelaySeconds int    `json:"auto_archive_delay_seconds"`
}

// Patch carries a partial update; nil fields are left unchanged.
type Patch struct {
	ArchiveRoot             *string `json:"archive_root,omitempty"`
	NamingTemplate          *string `json:"naming_template,omitempty"`
	AutoArchiveDelaySeconds *int    `json:"auto_archive_delay_seconds,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.ArchiveRoot == nil && p.NamingTemplate == nil && p.AutoArchiveDelaySeconds == nil
}

// Provider supplies the current settings. Implementations must not cache
// across calls so edits take effect on the next archive.
type Provider interface {
	Settings(ctx context.Context) (Settings, error)
}

// Store is the persistence the Manager needs.
type Store interface {
	Settings(ctx context.Context) (map[string]string, error)
	SaveSettings(ctx context.Context, values map[string]string) error
}

// Manager reads and writes settings through the records store.
type Manager struct {
	store    Store
	defaults Settings
}

// NewManager builds a Manager whose defaults come from the archive config section.
func NewManager(store Store, cfg *config.Config) *Manager {
	defaults := Settings{}
	if cfg != nil {
		defaults = Settings{
			ArchiveRoot:             cfg.Archive.Root,
			NamingTemplate:          cfg.Archive.NamingTemplate,
			AutoArchiveDelaySeconds: cfg.Archive.AutoArchiveDelaySeconds,
		}
	}
	return &Manager{store: store, defaults: defaults}
}

// Defaults returns the configured fallback values.
func (m *Manager) Defaults() Settings {
	return m.defaults
}

// Settings returns stored values merged over defaults. Unparseable stored
// values fall back to the default for that key.
func (m *Manager) Settings(ctx context.Context) (Settings, error) {
	current := m.defaults
	if m.store == nil {
		return current, nil
	}
	values, err := m.store.Settings(ctx)
	if err != nil {
		return Settings{}, services.Wrap(services.ErrTransient, "settings", "load", "read stored settings", err)
	}
	if root := strings.TrimSpace(values[KeyArchiveRoot]); root != "" {
		current.ArchiveRoot = root
	}
	if tmpl := strings.TrimSpace(values[KeyNamingTemplate]); tmpl != "" {
		current.NamingTemplate = tmpl
	}
	if raw := strings.TrimSpace(values[KeyAutoArchiveDelay]); raw != "" {
		if delay, err := strconv.Atoi(raw); err == nil && delay >= 0 {
			current.AutoArchiveDelaySeconds = delay
		}
	}
	return current, nil
}

// Save validates the patched settings and persists the changed keys in one
// transaction. It returns the resulting settings.
func (m *Manager) Save(ctx context.Context, patch Patch) (Settings, error) {
	current, err := m.Settings(ctx)
	if err != nil {
		return Settings{}, err
	}
	if patch.Empty() {
		return current, nil
	}

	values := make(map[string]string, 3)
	if patch.ArchiveRoot != nil {
		root, err := config.ExpandPath(strings.TrimSpace(*patch.ArchiveRoot))
		if err != nil {
			return Settings{}, services.Wrap(services.ErrValidation, "settings", "save", "expand archive root", err)
		}
		current.ArchiveRoot = root
		values[KeyArchiveRoot] = root
	}
	if patch.NamingTemplate != nil {
		current.NamingTemplate = strings.TrimSpace(*patch.NamingTemplate)
		values[KeyNamingTemplate] = current.NamingTemplate
	}
	if patch.AutoArchiveDelaySeconds != nil {
		current.AutoArchiveDelaySeconds = *patch.AutoArchiveDelaySeconds
		values[KeyAutoArchiveDelay] = strconv.Itoa(current.AutoArchiveDelaySeconds)
	}

	if err := current.Validate(); err != nil {
		return Settings{}, err
	}
	if m.store == nil {
		return Settings{}, services.Wrap(services.ErrConfiguration, "settings", "save", "no settings store configured", nil)
	}
	if err := m.store.SaveSettings(ctx, values); err != nil {
		return Settings{}, services.Wrap(services.ErrTransient, "settings", "save", "write settings", err)
	}
	return current, nil
}

// Validate checks the invariants the creator and archiver rely on.
func (s Settings) Validate() error {
	var problems []string
	if strings.TrimSpace(s.ArchiveRoot) == "" {
		problems = append(problems, "archive_root must be set")
	} else if !filepath.IsAbs(s.ArchiveRoot) {
		problems = append(problems, fmt.Sprintf("archive_root %q must be absolute", s.ArchiveRoot))
	}
	if !strings.Contains(s.NamingTemplate, "{title}") {
		problems = append(problems, fmt.Sprintf("naming_template %q must contain {title}", s.NamingTemplate))
	}
	if s.AutoArchiveDelaySeconds < 0 {
		problems = append(problems, "auto_archive_delay_seconds must be >= 0")
	}
	if len(problems) == 0 {
		return nil
	}
	return services.Wrap(services.ErrValidation, "settings", "validate", "", errors.New(strings.Join(problems, "; ")))
}
