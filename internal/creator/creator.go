package creator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"docvault/internal/config"
	"docvault/internal/fileutil"
	"docvault/internal/logging"
	"docvault/internal/metrics"
	"docvault/internal/records"
	"docvault/internal/services"
	"docvault/internal/settings"
	"docvault/internal/textutil"
)

// Request describes a document to create.
type Request struct {
	Extension string   `json:"extension"`
	Title     string   `json:"title"`
	Date      string   `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
	Tags      []string `json:"tags,omitempty"`
}

// RecordStore inserts document records.
type RecordStore interface {
	Create(ctx context.Context, nf records.NewFile) (*records.File, error)
}

// Registrar starts watching a path.
type Registrar interface {
	Register(path string) bool
}

// Opener launches the user's editor for a new document.
type Opener interface {
	Open(ctx context.Context, path string) error
}

// Creator builds new documents.
type Creator struct {
	cfg       *config.Config
	store     RecordStore
	settings  settings.Provider
	registrar Registrar
	opener    Opener
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// Options wires optional collaborators.
type Options struct {
	// Opener overrides the configured open command.
	Opener  Opener
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// New constructs a Creator.
func New(cfg *config.Config, store RecordStore, provider settings.Provider, registrar Registrar, opts Options) *Creator {
	opener := opts.Opener
	if opener == nil && cfg != nil && cfg.Creator.OpenCommand != "" {
		opener = CommandOpener{Command: cfg.Creator.OpenCommand}
	}
	return &Creator{
		cfg:       cfg,
		store:     store,
		settings:  provider,
		registrar: registrar,
		opener:    opener,
		metrics:   opts.Metrics,
		logger:    logging.NewComponentLogger(opts.Logger, "creator"),
		now:       time.Now,
	}
}

// Create writes a new document into the output directory and starts watching
// it. The record is inserted before the path is registered.
func (c *Creator) Create(ctx context.Context, req Request) (*records.File, error) {
	ext := textutil.NormalizeExtension(req.Extension)
	if ext == "" || !c.cfg.AllowsExtension(ext) {
		return nil, services.Wrap(services.ErrValidation, "creator", "validate", fmt.Sprintf("unsupported document type %q", req.Extension), nil)
	}
	title := strings.TrimSpace(req.Title)
	if strings.Trim(textutil.SanitizeTitle(title), "_ ") == "" {
		return nil, services.Wrap(services.ErrValidation, "creator", "validate", "title must contain a letter or digit", nil)
	}

	now := c.now()
	date := now
	if value := strings.TrimSpace(req.Date); value != "" {
		parsed, err := time.ParseInLocation(dateLayout, value, time.Local)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "creator", "validate", fmt.Sprintf("date %q must be YYYY-MM-DD", value), nil)
		}
		date = parsed
	}

	current, err := c.settings.Settings(ctx)
	if err != nil {
		return nil, err
	}
	filename := RenderName(current.NamingTemplate, date, now, title, ext)
	target := filepath.Join(c.cfg.Paths.OutputDir, filename)
	logger := logging.WithContext(services.WithPath(ctx, target), c.logger)

	if err := os.MkdirAll(c.cfg.Paths.OutputDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "creator", "ensure output dir", "Failed to create output directory", err)
	}
	templatePath, err := c.writeDocument(target, ext)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, services.Wrap(services.ErrConflict, "creator", "write", fmt.Sprintf("%s already exists", target), nil)
		}
		return nil, services.Wrap(services.ErrTransient, "creator", "write", "Failed to write document", err)
	}

	file, err := c.store.Create(ctx, records.NewFile{
		Title:     title,
		Filename:  filename,
		Path:      target,
		Extension: ext,
		Tags:      req.Tags,
		CreatedAt: now,
	})
	if err != nil {
		_ = os.Remove(target)
		marker := services.ErrTransient
		if errors.Is(err, services.ErrConflict) {
			marker = services.ErrConflict
		}
		return nil, services.Wrap(marker, "creator", "record", "Failed to record document", err)
	}
	logger = logger.With(logging.FileID(file.ID))

	if c.registrar != nil {
		c.registrar.Register(target)
	}
	c.metrics.RecordFileCreated(ext)
	logger.Info("document created",
		logging.String("title", title),
		logging.String("template", templatePath),
		logging.Any("tags", file.Tags),
		logging.Event("file_created"),
	)

	if c.opener != nil {
		if err := c.opener.Open(ctx, target); err != nil {
			logging.WarnWithContext(logger, "failed to open document", "open_failed",
				logging.Error(err),
				logging.Hint("check creator.open_command"),
				logging.Impact("open the document manually; it is still watched"),
			)
		}
	}
	return file, nil
}

// writeDocument creates target exclusively, copying templates_dir/template.<ext>
// when it exists. It returns the template used, if any.
func (c *Creator) writeDocument(target, ext string) (string, error) {
	if dir := strings.TrimSpace(c.cfg.Paths.TemplatesDir); dir != "" {
		templatePath := filepath.Join(dir, "template."+ext)
		if ok, err := fileutil.Exists(templatePath); err == nil && ok {
			return templatePath, fileutil.CopyFile(templatePath, target, 0o644)
		}
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	return "", f.Close()
}

// CommandOpener runs a desktop opener such as xdg-open. Command may carry
// arguments; the document path is appended.
type CommandOpener struct {
	Command string
}

// Open starts the command without waiting for the editor to exit.
func (o CommandOpener) Open(_ context.Context, path string) error {
	fields := strings.Fields(o.Command)
	if len(fields) == 0 {
		return nil
	}
	cmd := exec.Command(fields[0], append(fields[1:], path)...) //nolint:gosec
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
