package logging

import (
	"context"
	"log/slog"
)

// Attr lets callers build fields without importing slog.
type Attr = slog.Attr

var (
	Any      = slog.Any
	Bool     = slog.Bool
	Duration = slog.Duration
	Int      = slog.Int
	Int64    = slog.Int64
	String   = slog.String
)

// FieldDestination is the key for an archive destination path.
const FieldDestination = "destination"

// Path names the document a line is about.
func Path(path string) Attr { return slog.String(FieldPath, path) }

// FileID names the record a line is about. The console handler lifts it into
// the header.
func FileID(id int64) Attr { return slog.Int64(FieldFileID, id) }

// Destination is where an archive move put, or will put, a document.
func Destination(path string) Attr { return slog.String(FieldDestination, path) }

// Event classifies a line for filtering.
func Event(name string) Attr { return slog.String(FieldEventType, name) }

// Hint tells the operator what to check next.
func Hint(text string) Attr { return slog.String(FieldErrorHint, text) }

// Impact states what the user loses because of a warning.
func Impact(text string) Attr { return slog.String(FieldImpact, text) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

func Args(attrs ...Attr) []any {
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}
	return args
}

func NewNop() *slog.Logger {
	return slog.New(discardHandler{})
}

// NewComponentLogger tags logger with a component name. A nil logger
// discards.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(slog.String(FieldComponent, component))
}

var (
	warnDefaults = []Attr{
		Hint("see docvault logs for the preceding errors"),
		Impact("the document stays watched and is retried"),
	}
	errorDefaults = []Attr{
		Hint("see docvault logs for the preceding errors"),
	}
)

// WarnWithContext logs a warning that always carries an event type, a hint,
// and an impact. Fields the caller sets win over the defaults.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	logger.Warn(msg, Args(withDefaults(attrs, eventType, warnDefaults)...)...)
}

// ErrorWithContext logs an error that always carries an event type and a hint.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	logger.Error(msg, Args(withDefaults(attrs, eventType, errorDefaults)...)...)
}

func withDefaults(attrs []Attr, eventType string, defaults []Attr) []Attr {
	set := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		set[a.Key] = true
	}
	if !set[FieldEventType] {
		attrs = append(attrs, Event(eventType))
	}
	for _, d := range defaults {
		if !set[d.Key] {
			attrs = append(attrs, d)
		}
	}
	return attrs
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool { return false }

func (discardHandler) Handle(context.Context, slog.Record) error { return nil }

func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h discardHandler) WithGroup(string) slog.Handler { return h }
