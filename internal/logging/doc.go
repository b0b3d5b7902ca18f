// Package logging assembles structured slog loggers and formatting helpers used
// across docvault.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so monitor and archiver code can
// tag log lines with file IDs, document paths, and correlation IDs. The package
// also provides a no-op logger for tests and wiring code that cannot fail, and
// prunes old daemon logs according to the configured retention.
package logging
