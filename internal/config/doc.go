// Package config loads, normalizes, and validates docvault configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// DOCVAULT_ARCHIVE_ROOT. The Config type centralizes every knob the daemon and
// CLI need, so the data, log, output, and archive directories are discovered
// in one pass.
//
// The archive section only seeds defaults: the values users edit at runtime
// live in the settings table and are merged over these defaults by the
// settings package.
package config
