// Package services defines shared error markers and context helpers consumed by
// the monitor, archiver, creator, and IPC layers.
//
// Key responsibilities:
//   - Context helpers that stamp file IDs, document paths, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can classify a
//     failure (retry on the next poll vs give up) without string matching.
package services
