// Package records persists document records, tags, and user settings in SQLite.
//
// A File row is inserted when the creator spawns a document and is rewritten
// exactly once when the archiver moves it: the path switches to the archive
// location, the status becomes archived, and archived_at is stamped. The
// schema enforces that archived_at is present if and only if the status is
// archived, and that at most one active record claims a given path.
//
// Timestamps are stored as fixed-width UTC strings so lexical comparison in
// SQL matches chronological order.
package records
