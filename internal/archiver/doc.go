// Package archiver relocates released documents into the dated archive tree
// and records the move on the document's FileRecord.
//
// The layout is {root}/{YYYY}/{MM}/{ext}/{filename}. Name collisions get a
// _v<epochMillis> suffix. A move first tries a rename and falls back to a
// verified copy followed by removal of the source when the archive lives on
// another filesystem. Failures are reported through the sentinel errors in
// errors.go so the monitor can decide whether to retry, give up, or journal
// the document for reconciliation.
package archiver
