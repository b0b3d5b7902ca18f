// Package logs reads the daemon log file for `docvault logs`.
//
// Reads are offset based so a client can poll: a negative offset returns the
// last N complete lines, a non-negative offset returns everything written
// since. Partial trailing lines are left for the next read. With a wait
// duration the call blocks until new lines arrive, the wait elapses, or the
// context ends.
package logs
