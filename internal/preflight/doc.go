// Package preflight checks the environment docvault depends on: writable
// data, output, and archive directories, the document opener, and the ntfy
// endpoint when one is configured.
//
// The CLI renders the results in `docvault status`; the daemon logs failed
// checks at startup without refusing to run.
package preflight
