// Command docvault is the command-line client for the docvault daemon.
//
// It creates documents, manages the watch set, lists and tags records, edits
// runtime settings, and controls the daemon process. Every command except
// `config` and `daemon` talks to the running daemon over its Unix socket;
// `status` falls back to reading the database directly when the daemon is down.
package main
