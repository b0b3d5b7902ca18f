// Package daemon coordinates the long-running docvault process.
//
// It wires configuration, the records store, settings, the lock prober, the
// archiver, the monitor, and the creator into a single lifecycle guarded by a
// flock so only one instance runs per data directory. On start it re-registers
// every active document that still exists, so the watch set survives restarts.
// The optional HTTP listener serves Prometheus metrics and a small read-only
// status API.
//
// Keep orchestration here: probing, state transitions, and moves live in their
// own packages while the daemon focuses on startup, shutdown, and the
// operations exposed over IPC.
package daemon
