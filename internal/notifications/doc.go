// Package notifications pushes archive outcomes to an ntfy topic.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers never need to check whether notifications are enabled. Events that
// the configuration suppresses are dropped before any HTTP request is built.
package notifications
