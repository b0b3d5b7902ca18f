// Package ipc exposes the daemon over JSON-RPC on a Unix domain socket and
// ships the matching client used by the CLI.
//
// Request and response types embed the api DTOs so the CLI, the HTTP
// endpoints, and the socket protocol describe documents the same way. Add new
// RPC endpoints by extending types.go, registering a method on the service,
// and adding the matching Client call.
package ipc
