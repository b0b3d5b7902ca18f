// Package api defines wire-format types and converters shared by the IPC
// server and the HTTP status API. It translates records, watch entries, and
// settings into transport-friendly DTOs so clients never depend on internal
// types.
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds in
// UTC. Status and state enums are exposed as lowercase strings.
package api
