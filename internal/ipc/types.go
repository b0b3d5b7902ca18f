package ipc

import "docvault/internal/api"

// File mirrors the HTTP API document DTO.
type File = api.File

// Tag mirrors the HTTP API tag DTO.
type Tag = api.Tag

// WatchEntry mirrors the HTTP API watch DTO.
type WatchEntry = api.WatchEntry

// Settings mirrors the HTTP API settings DTO.
type Settings = api.Settings

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents daemon status information.
type StatusResponse = api.DaemonStatus

// ShutdownRequest asks the daemon process to exit.
type ShutdownRequest struct{}

// ShutdownResponse acknowledges a shutdown request.
type ShutdownResponse struct {
	Accepted bool `json:"accepted"`
}

// CreateFileRequest describes a new document.
type CreateFileRequest struct {
	Extension string   `json:"extension"`
	Title     string   `json:"title"`
	Date      string   `json:"date,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// CreateFileResponse returns the created record.
type CreateFileResponse struct {
	File File `json:"file"`
}

// WatchRequest names a document path.
type WatchRequest struct {
	Path string `json:"path"`
}

// WatchResponse reports whether the watch set changed.
type WatchResponse struct {
	Changed bool `json:"changed"`
}

// WatchingRequest lists the watch set.
type WatchingRequest struct{}

// WatchingResponse contains the watch set.
type WatchingResponse = api.WatchListResponse

// ListFilesRequest filters document listings.
type ListFilesRequest = api.FileFilter

// ListFilesResponse contains matching documents.
type ListFilesResponse = api.FileListResponse

// TagsRequest lists tags.
type TagsRequest struct{}

// TagsResponse contains tags ordered by usage.
type TagsResponse struct {
	Tags []Tag `json:"tags"`
}

// GetSettingsRequest fetches effective settings.
type GetSettingsRequest struct{}

// SaveSettingsRequest patches settings; nil fields are left unchanged.
type SaveSettingsRequest struct {
	ArchiveRoot             *string `json:"archiveRoot,omitempty"`
	NamingTemplate          *string `json:"namingTemplate,omitempty"`
	AutoArchiveDelaySeconds *int    `json:"autoArchiveDelaySeconds,omitempty"`
}

// SettingsResponse returns effective settings.
type SettingsResponse struct {
	Settings Settings `json:"settings"`
}

// ReconcileRequest triggers journal replay.
type ReconcileRequest struct{}

// ReconcileResponse summarizes journal replay.
type ReconcileResponse struct {
	Replayed  int `json:"replayed"`
	Dropped   int `json:"dropped"`
	Remaining int `json:"remaining"`
	Malformed int `json:"malformed"`
}

// LogTailRequest asks for daemon log lines.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"waitMillis"`
}

// LogTailResponse returns log lines and the next offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// DatabaseHealthRequest fetches database diagnostics.
type DatabaseHealthRequest struct{}

// DatabaseHealthResponse reports database diagnostics.
type DatabaseHealthResponse struct {
	DBPath         string `json:"dbPath"`
	DatabaseExists bool   `json:"databaseExists"`
	IntegrityCheck bool   `json:"integrityCheck"`
	TotalFiles     int    `json:"totalFiles"`
	Error          string `json:"error,omitempty"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports the notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
