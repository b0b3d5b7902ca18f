package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// File describes a document record in a transport-friendly format.
type File struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Filename     string   `json:"filename"`
	Path         string   `json:"path"`
	Extension    string   `json:"extension"`
	Status       string   `json:"status"`
	CreatedAt    string   `json:"createdAt,omitempty"`
	ArchivedAt   string   `json:"archivedAt,omitempty"`
	ArchiveError string   `json:"archiveError,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// Tag describes a tag and how many documents carry it.
type Tag struct {
	Name       string `json:"name"`
	UsageCount int    `json:"usageCount"`
	CreatedAt  string `json:"createdAt,omitempty"`
}

// WatchEntry describes one watched document.
type WatchEntry struct {
	Path               string `json:"path"`
	State              string `json:"state"`
	RegisteredAt       string `json:"registeredAt,omitempty"`
	LastCheckedAt      string `json:"lastCheckedAt,omitempty"`
	UnlockedSince      string `json:"unlockedSince,omitempty"`
	Attempts           int    `json:"attempts,omitempty"`
	LastError          string `json:"lastError,omitempty"`
	PartialDestination string `json:"partialDestination,omitempty"`
}

// Settings mirrors the runtime archive settings.
type Settings struct {
	ArchiveRoot             string `json:"archiveRoot"`
	NamingTemplate          string `json:"namingTemplate"`
	AutoArchiveDelaySeconds int    `json:"autoArchiveDelaySeconds"`
}

// FileStats counts records by status.
type FileStats struct {
	Active   int `json:"active"`
	Archived int `json:"archived"`
	Deleted  int `json:"deleted"`
	Failed   int `json:"failed"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running          bool           `json:"running"`
	PID              int            `json:"pid"`
	Watching         int            `json:"watching"`
	WatchStates      map[string]int `json:"watchStates"`
	Files            FileStats      `json:"files"`
	ReconcilePending int            `json:"reconcilePending"`
	Settings         Settings       `json:"settings"`
	DatabasePath     string         `json:"databasePath"`
	LockPath         string         `json:"lockPath"`
	JournalPath      string         `json:"journalPath"`
}

// FileFilter narrows file listings. Empty fields match everything.
type FileFilter struct {
	Search    string `json:"search,omitempty"`
	Extension string `json:"extension,omitempty"`
	Date      string `json:"date,omitempty"`
	Tag       string `json:"tag,omitempty"`
	Status    string `json:"status,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// FileListResponse wraps a collection of files.
type FileListResponse struct {
	Files []File `json:"files"`
}

// WatchListResponse wraps the watch set.
type WatchListResponse struct {
	Entries []WatchEntry `json:"entries"`
}
