package records

import "time"

// Status represents the lifecycle stage of a document record.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
	StatusDeleted  Status = "deleted"
)

// ParseStatus converts a user-supplied status filter into a Status.
func ParseStatus(value string) (Status, bool) {
	switch Status(value) {
	case StatusActive, StatusArchived, StatusDeleted:
		return Status(value), true
	default:
		return "", false
	}
}

// File is one document created through docvault.
type File struct {
	ID        int64
	Title     string
	Filename  string
	Path      string
	Extension string
	CreatedAt time.Time
	// ArchivedAt is set iff Status is StatusArchived.
	ArchivedAt *time.Time
	Status     Status
	// ArchiveError is the persisted terminal failure marker written when the
	// monitor gives up archiving the document.
	ArchiveError string
	Tags         []string
}

// NewFile describes a record to insert.
type NewFile struct {
	Title     string
	Filename  string
	Path      string
	Extension string
	Tags      []string
	// CreatedAt defaults to the current time when zero.
	CreatedAt time.Time
}

// Tag is a label attached to documents, with a count of how many were tagged.
type Tag struct {
	ID         int64
	Name       string
	CreatedAt  time.Time
	UsageCount int
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	// Search matches a substring of the title or filename.
	Search    string
	Extension string
	// Date matches the local creation date by prefix: YYYY, YYYY-MM, or YYYY-MM-DD.
	Date   string
	Tag    string
	Status Status
	Limit  int
}

// Stats summarizes record counts for status output.
type Stats struct {
	Active   int
	Archived int
	Deleted  int
	Failed   int
}

// DatabaseHealth reports diagnostic information about the records database.
type DatabaseHealth struct {
	DBPath         string
	DatabaseExists bool
	IntegrityCheck bool
	TotalFiles     int
	Error          string
}
