package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"docvault/internal/records"
	"docvault/internal/services"
	"docvault/internal/settings"
	"docvault/internal/watch"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// FromFile converts a record to its API representation.
func FromFile(file *records.File) File {
	if file == nil {
		return File{}
	}
	dto := File{
		ID:           file.ID,
		Title:        file.Title,
		Filename:     file.Filename,
		Path:         file.Path,
		Extension:    file.Extension,
		Status:       string(file.Status),
		CreatedAt:    formatTime(file.CreatedAt),
		ArchiveError: file.ArchiveError,
		Tags:         append([]string(nil), file.Tags...),
	}
	if file.ArchivedAt != nil {
		dto.ArchivedAt = formatTime(*file.ArchivedAt)
	}
	return dto
}

// FromFiles converts a slice of records, skipping nil entries.
func FromFiles(files []*records.File) []File {
	out := make([]File, 0, len(files))
	for _, file := range files {
		if file == nil {
			continue
		}
		out = append(out, FromFile(file))
	}
	return out
}

// FromTags converts tags.
func FromTags(tags []records.Tag) []Tag {
	out := make([]Tag, 0, len(tags))
	for _, tag := range tags {
		out = append(out, Tag{Name: tag.Name, UsageCount: tag.UsageCount, CreatedAt: formatTime(tag.CreatedAt)})
	}
	return out
}

// FromEntries converts watch entries.
func FromEntries(entries []watch.Entry) []WatchEntry {
	out := make([]WatchEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, WatchEntry{
			Path:               e.Path,
			State:              string(e.State),
			RegisteredAt:       formatTime(e.RegisteredAt),
			LastCheckedAt:      formatTime(e.LastCheckedAt),
			UnlockedSince:      formatTime(e.UnlockedSince),
			Attempts:           e.Attempts,
			LastError:          e.LastError,
			PartialDestination: e.PartialDestination,
		})
	}
	return out
}

// FromSettings converts runtime settings.
func FromSettings(s settings.Settings) Settings {
	return Settings{
		ArchiveRoot:             s.ArchiveRoot,
		NamingTemplate:          s.NamingTemplate,
		AutoArchiveDelaySeconds: s.AutoArchiveDelaySeconds,
	}
}

// FromStats converts record counts.
func FromStats(s records.Stats) FileStats {
	return FileStats{Active: s.Active, Archived: s.Archived, Deleted: s.Deleted, Failed: s.Failed}
}

// Records converts the filter into a store query, rejecting unknown statuses.
func (f FileFilter) Records() (records.Filter, error) {
	filter := records.Filter{
		Search:    strings.TrimSpace(f.Search),
		Extension: strings.TrimSpace(f.Extension),
		Date:      strings.TrimSpace(f.Date),
		Tag:       strings.TrimSpace(f.Tag),
		Limit:     f.Limit,
	}
	if raw := strings.ToLower(strings.TrimSpace(f.Status)); raw != "" {
		status, ok := records.ParseStatus(raw)
		if !ok {
			return records.Filter{}, services.Wrap(services.ErrValidation, "api", "filter", fmt.Sprintf("unknown status %q", f.Status), nil)
		}
		filter.Status = status
	}
	if filter.Limit < 0 {
		return records.Filter{}, services.Wrap(services.ErrValidation, "api", "filter", "limit must be >= 0", nil)
	}
	return filter, nil
}

// FilterFromQuery reads a FileFilter from URL query parameters.
func FilterFromQuery(values url.Values) (FileFilter, error) {
	filter := FileFilter{
		Search:    values.Get("search"),
		Extension: values.Get("ext"),
		Date:      values.Get("date"),
		Tag:       values.Get("tag"),
		Status:    values.Get("status"),
	}
	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return FileFilter{}, services.Wrap(services.ErrValidation, "api", "filter", fmt.Sprintf("invalid limit %q", raw), nil)
		}
		filter.Limit = limit
	}
	return filter, nil
}
