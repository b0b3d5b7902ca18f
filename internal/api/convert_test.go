package api

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"docvault/internal/records"
	"docvault/internal/services"
	"docvault/internal/watch"
)

func TestFromFileFormatsTimestamps(t *testing.T) {
	created := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	archived := created.Add(time.Hour)
	dto := FromFile(&records.File{
		ID: 3, Title: "plan", Status: records.StatusArchived,
		CreatedAt: created, ArchivedAt: &archived, Tags: []string{"work"},
	})
	if dto.CreatedAt != "2024-03-15T10:00:00.000Z" {
		t.Fatalf("unexpected createdAt %q", dto.CreatedAt)
	}
	if dto.ArchivedAt != "2024-03-15T11:00:00.000Z" {
		t.Fatalf("unexpected archivedAt %q", dto.ArchivedAt)
	}
	if dto.Status != "archived" || len(dto.Tags) != 1 {
		t.Fatalf("unexpected dto %+v", dto)
	}
}

func TestFromFilesSkipsNil(t *testing.T) {
	out := FromFiles([]*records.File{nil, {ID: 1}})
	if len(out) != 1 || out[0].ID != 1 {
		t.Fatalf("unexpected output %+v", out)
	}
}

func TestFromEntriesOmitsZeroTimer(t *testing.T) {
	out := FromEntries([]watch.Entry{{Path: "/a", State: watch.StateLocked}})
	if out[0].UnlockedSince != "" || out[0].State != "locked" {
		t.Fatalf("unexpected entry %+v", out[0])
	}
}

func TestFilterFromQuery(t *testing.T) {
	values := url.Values{"search": {"plan"}, "ext": {"docx"}, "status": {"Active"}, "limit": {"5"}}
	filter, err := FilterFromQuery(values)
	if err != nil {
		t.Fatalf("FilterFromQuery: %v", err)
	}
	query, err := filter.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if query.Search != "plan" || query.Extension != "docx" || query.Status != records.StatusActive || query.Limit != 5 {
		t.Fatalf("unexpected filter %+v", query)
	}
}

func TestFilterRejectsBadInput(t *testing.T) {
	if _, err := FilterFromQuery(url.Values{"limit": {"ten"}}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for limit, got %v", err)
	}
	if _, err := (FileFilter{Status: "shredded"}).Records(); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for status, got %v", err)
	}
}
