package archiver

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDestinationLayout(t *testing.T) {
	created := time.Date(2024, 3, 15, 9, 30, 0, 0, time.Local)
	tests := []struct {
		name     string
		ext      string
		filename string
		want     string
	}{
		{"docx", ".docx", "Report.docx", filepath.Join("/archive", "2024", "03", "docx", "Report.docx")},
		{"case preserved", ".MD", "Notes.MD", filepath.Join("/archive", "2024", "03", "MD", "Notes.MD")},
		{"no extension", "", "README", filepath.Join("/archive", "2024", "03", "other", "README")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Destination("/archive", created, tt.ext, tt.filename).Path()
			if got != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestDestinationUsesLocalTime(t *testing.T) {
	local := time.Date(2024, 12, 31, 23, 59, 0, 0, time.Local)
	dest := Destination("/a", local.UTC(), ".txt", "x.txt")
	if dest.Year != "2024" || dest.Month != "12" {
		t.Fatalf("expected local calendar month, got %s/%s", dest.Year, dest.Month)
	}
}

func TestVersionedName(t *testing.T) {
	if got := versionedName("Report.docx", 1710495000000); got != "Report_v1710495000000.docx" {
		t.Fatalf("unexpected versioned name %q", got)
	}
	if got := versionedName("README", 7); got != "README_v7" {
		t.Fatalf("unexpected versioned name %q", got)
	}
}
