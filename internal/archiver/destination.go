package archiver

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const otherBucket = "other"

// ArchiveDestination is the derived target for one document.
type ArchiveDestination struct {
	Root     string
	Year     string
	Month    string
	Bucket   string
	Filename string
}

// Destination derives the archive target from the record's creation time,
// extension, and filename. created is interpreted in local time. The bucket is
// the extension without its dot with case preserved; documents without an
// extension go to "other".
func Destination(root string, created time.Time, ext, filename string) ArchiveDestination {
	local := created.Local()
	bucket := strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if bucket == "" {
		bucket = otherBucket
	}
	return ArchiveDestination{
		Root:     root,
		Year:     fmt.Sprintf("%04d", local.Year()),
		Month:    fmt.Sprintf("%02d", int(local.Month())),
		Bucket:   bucket,
		Filename: filename,
	}
}

// Dir returns the directory the document is placed in.
func (d ArchiveDestination) Dir() string {
	return filepath.Join(d.Root, d.Year, d.Month, d.Bucket)
}

// Path returns the preferred full target path before collision handling.
func (d ArchiveDestination) Path() string {
	return filepath.Join(d.Dir(), d.Filename)
}

// versionedName inserts _v<millis> between the stem and the extension.
func versionedName(filename string, millis int64) string {
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	return fmt.Sprintf("%s_v%d%s", stem, millis, ext)
}
