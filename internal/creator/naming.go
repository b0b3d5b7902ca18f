package creator

import (
	"strings"
	"time"

	"docvault/internal/textutil"
)

const dateLayout = "2006-01-02"

// RenderName expands {date}, {time}, {title}, and {extension} in template.
// title is sanitized and ext is used without its dot. The extension is
// appended when the rendered name does not already end with it.
func RenderName(template string, date, clock time.Time, title, ext string) string {
	ext = textutil.NormalizeExtension(ext)
	name := strings.NewReplacer(
		"{date}", date.Format(dateLayout),
		"{time}", clock.Format("15-04-05"),
		"{title}", textutil.SanitizeTitle(title),
		"{extension}", ext,
	).Replace(template)
	name = textutil.SanitizeFileName(name)
	if ext != "" && !strings.HasSuffix(name, "."+ext) {
		name += "." + ext
	}
	return name
}
