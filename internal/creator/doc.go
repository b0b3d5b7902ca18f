// Package creator spawns new documents: it renders the configured naming
// template, writes the file (from a template body when one exists), records it,
// registers it with the monitor, and hands it to the desktop opener.
package creator
