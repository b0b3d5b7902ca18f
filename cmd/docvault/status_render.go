package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"docvault/internal/api"
	"docvault/internal/preflight"
)

// tone selects the tag and colour of a status line.
type tone int

const (
	toneNeutral tone = iota
	toneGood
	toneAttention
	toneProblem
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

var toneTags = [...]string{
	toneNeutral:   "INFO",
	toneGood:      "OK",
	toneAttention: "WARN",
	toneProblem:   "FAIL",
}

var toneColors = [...]string{
	toneNeutral:   ansiBlue,
	toneGood:      ansiGreen,
	toneAttention: ansiYellow,
	toneProblem:   ansiRed,
}

const (
	labelWidth = 18
	lineIndent = "  "
)

func paint(text string, t tone, colorize bool) string {
	if !colorize {
		return text
	}
	return toneColors[t] + text + ansiReset
}

// statusLine renders "  Label:  [TAG] message".
func statusLine(label string, t tone, message string, colorize bool) string {
	text := "[" + toneTags[t] + "]"
	if message != "" {
		text += " " + message
	}
	return paint(fmt.Sprintf("%s%-*s %s", lineIndent, labelWidth, label+":", text), t, colorize)
}

func checkLine(check preflight.Result, colorize bool) string {
	if check.Passed {
		return statusLine(check.Name, toneGood, check.Detail, colorize)
	}
	return statusLine(check.Name, toneProblem, check.Detail, colorize)
}

// watchTone reads an entry as the user would: an open document needs their
// attention, a retried archive is a problem.
func watchTone(entry api.WatchEntry) tone {
	switch {
	case entry.Attempts > 0:
		return toneProblem
	case entry.State == "locked":
		return toneAttention
	case entry.State == "archiving":
		return toneGood
	default:
		return toneNeutral
	}
}

// watchStateCell describes where a watched document stands, including a
// pending settle timer or failed attempts.
func watchStateCell(entry api.WatchEntry) string {
	state := entry.State
	switch {
	case entry.Attempts == 1:
		state += " (1 failed attempt)"
	case entry.Attempts > 1:
		state += fmt.Sprintf(" (%d failed attempts)", entry.Attempts)
	case entry.State == "locked" && entry.UnlockedSince != "":
		state += " (settling)"
	}
	return state
}

func sectionHeader(title string, colorize bool) []string {
	title = strings.TrimSpace(title)
	rule := strings.Repeat("=", len(title))
	return []string{paint(title, toneNeutral, colorize), paint(rule, toneNeutral, colorize)}
}

func colorEnabled(writer io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
