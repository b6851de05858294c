package digest

import (
	"strings"
	"unicode/utf8"
)

const (
	Header             = "Daily Watchlist Update:\n"
	NotificationTitle  = "Daily Watchlist Update"
	summaryPreviewRune = 100
)

// Line renders one project entry of the digest body.
func Line(project, summary string) string {
	return project + ": " + preview(summary) + "...\n"
}

// Digest accumulates project lines under the fixed header.
type Digest struct {
	b     strings.Builder
	lines int
}

func (d *Digest) Add(project, summary string) {
	if d.lines == 0 {
		d.b.WriteString(Header)
	}
	d.b.WriteString(Line(project, summary))
	d.lines++
}

func (d *Digest) Len() int {
	return d.lines
}

// String returns the empty string when no project was added.
func (d *Digest) String() string {
	return d.b.String()
}

func preview(s string) string {
	if utf8.RuneCountInString(s) <= summaryPreviewRune {
		return s
	}

	runes := []rune(s)
	return string(runes[:summaryPreviewRune])
}
