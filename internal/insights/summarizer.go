package insights

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"wingman/internal/domain"
)

const (
	rateLimitMockLine = "🚀 [Announcement] Teased L2 hooks... (16K likes, Oct 7)"
	fallbackMockLine  = "📊 [Milestone] Hit 1M users..."
)

var ErrNoRecentPosts = errors.New("no recent posts")

func Header(project string) string {
	return fmt.Sprintf("Insights from %s:", project)
}

// Summarize turns fetched posts into a capped, theme-grouped digest.
func (d Dictionaries) Summarize(project string, posts []domain.Post) (domain.Summary, error) {
	if len(posts) == 0 {
		return domain.Summary{}, ErrNoRecentPosts
	}

	ranked := Rank(posts)

	var themeOrder []domain.Theme
	grouped := make(map[domain.Theme][]domain.SummaryLine)

	for _, post := range ranked {
		line := d.Classify(post)
		if _, ok := grouped[line.Theme]; !ok {
			themeOrder = append(themeOrder, line.Theme)
		}
		grouped[line.Theme] = append(grouped[line.Theme], line)
	}

	lines := make([]domain.SummaryLine, 0, MaxLines)
	for _, theme := range themeOrder {
		themeLines := grouped[theme]
		if len(themeLines) > MaxLinesByTheme {
			themeLines = themeLines[:MaxLinesByTheme]
		}
		lines = append(lines, themeLines...)
	}
	if len(lines) > MaxLines {
		lines = lines[:MaxLines]
	}

	var b strings.Builder
	b.WriteString(Header(project))
	for _, line := range lines {
		b.WriteString("\n")
		b.WriteString(line.Text)
	}

	return domain.Summary{
		Project:    project,
		Text:       b.String(),
		Lines:      lines,
		IsLive:     true,
		PostCount:  len(posts),
		ThemeCount: len(themeOrder),
	}, nil
}

// WaitMinutes rounds the time left until reset up to whole minutes, never below one.
func WaitMinutes(reset, now time.Time) int64 {
	mins := int64(math.Ceil(reset.Sub(now).Minutes()))
	return max(mins, 1)
}

func waitSeconds(reset, now time.Time) int64 {
	secs := int64(math.Ceil(reset.Sub(now).Seconds()))
	return max(secs, 0)
}

func RateLimitedSummary(project string, reset, now time.Time) domain.Summary {
	return domain.Summary{
		Project: project,
		Text: fmt.Sprintf("Rate limited on %s, wait %dm. Fallback AI Mock: %s",
			project, WaitMinutes(reset, now), rateLimitMockLine),
		ErrorType:   domain.ErrorTypeRateLimit,
		WaitUntil:   reset.UTC(),
		WaitSeconds: waitSeconds(reset, now),
	}
}

func FallbackSummary(project, errorType string, cause error) domain.Summary {
	detail := "Unknown"
	if cause != nil && cause.Error() != "" {
		detail = cause.Error()
	}

	return domain.Summary{
		Project:   project,
		Text:      fmt.Sprintf("AI Mock for %s: %s (Fallback: %s)", project, fallbackMockLine, detail),
		ErrorType: errorType,
	}
}
