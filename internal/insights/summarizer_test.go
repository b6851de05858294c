package insights

import (
	"errors"
	"strings"
	"testing"
	"time"

	"wingman/internal/domain"
)

var postDate = time.Date(2025, 10, 7, 12, 0, 0, 0, time.UTC)

func post(text string, likes int64) domain.Post {
	return domain.Post{Text: text, LikeCount: likes, ImpressionCount: likes * 10, CreatedAt: postDate}
}

func TestSummarizeEmptyReportsNoContent(t *testing.T) {
	_, err := DefaultDictionaries().Summarize("@MorphLayer", nil)
	if !errors.Is(err, ErrNoRecentPosts) {
		t.Fatalf("expected ErrNoRecentPosts, got %v", err)
	}
}

func TestRankIsStableAndCapped(t *testing.T) {
	posts := []domain.Post{
		{ID: "a", LikeCount: 5},
		{ID: "b", LikeCount: 50},
		{ID: "c", LikeCount: 5},
		{ID: "d", LikeCount: 10},
		{ID: "e", LikeCount: 5},
		{ID: "f", LikeCount: 1},
		{ID: "g", LikeCount: 5},
	}

	ranked := Rank(posts)

	var ids []string
	for _, p := range ranked {
		ids = append(ids, p.ID)
	}

	want := "b,d,a,c,e"
	if got := strings.Join(ids, ","); got != want {
		t.Fatalf("unexpected order: got %s want %s", got, want)
	}

	if posts[0].ID != "a" {
		t.Fatalf("expected input slice to stay untouched")
	}
}

func TestClassifyThemeDeclarationOrderWins(t *testing.T) {
	d := DefaultDictionaries()

	tests := []struct {
		text string
		want domain.Theme
	}{
		{"We hit a milestone and launch v2", domain.ThemeAnnouncement},
		{"Congrats team, trending now", domain.ThemeMilestone},
		{"So bullish on this", domain.ThemeBuzz},
		{"Join our AMA tonight", domain.ThemeAnnouncement},
		{"gm", domain.ThemeGeneral},
	}

	for _, tt := range tests {
		if got := d.Theme(tt.text); got != tt.want {
			t.Fatalf("theme for %q: got %s want %s", tt.text, got, tt.want)
		}
	}
}

func TestClassifySentimentSymbols(t *testing.T) {
	d := DefaultDictionaries()

	tests := []struct {
		text string
		want string
	}{
		{"this is fire", "🚀"},
		{"market analysis", "📊"},
		{"FUD everywhere", "⚠️"},
		{"gm", "📊"},
		{"share this update, so bullish", "🚀"},
	}

	for _, tt := range tests {
		if got := d.Sentiment(tt.text).Symbol(); got != tt.want {
			t.Fatalf("symbol for %q: got %s want %s", tt.text, got, tt.want)
		}
	}
}

func TestClassifyRendersLine(t *testing.T) {
	line := DefaultDictionaries().Classify(domain.Post{
		Text:            "Mainnet launch is live",
		LikeCount:       12,
		ImpressionCount: 340,
		CreatedAt:       postDate,
	})

	want := "📊 [Announcement] Mainnet launch is live (12 likes, 340 views, Oct 7)"
	if line.Text != want {
		t.Fatalf("unexpected line:\n got %q\nwant %q", line.Text, want)
	}
}

func TestSnippetTruncatesRunes(t *testing.T) {
	long := strings.Repeat("🚀", SnippetMaxChars+5)

	got := Snippet(long)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis, got %q", got)
	}

	if n := len([]rune(strings.TrimSuffix(got, "..."))); n != SnippetMaxChars {
		t.Fatalf("expected %d runes, got %d", SnippetMaxChars, n)
	}

	if short := Snippet("short"); short != "short" {
		t.Fatalf("unexpected short snippet: %q", short)
	}
}

func TestSummarizeCapsLinesPerThemeAndTotal(t *testing.T) {
	posts := []domain.Post{
		post("launch one", 9),
		post("launch two", 8),
		post("launch three", 7),
		post("hit a milestone", 6),
		post("gm", 5),
		post("milestone again, top 10", 4),
		post("bullish", 3),
	}

	summary, err := DefaultDictionaries().Summarize("@Proj", posts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(summary.Lines) > MaxLines {
		t.Fatalf("expected at most %d lines, got %d", MaxLines, len(summary.Lines))
	}

	perTheme := make(map[domain.Theme]int)
	for _, line := range summary.Lines {
		perTheme[line.Theme]++
		if perTheme[line.Theme] > MaxLinesByTheme {
			t.Fatalf("theme %s has more than %d lines", line.Theme, MaxLinesByTheme)
		}
	}

	if summary.PostCount != len(posts) {
		t.Fatalf("unexpected post count: %d", summary.PostCount)
	}

	textLines := strings.Split(summary.Text, "\n")
	if textLines[0] != "Insights from @Proj:" {
		t.Fatalf("unexpected header: %q", textLines[0])
	}

	if len(textLines)-1 != len(summary.Lines) {
		t.Fatalf("text has %d lines, summary has %d", len(textLines)-1, len(summary.Lines))
	}
}

func TestSummarizeEndToEndOrder(t *testing.T) {
	posts := []domain.Post{
		post("gm frens", 5),
		post("gm again", 50),
		post("gm once more", 10),
	}

	summary, err := DefaultDictionaries().Summarize("@MorphLayer", posts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !summary.IsLive || summary.ThemeCount != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	lines := strings.Split(summary.Text, "\n")
	if lines[0] != "Insights from @MorphLayer:" {
		t.Fatalf("unexpected header: %q", lines[0])
	}

	if len(lines) != 3 {
		t.Fatalf("expected header + 2 General lines, got %d lines", len(lines))
	}

	if !strings.Contains(lines[1], "(50 likes") || !strings.Contains(lines[2], "(10 likes") {
		t.Fatalf("expected lines ranked by likes, got %q", lines[1:])
	}
}

func TestRateLimitedSummaryWait(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		reset    time.Time
		wantMins int64
		wantSecs int64
	}{
		{now.Add(90 * time.Second), 2, 90},
		{now.Add(15 * time.Minute), 15, 900},
		{now.Add(-time.Minute), 1, 0},
		{now.Add(time.Second), 1, 1},
	}

	for _, tt := range tests {
		summary := RateLimitedSummary("@Proj", tt.reset, now)

		if summary.IsLive || summary.PostCount != 0 {
			t.Fatalf("expected non-live fallback, got %+v", summary)
		}

		if summary.ErrorType != domain.ErrorTypeRateLimit {
			t.Fatalf("unexpected error type: %q", summary.ErrorType)
		}

		if got := WaitMinutes(tt.reset, now); got != tt.wantMins {
			t.Fatalf("wait minutes: got %d want %d", got, tt.wantMins)
		}

		if summary.WaitSeconds != tt.wantSecs {
			t.Fatalf("wait seconds: got %d want %d", summary.WaitSeconds, tt.wantSecs)
		}

		if !strings.Contains(summary.Text, "wait ") || !strings.HasPrefix(summary.Text, "Rate limited on @Proj") {
			t.Fatalf("unexpected text: %q", summary.Text)
		}
	}
}

func TestFallbackSummaryEmbedsCause(t *testing.T) {
	summary := FallbackSummary("@Proj", domain.ErrorTypeUpstream, errors.New("boom"))

	if summary.IsLive {
		t.Fatalf("expected fallback to be non-live")
	}

	if !strings.Contains(summary.Text, "(Fallback: boom)") {
		t.Fatalf("unexpected text: %q", summary.Text)
	}

	if unknown := FallbackSummary("@Proj", domain.ErrorTypeUpstream, nil); !strings.Contains(unknown.Text, "Unknown") {
		t.Fatalf("expected Unknown detail, got %q", unknown.Text)
	}
}

func TestScore(t *testing.T) {
	d := DefaultDictionaries()

	if got := d.Score("bullish bullish fud"); got != 1 {
		t.Fatalf("unexpected score: %d", got)
	}

	if got := d.Score("failed and down"); got != -2 {
		t.Fatalf("unexpected score: %d", got)
	}
}
