package insights

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"wingman/internal/domain"
)

const (
	MaxPosts        = 5
	MaxLines        = 5
	MaxLinesByTheme = 2
	SnippetMaxChars = 80

	snippetEllipsis = "..."
	shortDateLayout = "Jan 2"
)

type ThemeKeywords struct {
	Theme    domain.Theme
	Keywords []string
}

type SentimentKeywords struct {
	Sentiment domain.Sentiment
	Keywords  []string
}

// Dictionaries are matched in declaration order; the first set with a hit wins.
type Dictionaries struct {
	Themes     []ThemeKeywords
	Sentiments []SentimentKeywords
}

func DefaultDictionaries() Dictionaries {
	return Dictionaries{
		Themes: []ThemeKeywords{
			{Theme: domain.ThemeAnnouncement, Keywords: []string{"launch", "drop", "ama", "update", "tease", "reveal"}},
			{Theme: domain.ThemeMilestone, Keywords: []string{"hit", "trending", "top", "win", "milestone", "congrats"}},
			{Theme: domain.ThemeBuzz, Keywords: []string{"bullish", "hype", "fire", "radar", "next", "unlock"}},
		},
		Sentiments: []SentimentKeywords{
			{Sentiment: domain.SentimentPositive, Keywords: []string{"bullish", "fire", "win", "hype", "unlock", "🚀", "💚"}},
			{Sentiment: domain.SentimentNeutral, Keywords: []string{"update", "trending", "analysis", "share"}},
			{Sentiment: domain.SentimentNegative, Keywords: []string{"fud", "bear", "down", "failed"}},
		},
	}
}

// Rank orders posts by like count, highest first, keeping input order among equals.
func Rank(posts []domain.Post) []domain.Post {
	ranked := slices.Clone(posts)
	slices.SortStableFunc(ranked, func(a, b domain.Post) int {
		return cmp.Compare(b.LikeCount, a.LikeCount)
	})

	if len(ranked) > MaxPosts {
		ranked = ranked[:MaxPosts]
	}

	return ranked
}

func (d Dictionaries) Theme(text string) domain.Theme {
	lower := strings.ToLower(text)
	for _, set := range d.Themes {
		if containsAny(lower, set.Keywords) {
			return set.Theme
		}
	}
	return domain.ThemeGeneral
}

func (d Dictionaries) Sentiment(text string) domain.Sentiment {
	lower := strings.ToLower(text)
	for _, set := range d.Sentiments {
		if containsAny(lower, set.Keywords) {
			return set.Sentiment
		}
	}
	return domain.SentimentNeutral
}

// Score counts positive keyword hits minus negative ones across the whole text.
func (d Dictionaries) Score(text string) int {
	lower := strings.ToLower(text)
	score := 0

	for _, set := range d.Sentiments {
		for _, keyword := range set.Keywords {
			score += int(set.Sentiment) * strings.Count(lower, keyword)
		}
	}

	return score
}

func (d Dictionaries) Classify(post domain.Post) domain.SummaryLine {
	theme := d.Theme(post.Text)
	sentiment := d.Sentiment(post.Text)

	text := fmt.Sprintf("%s [%s] %s (%d likes, %d views, %s)",
		sentiment.Symbol(),
		theme,
		Snippet(post.Text),
		post.LikeCount,
		post.ImpressionCount,
		shortDate(post.CreatedAt),
	)

	return domain.SummaryLine{Theme: theme, Sentiment: sentiment, Text: text}
}

func Snippet(text string) string {
	if utf8.RuneCountInString(text) <= SnippetMaxChars {
		return text
	}

	runes := []rune(text)
	return string(runes[:SnippetMaxChars]) + snippetEllipsis
}

func shortDate(t time.Time) string {
	if t.IsZero() {
		return "n/a"
	}
	return t.UTC().Format(shortDateLayout)
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
