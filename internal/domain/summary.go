package domain

import "time"

type Theme string

const (
	ThemeAnnouncement Theme = "Announcement"
	ThemeMilestone    Theme = "Milestone"
	ThemeBuzz         Theme = "Buzz"
	ThemeGeneral      Theme = "General"
)

type Sentiment int

const (
	SentimentNegative Sentiment = -1
	SentimentNeutral  Sentiment = 0
	SentimentPositive Sentiment = 1
)

func (s Sentiment) Symbol() string {
	switch {
	case s > 0:
		return "🚀"
	case s < 0:
		return "⚠️"
	default:
		return "📊"
	}
}

type SummaryLine struct {
	Theme     Theme
	Sentiment Sentiment
	Text      string
}

const (
	ErrorTypeRateLimit   = "rate_limit"
	ErrorTypeNotFound    = "not_found"
	ErrorTypeNoContent   = "no_content"
	ErrorTypeAuthMissing = "auth_missing"
	ErrorTypeUpstream    = "upstream"
)

// Summary is the digest for one project handle. IsLive is false for every fallback payload.
type Summary struct {
	Project     string
	Text        string
	Lines       []SummaryLine
	IsLive      bool
	PostCount   int
	ThemeCount  int
	UserID      string
	ErrorType   string
	WaitUntil   time.Time
	WaitSeconds int64
}
