package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wingman/internal/domain"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

const rssClientTimeout = 20 * time.Second

// RSSBridge reads an account's posts from an RSS bridge (Nitter-style `/{username}/rss`).
// Bridges expose no engagement metrics, so every post ranks equal and keeps feed order.
type RSSBridge struct {
	baseURL string
	parser  *gofeed.Parser
}

func NewRSSBridge(baseURL string) *RSSBridge {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: rssClientTimeout}

	return &RSSBridge{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		parser:  parser,
	}
}

func (b *RSSBridge) Configured() bool {
	return b != nil && b.baseURL != ""
}

func (b *RSSBridge) Timeline(ctx context.Context, handle string) (Timeline, error) {
	if !b.Configured() {
		return Timeline{}, ErrMissingToken
	}

	username := Username(handle)
	feedURL := fmt.Sprintf("%s/%s/rss", b.baseURL, url.PathEscape(username))

	parsed, err := b.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return Timeline{}, fmt.Errorf("rss bridge @%s: %w", username, ErrNotFound)
		}
		return Timeline{}, fmt.Errorf("parse feed (URL = %s): %w", feedURL, err)
	}

	posts := make([]domain.Post, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		text := itemText(item)
		if text == "" {
			continue
		}

		var createdAt time.Time
		if item.PublishedParsed != nil {
			createdAt = *item.PublishedParsed
		}

		posts = append(posts, domain.Post{
			ID:        item.GUID,
			Text:      text,
			CreatedAt: createdAt,
		})
	}

	if len(posts) == 0 {
		return Timeline{UserID: username}, ErrNoRecentPosts
	}

	return Timeline{UserID: username, Posts: posts}, nil
}

func itemText(item *gofeed.Item) string {
	raw := strings.TrimSpace(item.Description)
	if raw == "" {
		return strings.TrimSpace(item.Title)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return strings.TrimSpace(item.Title)
	}

	return strings.Join(strings.Fields(doc.Text()), " ")
}
