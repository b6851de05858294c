package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wingman/internal/domain"
)

var (
	ErrMissingToken  = errors.New("upstream token is not configured")
	ErrNotFound      = errors.New("account not found")
	ErrNoRecentPosts = errors.New("no recent posts")
)

// RateLimitError is returned when the upstream answers 429. Reset is when the window reopens.
type RateLimitError struct {
	Source string
	Reset  time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited until %s", e.Source, e.Reset.UTC().Format(time.RFC3339))
}

type Timeline struct {
	UserID string
	Posts  []domain.Post
}

type Source interface {
	Timeline(ctx context.Context, handle string) (Timeline, error)
}

// Username strips the leading @ and surrounding whitespace from a handle.
func Username(handle string) string {
	return strings.TrimPrefix(strings.TrimSpace(handle), "@")
}

// ForX picks the X timeline source: the API when a bearer token is set, else the RSS bridge
// when one is configured, else the API client which reports ErrMissingToken.
func ForX(api *XClient, bridge *RSSBridge) Source {
	if !api.Configured() && bridge.Configured() {
		return bridge
	}
	return api
}
