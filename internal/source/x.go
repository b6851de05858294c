package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"wingman/internal/domain"
)

const (
	xClientTimeout     = 20 * time.Second
	xTimelineMaxResult = 5
	xRateLimitReset    = "x-rate-limit-reset"
	xDefaultResetDelay = 15 * time.Minute
	xErrorBodyMaxBytes = 512
)

type XClient struct {
	baseURL string
	token   string
	client  *http.Client
	now     func() time.Time
}

type xUserResponse struct {
	Data *struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"data"`
	Errors []xAPIError `json:"errors"`
}

type xTimelineResponse struct {
	Data []struct {
		ID            string    `json:"id"`
		Text          string    `json:"text"`
		CreatedAt     time.Time `json:"created_at"`
		PublicMetrics struct {
			LikeCount       int64 `json:"like_count"`
			ImpressionCount int64 `json:"impression_count"`
		} `json:"public_metrics"`
	} `json:"data"`
	Errors []xAPIError `json:"errors"`
}

type xAPIError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func NewXClient(baseURL, token string) *XClient {
	return &XClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		client:  &http.Client{Timeout: xClientTimeout},
		now:     time.Now,
	}
}

func (c *XClient) Configured() bool {
	return c != nil && c.token != ""
}

func (c *XClient) Timeline(ctx context.Context, handle string) (Timeline, error) {
	if !c.Configured() {
		return Timeline{}, ErrMissingToken
	}

	username := Username(handle)
	if username == "" {
		return Timeline{}, fmt.Errorf("handle is empty: %w", ErrNotFound)
	}

	var user xUserResponse
	if err := c.get(ctx, "/2/users/by/username/"+url.PathEscape(username), nil, &user); err != nil {
		return Timeline{}, fmt.Errorf("get user by username: %w", err)
	}
	if user.Data == nil || user.Data.ID == "" {
		if len(user.Errors) > 0 && user.Errors[0].Detail != "" {
			return Timeline{}, fmt.Errorf("user @%s (%s): %w", username, user.Errors[0].Detail, ErrNotFound)
		}
		return Timeline{}, fmt.Errorf("user @%s: %w", username, ErrNotFound)
	}

	query := url.Values{}
	query.Set("max_results", strconv.Itoa(xTimelineMaxResult))
	query.Set("tweet.fields", "public_metrics,created_at")

	var timeline xTimelineResponse
	if err := c.get(ctx, "/2/users/"+url.PathEscape(user.Data.ID)+"/tweets", query, &timeline); err != nil {
		return Timeline{}, fmt.Errorf("get user timeline: %w", err)
	}
	if len(timeline.Data) == 0 {
		return Timeline{UserID: user.Data.ID}, ErrNoRecentPosts
	}

	posts := make([]domain.Post, 0, len(timeline.Data))
	for _, tweet := range timeline.Data {
		posts = append(posts, domain.Post{
			ID:              tweet.ID,
			Text:            tweet.Text,
			LikeCount:       tweet.PublicMetrics.LikeCount,
			ImpressionCount: tweet.PublicMetrics.ImpressionCount,
			CreatedAt:       tweet.CreatedAt,
		})
	}

	return Timeline{UserID: user.Data.ID, Posts: posts}, nil
}

func (c *XClient) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{Source: "x", Reset: c.resetTime(resp.Header)}
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, xErrorBodyMaxBytes))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (c *XClient) resetTime(header http.Header) time.Time {
	raw := strings.TrimSpace(header.Get(xRateLimitReset))

	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || seconds <= 0 {
		return c.now().Add(xDefaultResetDelay)
	}

	return time.Unix(seconds, 0).UTC()
}
