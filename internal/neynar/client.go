package neynar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"wingman/internal/domain"

	"github.com/google/uuid"
)

const (
	clientTimeout     = 20 * time.Second
	errorBodyMaxBytes = 512
	// Neynar caps notification titles at 32 characters and bodies at 128.
	notificationTitleMaxChars = 32
	notificationBodyMaxChars  = 128
)

var (
	ErrMissingAPIKey = errors.New("neynar API key is not configured")
	ErrUserNotFound  = errors.New("user not found")
)

type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("neynar returned status %d: %s", e.Code, e.Body)
}

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type user struct {
	FID            int64  `json:"fid"`
	Username       string `json:"username"`
	DisplayName    string `json:"display_name"`
	FollowerCount  int64  `json:"follower_count"`
	FollowingCount int64  `json:"following_count"`
	PfpURL         string `json:"pfp_url"`
}

type bulkUsersResponse struct {
	Users []user `json:"users"`
}

type userByUsernameResponse struct {
	User *user `json:"user"`
}

type Cast struct {
	Hash      string    `json:"hash"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Reactions struct {
		LikesCount   int64 `json:"likes_count"`
		RecastsCount int64 `json:"recasts_count"`
	} `json:"reactions"`
}

type castsResponse struct {
	Casts []Cast `json:"casts"`
}

type Notification struct {
	TargetFIDs []int64
	Title      string
	Body       string
	TargetURL  string
}

type notificationPayload struct {
	TargetFIDs   []int64 `json:"target_fids"`
	Notification struct {
		Title     string `json:"title"`
		Body      string `json:"body"`
		TargetURL string `json:"target_url"`
		UUID      string `json:"uuid"`
	} `json:"notification"`
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  &http.Client{Timeout: clientTimeout},
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

func (c *Client) UserStats(ctx context.Context, fid int64) (domain.UserStats, error) {
	query := url.Values{}
	query.Set("fids", strconv.FormatInt(fid, 10))

	var resp bulkUsersResponse
	if err := c.do(ctx, http.MethodGet, "/v2/farcaster/user/bulk", query, nil, &resp); err != nil {
		return domain.UserStats{}, fmt.Errorf("get bulk users: %w", err)
	}

	if len(resp.Users) == 0 {
		return domain.UserStats{}, ErrUserNotFound
	}

	return resp.Users[0].stats(), nil
}

func (c *Client) UserByUsername(ctx context.Context, username string) (domain.UserStats, error) {
	query := url.Values{}
	query.Set("username", username)

	var resp userByUsernameResponse
	if err := c.do(ctx, http.MethodGet, "/v2/farcaster/user/by_username", query, nil, &resp); err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return domain.UserStats{}, ErrUserNotFound
		}
		return domain.UserStats{}, fmt.Errorf("get user by username: %w", err)
	}

	if resp.User == nil {
		return domain.UserStats{}, ErrUserNotFound
	}

	return resp.User.stats(), nil
}

func (c *Client) Casts(ctx context.Context, fid int64, limit int) ([]Cast, error) {
	query := url.Values{}
	query.Set("fid", strconv.FormatInt(fid, 10))
	query.Set("limit", strconv.Itoa(limit))

	var resp castsResponse
	if err := c.do(ctx, http.MethodGet, "/v2/farcaster/feed/user/casts", query, nil, &resp); err != nil {
		return nil, fmt.Errorf("get user casts: %w", err)
	}

	return resp.Casts, nil
}

// PublishNotification sends a Mini App notification. Body and title are cut to Neynar's limits.
func (c *Client) PublishNotification(ctx context.Context, n Notification) (string, error) {
	var payload notificationPayload
	payload.TargetFIDs = n.TargetFIDs
	payload.Notification.Title = truncate(n.Title, notificationTitleMaxChars)
	payload.Notification.Body = truncate(n.Body, notificationBodyMaxChars)
	payload.Notification.TargetURL = n.TargetURL
	payload.Notification.UUID = uuid.NewString()

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal notification: %w", err)
	}

	if err = c.do(ctx, http.MethodPost, "/v2/farcaster/frame/notifications/", nil, body, nil); err != nil {
		return "", fmt.Errorf("publish notification: %w", err)
	}

	return payload.Notification.UUID, nil
}

func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	query url.Values,
	body []byte,
	out any,
) error {
	if !c.Configured() {
		return ErrMissingAPIKey
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("api_key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyMaxBytes))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(errBody))}
	}

	if out == nil {
		return nil
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (u user) stats() domain.UserStats {
	displayName := strings.TrimSpace(u.DisplayName)
	if displayName == "" {
		displayName = u.Username
	}

	return domain.UserStats{
		FID:            u.FID,
		Username:       u.Username,
		DisplayName:    displayName,
		FollowerCount:  u.FollowerCount,
		FollowingCount: u.FollowingCount,
		PfpURL:         u.PfpURL,
	}
}

func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars-1]) + "…"
}
