package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wingman/internal/digest"
	"wingman/internal/domain"
	"wingman/internal/insights"
	"wingman/internal/neynar"
	"wingman/internal/onchain"
	"wingman/internal/source"
	"wingman/internal/watchlist"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUpdater struct {
	summary  domain.Summary
	err      error
	projects []string
}

func (f *fakeUpdater) Update(_ context.Context, project string, _ domain.Platform) (domain.Summary, error) {
	f.projects = append(f.projects, project)
	s := f.summary
	s.Project = project
	return s, f.err
}

type fakeWatchlistStore struct {
	entries []domain.WatchlistEntry
}

func (f *fakeWatchlistStore) AddWatchlistEntry(_ context.Context, e domain.WatchlistEntry) (domain.WatchlistEntry, error) {
	e.ID = int64(len(f.entries) + 1)
	f.entries = append([]domain.WatchlistEntry{e}, f.entries...)
	return e, nil
}

func (f *fakeWatchlistStore) RemoveWatchlistEntry(_ context.Context, fid int64, project string) (bool, error) {
	for i, e := range f.entries {
		if e.FID == fid && strings.EqualFold(e.Project, project) {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeWatchlistStore) ListWatchlist(_ context.Context, fid int64) ([]domain.WatchlistEntry, error) {
	var out []domain.WatchlistEntry
	for _, e := range f.entries {
		if e.FID == fid {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeSettings struct {
	settings map[int64]domain.UserSettings
	latest   *domain.DailySummary
}

func (f *fakeSettings) GetUserSettingsWithDefault(_ context.Context, fid int64) (domain.UserSettings, error) {
	if s, ok := f.settings[fid]; ok {
		return s, nil
	}
	return domain.DefaultUserSettings(fid), nil
}

func (f *fakeSettings) UpsertUserSetting(ctx context.Context, fid int64, key domain.SettingKey, value bool) error {
	s, _ := f.GetUserSettingsWithDefault(ctx, fid)
	f.settings[fid] = s.Apply(key, value)
	return nil
}

func (f *fakeSettings) LatestDailySummary(_ context.Context, _ int64) (*domain.DailySummary, error) {
	return f.latest, nil
}

type fakeStats struct {
	err error
}

func (f fakeStats) UserStats(_ context.Context, fid int64) (domain.UserStats, error) {
	if f.err != nil {
		return domain.UserStats{}, f.err
	}
	return domain.UserStats{FID: fid, Username: "alice", DisplayName: "alice", FollowerCount: 3}, nil
}

type fakeDigest struct {
	report digest.Report
	err    error
	calls  int
}

func (f *fakeDigest) Run(_ context.Context) (digest.Report, error) {
	f.calls++
	return f.report, f.err
}

type fakeIdeas struct{}

func (fakeIdeas) Generate(_ context.Context, project string, _ domain.Summary) ([]string, error) {
	return []string{"idea for " + project}, nil
}

type testEnv struct {
	srv      *Server
	updater  *fakeUpdater
	store    *fakeWatchlistStore
	settings *fakeSettings
	digest   *fakeDigest
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()

	tracker, err := onchain.NewTracker("")
	require.NoError(t, err)

	env := &testEnv{
		updater: &fakeUpdater{summary: domain.Summary{
			Text:       "Insights from @MorphLayer:\n🚀 [Announcement] launch (5 likes, 0 views, Oct 7)",
			IsLive:     true,
			PostCount:  1,
			ThemeCount: 1,
			UserID:     "42",
		}},
		store:    &fakeWatchlistStore{},
		settings: &fakeSettings{settings: map[int64]domain.UserSettings{}},
		digest:   &fakeDigest{report: digest.Report{Users: 2, Delivered: 1, Skipped: 1}},
	}

	env.srv = New(Deps{
		Updater:   env.updater,
		Watchlist: watchlist.NewService(env.store, slog.Default()),
		Settings:  env.settings,
		UserStats: fakeStats{},
		Digest:    env.digest,
		Ideas:     fakeIdeas{},
		Tracker:   tracker,
		Registry:  prometheus.NewRegistry(),
	}, cfg, slog.Default())

	return env
}

func (e *testEnv) do(t *testing.T, method, target, body string, headers ...string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := e.srv.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}

	return resp.StatusCode, out
}

func TestUpdateLive(t *testing.T) {
	env := newTestEnv(t, Config{})

	status, body := env.do(t, http.MethodGet, "/api/update?project=MorphLayer", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["isLive"])
	assert.Equal(t, float64(1), body["postCount"])
	assert.Equal(t, "42", body["userId"])
	assert.Equal(t, float64(1), body["themesDetected"])
	assert.NotContains(t, body, "errorType")
	assert.Equal(t, []string{"@MorphLayer"}, env.updater.projects)
}

func TestUpdateDefaultsProject(t *testing.T) {
	env := newTestEnv(t, Config{DefaultProject: "@base"})

	status, _ := env.do(t, http.MethodGet, "/api/update", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"@base"}, env.updater.projects)
}

func TestUpdateRateLimited(t *testing.T) {
	env := newTestEnv(t, Config{})
	reset := time.Date(2025, 10, 7, 12, 15, 0, 0, time.UTC)
	env.updater.summary = insights.RateLimitedSummary("@MorphLayer", reset, reset.Add(-90*time.Second))

	status, body := env.do(t, http.MethodGet, "/api/update?project=@MorphLayer", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["isLive"])
	assert.Equal(t, float64(0), body["postCount"])
	assert.Equal(t, domain.ErrorTypeRateLimit, body["errorType"])
	assert.Equal(t, "2025-10-07T12:15:00Z", body["waitUntil"])
	assert.Equal(t, float64(90), body["waitSeconds"])
	assert.NotContains(t, body, "themesDetected")
}

func TestUpdateMissingTokenAnswers500WithFallback(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.updater.summary = insights.FallbackSummary("@MorphLayer", domain.ErrorTypeAuthMissing, source.ErrMissingToken)
	env.updater.err = source.ErrMissingToken

	status, body := env.do(t, http.MethodGet, "/api/update", "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, false, body["isLive"])
	assert.Contains(t, body["summary"], "AI Mock for @MorphLayer")
}

func TestUpdateRejectsUnknownPlatform(t *testing.T) {
	env := newTestEnv(t, Config{})

	status, body := env.do(t, http.MethodGet, "/api/update?platform=myspace", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "unknown platform")
}

func TestWatchlistFlow(t *testing.T) {
	env := newTestEnv(t, Config{})

	status, body := env.do(t, http.MethodPost, "/api/watchlist", `{"fid": 7, "project": "@MorphLayer", "platform": "X"}`)
	require.Equal(t, http.StatusCreated, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, "@MorphLayer", data["project"])

	status, body = env.do(t, http.MethodPost, "/api/watchlist", `{"fid": 7, "project": "@morphlayer"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "This project is already in your watchlist", body["error"])

	status, body = env.do(t, http.MethodPost, "/api/watchlist", `{"fid": 7, "project": "abc"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	fields := body["errors"].([]any)
	require.Len(t, fields, 1)
	assert.Equal(t, "projectHandle", fields[0].(map[string]any)["field"])

	_, _ = env.do(t, http.MethodPost, "/api/watchlist", `{"fid": 7, "project": "@base"}`)

	status, body = env.do(t, http.MethodGet, "/api/watchlist?fid=7", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{"@base", "@MorphLayer"}, body["data"])

	status, body = env.do(t, http.MethodDelete, "/api/watchlist?fid=7&project=@base", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"removed": true}, body["data"])

	status, _ = env.do(t, http.MethodDelete, "/api/watchlist?fid=7&project=@base", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, body = env.do(t, http.MethodGet, "/api/watchlist", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "FID required", body["error"])
}

func TestWatchlistRequiresIdentity(t *testing.T) {
	env := newTestEnv(t, Config{})

	status, body := env.do(t, http.MethodPost, "/api/watchlist", `{"project": "@MorphLayer"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	fields := body["errors"].([]any)
	assert.Equal(t, "auth", fields[0].(map[string]any)["field"])
	assert.Empty(t, env.store.entries)
}

func TestSettings(t *testing.T) {
	env := newTestEnv(t, Config{})

	status, body := env.do(t, http.MethodGet, "/api/settings?fid=3", "")
	require.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, false, data["notificationsEnabled"])
	assert.Equal(t, true, data["dailySummaryEnabled"])

	status, body = env.do(t, http.MethodPut, "/api/settings", `{"fid": 3, "key": "notifications_enabled", "value": true}`)
	require.Equal(t, http.StatusOK, status)
	data = body["data"].(map[string]any)
	assert.Equal(t, true, data["notificationsEnabled"])
	assert.Equal(t, true, data["dailySummaryEnabled"])

	status, _ = env.do(t, http.MethodPut, "/api/settings", `{"fid": 3, "key": "fid", "value": true}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(t, http.MethodPut, "/api/settings", `{"fid": 3, "key": "daily_summary"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDailySummary(t *testing.T) {
	env := newTestEnv(t, Config{})

	status, body := env.do(t, http.MethodGet, "/api/daily-summary?fid=3", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "data")
	assert.Nil(t, body["data"])

	env.settings.latest = &domain.DailySummary{ID: 1, FID: 3, Summary: "Daily Watchlist Update:\n"}

	_, body = env.do(t, http.MethodGet, "/api/daily-summary?fid=3", "")
	assert.Equal(t, "Daily Watchlist Update:\n", body["data"].(map[string]any)["summary"])
}

func TestUserStats(t *testing.T) {
	tests := []struct {
		name   string
		target string
		err    error
		status int
		errMsg string
	}{
		{name: "ok", target: "/api/user-stats?fid=1", status: http.StatusOK},
		{name: "missing fid", target: "/api/user-stats", status: http.StatusBadRequest, errMsg: "FID parameter is required"},
		{name: "no key", target: "/api/user-stats?fid=1", err: neynar.ErrMissingAPIKey, status: http.StatusInternalServerError, errMsg: "API configuration error"},
		{name: "not found", target: "/api/user-stats?fid=1", err: neynar.ErrUserNotFound, status: http.StatusNotFound, errMsg: "User not found"},
		{name: "upstream", target: "/api/user-stats?fid=1", err: &neynar.StatusError{Code: http.StatusBadGateway}, status: http.StatusBadGateway, errMsg: "Failed to fetch user data from Neynar"},
		{name: "other", target: "/api/user-stats?fid=1", err: errors.New("dial tcp"), status: http.StatusInternalServerError, errMsg: "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, Config{})
			env.srv.deps.UserStats = fakeStats{err: tt.err}

			status, body := env.do(t, http.MethodGet, tt.target, "")
			assert.Equal(t, tt.status, status)
			if tt.errMsg != "" {
				assert.Equal(t, tt.errMsg, body["error"])
			} else {
				assert.Equal(t, "alice", body["username"])
			}
		})
	}
}

func TestCronNotifications(t *testing.T) {
	env := newTestEnv(t, Config{CronSecret: "s3cret"})

	status, _ := env.do(t, http.MethodGet, "/api/cron-notifications", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, 0, env.digest.calls)

	status, body := env.do(t, http.MethodGet, "/api/cron-notifications", "", "Authorization", "Bearer s3cret")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Notifications sent", body["status"])
	assert.Equal(t, float64(1), body["delivered"])

	env.digest.err = digest.ErrNotConfigured
	status, body = env.do(t, http.MethodGet, "/api/cron-notifications", "", "Authorization", "Bearer s3cret")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Neynar API key not configured", body["error"])
}

func TestIdeasUseFallbackSummary(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.updater.err = source.ErrMissingToken

	status, body := env.do(t, http.MethodGet, "/api/ideas?project=base", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{"idea for @base"}, body["ideas"])
	assert.Equal(t, "@base", body["project"])
}

func TestTrackTx(t *testing.T) {
	env := newTestEnv(t, Config{})

	status, body := env.do(t, http.MethodGet, "/api/onchain/track?project=MorphLayer", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(onchain.BaseChainID), body["chainId"])
	assert.Equal(t, "0x5af3107a4000", body["value"])
	assert.True(t, strings.HasPrefix(body["data"].(string), "0x"))

	status, _ = env.do(t, http.MethodGet, "/api/onchain/track", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, Config{})

	status, body := env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := env.srv.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUnknownRouteIsJSON(t *testing.T) {
	env := newTestEnv(t, Config{})

	status, body := env.do(t, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotEmpty(t, body["error"])
}
