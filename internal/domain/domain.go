package domain

import (
	"fmt"
	"strings"
	"time"
)

type Platform string

const (
	PlatformX         Platform = "X"
	PlatformFarcaster Platform = "Farcaster"
)

func ParsePlatform(raw string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "x", "twitter":
		return PlatformX, nil
	case "farcaster":
		return PlatformFarcaster, nil
	default:
		return "", fmt.Errorf("unknown platform %q", raw)
	}
}

type WatchlistEntry struct {
	ID          int64     `json:"id"`
	FID         int64     `json:"fid"`
	Project     string    `json:"project"`
	Platform    Platform  `json:"platform"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type UserSettings struct {
	FID                       int64 `json:"fid"`
	NotificationsEnabled      bool  `json:"notificationsEnabled"`
	DailySummaryEnabled       bool  `json:"dailySummaryEnabled"`
	RealTimeAlertsEnabled     bool  `json:"realTimeAlertsEnabled"`
	EmailNotificationsEnabled bool  `json:"emailNotificationsEnabled"`
}

// DefaultUserSettings is what a user without a settings row gets.
func DefaultUserSettings(fid int64) UserSettings {
	return UserSettings{FID: fid, DailySummaryEnabled: true}
}

// SettingKey names a single toggle by its column name.
type SettingKey string

const (
	SettingNotifications      SettingKey = "notifications_enabled"
	SettingDailySummary       SettingKey = "daily_summary"
	SettingRealTimeAlerts     SettingKey = "real_time_alerts"
	SettingEmailNotifications SettingKey = "email_notifications"
)

func ParseSettingKey(raw string) (SettingKey, error) {
	key := SettingKey(strings.TrimSpace(raw))
	switch key {
	case SettingNotifications, SettingDailySummary, SettingRealTimeAlerts, SettingEmailNotifications:
		return key, nil
	default:
		return "", fmt.Errorf("unknown setting %q", raw)
	}
}

// Apply returns a copy of s with the toggle named by key set to value.
func (s UserSettings) Apply(key SettingKey, value bool) UserSettings {
	switch key {
	case SettingNotifications:
		s.NotificationsEnabled = value
	case SettingDailySummary:
		s.DailySummaryEnabled = value
	case SettingRealTimeAlerts:
		s.RealTimeAlertsEnabled = value
	case SettingEmailNotifications:
		s.EmailNotificationsEnabled = value
	}
	return s
}

type DailySummary struct {
	ID        int64     `json:"id"`
	FID       int64     `json:"fid"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"createdAt"`
}

type Post struct {
	ID              string
	Text            string
	LikeCount       int64
	ImpressionCount int64
	CreatedAt       time.Time
}

type UserStats struct {
	FID            int64  `json:"fid"`
	Username       string `json:"username"`
	DisplayName    string `json:"displayName"`
	FollowerCount  int64  `json:"followerCount"`
	FollowingCount int64  `json:"followingCount"`
	PfpURL         string `json:"pfpUrl,omitempty"`
}
