package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("X_BEARER_TOKEN", "")
	t.Setenv("TWITTER_BEARER_TOKEN", "legacy")

	cfg := LoadConfig()

	if cfg.DBPath != "db.sqlite" {
		t.Fatalf("unexpected DB path: %q", cfg.DBPath)
	}

	if cfg.SummaryCacheTTL != 5*time.Minute {
		t.Fatalf("unexpected cache TTL: %s", cfg.SummaryCacheTTL)
	}

	if cfg.DigestConcurrency != 1 {
		t.Fatalf("expected sequential digest by default, got %d", cfg.DigestConcurrency)
	}

	if !cfg.SchedulerEnabled {
		t.Fatalf("expected scheduler to be enabled by default")
	}

	if got := cfg.BearerToken(); got != "legacy" {
		t.Fatalf("expected legacy token fallback, got %q", got)
	}
}

func TestBearerTokenPrefersXToken(t *testing.T) {
	cfg := Config{XBearerToken: "new", TwitterBearer: "legacy"}

	if got := cfg.BearerToken(); got != "new" {
		t.Fatalf("unexpected token: %q", got)
	}
}
