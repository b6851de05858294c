package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port   string `env:"PORT"    envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"db.sqlite"`

	XBearerToken     string        `env:"X_BEARER_TOKEN"`
	TwitterBearer    string        `env:"TWITTER_BEARER_TOKEN"`
	XAPIBaseURL      string        `env:"X_API_BASE_URL"      envDefault:"https://api.twitter.com"`
	RSSBridgeURL     string        `env:"RSS_BRIDGE_URL"`
	NeynarAPIKey     string        `env:"NEYNAR_API_KEY"`
	NeynarAPIBaseURL string        `env:"NEYNAR_API_BASE_URL" envDefault:"https://api.neynar.com"`
	AppFrameURL      string        `env:"APP_FRAME_URL"       envDefault:"https://bead-mvp.vercel.app/frame"`
	OpenAIAPIKey     string        `env:"OPENAI_API_KEY"`
	RedisURL         string        `env:"REDIS_URL"`
	SummaryCacheTTL  time.Duration `env:"SUMMARY_CACHE_TTL"   envDefault:"5m"`
	DefaultProject   string        `env:"DEFAULT_PROJECT"     envDefault:"@MorphLayer"`
	ContractAddress  string        `env:"CONTRACT_ADDRESS"    envDefault:"0xe620d6855b97c357c316b1c43e1bd805dbf7660e"`

	CronSecret        string `env:"CRON_SECRET"`
	DigestCron        string `env:"DIGEST_CRON"        envDefault:"0 9 * * *"`
	DigestConcurrency int    `env:"DIGEST_CONCURRENCY" envDefault:"1"`
	SchedulerEnabled  bool   `env:"SCHEDULER_ENABLED"  envDefault:"true"`

	TelegramToken        string `env:"TELEGRAM_TOKEN"`
	TelegramReportChatID int64  `env:"TELEGRAM_REPORT_CHAT_ID"`
}

func LoadConfig() Config {
	var cfg Config
	env.Must(cfg, env.Parse(&cfg))
	return cfg
}

// BearerToken prefers X_BEARER_TOKEN and falls back to the TWITTER_BEARER_TOKEN name
// the front-end deployment already uses.
func (c Config) BearerToken() string {
	if c.XBearerToken != "" {
		return c.XBearerToken
	}
	return c.TwitterBearer
}
