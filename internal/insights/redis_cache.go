package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"wingman/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix   = "wingman:summary:"
	redisPingTimeout = 5 * time.Second
)

type redisCache struct {
	client *redis.Client
	log    *slog.Logger
}

// NewRedisCache connects to addr, which is either a redis:// URL or host:port.
func NewRedisCache(ctx context.Context, addr string, log *slog.Logger) (SummaryCache, *redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis URL: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}

	return &redisCache{client: client, log: log}, client, nil
}

func (c *redisCache) Get(ctx context.Context, key string) (domain.Summary, bool) {
	if key == "" {
		return domain.Summary{}, false
	}

	raw, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WarnContext(ctx, "Failed to read cached summary",
				"error", err,
				"key", key)
		}
		return domain.Summary{}, false
	}

	var summary domain.Summary
	if err = json.Unmarshal(raw, &summary); err != nil {
		c.log.WarnContext(ctx, "Failed to decode cached summary",
			"error", err,
			"key", key)
		return domain.Summary{}, false
	}

	return summary, true
}

func (c *redisCache) Set(ctx context.Context, key string, summary domain.Summary, ttl time.Duration) {
	if key == "" || ttl <= 0 {
		return
	}

	raw, err := json.Marshal(summary)
	if err != nil {
		c.log.WarnContext(ctx, "Failed to encode summary",
			"error", err,
			"key", key)
		return
	}

	if err = c.client.Set(ctx, redisKeyPrefix+key, raw, ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "Failed to cache summary",
			"error", err,
			"key", key)
	}
}
