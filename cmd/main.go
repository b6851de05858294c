package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wingman/internal/config"
	"wingman/internal/database"
	"wingman/internal/digest"
	"wingman/internal/ideas"
	"wingman/internal/insights"
	"wingman/internal/neynar"
	"wingman/internal/onchain"
	"wingman/internal/scheduler"
	"wingman/internal/server"
	"wingman/internal/source"
	"wingman/internal/telegram"
	"wingman/internal/watchlist"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	start := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.LoadConfig()

	db, err := database.New(ctx, cfg.DBPath, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize db",
			"error", err,
			"dbPath", cfg.DBPath)

		return
	}
	defer func() {
		if err = db.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close db",
				"error", err,
				"dbPath", cfg.DBPath)
		}
	}()
	log.InfoContext(ctx, "DB is initialized",
		"dbPath", cfg.DBPath)

	cache, closeCache := initSummaryCache(ctx, cfg, log)
	defer closeCache()

	neynarClient := neynar.NewClient(cfg.NeynarAPIBaseURL, cfg.NeynarAPIKey)
	if !neynarClient.Configured() {
		log.WarnContext(ctx, "NEYNAR_API_KEY is missing so Farcaster features are disabled",
			"envVar", "NEYNAR_API_KEY")
	}

	xSource := source.ForX(
		source.NewXClient(cfg.XAPIBaseURL, cfg.BearerToken()),
		source.NewRSSBridge(cfg.RSSBridgeURL),
	)
	if cfg.BearerToken() == "" {
		log.WarnContext(ctx, "X_BEARER_TOKEN is missing",
			"envVar", "X_BEARER_TOKEN",
			"rssBridge", cfg.RSSBridgeURL != "")
	}

	insightsService := insights.NewService(insights.Sources{
		X:         xSource,
		Farcaster: source.NewFarcasterSource(neynarClient),
	}, cache, cfg.SummaryCacheTTL, log)

	tracker, err := onchain.NewTracker(cfg.ContractAddress)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize tracker",
			"error", err,
			"contractAddress", cfg.ContractAddress)

		return
	}

	reporter, stopReporter := initReporter(ctx, cfg, log)
	defer stopReporter()

	job := digest.NewJob(db, insightsService, neynarClient, reporter, digest.Config{
		Concurrency: cfg.DigestConcurrency,
		TargetURL:   cfg.AppFrameURL,
	}, log)

	if cfg.SchedulerEnabled {
		sched := scheduler.New(ctx, cfg.DigestCron, job, log)
		if err = sched.Start(); err != nil {
			log.ErrorContext(ctx, "Failed to start scheduler",
				"error", err,
				"spec", cfg.DigestCron)

			return
		}
		defer sched.Stop()
	}

	srv := server.New(server.Deps{
		Updater:   insightsService,
		Watchlist: watchlist.NewService(db, log),
		Settings:  db,
		UserStats: neynarClient,
		Digest:    job,
		Ideas: ideas.NewOpenAIGenerator(cfg.OpenAIAPIKey,
			ideas.NewTemplateGenerator(insightsService.Dictionaries()), log),
		Tracker: tracker,
		DB:      db,
	}, server.Config{
		CronSecret:     cfg.CronSecret,
		DefaultProject: cfg.DefaultProject,
	}, log)

	go func() {
		if err := srv.Listen(net.JoinHostPort("", cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.ErrorContext(ctx, "HTTP server is stopped",
				"error", err,
				"port", cfg.Port)
			cancel()
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-c:
		log.InfoContext(ctx, "Shutdown signal is received",
			"signal", sig.String())
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		log.ErrorContext(shutdownCtx, "Failed to shut down HTTP server",
			"error", err)
	}

	log.InfoContext(shutdownCtx, "Exiting...",
		"uptimeSeconds", time.Since(start).Seconds())
}

func initSummaryCache(ctx context.Context, cfg config.Config, log *slog.Logger) (insights.SummaryCache, func()) {
	noop := func() {}

	if cfg.RedisURL == "" {
		return insights.NewMemoryCache(0), noop
	}

	cache, client, err := insights.NewRedisCache(ctx, cfg.RedisURL, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to connect to Redis so in-memory cache will be used",
			"error", err,
			"envVar", "REDIS_URL")

		return insights.NewMemoryCache(0), noop
	}

	log.InfoContext(ctx, "Redis summary cache is initialized")

	return cache, func() {
		if err := client.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close Redis client",
				"error", err)
		}
	}
}

func initReporter(ctx context.Context, cfg config.Config, log *slog.Logger) (digest.Reporter, func()) {
	noop := func() {}

	if cfg.TelegramToken == "" || cfg.TelegramReportChatID == 0 {
		return nil, noop
	}

	reporter, limiter, err := telegram.NewReporter(cfg.TelegramToken, cfg.TelegramReportChatID, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create Telegram reporter so reports will not be mirrored",
			"error", err,
			"chatID", cfg.TelegramReportChatID)

		return nil, noop
	}

	log.InfoContext(ctx, "Telegram reporter is initialized",
		"chatID", cfg.TelegramReportChatID)

	return reporter, limiter.Stop
}
