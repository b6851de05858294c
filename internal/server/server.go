// Package server exposes the JSON API used by the Mini App and the cron trigger.
package server

import (
	"context"
	"errors"
	"log/slog"

	"wingman/internal/digest"
	"wingman/internal/domain"
	"wingman/internal/ideas"
	"wingman/internal/onchain"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
)

const serviceName = "wingman"

type Updater interface {
	Update(ctx context.Context, project string, platform domain.Platform) (domain.Summary, error)
}

type Watchlist interface {
	Add(ctx context.Context, entry domain.WatchlistEntry) (domain.WatchlistEntry, error)
	Remove(ctx context.Context, fid int64, project string) (bool, error)
	List(ctx context.Context, fid int64) ([]domain.WatchlistEntry, error)
}

type SettingsStore interface {
	GetUserSettingsWithDefault(ctx context.Context, fid int64) (domain.UserSettings, error)
	UpsertUserSetting(ctx context.Context, fid int64, key domain.SettingKey, value bool) error
	LatestDailySummary(ctx context.Context, fid int64) (*domain.DailySummary, error)
}

type UserStatsProvider interface {
	UserStats(ctx context.Context, fid int64) (domain.UserStats, error)
}

type DigestRunner interface {
	Run(ctx context.Context) (digest.Report, error)
}

type TxBuilder interface {
	TrackTx(project string) (onchain.Tx, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators behind the routes. Registry defaults to the global Prometheus registerer.
type Deps struct {
	Updater   Updater
	Watchlist Watchlist
	Settings  SettingsStore
	UserStats UserStatsProvider
	Digest    DigestRunner
	Ideas     ideas.Generator
	Tracker   TxBuilder
	DB        Pinger
	Registry  prometheus.Registerer
}

type Config struct {
	CronSecret     string
	DefaultProject string
}

type Server struct {
	app  *fiber.App
	deps Deps
	cfg  Config
	prom *fiberprometheus.FiberPrometheus
	log  *slog.Logger
}

func New(deps Deps, cfg Config, log *slog.Logger) *Server {
	if deps.Registry == nil {
		deps.Registry = prometheus.DefaultRegisterer
	}
	if cfg.DefaultProject == "" {
		cfg.DefaultProject = "@MorphLayer"
	}

	s := &Server{
		deps: deps,
		cfg:  cfg,
		prom: fiberprometheus.NewWithRegistry(deps.Registry, serviceName, "http", "", nil),
		log:  log,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.log.Info("HTTP server is listening", "addr", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) setupMiddleware() {
	s.app.Use(recover.New())
	s.app.Use(requestid.New())
	s.app.Use(s.prom.Middleware)
	s.app.Use(requestLogger(s.log))
}

func (s *Server) setupRoutes() {
	s.app.Get("/healthz", s.handleHealth)
	s.prom.RegisterAt(s.app, "/metrics")

	api := s.app.Group("/api")

	api.Get("/update", s.handleUpdate)
	api.Get("/cron-notifications", s.cronAuth, s.handleCronNotifications)
	api.Get("/user-stats", s.handleUserStats)

	api.Get("/watchlist", s.handleListWatchlist)
	api.Post("/watchlist", s.handleAddWatchlist)
	api.Delete("/watchlist", s.handleRemoveWatchlist)

	api.Get("/settings", s.handleGetSettings)
	api.Put("/settings", s.handlePutSettings)
	api.Get("/daily-summary", s.handleDailySummary)

	api.Get("/ideas", s.handleIdeas)
	api.Get("/onchain/track", s.handleTrackTx)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	if s.deps.DB != nil {
		if err := s.deps.DB.Ping(c.UserContext()); err != nil {
			s.log.ErrorContext(c.UserContext(), "Failed to ping DB",
				"error", err)
			return respondError(c, fiber.StatusServiceUnavailable, "database unavailable")
		}
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

// handleError keeps every failure in the JSON shape the client expects.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	if code >= fiber.StatusInternalServerError {
		s.log.ErrorContext(c.UserContext(), "Request failed",
			"error", err,
			"method", c.Method(),
			"path", c.Path())
	}

	return respondError(c, code, message)
}
