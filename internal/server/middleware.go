package server

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

func requestLogger(log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		fields := []any{
			"status", c.Response().StatusCode(),
			"method", c.Method(),
			"path", c.Path(),
			"latency", time.Since(start),
		}
		if rid, ok := c.Locals("requestid").(string); ok {
			fields = append(fields, "requestID", rid)
		}

		if err != nil {
			fields = append(fields, "error", err)
			log.WarnContext(c.UserContext(), "Request is failed", fields...)
		} else {
			log.DebugContext(c.UserContext(), "Request is processed", fields...)
		}

		return err
	}
}

func (s *Server) cronAuth(c *fiber.Ctx) error {
	if s.cfg.CronSecret == "" {
		return c.Next()
	}

	if c.Get(fiber.HeaderAuthorization) != "Bearer "+s.cfg.CronSecret {
		return respondError(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	return c.Next()
}
