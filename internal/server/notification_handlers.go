package server

import (
	"errors"

	"wingman/internal/digest"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) handleCronNotifications(c *fiber.Ctx) error {
	report, err := s.deps.Digest.Run(c.UserContext())
	if errors.Is(err, digest.ErrNotConfigured) {
		return respondError(c, fiber.StatusInternalServerError, "Neynar API key not configured")
	}
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status":    "Notifications sent",
		"users":     report.Users,
		"delivered": report.Delivered,
		"skipped":   report.Skipped,
		"failed":    report.Failed,
	})
}
