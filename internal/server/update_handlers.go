package server

import (
	"errors"
	"time"

	"wingman/internal/domain"
	"wingman/internal/insights"
	"wingman/internal/neynar"
	"wingman/internal/source"

	"github.com/gofiber/fiber/v2"
)

type updateResponse struct {
	Summary        string `json:"summary"`
	IsLive         bool   `json:"isLive"`
	PostCount      int    `json:"postCount"`
	UserID         string `json:"userId,omitempty"`
	ThemesDetected int    `json:"themesDetected,omitempty"`
	ErrorType      string `json:"errorType,omitempty"`
	WaitUntil      string `json:"waitUntil,omitempty"`
	WaitSeconds    int64  `json:"waitSeconds,omitempty"`
}

func newUpdateResponse(summary domain.Summary) updateResponse {
	resp := updateResponse{
		Summary:     summary.Text,
		IsLive:      summary.IsLive,
		PostCount:   summary.PostCount,
		UserID:      summary.UserID,
		ErrorType:   summary.ErrorType,
		WaitSeconds: summary.WaitSeconds,
	}
	if summary.IsLive {
		resp.ThemesDetected = summary.ThemeCount
	}
	if !summary.WaitUntil.IsZero() {
		resp.WaitUntil = summary.WaitUntil.UTC().Format(time.RFC3339)
	}
	return resp
}

func (s *Server) project(c *fiber.Ctx) string {
	if project := insights.NormalizeProject(c.Query("project")); project != "" {
		return project
	}
	return s.cfg.DefaultProject
}

func (s *Server) handleUpdate(c *fiber.Ctx) error {
	platform, err := domain.ParsePlatform(c.Query("platform"))
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, err.Error())
	}

	summary, err := s.deps.Updater.Update(c.UserContext(), s.project(c), platform)
	if err != nil {
		// Misconfiguration still answers with the fallback body.
		s.log.ErrorContext(c.UserContext(), "Failed to update project",
			"error", err,
			"project", summary.Project,
			"platform", platform)
		return c.Status(fiber.StatusInternalServerError).JSON(newUpdateResponse(summary))
	}

	return c.JSON(newUpdateResponse(summary))
}

func (s *Server) handleUserStats(c *fiber.Ctx) error {
	fid, err := queryFID(c)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, err.Error())
	}

	stats, err := s.deps.UserStats.UserStats(c.UserContext(), fid)
	if err == nil {
		return c.JSON(stats)
	}

	s.log.ErrorContext(c.UserContext(), "Failed to fetch user stats",
		"error", err,
		"fid", fid)

	var statusErr *neynar.StatusError
	switch {
	case errors.Is(err, neynar.ErrMissingAPIKey):
		return respondError(c, fiber.StatusInternalServerError, "API configuration error")
	case errors.Is(err, neynar.ErrUserNotFound):
		return respondError(c, fiber.StatusNotFound, "User not found")
	case errors.As(err, &statusErr):
		return respondError(c, statusErr.Code, "Failed to fetch user data from Neynar")
	default:
		return respondError(c, fiber.StatusInternalServerError, "Internal server error")
	}
}

func (s *Server) handleIdeas(c *fiber.Ctx) error {
	platform, err := domain.ParsePlatform(c.Query("platform"))
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, err.Error())
	}

	project := s.project(c)

	// A fallback summary is still a usable base for ideas.
	summary, err := s.deps.Updater.Update(c.UserContext(), project, platform)
	if err != nil && !errors.Is(err, source.ErrMissingToken) {
		return err
	}

	generated, err := s.deps.Ideas.Generate(c.UserContext(), project, summary)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"project": project,
		"ideas":   generated,
		"summary": newUpdateResponse(summary),
	})
}

func (s *Server) handleTrackTx(c *fiber.Ctx) error {
	project := insights.NormalizeProject(c.Query("project"))
	if project == "" {
		return respondError(c, fiber.StatusBadRequest, "Project handle is required")
	}

	tx, err := s.deps.Tracker.TrackTx(project)
	if err != nil {
		return err
	}

	return c.JSON(tx)
}
