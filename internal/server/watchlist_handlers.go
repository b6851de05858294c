package server

import (
	"errors"
	"strings"

	"wingman/internal/domain"
	"wingman/internal/watchlist"

	"github.com/gofiber/fiber/v2"
)

type addWatchlistRequest struct {
	FID         int64  `json:"fid"`
	Project     string `json:"project"`
	Platform    string `json:"platform"`
	Description string `json:"description"`
}

func (s *Server) handleListWatchlist(c *fiber.Ctx) error {
	fid, err := queryFID(c)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "FID required")
	}

	entries, err := s.deps.Watchlist.List(c.UserContext(), fid)
	if err != nil {
		return err
	}

	projects := make([]string, 0, len(entries))
	for _, e := range entries {
		projects = append(projects, e.Project)
	}

	return c.JSON(fiber.Map{"data": projects})
}

func (s *Server) handleAddWatchlist(c *fiber.Ctx) error {
	var req addWatchlistRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	platform, err := domain.ParsePlatform(req.Platform)
	if err != nil {
		return respondValidation(c, &domain.ValidationError{Fields: []domain.FieldError{{
			Field:   watchlist.FieldPlatform,
			Message: "Platform must be X or Farcaster",
		}}})
	}

	entry, err := s.deps.Watchlist.Add(c.UserContext(), domain.WatchlistEntry{
		FID:         req.FID,
		Project:     req.Project,
		Platform:    platform,
		Description: req.Description,
	})

	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return respondValidation(c, vErr)
	}
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": entry})
}

func (s *Server) handleRemoveWatchlist(c *fiber.Ctx) error {
	fid, err := queryFID(c)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "FID required")
	}

	removed, err := s.deps.Watchlist.Remove(c.UserContext(), fid, strings.TrimSpace(c.Query("project")))

	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return respondValidation(c, vErr)
	}
	if err != nil {
		return err
	}

	if !removed {
		return respondError(c, fiber.StatusNotFound, "Project is not in the watchlist")
	}

	return c.JSON(fiber.Map{"data": fiber.Map{"removed": true}})
}
