package server

import (
	"wingman/internal/domain"

	"github.com/gofiber/fiber/v2"
)

type putSettingRequest struct {
	FID   int64  `json:"fid"`
	Key   string `json:"key"`
	Value *bool  `json:"value"`
}

func (s *Server) handleGetSettings(c *fiber.Ctx) error {
	fid, err := queryFID(c)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, err.Error())
	}

	settings, err := s.deps.Settings.GetUserSettingsWithDefault(c.UserContext(), fid)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": settings})
}

func (s *Server) handlePutSettings(c *fiber.Ctx) error {
	var req putSettingRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if req.FID <= 0 {
		return respondError(c, fiber.StatusBadRequest, errInvalidFID.Error())
	}

	key, err := domain.ParseSettingKey(req.Key)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, err.Error())
	}

	if req.Value == nil {
		return respondError(c, fiber.StatusBadRequest, "value is required")
	}

	if err = s.deps.Settings.UpsertUserSetting(c.UserContext(), req.FID, key, *req.Value); err != nil {
		return err
	}

	settings, err := s.deps.Settings.GetUserSettingsWithDefault(c.UserContext(), req.FID)
	if err != nil {
		return err
	}

	s.log.InfoContext(c.UserContext(), "Setting is updated",
		"fid", req.FID,
		"key", key,
		"value", *req.Value)

	return c.JSON(fiber.Map{"data": settings})
}

func (s *Server) handleDailySummary(c *fiber.Ctx) error {
	fid, err := queryFID(c)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, err.Error())
	}

	summary, err := s.deps.Settings.LatestDailySummary(c.UserContext(), fid)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": summary})
}
