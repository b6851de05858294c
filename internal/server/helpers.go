package server

import (
	"errors"
	"strconv"
	"strings"

	"wingman/internal/domain"

	"github.com/gofiber/fiber/v2"
)

var errInvalidFID = errors.New("FID parameter is required")

type errorResponse struct {
	Error  string              `json:"error"`
	Errors []domain.FieldError `json:"errors,omitempty"`
}

func respondError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(errorResponse{Error: message})
}

func respondValidation(c *fiber.Ctx, err *domain.ValidationError) error {
	return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
		Error:  err.Error(),
		Errors: err.Fields,
	})
}

func parseFID(raw string) (int64, error) {
	fid, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || fid <= 0 {
		return 0, errInvalidFID
	}
	return fid, nil
}

func queryFID(c *fiber.Ctx) (int64, error) {
	return parseFID(c.Query("fid"))
}
