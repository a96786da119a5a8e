package handlers

import (
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/lewiswilliams7/refrr-sub000/internal/core/domain"
)

type ErrorResponse struct {
	Message string `json:"message" example:"Invalid input"`
}

type MessageResponse struct {
	Message string `json:"message" example:"OK"`
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return fiber.StatusBadRequest
	case domain.KindNotFound:
		return fiber.StatusNotFound
	case domain.KindUnauthorized:
		return fiber.StatusUnauthorized
	case domain.KindForbidden:
		return fiber.StatusForbidden
	case domain.KindConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError translates a classified error into the `{message}` wire
// shape. Unclassified failures are logged with full detail and leave only
// a generic message in the response.
func respondError(c fiber.Ctx, logger *zap.Logger, err error) error {
	kind := domain.KindOf(err)
	if kind == domain.KindUnavailable {
		logger.Error("request failed",
			zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(statusFor(kind)).JSON(ErrorResponse{Message: domain.MessageOf(err)})
}
