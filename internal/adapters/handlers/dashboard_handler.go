package handlers

import (
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/lewiswilliams7/refrr-sub000/internal/adapters/middleware"
	"github.com/lewiswilliams7/refrr-sub000/internal/core/ports"
)

type DashboardHandler struct {
	Service ports.DashboardService
	Logger  *zap.Logger
}

func NewDashboardHandler(service ports.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{Service: service, Logger: logger}
}

// Summary godoc
// @Summary      Business dashboard summary
// @Description  Referral counts by status and month plus campaign totals, aggregated live from the referrals table.
// @Tags         dashboard
// @Produce      json
// @Router       /api/dashboard [get]
func (h *DashboardHandler) Summary(c fiber.Ctx) error {
	ident := middleware.Identity(c)
	if ident == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Message: "Unauthorized"})
	}

	summary, err := h.Service.Summary(c.Context(), *ident)
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	return c.JSON(summary)
}
