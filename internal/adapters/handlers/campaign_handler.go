package handlers

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/lewiswilliams7/refrr-sub000/internal/adapters/middleware"
	"github.com/lewiswilliams7/refrr-sub000/internal/core/domain"
	"github.com/lewiswilliams7/refrr-sub000/internal/core/ports"
)

type CampaignHandler struct {
	Service ports.CampaignService
	Logger  *zap.Logger
}

func NewCampaignHandler(service ports.CampaignService, logger *zap.Logger) *CampaignHandler {
	return &CampaignHandler{Service: service, Logger: logger}
}

type CreateCampaignRequest struct {
	Title             string     `json:"title" example:"Spring referral drive"`
	Description       string     `json:"description,omitempty"`
	RewardType        string     `json:"reward_type" example:"percentage"`
	RewardValue       float64    `json:"reward_value" example:"10"`
	RewardDescription string     `json:"reward_description" example:"10% off the next order"`
	Status            string     `json:"status,omitempty" example:"active"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	MaxReferrals      *int       `json:"max_referrals,omitempty" example:"500"`
}

type UpdateCampaignStatusRequest struct {
	Status string `json:"status" example:"paused"`
}

// Create godoc
// @Summary      Create a campaign
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Router       /api/campaigns [post]
func (h *CampaignHandler) Create(c fiber.Ctx) error {
	ident := middleware.Identity(c)
	if ident == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Message: "Unauthorized"})
	}

	var req CreateCampaignRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Message: "Invalid request body"})
	}

	campaign := &domain.Campaign{
		Title:             req.Title,
		Description:       req.Description,
		RewardType:        domain.RewardType(req.RewardType),
		RewardValue:       req.RewardValue,
		RewardDescription: req.RewardDescription,
		Status:            domain.CampaignStatus(req.Status),
		ExpiresAt:         req.ExpiresAt,
		MaxReferrals:      req.MaxReferrals,
	}

	created, err := h.Service.Create(c.Context(), *ident, campaign)
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// Get godoc
// @Summary      Fetch an owned campaign
// @Tags         campaigns
// @Produce      json
// @Router       /api/campaigns/{id} [get]
func (h *CampaignHandler) Get(c fiber.Ctx) error {
	ident := middleware.Identity(c)
	if ident == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Message: "Unauthorized"})
	}

	campaign, err := h.Service.Get(c.Context(), *ident, c.Params("id"))
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	return c.JSON(campaign)
}

// List godoc
// @Summary      List the caller's campaigns
// @Tags         campaigns
// @Produce      json
// @Router       /api/campaigns [get]
func (h *CampaignHandler) List(c fiber.Ctx) error {
	ident := middleware.Identity(c)
	if ident == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Message: "Unauthorized"})
	}

	campaigns, err := h.Service.List(c.Context(), *ident)
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	return c.JSON(campaigns)
}

// UpdateStatus godoc
// @Summary      Toggle a campaign's status
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Router       /api/campaigns/{id}/status [patch]
func (h *CampaignHandler) UpdateStatus(c fiber.Ctx) error {
	ident := middleware.Identity(c)
	if ident == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Message: "Unauthorized"})
	}

	var req UpdateCampaignStatusRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Message: "Invalid request body"})
	}

	campaign, err := h.Service.UpdateStatus(c.Context(), *ident, c.Params("id"), domain.CampaignStatus(req.Status))
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	return c.JSON(campaign)
}
