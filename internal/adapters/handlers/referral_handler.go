package handlers

import (
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/lewiswilliams7/refrr-sub000/internal/adapters/middleware"
	"github.com/lewiswilliams7/refrr-sub000/internal/core/domain"
	"github.com/lewiswilliams7/refrr-sub000/internal/core/ports"
)

type ReferralHandler struct {
	Service ports.ReferralService
	Logger  *zap.Logger
}

func NewReferralHandler(service ports.ReferralService, logger *zap.Logger) *ReferralHandler {
	return &ReferralHandler{Service: service, Logger: logger}
}

type CreateReferralRequest struct {
	CampaignID    string `json:"campaign_id" example:"7f6c2a1e-..."`
	ReferrerEmail string `json:"referrer_email" example:"jane@example.com"`
}

type GenerateLinkRequest struct {
	ReferrerEmail string `json:"referrer_email,omitempty" example:"jane@example.com"`
}

type GenerateLinkResponse struct {
	Referral *domain.Referral `json:"referral"`
	Link     string           `json:"link" example:"https://app.refrr.io/referral/AB12CD34"`
}

type CompleteReferralRequest struct {
	ReferredEmail string  `json:"referred_email" example:"john@example.com"`
	ReferredName  *string `json:"referred_name,omitempty" example:"John Doe"`
	ReferredPhone *string `json:"referred_phone,omitempty" example:"+15550100"`
}

type UpdateReferralStatusRequest struct {
	Status string `json:"status" example:"approved"`
}

// Create godoc
// @Summary      Create a referral
// @Description  Create a pending referral for an owned campaign with the referrer attached up front.
// @Tags         referrals
// @Accept       json
// @Produce      json
// @Router       /api/referrals [post]
func (h *ReferralHandler) Create(c fiber.Ctx) error {
	ident := middleware.Identity(c)
	if ident == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Message: "Unauthorized"})
	}

	var req CreateReferralRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Message: "Invalid request body"})
	}
	if req.CampaignID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Message: "campaign_id is required"})
	}

	referral, err := h.Service.Create(c.Context(), *ident, req.CampaignID, req.ReferrerEmail)
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(referral)
}

// GenerateLink godoc
// @Summary      Generate a shareable referral link
// @Description  Mint a referral code for an active campaign and return the shareable URL. Works with or without authentication; an authenticated business must own the campaign.
// @Tags         referrals
// @Accept       json
// @Produce      json
// @Router       /api/referrals/generate/{campaignId} [post]
func (h *ReferralHandler) GenerateLink(c fiber.Ctx) error {
	var req GenerateLinkRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Message: "Invalid request body"})
		}
	}

	referral, link, err := h.Service.GenerateLink(c.Context(), middleware.Identity(c), c.Params("campaignId"), req.ReferrerEmail)
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(GenerateLinkResponse{Referral: referral, Link: link})
}

// GetByCode godoc
// @Summary      Fetch a referral by code
// @Description  Public referral page data. Each read counts as a view.
// @Tags         referrals
// @Produce      json
// @Router       /api/referrals/code/{code} [get]
func (h *ReferralHandler) GetByCode(c fiber.Ctx) error {
	page, err := h.Service.GetByCode(c.Context(), c.Params("code"))
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	return c.JSON(page)
}

// Complete godoc
// @Summary      Redeem a referral
// @Description  The referred party submits their details against a pending, non-expired code.
// @Tags         referrals
// @Accept       json
// @Produce      json
// @Router       /api/referrals/complete/{code} [post]
func (h *ReferralHandler) Complete(c fiber.Ctx) error {
	var req CompleteReferralRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Message: "Invalid request body"})
	}

	referral, err := h.Service.Complete(c.Context(), c.Params("code"), req.ReferredEmail, req.ReferredName, req.ReferredPhone)
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	return c.JSON(referral)
}

// UpdateStatus godoc
// @Summary      Approve or reject a referral
// @Tags         referrals
// @Accept       json
// @Produce      json
// @Router       /api/referrals/{id}/status [patch]
func (h *ReferralHandler) UpdateStatus(c fiber.Ctx) error {
	ident := middleware.Identity(c)
	if ident == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Message: "Unauthorized"})
	}

	var req UpdateReferralStatusRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Message: "Invalid request body"})
	}

	referral, err := h.Service.UpdateStatus(c.Context(), *ident, c.Params("id"), domain.ReferralStatus(req.Status))
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	return c.JSON(referral)
}

// Delete godoc
// @Summary      Delete a referral
// @Description  Hard delete; only the owning business may do this.
// @Tags         referrals
// @Produce      json
// @Router       /api/referrals/{id} [delete]
func (h *ReferralHandler) Delete(c fiber.Ctx) error {
	ident := middleware.Identity(c)
	if ident == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Message: "Unauthorized"})
	}

	if err := h.Service.Delete(c.Context(), *ident, c.Params("id")); err != nil {
		return respondError(c, h.Logger, err)
	}
	return c.JSON(MessageResponse{Message: "Referral deleted"})
}

// List godoc
// @Summary      List referrals scoped to the caller
// @Description  Businesses see referrals for campaigns they own; customers see referrals they shared.
// @Tags         referrals
// @Produce      json
// @Router       /api/referrals [get]
func (h *ReferralHandler) List(c fiber.Ctx) error {
	ident := middleware.Identity(c)
	if ident == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Message: "Unauthorized"})
	}

	var (
		items []domain.ReferralListItem
		err   error
	)
	if ident.Role == domain.RoleCustomer {
		items, err = h.Service.ListForCustomer(c.Context(), *ident)
	} else {
		items, err = h.Service.ListForBusiness(c.Context(), *ident)
	}
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	return c.JSON(items)
}
