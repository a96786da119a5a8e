package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lewiswilliams7/refrr-sub000/internal/core/domain"
	"github.com/lewiswilliams7/refrr-sub000/internal/core/ports"

	"github.com/google/uuid"
)

type campaignService struct {
	campaigns  ports.CampaignRepository
	businesses ports.BusinessRepository
	logger     *zap.Logger
	now        func() time.Time
}

func NewCampaignService(campaigns ports.CampaignRepository, businesses ports.BusinessRepository, logger *zap.Logger) ports.CampaignService {
	return &campaignService{
		campaigns:  campaigns,
		businesses: businesses,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *campaignService) Create(ctx context.Context, ident domain.Identity, campaign *domain.Campaign) (*domain.Campaign, error) {
	business, err := s.resolveBusiness(ctx, ident)
	if err != nil {
		return nil, err
	}

	campaign.Title = strings.TrimSpace(campaign.Title)
	if campaign.Title == "" {
		return nil, domain.E(domain.KindValidation, "title is required")
	}
	if err := campaign.ValidateReward(); err != nil {
		return nil, err
	}
	if campaign.MaxReferrals != nil && *campaign.MaxReferrals <= 0 {
		return nil, domain.E(domain.KindValidation, "max_referrals must be positive")
	}
	if campaign.Status == "" {
		campaign.Status = domain.CampaignDraft
	}
	if !campaign.Status.IsValid() {
		return nil, domain.E(domain.KindValidation, "status is not a valid campaign status")
	}

	now := s.now()
	campaign.ID = uuid.New().String()
	campaign.BusinessID = business.ID
	campaign.Analytics = domain.CampaignAnalytics{}
	campaign.CreatedAt = now
	campaign.UpdatedAt = now

	if err := s.campaigns.Save(ctx, campaign); err != nil {
		return nil, err
	}

	s.logger.Info("campaign created",
		zap.String("campaign_id", campaign.ID),
		zap.String("business_id", business.ID))
	return campaign, nil
}

func (s *campaignService) Get(ctx context.Context, ident domain.Identity, id string) (*domain.Campaign, error) {
	business, err := s.resolveBusiness(ctx, ident)
	if err != nil {
		return nil, err
	}
	campaign, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign.BusinessID != business.ID {
		return nil, domain.E(domain.KindForbidden, "campaign belongs to another business")
	}
	return campaign, nil
}

func (s *campaignService) List(ctx context.Context, ident domain.Identity) ([]*domain.Campaign, error) {
	business, err := s.resolveBusiness(ctx, ident)
	if err != nil {
		return nil, err
	}
	return s.campaigns.ListByBusiness(ctx, business.ID)
}

// UpdateStatus toggles a campaign between active and paused, or marks it
// completed. Draft campaigns may be activated; completed ones stay put.
func (s *campaignService) UpdateStatus(ctx context.Context, ident domain.Identity, id string, status domain.CampaignStatus) (*domain.Campaign, error) {
	if !status.IsValid() {
		return nil, domain.E(domain.KindValidation, "status is not a valid campaign status")
	}

	campaign, err := s.Get(ctx, ident, id)
	if err != nil {
		return nil, err
	}

	if campaign.Status == domain.CampaignCompleted {
		return nil, domain.E(domain.KindConflict, "campaign is already completed")
	}

	if err := s.campaigns.UpdateStatus(ctx, campaign.ID, status); err != nil {
		return nil, err
	}
	campaign.Status = status
	campaign.UpdatedAt = s.now()

	s.logger.Info("campaign status updated",
		zap.String("campaign_id", campaign.ID),
		zap.String("status", string(status)))
	return campaign, nil
}

func (s *campaignService) resolveBusiness(ctx context.Context, ident domain.Identity) (*domain.Business, error) {
	if ident.Role != domain.RoleBusiness && ident.Role != domain.RoleAdmin {
		return nil, domain.E(domain.KindForbidden, "a business account is required")
	}
	business, err := s.businesses.GetByAccountID(ctx, ident.AccountID)
	if err != nil {
		return nil, err
	}
	if business.Status == domain.BusinessSuspended {
		return nil, domain.E(domain.KindForbidden, "business account is suspended")
	}
	return business, nil
}
