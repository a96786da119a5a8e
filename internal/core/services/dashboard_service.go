package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/lewiswilliams7/refrr-sub000/internal/core/domain"
	"github.com/lewiswilliams7/refrr-sub000/internal/core/ports"
)

// dashboardMonths is how far back the monthly referral series reaches.
const dashboardMonths = 12

type dashboardService struct {
	referrals  ports.ReferralRepository
	campaigns  ports.CampaignRepository
	businesses ports.BusinessRepository
	logger     *zap.Logger
}

func NewDashboardService(referrals ports.ReferralRepository, campaigns ports.CampaignRepository, businesses ports.BusinessRepository, logger *zap.Logger) ports.DashboardService {
	return &dashboardService{
		referrals:  referrals,
		campaigns:  campaigns,
		businesses: businesses,
		logger:     logger,
	}
}

// Summary aggregates straight from the referrals table, so it reflects
// transitions the denormalized campaign counters may not have caught up
// with yet.
func (s *dashboardService) Summary(ctx context.Context, ident domain.Identity) (*domain.DashboardSummary, error) {
	if ident.Role != domain.RoleBusiness && ident.Role != domain.RoleAdmin {
		return nil, domain.E(domain.KindForbidden, "a business account is required")
	}
	business, err := s.businesses.GetByAccountID(ctx, ident.AccountID)
	if err != nil {
		return nil, err
	}

	byStatus, err := s.referrals.CountByStatus(ctx, business.ID)
	if err != nil {
		return nil, err
	}

	monthly, err := s.referrals.CountByMonth(ctx, business.ID, dashboardMonths)
	if err != nil {
		return nil, err
	}

	campaigns, err := s.campaigns.ListByBusiness(ctx, business.ID)
	if err != nil {
		return nil, err
	}

	summary := &domain.DashboardSummary{
		TotalCampaigns: len(campaigns),
		ByStatus:       byStatus,
		Monthly:        monthly,
	}
	for _, c := range campaigns {
		if c.Status == domain.CampaignActive {
			summary.ActiveCampaigns++
		}
	}
	for status, count := range byStatus {
		summary.TotalReferrals += count
		if status.IsSuccessful() {
			summary.SuccessfulReferrals += count
		}
	}
	if summary.TotalReferrals > 0 {
		summary.ConversionRate = float64(summary.SuccessfulReferrals) / float64(summary.TotalReferrals) * 100
	}

	return summary, nil
}
