package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lewiswilliams7/refrr-sub000/internal/core/domain"
)

func TestDashboardSummary(t *testing.T) {
	referrals := newFakeReferralRepo()
	campaigns := newFakeCampaignRepo()
	businesses := newFakeBusinessRepo()
	businesses.businesses["acc-1"] = &domain.Business{
		ID: "biz-1", AccountID: "acc-1", Name: "Acme", Status: domain.BusinessActive,
	}
	ident := domain.Identity{AccountID: "acc-1", Email: "acc-1@corp.test", Role: domain.RoleBusiness}

	campaigns.campaigns["camp-1"] = &domain.Campaign{ID: "camp-1", BusinessID: "biz-1", Status: domain.CampaignActive}
	campaigns.campaigns["camp-2"] = &domain.Campaign{ID: "camp-2", BusinessID: "biz-1", Status: domain.CampaignPaused}
	campaigns.campaigns["camp-x"] = &domain.Campaign{ID: "camp-x", BusinessID: "biz-other", Status: domain.CampaignActive}

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	seed := func(id string, status domain.ReferralStatus, createdAt time.Time) {
		referrals.referrals[id] = &domain.Referral{
			ID: id, CampaignID: "camp-1", BusinessID: "biz-1",
			ReferrerEmail: "jane@example.com", Code: "CODE" + id,
			Status: status, CreatedAt: createdAt, UpdatedAt: createdAt,
		}
	}
	seed("r1", domain.ReferralPending, base)
	seed("r2", domain.ReferralApproved, base)
	seed("r3", domain.ReferralCompleted, base.AddDate(0, -1, 0))
	seed("r4", domain.ReferralRejected, base.AddDate(0, -1, 0))
	seed("r5", domain.ReferralExpired, base.AddDate(0, -2, 0))

	// Another business's referral must not leak in.
	referrals.referrals["rx"] = &domain.Referral{
		ID: "rx", CampaignID: "camp-x", BusinessID: "biz-other",
		Code: "CODERX", Status: domain.ReferralCompleted, CreatedAt: base,
	}

	svc := NewDashboardService(referrals, campaigns, businesses, zap.NewNop())
	summary, err := svc.Summary(context.Background(), ident)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalCampaigns)
	assert.Equal(t, 1, summary.ActiveCampaigns)
	assert.Equal(t, 5, summary.TotalReferrals)
	assert.Equal(t, 2, summary.SuccessfulReferrals)
	assert.InDelta(t, 40.0, summary.ConversionRate, 0.001)

	assert.Equal(t, 1, summary.ByStatus[domain.ReferralPending])
	assert.Equal(t, 1, summary.ByStatus[domain.ReferralApproved])
	assert.Equal(t, 1, summary.ByStatus[domain.ReferralCompleted])

	require.Len(t, summary.Monthly, 3)
	assert.True(t, summary.Monthly[0].Month.Before(summary.Monthly[1].Month))
	assert.Equal(t, 2, summary.Monthly[2].Count)
}

func TestDashboardSummaryEmpty(t *testing.T) {
	businesses := newFakeBusinessRepo()
	businesses.businesses["acc-1"] = &domain.Business{
		ID: "biz-1", AccountID: "acc-1", Status: domain.BusinessActive,
	}
	ident := domain.Identity{AccountID: "acc-1", Role: domain.RoleBusiness}

	svc := NewDashboardService(newFakeReferralRepo(), newFakeCampaignRepo(), businesses, zap.NewNop())
	summary, err := svc.Summary(context.Background(), ident)
	require.NoError(t, err)

	assert.Zero(t, summary.TotalReferrals)
	assert.Zero(t, summary.ConversionRate)
	assert.Empty(t, summary.Monthly)
}

func TestDashboardSummaryRequiresBusiness(t *testing.T) {
	svc := NewDashboardService(newFakeReferralRepo(), newFakeCampaignRepo(), newFakeBusinessRepo(), zap.NewNop())

	customer := domain.Identity{AccountID: "acc-c", Role: domain.RoleCustomer}
	_, err := svc.Summary(context.Background(), customer)
	require.Error(t, err)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
}
