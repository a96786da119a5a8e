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

type campaignFixture struct {
	campaigns  *fakeCampaignRepo
	businesses *fakeBusinessRepo
	svc        *campaignService
	now        time.Time
}

func newCampaignFixture(t *testing.T) *campaignFixture {
	t.Helper()
	f := &campaignFixture{
		campaigns:  newFakeCampaignRepo(),
		businesses: newFakeBusinessRepo(),
		now:        time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewCampaignService(f.campaigns, f.businesses, zap.NewNop()).(*campaignService)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *campaignFixture) seedBusiness(id, accountID string) domain.Identity {
	f.businesses.businesses[accountID] = &domain.Business{
		ID:        id,
		AccountID: accountID,
		Name:      "Acme " + id,
		Status:    domain.BusinessActive,
	}
	return domain.Identity{AccountID: accountID, Email: accountID + "@corp.test", Role: domain.RoleBusiness}
}

func TestCreateCampaign(t *testing.T) {
	f := newCampaignFixture(t)
	ident := f.seedBusiness("biz-1", "acc-1")

	campaign, err := f.svc.Create(context.Background(), ident, &domain.Campaign{
		Title:       "  Spring drive ",
		RewardType:  domain.RewardPercentage,
		RewardValue: 10,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, campaign.ID)
	assert.Equal(t, "Spring drive", campaign.Title)
	assert.Equal(t, "biz-1", campaign.BusinessID)
	assert.Equal(t, domain.CampaignDraft, campaign.Status)
	assert.Zero(t, campaign.Analytics.TotalReferrals)
	assert.Equal(t, f.now, campaign.CreatedAt)
}

func TestCreateCampaignValidation(t *testing.T) {
	f := newCampaignFixture(t)
	ident := f.seedBusiness("biz-1", "acc-1")
	zero := 0

	cases := []struct {
		name     string
		campaign domain.Campaign
	}{
		{"empty title", domain.Campaign{Title: "   ", RewardType: domain.RewardFixed, RewardValue: 5}},
		{"percentage over 100", domain.Campaign{Title: "C", RewardType: domain.RewardPercentage, RewardValue: 120}},
		{"percentage zero", domain.Campaign{Title: "C", RewardType: domain.RewardPercentage, RewardValue: 0}},
		{"fixed negative", domain.Campaign{Title: "C", RewardType: domain.RewardFixed, RewardValue: -1}},
		{"unknown reward type", domain.Campaign{Title: "C", RewardType: "points", RewardValue: 5}},
		{"non-positive cap", domain.Campaign{Title: "C", RewardType: domain.RewardFixed, RewardValue: 5, MaxReferrals: &zero}},
		{"bogus status", domain.Campaign{Title: "C", RewardType: domain.RewardFixed, RewardValue: 5, Status: "archived"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			campaign := tc.campaign
			_, err := f.svc.Create(context.Background(), ident, &campaign)
			require.Error(t, err)
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
		})
	}
}

func TestCreateCampaignRequiresBusinessRole(t *testing.T) {
	f := newCampaignFixture(t)
	customer := domain.Identity{AccountID: "acc-c", Email: "c@x.test", Role: domain.RoleCustomer}

	_, err := f.svc.Create(context.Background(), customer, &domain.Campaign{
		Title: "C", RewardType: domain.RewardFixed, RewardValue: 5,
	})
	require.Error(t, err)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
}

func TestGetCampaignOwnership(t *testing.T) {
	f := newCampaignFixture(t)
	identA := f.seedBusiness("biz-a", "acc-a")
	identB := f.seedBusiness("biz-b", "acc-b")

	campaign, err := f.svc.Create(context.Background(), identA, &domain.Campaign{
		Title: "C", RewardType: domain.RewardFixed, RewardValue: 5,
	})
	require.NoError(t, err)

	got, err := f.svc.Get(context.Background(), identA, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, campaign.ID, got.ID)

	_, err = f.svc.Get(context.Background(), identB, campaign.ID)
	require.Error(t, err)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
}

func TestUpdateCampaignStatus(t *testing.T) {
	f := newCampaignFixture(t)
	ident := f.seedBusiness("biz-1", "acc-1")
	campaign, err := f.svc.Create(context.Background(), ident, &domain.Campaign{
		Title: "C", RewardType: domain.RewardFixed, RewardValue: 5,
	})
	require.NoError(t, err)

	for _, status := range []domain.CampaignStatus{
		domain.CampaignActive, domain.CampaignPaused,
		domain.CampaignActive, domain.CampaignCompleted,
	} {
		updated, err := f.svc.UpdateStatus(context.Background(), ident, campaign.ID, status)
		require.NoError(t, err, "to %q", status)
		assert.Equal(t, status, updated.Status)
	}

	// Completed campaigns stay completed.
	_, err = f.svc.UpdateStatus(context.Background(), ident, campaign.ID, domain.CampaignActive)
	require.Error(t, err)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestUpdateCampaignStatusRejectsUnknown(t *testing.T) {
	f := newCampaignFixture(t)
	ident := f.seedBusiness("biz-1", "acc-1")
	campaign, err := f.svc.Create(context.Background(), ident, &domain.Campaign{
		Title: "C", RewardType: domain.RewardFixed, RewardValue: 5,
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), ident, campaign.ID, "archived")
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestListCampaigns(t *testing.T) {
	f := newCampaignFixture(t)
	identA := f.seedBusiness("biz-a", "acc-a")
	identB := f.seedBusiness("biz-b", "acc-b")

	for i := 0; i < 3; i++ {
		_, err := f.svc.Create(context.Background(), identA, &domain.Campaign{
			Title: "C", RewardType: domain.RewardFixed, RewardValue: 5,
		})
		require.NoError(t, err)
	}

	listA, err := f.svc.List(context.Background(), identA)
	require.NoError(t, err)
	assert.Len(t, listA, 3)

	listB, err := f.svc.List(context.Background(), identB)
	require.NoError(t, err)
	assert.Empty(t, listB)
}

func TestSuspendedBusinessLocked(t *testing.T) {
	f := newCampaignFixture(t)
	ident := f.seedBusiness("biz-1", "acc-1")
	f.businesses.businesses["acc-1"].Status = domain.BusinessSuspended

	_, err := f.svc.List(context.Background(), ident)
	require.Error(t, err)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
}
