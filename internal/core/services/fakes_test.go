package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lewiswilliams7/refrr-sub000/internal/core/domain"
	"github.com/lewiswilliams7/refrr-sub000/internal/core/ports"
)

// In-memory fakes for the repository and notifier ports. They reproduce
// the semantics the Postgres adapters provide, including the conditional
// status writes.

type fakeReferralRepo struct {
	mu        sync.Mutex
	referrals map[string]*domain.Referral

	// forcedCollisions makes the next N existence checks report a hit,
	// whatever the code, so the generator's redraw loop can be exercised.
	forcedCollisions int
	// saveConflicts makes the next N saves fail with a duplicate-code
	// conflict, mimicking the unique index firing.
	saveConflicts int
}

func newFakeReferralRepo() *fakeReferralRepo {
	return &fakeReferralRepo{
		referrals: map[string]*domain.Referral{},
	}
}

func (f *fakeReferralRepo) Save(_ context.Context, referral *domain.Referral) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveConflicts > 0 {
		f.saveConflicts--
		return domain.E(domain.KindConflict, "referral code already exists")
	}
	for _, existing := range f.referrals {
		if existing.Code == referral.Code {
			return domain.E(domain.KindConflict, "referral code already exists")
		}
	}
	clone := *referral
	f.referrals[referral.ID] = &clone
	return nil
}

func (f *fakeReferralRepo) GetByID(_ context.Context, id string) (*domain.Referral, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	referral, ok := f.referrals[id]
	if !ok {
		return nil, domain.E(domain.KindNotFound, "referral not found")
	}
	clone := *referral
	return &clone, nil
}

func (f *fakeReferralRepo) GetByCode(_ context.Context, code string) (*domain.Referral, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, referral := range f.referrals {
		if referral.Code == code {
			clone := *referral
			return &clone, nil
		}
	}
	return nil, domain.E(domain.KindNotFound, "referral not found")
}

func (f *fakeReferralRepo) ExistsByCode(_ context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.forcedCollisions > 0 {
		f.forcedCollisions--
		return true, nil
	}
	for _, referral := range f.referrals {
		if referral.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReferralRepo) ListByBusiness(_ context.Context, businessID string) ([]domain.ReferralListItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := []domain.ReferralListItem{}
	for _, referral := range f.referrals {
		if referral.BusinessID == businessID {
			items = append(items, domain.ReferralListItem{Referral: *referral})
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (f *fakeReferralRepo) ListByReferrer(_ context.Context, referrerEmail string) ([]domain.ReferralListItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := []domain.ReferralListItem{}
	for _, referral := range f.referrals {
		if referral.ReferrerEmail == referrerEmail {
			items = append(items, domain.ReferralListItem{Referral: *referral})
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (f *fakeReferralRepo) Complete(_ context.Context, id string, referredEmail string, referredName, referredPhone *string, completedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	referral, ok := f.referrals[id]
	if !ok || referral.Status != domain.ReferralPending {
		return false, nil
	}
	source := domain.SourceSelfRedemption
	referral.Status = domain.ReferralCompleted
	referral.ReferredEmail = &referredEmail
	referral.ReferredName = referredName
	referral.ReferredPhone = referredPhone
	referral.CompletionSource = &source
	referral.CompletedAt = &completedAt
	referral.UpdatedAt = completedAt
	return true, nil
}

func (f *fakeReferralRepo) SetStatus(_ context.Context, id string, status domain.ReferralStatus, source *domain.CompletionSource, completedAt *time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	referral, ok := f.referrals[id]
	if !ok || referral.Status != domain.ReferralPending {
		return false, nil
	}
	referral.Status = status
	referral.CompletionSource = source
	referral.CompletedAt = completedAt
	return true, nil
}

func (f *fakeReferralRepo) TrackView(_ context.Context, id string, viewedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	referral, ok := f.referrals[id]
	if !ok {
		return domain.E(domain.KindNotFound, "referral not found")
	}
	referral.Tracking.ViewCount++
	referral.Tracking.LastViewed = &viewedAt
	return nil
}

func (f *fakeReferralRepo) CountByStatus(_ context.Context, businessID string) (map[domain.ReferralStatus]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[domain.ReferralStatus]int{}
	for _, referral := range f.referrals {
		if referral.BusinessID == businessID {
			counts[referral.Status]++
		}
	}
	return counts, nil
}

func (f *fakeReferralRepo) CountByMonth(_ context.Context, businessID string, months int) ([]domain.MonthlyReferralCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byMonth := map[time.Time]int{}
	for _, referral := range f.referrals {
		if referral.BusinessID == businessID {
			month := time.Date(referral.CreatedAt.Year(), referral.CreatedAt.Month(), 1, 0, 0, 0, 0, time.UTC)
			byMonth[month]++
		}
	}
	counts := []domain.MonthlyReferralCount{}
	for month, count := range byMonth {
		counts = append(counts, domain.MonthlyReferralCount{Month: month, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Month.Before(counts[j].Month) })
	return counts, nil
}

func (f *fakeReferralRepo) CountByCampaign(_ context.Context, campaignID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, referral := range f.referrals {
		if referral.CampaignID == campaignID {
			count++
		}
	}
	return count, nil
}

func (f *fakeReferralRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.referrals[id]; !ok {
		return domain.E(domain.KindNotFound, "referral not found")
	}
	delete(f.referrals, id)
	return nil
}

// stored returns the underlying record without copying, for assertions.
func (f *fakeReferralRepo) stored(id string) *domain.Referral {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.referrals[id]
}

type fakeCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[string]*domain.Campaign
	refreshed []string
}

func newFakeCampaignRepo() *fakeCampaignRepo {
	return &fakeCampaignRepo{campaigns: map[string]*domain.Campaign{}}
}

func (f *fakeCampaignRepo) Save(_ context.Context, campaign *domain.Campaign) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *campaign
	f.campaigns[campaign.ID] = &clone
	return nil
}

func (f *fakeCampaignRepo) GetByID(_ context.Context, id string) (*domain.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	campaign, ok := f.campaigns[id]
	if !ok {
		return nil, domain.E(domain.KindNotFound, "campaign not found")
	}
	clone := *campaign
	return &clone, nil
}

func (f *fakeCampaignRepo) ListByBusiness(_ context.Context, businessID string) ([]*domain.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	campaigns := []*domain.Campaign{}
	for _, campaign := range f.campaigns {
		if campaign.BusinessID == businessID {
			clone := *campaign
			campaigns = append(campaigns, &clone)
		}
	}
	return campaigns, nil
}

func (f *fakeCampaignRepo) UpdateStatus(_ context.Context, id string, status domain.CampaignStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	campaign, ok := f.campaigns[id]
	if !ok {
		return domain.E(domain.KindNotFound, "campaign not found")
	}
	campaign.Status = status
	return nil
}

func (f *fakeCampaignRepo) RefreshAnalytics(_ context.Context, campaignID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed = append(f.refreshed, campaignID)
	return nil
}

type fakeBusinessRepo struct {
	businesses map[string]*domain.Business // keyed by account id
}

func newFakeBusinessRepo() *fakeBusinessRepo {
	return &fakeBusinessRepo{businesses: map[string]*domain.Business{}}
}

func (f *fakeBusinessRepo) GetByID(_ context.Context, id string) (*domain.Business, error) {
	for _, business := range f.businesses {
		if business.ID == id {
			return business, nil
		}
	}
	return nil, domain.E(domain.KindNotFound, "business not found")
}

func (f *fakeBusinessRepo) GetByAccountID(_ context.Context, accountID string) (*domain.Business, error) {
	business, ok := f.businesses[accountID]
	if !ok {
		return nil, domain.E(domain.KindNotFound, "business not found")
	}
	return business, nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	sent    []ports.Email
	failAll bool
}

func (f *fakeNotifier) Send(_ context.Context, email ports.Email) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return domain.E(domain.KindUnavailable, "smtp down")
	}
	f.sent = append(f.sent, email)
	return nil
}

func (f *fakeNotifier) recipients() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	to := make([]string, len(f.sent))
	for i, email := range f.sent {
		to[i] = email.To
	}
	return to
}
