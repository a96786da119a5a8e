package ports

import (
	"context"
	"time"

	"github.com/lewiswilliams7/refrr-sub000/internal/core/domain"
)

type ReferralRepository interface {
	Save(ctx context.Context, referral *domain.Referral) error
	GetByID(ctx context.Context, id string) (*domain.Referral, error)
	GetByCode(ctx context.Context, code string) (*domain.Referral, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	ListByBusiness(ctx context.Context, businessID string) ([]domain.ReferralListItem, error)
	ListByReferrer(ctx context.Context, referrerEmail string) ([]domain.ReferralListItem, error)
	// Complete performs the pending→completed transition as a single
	// conditional write. It reports false when the referral was no longer
	// pending, which is how a lost redemption race surfaces.
	Complete(ctx context.Context, id string, referredEmail string, referredName, referredPhone *string, completedAt time.Time) (bool, error)
	// SetStatus moves a pending referral to the target status. Returns
	// false when the referral was not pending anymore.
	SetStatus(ctx context.Context, id string, status domain.ReferralStatus, source *domain.CompletionSource, completedAt *time.Time) (bool, error)
	TrackView(ctx context.Context, id string, viewedAt time.Time) error
	CountByStatus(ctx context.Context, businessID string) (map[domain.ReferralStatus]int, error)
	CountByMonth(ctx context.Context, businessID string, months int) ([]domain.MonthlyReferralCount, error)
	CountByCampaign(ctx context.Context, campaignID string) (int, error)
	Delete(ctx context.Context, id string) error
}

type CampaignRepository interface {
	Save(ctx context.Context, campaign *domain.Campaign) error
	GetByID(ctx context.Context, id string) (*domain.Campaign, error)
	ListByBusiness(ctx context.Context, businessID string) ([]*domain.Campaign, error)
	UpdateStatus(ctx context.Context, id string, status domain.CampaignStatus) error
	// RefreshAnalytics re-aggregates the campaign's referral counters from
	// the referrals table and recomputes the conversion rate.
	RefreshAnalytics(ctx context.Context, campaignID string) error
}

type BusinessRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Business, error)
	GetByAccountID(ctx context.Context, accountID string) (*domain.Business, error)
}

type CacheRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttlSeconds int) error
}

type Email struct {
	To      string
	Subject string
	Body    string
}

// Notifier delivers outbound email. Sends are best-effort relative to the
// state transition that triggered them; callers log failures and move on.
type Notifier interface {
	Send(ctx context.Context, email Email) error
}

type ReferralService interface {
	Create(ctx context.Context, ident domain.Identity, campaignID, referrerEmail string) (*domain.Referral, error)
	GenerateLink(ctx context.Context, ident *domain.Identity, campaignID, referrerEmail string) (*domain.Referral, string, error)
	GetByCode(ctx context.Context, code string) (*domain.ReferralPage, error)
	Complete(ctx context.Context, code, referredEmail string, referredName, referredPhone *string) (*domain.Referral, error)
	UpdateStatus(ctx context.Context, ident domain.Identity, referralID string, target domain.ReferralStatus) (*domain.Referral, error)
	Delete(ctx context.Context, ident domain.Identity, referralID string) error
	ListForBusiness(ctx context.Context, ident domain.Identity) ([]domain.ReferralListItem, error)
	ListForCustomer(ctx context.Context, ident domain.Identity) ([]domain.ReferralListItem, error)
}

type CampaignService interface {
	Create(ctx context.Context, ident domain.Identity, campaign *domain.Campaign) (*domain.Campaign, error)
	Get(ctx context.Context, ident domain.Identity, id string) (*domain.Campaign, error)
	List(ctx context.Context, ident domain.Identity) ([]*domain.Campaign, error)
	UpdateStatus(ctx context.Context, ident domain.Identity, id string, status domain.CampaignStatus) (*domain.Campaign, error)
}

type DashboardService interface {
	Summary(ctx context.Context, ident domain.Identity) (*domain.DashboardSummary, error)
}
