package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lewiswilliams7/refrr-sub000/internal/core/domain"
	"github.com/lewiswilliams7/refrr-sub000/internal/core/ports"
)

const campaignColumns = `
	id, business_id, title, description, reward_type, reward_value,
	reward_description, status, expires_at, max_referrals,
	total_referrals, successful_referrals, conversion_rate,
	reward_redemptions, created_at, updated_at`

type campaignRepository struct {
	db *pgxpool.Pool
}

func NewCampaignRepository(db *pgxpool.Pool) ports.CampaignRepository {
	return &campaignRepository{db: db}
}

func (r *campaignRepository) Save(ctx context.Context, campaign *domain.Campaign) error {
	query := `
		INSERT INTO campaigns (
			id, business_id, title, description, reward_type, reward_value,
			reward_description, status, expires_at, max_referrals,
			total_referrals, successful_referrals, conversion_rate,
			reward_redemptions, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, 0, 0, 0, $11, $12)`

	_, err := r.db.Exec(ctx, query,
		campaign.ID, campaign.BusinessID, campaign.Title, campaign.Description,
		campaign.RewardType, campaign.RewardValue, campaign.RewardDescription,
		campaign.Status, campaign.ExpiresAt, campaign.MaxReferrals,
		campaign.CreatedAt, campaign.UpdatedAt,
	)
	if err != nil {
		return domain.EW(domain.KindUnavailable, "failed to save campaign", err)
	}
	return nil
}

func (r *campaignRepository) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	campaign := &domain.Campaign{}
	err := r.db.QueryRow(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id,
	).Scan(
		&campaign.ID, &campaign.BusinessID, &campaign.Title,
		&campaign.Description, &campaign.RewardType, &campaign.RewardValue,
		&campaign.RewardDescription, &campaign.Status, &campaign.ExpiresAt,
		&campaign.MaxReferrals,
		&campaign.Analytics.TotalReferrals,
		&campaign.Analytics.SuccessfulReferrals,
		&campaign.Analytics.ConversionRate,
		&campaign.Analytics.RewardRedemptions,
		&campaign.CreatedAt, &campaign.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.E(domain.KindNotFound, "campaign not found")
		}
		return nil, domain.EW(domain.KindUnavailable, "failed to load campaign", err)
	}
	return campaign, nil
}

func (r *campaignRepository) ListByBusiness(ctx context.Context, businessID string) ([]*domain.Campaign, error) {
	query := `
		SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE business_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, businessID)
	if err != nil {
		return nil, domain.EW(domain.KindUnavailable, "failed to list campaigns", err)
	}
	defer rows.Close()

	campaigns := []*domain.Campaign{}
	for rows.Next() {
		campaign := &domain.Campaign{}
		err := rows.Scan(
			&campaign.ID, &campaign.BusinessID, &campaign.Title,
			&campaign.Description, &campaign.RewardType, &campaign.RewardValue,
			&campaign.RewardDescription, &campaign.Status, &campaign.ExpiresAt,
			&campaign.MaxReferrals,
			&campaign.Analytics.TotalReferrals,
			&campaign.Analytics.SuccessfulReferrals,
			&campaign.Analytics.ConversionRate,
			&campaign.Analytics.RewardRedemptions,
			&campaign.CreatedAt, &campaign.UpdatedAt,
		)
		if err != nil {
			return nil, domain.EW(domain.KindUnavailable, "failed to scan campaign", err)
		}
		campaigns = append(campaigns, campaign)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.EW(domain.KindUnavailable, "failed to list campaigns", err)
	}
	return campaigns, nil
}

func (r *campaignRepository) UpdateStatus(ctx context.Context, id string, status domain.CampaignStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE campaigns SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return domain.EW(domain.KindUnavailable, "failed to update campaign status", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.E(domain.KindNotFound, "campaign not found")
	}
	return nil
}

// RefreshAnalytics re-aggregates the denormalized counters from the
// referrals table in one statement. Not transactional with the referral
// write that triggered it; a stale read between the two is acceptable.
func (r *campaignRepository) RefreshAnalytics(ctx context.Context, campaignID string) error {
	query := `
		UPDATE campaigns c
		SET total_referrals = agg.total,
		    successful_referrals = agg.successful,
		    conversion_rate = CASE WHEN agg.total > 0
		        THEN agg.successful::float / agg.total * 100
		        ELSE 0 END,
		    reward_redemptions = agg.redeemed,
		    updated_at = NOW()
		FROM (
			SELECT COUNT(*) AS total,
			       COUNT(*) FILTER (WHERE status IN ('approved', 'completed')) AS successful,
			       COUNT(*) FILTER (WHERE status = 'completed') AS redeemed
			FROM referrals
			WHERE campaign_id = $1
		) agg
		WHERE c.id = $1`

	_, err := r.db.Exec(ctx, query, campaignID)
	if err != nil {
		return domain.EW(domain.KindUnavailable, "failed to refresh campaign analytics", err)
	}
	return nil
}
