package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lewiswilliams7/refrr-sub000/internal/core/domain"
	"github.com/lewiswilliams7/refrr-sub000/internal/core/ports"
)

const referralColumns = `
	id, campaign_id, business_id, referrer_email, referred_email,
	referred_name, referred_phone, code, status, completion_source,
	view_count, last_viewed, created_at, updated_at, completed_at`

type referralRepository struct {
	db *pgxpool.Pool
}

func NewReferralRepository(db *pgxpool.Pool) ports.ReferralRepository {
	return &referralRepository{db: db}
}

// isDuplicateError detects a Postgres unique-constraint violation. The
// unique index on referrals.code is the authoritative uniqueness signal;
// the generator's pre-check only keeps collisions rare.
func isDuplicateError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "duplicate key value violates unique constraint")
}

func (r *referralRepository) Save(ctx context.Context, referral *domain.Referral) error {
	query := `
		INSERT INTO referrals (
			id, campaign_id, business_id, referrer_email, code, status,
			view_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		referral.ID, referral.CampaignID, referral.BusinessID,
		referral.ReferrerEmail, referral.Code, referral.Status,
		referral.CreatedAt, referral.UpdatedAt,
	)
	if err != nil {
		if isDuplicateError(err) {
			return domain.EW(domain.KindConflict, "referral code already exists", err)
		}
		return domain.EW(domain.KindUnavailable, "failed to save referral", err)
	}
	return nil
}

func (r *referralRepository) GetByID(ctx context.Context, id string) (*domain.Referral, error) {
	return r.getOne(ctx, `SELECT `+referralColumns+` FROM referrals WHERE id = $1`, id)
}

func (r *referralRepository) GetByCode(ctx context.Context, code string) (*domain.Referral, error) {
	return r.getOne(ctx, `SELECT `+referralColumns+` FROM referrals WHERE code = $1`, code)
}

func (r *referralRepository) getOne(ctx context.Context, query string, arg any) (*domain.Referral, error) {
	referral := &domain.Referral{}
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&referral.ID, &referral.CampaignID, &referral.BusinessID,
		&referral.ReferrerEmail, &referral.ReferredEmail,
		&referral.ReferredName, &referral.ReferredPhone,
		&referral.Code, &referral.Status, &referral.CompletionSource,
		&referral.Tracking.ViewCount, &referral.Tracking.LastViewed,
		&referral.CreatedAt, &referral.UpdatedAt, &referral.CompletedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.E(domain.KindNotFound, "referral not found")
		}
		return nil, domain.EW(domain.KindUnavailable, "failed to load referral", err)
	}
	return referral, nil
}

func (r *referralRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM referrals WHERE code = $1)`, code,
	).Scan(&exists)
	if err != nil {
		return false, domain.EW(domain.KindUnavailable, "failed to check referral code", err)
	}
	return exists, nil
}

const listColumns = `
	r.id, r.campaign_id, r.business_id, r.referrer_email, r.referred_email,
	r.referred_name, r.referred_phone, r.code, r.status, r.completion_source,
	r.view_count, r.last_viewed, r.created_at, r.updated_at, r.completed_at,
	c.title, c.reward_type, c.reward_value, c.reward_description`

func (r *referralRepository) ListByBusiness(ctx context.Context, businessID string) ([]domain.ReferralListItem, error) {
	query := `
		SELECT ` + listColumns + `
		FROM referrals r
		JOIN campaigns c ON c.id = r.campaign_id
		WHERE r.business_id = $1
		ORDER BY r.created_at DESC`
	return r.list(ctx, query, businessID)
}

func (r *referralRepository) ListByReferrer(ctx context.Context, referrerEmail string) ([]domain.ReferralListItem, error) {
	query := `
		SELECT ` + listColumns + `
		FROM referrals r
		JOIN campaigns c ON c.id = r.campaign_id
		WHERE LOWER(r.referrer_email) = LOWER($1)
		ORDER BY r.created_at DESC`
	return r.list(ctx, query, referrerEmail)
}

func (r *referralRepository) list(ctx context.Context, query string, arg any) ([]domain.ReferralListItem, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, domain.EW(domain.KindUnavailable, "failed to list referrals", err)
	}
	defer rows.Close()

	items := []domain.ReferralListItem{}
	for rows.Next() {
		var item domain.ReferralListItem
		err := rows.Scan(
			&item.ID, &item.CampaignID, &item.BusinessID,
			&item.ReferrerEmail, &item.ReferredEmail,
			&item.ReferredName, &item.ReferredPhone,
			&item.Code, &item.Status, &item.CompletionSource,
			&item.Tracking.ViewCount, &item.Tracking.LastViewed,
			&item.CreatedAt, &item.UpdatedAt, &item.CompletedAt,
			&item.CampaignTitle, &item.RewardType, &item.RewardValue,
			&item.RewardDescription,
		)
		if err != nil {
			return nil, domain.EW(domain.KindUnavailable, "failed to scan referral", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.EW(domain.KindUnavailable, "failed to list referrals", err)
	}
	return items, nil
}

// Complete is the redemption write. The status predicate makes it a
// compare-and-swap: of two concurrent redemptions exactly one sees a row
// affected.
func (r *referralRepository) Complete(ctx context.Context, id string, referredEmail string, referredName, referredPhone *string, completedAt time.Time) (bool, error) {
	query := `
		UPDATE referrals
		SET status = $2, referred_email = $3, referred_name = $4,
		    referred_phone = $5, completion_source = $6,
		    completed_at = $7, updated_at = $7
		WHERE id = $1 AND status = $8`

	tag, err := r.db.Exec(ctx, query,
		id, domain.ReferralCompleted, referredEmail, referredName,
		referredPhone, domain.SourceSelfRedemption, completedAt,
		domain.ReferralPending,
	)
	if err != nil {
		return false, domain.EW(domain.KindUnavailable, "failed to complete referral", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *referralRepository) SetStatus(ctx context.Context, id string, status domain.ReferralStatus, source *domain.CompletionSource, completedAt *time.Time) (bool, error) {
	query := `
		UPDATE referrals
		SET status = $2, completion_source = $3, completed_at = $4, updated_at = NOW()
		WHERE id = $1 AND status = $5`

	tag, err := r.db.Exec(ctx, query, id, status, source, completedAt, domain.ReferralPending)
	if err != nil {
		return false, domain.EW(domain.KindUnavailable, "failed to update referral status", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *referralRepository) TrackView(ctx context.Context, id string, viewedAt time.Time) error {
	query := `
		UPDATE referrals
		SET view_count = view_count + 1, last_viewed = $2
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, viewedAt)
	if err != nil {
		return domain.EW(domain.KindUnavailable, "failed to track referral view", err)
	}
	return nil
}

func (r *referralRepository) CountByStatus(ctx context.Context, businessID string) (map[domain.ReferralStatus]int, error) {
	query := `
		SELECT status, COUNT(*)
		FROM referrals
		WHERE business_id = $1
		GROUP BY status`

	rows, err := r.db.Query(ctx, query, businessID)
	if err != nil {
		return nil, domain.EW(domain.KindUnavailable, "failed to count referrals", err)
	}
	defer rows.Close()

	counts := map[domain.ReferralStatus]int{}
	for rows.Next() {
		var status domain.ReferralStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, domain.EW(domain.KindUnavailable, "failed to scan referral count", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, domain.EW(domain.KindUnavailable, "failed to count referrals", err)
	}
	return counts, nil
}

func (r *referralRepository) CountByMonth(ctx context.Context, businessID string, months int) ([]domain.MonthlyReferralCount, error) {
	query := `
		SELECT date_trunc('month', created_at) AS month, COUNT(*)
		FROM referrals
		WHERE business_id = $1
		  AND created_at >= date_trunc('month', NOW()) - make_interval(months => $2 - 1)
		GROUP BY month
		ORDER BY month`

	rows, err := r.db.Query(ctx, query, businessID, months)
	if err != nil {
		return nil, domain.EW(domain.KindUnavailable, "failed to count referrals by month", err)
	}
	defer rows.Close()

	counts := []domain.MonthlyReferralCount{}
	for rows.Next() {
		var mc domain.MonthlyReferralCount
		if err := rows.Scan(&mc.Month, &mc.Count); err != nil {
			return nil, domain.EW(domain.KindUnavailable, "failed to scan monthly count", err)
		}
		counts = append(counts, mc)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.EW(domain.KindUnavailable, "failed to count referrals by month", err)
	}
	return counts, nil
}

func (r *referralRepository) CountByCampaign(ctx context.Context, campaignID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM referrals WHERE campaign_id = $1`, campaignID,
	).Scan(&count)
	if err != nil {
		return 0, domain.EW(domain.KindUnavailable, "failed to count campaign referrals", err)
	}
	return count, nil
}

func (r *referralRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM referrals WHERE id = $1`, id)
	if err != nil {
		return domain.EW(domain.KindUnavailable, "failed to delete referral", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.E(domain.KindNotFound, "referral not found")
	}
	return nil
}
