package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lewiswilliams7/refrr-sub000/internal/core/domain"
	"github.com/lewiswilliams7/refrr-sub000/internal/core/ports"
)

type businessRepository struct {
	db *pgxpool.Pool
}

func NewBusinessRepository(db *pgxpool.Pool) ports.BusinessRepository {
	return &businessRepository{db: db}
}

func (r *businessRepository) GetByID(ctx context.Context, id string) (*domain.Business, error) {
	return r.getOne(ctx,
		`SELECT id, account_id, name, status, created_at, updated_at
		 FROM businesses WHERE id = $1`, id)
}

func (r *businessRepository) GetByAccountID(ctx context.Context, accountID string) (*domain.Business, error) {
	return r.getOne(ctx,
		`SELECT id, account_id, name, status, created_at, updated_at
		 FROM businesses WHERE account_id = $1`, accountID)
}

func (r *businessRepository) getOne(ctx context.Context, query string, arg any) (*domain.Business, error) {
	business := &domain.Business{}
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&business.ID, &business.AccountID, &business.Name,
		&business.Status, &business.CreatedAt, &business.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.E(domain.KindNotFound, "business not found")
		}
		return nil, domain.EW(domain.KindUnavailable, "failed to load business", err)
	}
	return business, nil
}
