package auth

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lewiswilliams7/refrr-sub000/internal/core/domain"
	"github.com/lewiswilliams7/refrr-sub000/internal/core/ports"
)

// sessionCacheTTL is how long a resolved identity stays in Redis before
// falling back to Postgres.
const sessionCacheTTL = 300

// SessionValidator resolves a bearer token into an authenticated identity
// (account id, email, role). Token issuance belongs to the identity
// provider; this layer only looks tokens up, it never verifies signatures.
type SessionValidator struct {
	db    *pgxpool.Pool
	cache ports.CacheRepository
}

func NewSessionValidator(db *pgxpool.Pool, cache ports.CacheRepository) *SessionValidator {
	return &SessionValidator{db: db, cache: cache}
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", domain.E(domain.KindUnauthorized, "authorization header is missing")
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", domain.E(domain.KindUnauthorized, "authorization header is not a bearer token")
	}
	return token, nil
}

type cachedIdentity struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// ValidateToken resolves the token against the Redis cache first, then the
// sessions table. Expired sessions fail closed.
func (sv *SessionValidator) ValidateToken(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, domain.E(domain.KindUnauthorized, "session token is required")
	}
	cacheKey := "session:" + token

	if data, err := sv.cache.Get(ctx, cacheKey); err == nil && data != "" {
		var cached cachedIdentity
		if json.Unmarshal([]byte(data), &cached) == nil && cached.AccountID != "" {
			return &domain.Identity{
				AccountID: cached.AccountID,
				Email:     cached.Email,
				Role:      domain.Role(cached.Role),
			}, nil
		}
	}

	query := `
		SELECT s.account_id, a.email, a.role
		FROM sessions s
		JOIN accounts a ON a.id = s.account_id
		WHERE s.token = $1 AND s.expires_at > NOW()
		LIMIT 1`

	var cached cachedIdentity
	err := sv.db.QueryRow(ctx, query, token).Scan(&cached.AccountID, &cached.Email, &cached.Role)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.E(domain.KindUnauthorized, "invalid or expired session")
		}
		return nil, domain.EW(domain.KindUnavailable, "failed to validate session", err)
	}

	if data, err := json.Marshal(cached); err == nil {
		go func() {
			_ = sv.cache.Set(context.Background(), cacheKey, string(data), sessionCacheTTL)
		}()
	}

	return &domain.Identity{
		AccountID: cached.AccountID,
		Email:     cached.Email,
		Role:      domain.Role(cached.Role),
	}, nil
}
