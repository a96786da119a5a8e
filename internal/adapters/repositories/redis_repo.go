package repositories

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lewiswilliams7/refrr-sub000/internal/core/domain"
	"github.com/lewiswilliams7/refrr-sub000/internal/core/ports"
)

// RedisRepo backs the session cache.
type RedisRepo struct {
	Client *redis.Client
}

func NewRedisRepo(client *redis.Client) ports.CacheRepository {
	return &RedisRepo{Client: client}
}

func (r *RedisRepo) Get(ctx context.Context, key string) (string, error) {
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", domain.E(domain.KindNotFound, "cache key not found")
	}
	return val, err
}

func (r *RedisRepo) Set(ctx context.Context, key string, value string, ttlSeconds int) error {
	return r.Client.Set(ctx, key, value, time.Duration(ttlSeconds)*time.Second).Err()
}
