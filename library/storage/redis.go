package storage

import (
	"context"
	"time"

	errors "github.com/Laisky/errors/v2"

	"github.com/Laisky/laisky-portfolio/library/db/redis"
)

type redisBackend struct {
	db *redis.DB
}

// NewRedis stores keys in redis under redis.KeyPrefix.
func NewRedis(db *redis.DB) Backend {
	return &redisBackend{db: db}
}

func (b *redisBackend) Get(ctx context.Context, key string) (string, error) {
	v, err := b.db.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return "", ErrNotFound
		}
		return "", errors.WithStack(err)
	}

	return v, nil
}

func (b *redisBackend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return b.db.Set(ctx, key, value, ttl)
}

func (b *redisBackend) Del(ctx context.Context, key string) error {
	return b.db.Del(ctx, key)
}

func (b *redisBackend) Close(context.Context) error {
	return errors.WithStack(b.db.Close())
}
