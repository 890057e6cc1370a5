package storage

import (
	"context"
	"database/sql"
	"time"

	errors "github.com/Laisky/errors/v2"

	"github.com/Laisky/laisky-portfolio/library/db/sql/kv"
)

type sqlBackend struct {
	db *sql.DB
	kv *kv.Kv
}

// NewSQL stores keys in a kv table of db, creating the table if needed.
func NewSQL(ctx context.Context, db *sql.DB, opts ...kv.Option) (Backend, error) {
	store, err := kv.NewKv(ctx, db, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "new kv")
	}

	return &sqlBackend{db: db, kv: store}, nil
}

func (b *sqlBackend) Get(ctx context.Context, key string) (string, error) {
	item, err := b.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return "", ErrNotFound
		}
		return "", errors.Wrap(err, "sql get")
	}

	return item.Value, nil
}

func (b *sqlBackend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.Wrap(b.kv.Set(ctx, key, value), "sql set")
	}

	return errors.Wrap(b.kv.SetWithTTL(ctx, key, value, ttl), "sql set with ttl")
}

func (b *sqlBackend) Del(ctx context.Context, key string) error {
	return errors.Wrap(b.kv.Del(ctx, key), "sql del")
}

func (b *sqlBackend) Close(context.Context) error {
	return errors.WithStack(b.db.Close())
}

// Purger is implemented by backends whose expired keys linger until removed
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// PurgeExpired deletes expired rows, mostly stale sessions
func (b *sqlBackend) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := b.kv.PurgeExpired(ctx)
	return n, errors.Wrap(err, "sql purge expired")
}
