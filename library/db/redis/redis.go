// Package redis wraps go-redis for the storage layer.
package redis

import (
	"context"
	"time"

	errors "github.com/Laisky/errors/v2"
	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces every key written by this service
const KeyPrefix = "portfolio/"

// ErrNil is returned by Get for a missing key
var ErrNil = redis.Nil

// DB is a wrapper for go-redis
type DB struct {
	cli *redis.Client
}

// NewDB creates a new DB instance and pings the server
func NewDB(ctx context.Context, opt *redis.Options) (*DB, error) {
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(err, "ping redis %s", opt.Addr)
	}

	return &DB{cli: rdb}, nil
}

// NewFromClient wraps an existing client
func NewFromClient(cli *redis.Client) *DB {
	return &DB{cli: cli}
}

// Get returns the value of key, ErrNil if missing
func (db *DB) Get(ctx context.Context, key string) (string, error) {
	v, err := db.cli.Get(ctx, KeyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNil
		}
		return "", errors.Wrapf(err, "get %q", key)
	}

	return v, nil
}

// Set stores value, ttl 0 means no expiration
func (db *DB) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := db.cli.Set(ctx, KeyPrefix+key, value, ttl).Err(); err != nil {
		return errors.Wrapf(err, "set %q", key)
	}

	return nil
}

// Del removes key
func (db *DB) Del(ctx context.Context, key string) error {
	if err := db.cli.Del(ctx, KeyPrefix+key).Err(); err != nil {
		return errors.Wrapf(err, "del %q", key)
	}

	return nil
}

// Close closes the client
func (db *DB) Close() error {
	return db.cli.Close()
}
