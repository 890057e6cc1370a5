// Package kv is a key-value table over database/sql.
//
// It works with any driver that accepts `$n` placeholders and
// `ON CONFLICT ... DO UPDATE`, which covers sqlite (mattn and modernc)
// and postgres (pgx stdlib).
package kv

import (
	"context"
	"database/sql"
	"regexp"
	"time"

	errors "github.com/Laisky/errors/v2"
)

// MaxTTL is the longest lifetime accepted by SetWithTTL.
const MaxTTL = 30 * 24 * time.Hour

var (
	_ Interface = new(Kv)

	regexpKey       = regexp.MustCompile(`^[a-zA-Z0-9_\-:.]{1,128}$`)
	regexpTableName = regexp.MustCompile(`^[a-zA-Z0-9_]{1,64}$`)

	// ErrKeyNotFound is returned by Get when the key is absent or expired
	ErrKeyNotFound = errors.New("key not found")
)

// KvItem is a kv row
type KvItem struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	// ExpireAt is zero for keys that never expire
	ExpireAt time.Time `json:"expire_at"`
}

// Interface is a kv interface
type Interface interface {
	Set(ctx context.Context, key, value string) error
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (*KvItem, error)
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, key string) error
}

// Kv is a key-value store on a sql table
type Kv struct {
	opt *option
	db  *sql.DB
}

type option struct {
	tableName string
	now       func() time.Time
}

// Option is a function that configures the kv
type Option func(*option) error

func applyOpts(opts ...Option) (*option, error) {
	o := &option{
		tableName: "kv",
		now:       time.Now,
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	return o, nil
}

// WithTableName sets the table name, default is `kv`
func WithTableName(tableName string) Option {
	return func(o *option) error {
		if !regexpTableName.MatchString(tableName) {
			return errors.Errorf("invalid table name: %s", tableName)
		}
		o.tableName = tableName
		return nil
	}
}

// WithClock replaces time.Now, used by tests
func WithClock(now func() time.Time) Option {
	return func(o *option) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		o.now = now
		return nil
	}
}

// NewKv create a new kv and make sure its table exists
func NewKv(ctx context.Context, db *sql.DB, opts ...Option) (*Kv, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}

	opt, err := applyOpts(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "apply opts")
	}

	kv := &Kv{
		opt: opt,
		db:  db,
	}

	if err := kv.setup(ctx); err != nil {
		return nil, errors.Wrap(err, "setup kv")
	}

	return kv, nil
}

func (kv *Kv) setup(ctx context.Context) error {
	stmt := `
CREATE TABLE IF NOT EXISTS ` + kv.opt.tableName + ` (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  created_at BIGINT NOT NULL,
  expire_at BIGINT NOT NULL
)`

	if _, err := kv.db.ExecContext(ctx, stmt); err != nil {
		return errors.Wrap(err, "create kv table")
	}

	return nil
}

func (kv *Kv) validKey(key string) error {
	if !regexpKey.MatchString(key) {
		return errors.Errorf("invalid key: %s", key)
	}

	return nil
}

// Set stores the key-value pair without expiration.
func (kv *Kv) Set(ctx context.Context, key, value string) error {
	if err := kv.validKey(key); err != nil {
		return errors.WithStack(err)
	}

	return kv.upsert(ctx, key, value, 0)
}

// SetWithTTL stores the key-value pair with a time-to-live duration.
func (kv *Kv) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.Errorf("ttl must be greater than 0: %s", ttl)
	}
	if ttl > MaxTTL {
		return errors.Errorf("ttl is too far in the future: %s", ttl)
	}
	if err := kv.validKey(key); err != nil {
		return errors.WithStack(err)
	}

	return kv.upsert(ctx, key, value, kv.opt.now().Add(ttl).UnixMilli())
}

func (kv *Kv) upsert(ctx context.Context, key, value string, expireAt int64) error {
	stmt := `
INSERT INTO ` + kv.opt.tableName + ` (key, value, created_at, expire_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT(key)
DO UPDATE SET value = EXCLUDED.value, expire_at = EXCLUDED.expire_at`

	if _, err := kv.db.ExecContext(ctx, stmt,
		key, value, kv.opt.now().UnixMilli(), expireAt); err != nil {
		return errors.Wrapf(err, "upsert kv item %q", key)
	}

	return nil
}

// Get retrieves the key's row. An expired row is deleted
// and reported as ErrKeyNotFound.
func (kv *Kv) Get(ctx context.Context, key string) (*KvItem, error) {
	var (
		doc                 KvItem
		createdAt, expireAt int64
	)
	stmt := `SELECT key, value, created_at, expire_at FROM ` + kv.opt.tableName + ` WHERE key = $1 LIMIT 1`
	err := kv.db.QueryRowContext(ctx, stmt, key).Scan(&doc.Key, &doc.Value, &createdAt, &expireAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(ErrKeyNotFound, "key %s", key)
		}
		return nil, errors.Wrapf(err, "get key %q", key)
	}

	doc.CreatedAt = time.UnixMilli(createdAt).UTC()
	if expireAt != 0 {
		doc.ExpireAt = time.UnixMilli(expireAt).UTC()
		if !kv.opt.now().Before(doc.ExpireAt) {
			_ = kv.Del(ctx, key)
			return nil, errors.Wrapf(ErrKeyNotFound, "key %s expired", key)
		}
	}

	return &doc, nil
}

// Exists checks whether a key exists and hasn't expired.
func (kv *Kv) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := kv.Get(ctx, key); err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return false, nil
		}
		return false, errors.Wrap(err, "check existence")
	}

	return true, nil
}

// Del removes the key from the store.
func (kv *Kv) Del(ctx context.Context, key string) error {
	stmt := `DELETE FROM ` + kv.opt.tableName + ` WHERE key = $1`
	if _, err := kv.db.ExecContext(ctx, stmt, key); err != nil {
		return errors.Wrapf(err, "delete key %q", key)
	}
	return nil
}

// PurgeExpired deletes every expired row and returns how many were removed.
func (kv *Kv) PurgeExpired(ctx context.Context) (int64, error) {
	stmt := `DELETE FROM ` + kv.opt.tableName + ` WHERE expire_at != 0 AND expire_at <= $1`
	res, err := kv.db.ExecContext(ctx, stmt, kv.opt.now().UnixMilli())
	if err != nil {
		return 0, errors.Wrap(err, "purge expired keys")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "rows affected")
	}
	return n, nil
}
