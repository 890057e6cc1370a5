package storage

import (
	"context"
	"database/sql"
	"strings"

	errors "github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	_ "github.com/mattn/go-sqlite3"
	goredis "github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"github.com/Laisky/laisky-portfolio/library/db/firestore"
	"github.com/Laisky/laisky-portfolio/library/db/mongo"
	"github.com/Laisky/laisky-portfolio/library/db/postgres"
	"github.com/Laisky/laisky-portfolio/library/db/redis"
	"github.com/Laisky/laisky-portfolio/library/log"
)

// Backend types accepted by Open
const (
	TypeSQLite    = "sqlite"
	TypePostgres  = "postgres"
	TypeRedis     = "redis"
	TypeMongo     = "mongo"
	TypeFirestore = "firestore"
	TypeMemory    = "memory"
)

// Config selects and configures a backend
type Config struct {
	Type string

	SQLitePath   string
	SQLiteDriver string

	Postgres postgres.DialInfo

	RedisAddr string
	RedisPwd  string
	RedisDB   int

	Mongo           mongo.DialInfo
	MongoCollection string

	FirestoreProjectID      string
	FirestoreCredentialFile string
	FirestoreCollection     string
}

// Open connects the backend named by cfg.Type, empty means sqlite.
func Open(ctx context.Context, cfg Config) (Backend, error) {
	logger := log.Logger.Named("storage")
	typ := strings.ToLower(strings.TrimSpace(cfg.Type))
	if typ == "" {
		typ = TypeSQLite
	}
	logger.Info("open storage backend", zap.String("type", typ))

	switch typ {
	case TypeSQLite:
		driver := cfg.SQLiteDriver
		if driver == "" {
			driver = "sqlite3"
		}
		if driver != "sqlite3" && driver != "sqlite" {
			return nil, errors.Errorf("unsupported sqlite driver %q", driver)
		}
		path := cfg.SQLitePath
		if path == "" {
			path = "portfolio.db"
		}

		db, err := sql.Open(driver, path)
		if err != nil {
			return nil, errors.Wrapf(err, "open sqlite %q", path)
		}
		db.SetMaxOpenConns(1)
		b, err := NewSQL(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, errors.WithStack(err)
		}
		return b, nil
	case TypePostgres:
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, errors.Wrap(err, "open postgres")
		}
		b, err := NewSQL(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, errors.WithStack(err)
		}
		return b, nil
	case TypeRedis:
		db, err := redis.NewDB(ctx, &goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPwd,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, errors.Wrap(err, "open redis")
		}
		return NewRedis(db), nil
	case TypeMongo:
		db, err := mongo.NewDB(ctx, cfg.Mongo)
		if err != nil {
			return nil, errors.Wrap(err, "open mongo")
		}
		b, err := NewMongo(ctx, db, cfg.MongoCollection)
		if err != nil {
			_ = db.Close(ctx)
			return nil, errors.WithStack(err)
		}
		return b, nil
	case TypeFirestore:
		db, err := firestore.NewDB(ctx, cfg.FirestoreProjectID, cfg.FirestoreCollection,
			firestore.CredentialOptions(cfg.FirestoreCredentialFile)...)
		if err != nil {
			return nil, errors.Wrap(err, "open firestore")
		}
		return NewFirestore(db), nil
	case TypeMemory:
		return NewMemory(), nil
	default:
		return nil, errors.Errorf("unknown storage type %q", cfg.Type)
	}
}
