// Package mongo provides a thin wrapper for the MongoDB client.
package mongo

import (
	"context"
	"net/url"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Laisky/laisky-portfolio/library/log"
)

const defaultTimeout = 30 * time.Second

// DialInfo defines the MongoDB connection information.
type DialInfo struct {
	Addr,
	DBName,
	User,
	Pwd string
	AuthDB string
}

// DB holds one long-lived client and relies on the driver for reconnects.
type DB struct {
	cli      *mongo.Client
	dialInfo DialInfo
}

var (
	connectMongo = func(ctx context.Context, clientOpts *options.ClientOptions) (*mongo.Client, error) {
		return mongo.Connect(ctx, clientOpts)
	}
	pingMongo = func(ctx context.Context, cli *mongo.Client) error {
		return cli.Ping(ctx, readpref.Primary())
	}
)

// BuildURI builds a MongoDB connection URI from the given dial info.
func BuildURI(dialInfo DialInfo) string {
	uri := &url.URL{
		Scheme: "mongodb",
		Host:   dialInfo.Addr,
		Path:   "/" + dialInfo.DBName,
	}
	if dialInfo.User != "" || dialInfo.Pwd != "" {
		uri.User = url.UserPassword(dialInfo.User, dialInfo.Pwd)
	}
	if dialInfo.AuthDB != "" {
		query := url.Values{}
		query.Set("authSource", dialInfo.AuthDB)
		uri.RawQuery = query.Encode()
	}
	return uri.String()
}

// NewDB connects and pings, so failures happen at startup.
func NewDB(ctx context.Context, dialInfo DialInfo) (*DB, error) {
	log.Logger.Info("try to connect to mongodb",
		zap.String("addr", dialInfo.Addr),
		zap.String("db", dialInfo.DBName),
	)

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(BuildURI(dialInfo)).
		SetConnectTimeout(defaultTimeout).
		SetServerSelectionTimeout(defaultTimeout).
		SetRetryReads(true).
		SetRetryWrites(true).
		SetMaxPoolSize(20)

	cli, err := connectMongo(ctx, clientOpts)
	if err != nil {
		return nil, errors.Wrap(err, "connect db")
	}
	if err := pingMongo(ctx, cli); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, errors.Wrap(err, "ping db")
	}

	return &DB{cli: cli, dialInfo: dialInfo}, nil
}

// CurrentDB returns the database named in the dial info.
func (d *DB) CurrentDB() *mongo.Database {
	return d.cli.Database(d.dialInfo.DBName)
}

// GetCol returns a collection of the current database.
func (d *DB) GetCol(colName string) *mongo.Collection {
	return d.CurrentDB().Collection(colName)
}

// Close disconnects the client.
func (d *DB) Close(ctx context.Context) error {
	return errors.WithStack(d.cli.Disconnect(ctx))
}

// NotFound reports whether err means no document matched.
func NotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
