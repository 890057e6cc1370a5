package storage

import (
	"context"
	"time"

	errors "github.com/Laisky/errors/v2"
	"go.mongodb.org/mongo-driver/bson"
	mongoSDK "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Laisky/laisky-portfolio/library/db/mongo"
)

type mongoDoc struct {
	Key      string    `bson:"_id"`
	Value    string    `bson:"value"`
	ExpireAt time.Time `bson:"expire_at,omitempty"`
}

type mongoBackend struct {
	db  *mongo.DB
	col *mongoSDK.Collection
	now func() time.Time
}

// NewMongo stores one document per key in collection.
//
// A TTL index on expire_at lets mongo reap expired sessions; Get also
// checks expiry since the reaper runs only once a minute.
func NewMongo(ctx context.Context, db *mongo.DB, collection string) (Backend, error) {
	if collection == "" {
		collection = "kv"
	}
	col := db.GetCol(collection)

	if _, err := col.Indexes().CreateOne(ctx, mongoSDK.IndexModel{
		Keys:    bson.D{{Key: "expire_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	}); err != nil {
		return nil, errors.Wrap(err, "create ttl index")
	}

	return &mongoBackend{db: db, col: col, now: time.Now}, nil
}

func (b *mongoBackend) Get(ctx context.Context, key string) (string, error) {
	var doc mongoDoc
	if err := b.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc); err != nil {
		if mongo.NotFound(err) {
			return "", ErrNotFound
		}
		return "", errors.Wrapf(err, "find %q", key)
	}

	if !doc.ExpireAt.IsZero() && !b.now().Before(doc.ExpireAt) {
		return "", ErrNotFound
	}

	return doc.Value, nil
}

func (b *mongoBackend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	doc := mongoDoc{Key: key, Value: value}
	if ttl > 0 {
		doc.ExpireAt = b.now().Add(ttl).UTC()
	}

	if _, err := b.col.ReplaceOne(ctx, bson.M{"_id": key}, doc,
		options.Replace().SetUpsert(true)); err != nil {
		return errors.Wrapf(err, "upsert %q", key)
	}

	return nil
}

func (b *mongoBackend) Del(ctx context.Context, key string) error {
	if _, err := b.col.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return errors.Wrapf(err, "delete %q", key)
	}
	return nil
}

func (b *mongoBackend) Close(ctx context.Context) error {
	return b.db.Close(ctx)
}
