package storage

import (
	"context"
	"time"

	errors "github.com/Laisky/errors/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Laisky/laisky-portfolio/library/db/firestore"
)

type firestoreDoc struct {
	Value    string    `firestore:"value"`
	ExpireAt time.Time `firestore:"expire_at,omitempty"`
}

type firestoreBackend struct {
	db  *firestore.DB
	now func() time.Time
}

// NewFirestore stores one document per key in the db's bound collection.
func NewFirestore(db *firestore.DB) Backend {
	return &firestoreBackend{db: db, now: time.Now}
}

func (b *firestoreBackend) Get(ctx context.Context, key string) (string, error) {
	snap, err := b.db.Col().Doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", ErrNotFound
		}
		return "", errors.Wrapf(err, "get doc %q", key)
	}

	var doc firestoreDoc
	if err = snap.DataTo(&doc); err != nil {
		return "", errors.Wrapf(err, "decode doc %q", key)
	}
	if !doc.ExpireAt.IsZero() && !b.now().Before(doc.ExpireAt) {
		return "", ErrNotFound
	}

	return doc.Value, nil
}

func (b *firestoreBackend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	doc := firestoreDoc{Value: value}
	if ttl > 0 {
		doc.ExpireAt = b.now().Add(ttl).UTC()
	}

	if _, err := b.db.Col().Doc(key).Set(ctx, doc); err != nil {
		return errors.Wrapf(err, "set doc %q", key)
	}
	return nil
}

func (b *firestoreBackend) Del(ctx context.Context, key string) error {
	if _, err := b.db.Col().Doc(key).Delete(ctx); err != nil {
		return errors.Wrapf(err, "delete doc %q", key)
	}
	return nil
}

func (b *firestoreBackend) Close(context.Context) error {
	return errors.WithStack(b.db.Close())
}
