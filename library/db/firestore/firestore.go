// Package firestore wraps the firestore client.
package firestore

import (
	"context"

	fsSDK "cloud.google.com/go/firestore"
	errors "github.com/Laisky/errors/v2"
	"google.golang.org/api/option"
)

// DB firestore client bound to one collection
type DB struct {
	*fsSDK.Client
	projectID  string
	collection string
}

// NewDB create firestore client
func NewDB(ctx context.Context, projectID, collection string, opts ...option.ClientOption) (db *DB, err error) {
	if collection == "" {
		collection = "portfolio"
	}
	db = &DB{
		projectID:  projectID,
		collection: collection,
	}

	var cli *fsSDK.Client
	if cli, err = fsSDK.NewClient(ctx, projectID, opts...); err != nil {
		return nil, errors.Wrap(err, "create firestore client")
	}

	db.Client = cli
	return db, nil
}

// Col returns the bound collection
func (db *DB) Col() *fsSDK.CollectionRef {
	return db.Collection(db.collection)
}

// CredentialOptions builds client options from a credential file path,
// empty path falls back to application default credentials.
func CredentialOptions(credentialFile string) []option.ClientOption {
	if credentialFile == "" {
		return nil
	}

	return []option.ClientOption{option.WithCredentialsFile(credentialFile)}
}
