// Package storage is the key-value persistence behind the content store
// and the per-session state.
package storage

import (
	"context"
	"time"

	errors "github.com/Laisky/errors/v2"
)

// ErrNotFound is returned by Get when the key is absent or expired
var ErrNotFound = errors.New("storage: key not found")

// Backend is a string key-value store.
//
// Keys written with ttl 0 never expire.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Close(ctx context.Context) error
}

// Namespace prefixes every key and applies a fixed ttl to writes.
type Namespace struct {
	backend Backend
	prefix  string
	ttl     time.Duration
}

// NewNamespace returns a view of backend where key k is stored as prefix+k.
func NewNamespace(backend Backend, prefix string, ttl time.Duration) *Namespace {
	return &Namespace{backend: backend, prefix: prefix, ttl: ttl}
}

// SessionNamespace scopes keys to one session id.
func SessionNamespace(backend Backend, sessionID string, ttl time.Duration) *Namespace {
	return NewNamespace(backend, "session:"+sessionID+":", ttl)
}

// Prefix returns the key prefix, unique per namespace
func (n *Namespace) Prefix() string {
	return n.prefix
}

// Get reads key
func (n *Namespace) Get(ctx context.Context, key string) (string, error) {
	return n.backend.Get(ctx, n.prefix+key)
}

// Set writes key with the namespace ttl
func (n *Namespace) Set(ctx context.Context, key, value string) error {
	return n.backend.Set(ctx, n.prefix+key, value, n.ttl)
}

// Del removes key
func (n *Namespace) Del(ctx context.Context, key string) error {
	return n.backend.Del(ctx, n.prefix+key)
}
