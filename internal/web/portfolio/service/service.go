// Package service implements the portfolio operations on top of the content store.
package service

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"

	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/dao"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/model"
	"github.com/Laisky/laisky-portfolio/library/log"
	"github.com/Laisky/laisky-portfolio/library/objstore"
)

// Clock returns the current time. Tests can replace it for determinism.
type Clock func() time.Time

// SessionState is the per-visitor key-value scope.
// Prefix identifies the session, two states with the same prefix share keys.
type SessionState interface {
	Prefix() string
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Service provides every content operation of the site
type Service struct {
	store  *dao.Store
	files  objstore.Store
	logger logSDK.Logger
	clock  Clock

	sessionLocks *keyedMutex
}

// New constructs a Service. files may be nil, which disables CV uploads.
func New(store *dao.Store, files objstore.Store, logger logSDK.Logger, clock Clock) (*Service, error) {
	if store == nil {
		return nil, errors.New("content store is required")
	}
	if logger == nil {
		logger = log.Logger.Named("portfolio_service")
	}
	if clock == nil {
		clock = time.Now
	}

	return &Service{
		store:        store,
		files:        files,
		logger:       logger,
		clock:        clock,
		sessionLocks: newKeyedMutex(),
	}, nil
}

// Store returns the underlying content store
func (s *Service) Store() *dao.Store {
	return s.store
}

func (s *Service) log() logSDK.Logger {
	if s.logger != nil {
		return s.logger
	}
	return log.Logger.Named("portfolio_service")
}

func (s *Service) today() string {
	return model.FormatDate(s.clock())
}

// nextID returns max(ids)+1, or 1 for an empty list
func nextID[T any](items []T, id func(T) int) int {
	maxID := 0
	for _, it := range items {
		maxID = max(maxID, id(it))
	}
	return maxID + 1
}
