// Package dao is the content store: the in-memory owner of every record,
// hydrated from and persisted to a storage backend.
package dao

import (
	"time"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"

	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/model"
	"github.com/Laisky/laisky-portfolio/library/log"
)

// Persisted keys
const (
	KeyProjects  = "portfolio-projects"
	KeyBlogPosts = "portfolio-blogposts"
	KeySkills    = "portfolio-skills"
	KeyProfile   = "portfolio-profile"
	KeySettings  = "portfolio-settings"
	KeyPageViews = "portfolio-page-views"
)

// Collection names a part of the store in change notifications
type Collection string

const (
	CollectionProjects  Collection = "projects"
	CollectionBlogPosts Collection = "blogPosts"
	CollectionSkills    Collection = "skills"
	CollectionProfile   Collection = "profile"
	CollectionSettings  Collection = "settings"
	CollectionPageViews Collection = "pageViews"
)

// Change is sent to subscribers after a mutation
type Change struct {
	Collection Collection `json:"collection"`
	At         time.Time  `json:"at"`
}

type option struct {
	defaults     *model.Defaults
	saveDebounce time.Duration
	loadCeiling  time.Duration
	logger       logSDK.Logger
	now          func() time.Time
}

// Option configures the Store
type Option func(*option) error

func applyOpts(opts ...Option) (*option, error) {
	o := &option{
		saveDebounce: time.Second,
		loadCeiling:  1500 * time.Millisecond,
		now:          time.Now,
	}
	for _, f := range opts {
		if err := f(o); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	if o.defaults == nil {
		o.defaults = model.NewDefaults()
	}
	if o.logger == nil {
		o.logger = log.Logger.Named("content_store")
	}

	return o, nil
}

// WithDefaults sets the content used until storage is read
func WithDefaults(d *model.Defaults) Option {
	return func(o *option) error {
		if d == nil {
			return errors.New("defaults cannot be nil")
		}
		o.defaults = d
		return nil
	}
}

// WithSaveDebounce sets the quiet period before a write, default 1s
func WithSaveDebounce(d time.Duration) Option {
	return func(o *option) error {
		if d <= 0 {
			return errors.Errorf("save debounce must be positive: %s", d)
		}
		o.saveDebounce = d
		return nil
	}
}

// WithLoadCeiling bounds how long the store reports loading, default 1.5s
func WithLoadCeiling(d time.Duration) Option {
	return func(o *option) error {
		if d <= 0 {
			return errors.Errorf("load ceiling must be positive: %s", d)
		}
		o.loadCeiling = d
		return nil
	}
}

// WithLogger sets the logger
func WithLogger(logger logSDK.Logger) Option {
	return func(o *option) error {
		o.logger = logger
		return nil
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(o *option) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		o.now = now
		return nil
	}
}
