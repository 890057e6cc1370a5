package dao

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/dto"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/model"
	"github.com/Laisky/laisky-portfolio/library/storage"
)

// Store holds the site content.
//
// It starts from defaults, replaces them with whatever storage holds,
// and writes every collection back after mutations. Persistence is
// enabled only after a clean hydrate, so unreadable stored data is never
// overwritten with defaults. Mutations wait for an in-flight hydrate, so
// an edit is applied on top of the stored content rather than replaced by it.
type Store struct {
	opt     *option
	backend storage.Backend
	queue   *WriteQueue
	logger  logSDK.Logger

	// held exclusively by Hydrate, shared by mutations
	hydrateMu sync.RWMutex

	mu        sync.RWMutex
	projects  []model.Project
	blogPosts []model.BlogPost
	skills    []model.Skill
	profile   model.ProfileInfo
	settings  model.SiteSettings
	loading   bool
	persist   bool

	readyOnce sync.Once
	ready     chan struct{}

	subMu   sync.RWMutex
	subs    map[int]func(Change)
	nextSub int

	pageViewsMu sync.Mutex
}

// New creates a store seeded with defaults and loading set
func New(backend storage.Backend, opts ...Option) (*Store, error) {
	if backend == nil {
		return nil, errors.New("backend cannot be nil")
	}
	opt, err := applyOpts(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "apply opts")
	}

	d := opt.defaults
	s := &Store{
		opt:       opt,
		backend:   backend,
		logger:    opt.logger,
		projects:  cloneProjects(d.Projects),
		blogPosts: slices.Clone(d.BlogPosts),
		skills:    cloneSkills(d.Skills),
		profile:   d.Profile,
		settings:  d.Settings,
		loading:   true,
		ready:     make(chan struct{}),
		subs:      map[int]func(Change){},
	}
	s.queue = NewWriteQueue(opt.saveDebounce, s.persistAll, opt.logger)

	return s, nil
}

// Start hydrates in the background. Loading ends when the hydrate
// finishes or the load ceiling passes, whichever comes first. Mutations
// issued after Start returns wait for the hydrate.
func (s *Store) Start(ctx context.Context) {
	ceiling := time.AfterFunc(s.opt.loadCeiling, func() {
		s.logger.Debug("load ceiling reached")
		s.markReady()
	})

	s.hydrateMu.Lock()
	go func() {
		defer ceiling.Stop()
		defer s.hydrateMu.Unlock()
		if err := s.hydrate(ctx); err != nil {
			s.logger.Warn("hydrate content store, continue in memory only", zap.Error(err))
		}
	}()
}

func (s *Store) markReady() {
	s.readyOnce.Do(func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		close(s.ready)
	})
}

// Ready is closed when loading ends
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// WaitReady blocks until loading ends or ctx is done
func (s *Store) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	}
}

// IsLoading reports whether the initial load is still in progress
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Persistent reports whether mutations are written to storage
func (s *Store) Persistent() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persist
}

// Hydrate replaces defaults with stored values and ends loading.
//
// Missing keys keep their default. A read or parse failure also keeps the
// default for that key, and leaves persistence disabled for the rest of
// the process.
func (s *Store) Hydrate(ctx context.Context) error {
	s.hydrateMu.Lock()
	defer s.hydrateMu.Unlock()
	return s.hydrate(ctx)
}

// hydrate runs with hydrateMu held
func (s *Store) hydrate(ctx context.Context) error {
	defer s.markReady()

	var (
		rawMu sync.Mutex
		raw   = make(map[string]string, len(persistedKeys))
		g     errgroup.Group
	)
	for _, key := range persistedKeys {
		g.Go(func() error {
			v, err := s.backend.Get(ctx, key)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return nil
				}
				s.logger.Error("read stored content", zap.String("key", key), zap.Error(err))
				return errors.Wrapf(err, "read %q", key)
			}

			rawMu.Lock()
			raw[key] = v
			rawMu.Unlock()
			return nil
		})
	}
	err := g.Wait()

	snap, decoded, parseErr := Decode(raw)
	if parseErr != nil {
		s.logger.Error("parse stored content", zap.Error(parseErr))
		if err == nil {
			err = parseErr
		}
	}

	s.mu.Lock()
	if decoded[KeyProjects] {
		s.projects = snap.Projects
	}
	if decoded[KeyBlogPosts] {
		s.blogPosts = snap.BlogPosts
	}
	if decoded[KeySkills] {
		s.skills = snap.Skills
	}
	if decoded[KeyProfile] {
		s.profile = snap.Profile
	}
	if decoded[KeySettings] && snap.Settings != nil {
		s.settings = *snap.Settings
	}
	s.persist = err == nil
	s.mu.Unlock()

	if err != nil {
		return errors.Wrap(err, "load stored content")
	}

	s.logger.Info("content store hydrated",
		zap.Bool("projects", decoded[KeyProjects]),
		zap.Bool("blog_posts", decoded[KeyBlogPosts]),
		zap.Bool("skills", decoded[KeySkills]),
		zap.Bool("profile", decoded[KeyProfile]),
		zap.Bool("settings", decoded[KeySettings]),
	)
	return nil
}

// Projects returns a copy of the project list
func (s *Store) Projects() []model.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneProjects(s.projects)
}

// BlogPosts returns a copy of the blog post list
func (s *Store) BlogPosts() []model.BlogPost {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.blogPosts)
}

// Skills returns a copy of the skill list
func (s *Store) Skills() []model.Skill {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSkills(s.skills)
}

// Profile returns the profile
func (s *Store) Profile() model.ProfileInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Settings returns the site settings
func (s *Store) Settings() model.SiteSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SetProjects replaces the project list
func (s *Store) SetProjects(projects []model.Project) {
	s.UpdateProjects(func([]model.Project) []model.Project { return projects })
}

// SetBlogPosts replaces the blog post list
func (s *Store) SetBlogPosts(posts []model.BlogPost) {
	s.UpdateBlogPosts(func([]model.BlogPost) []model.BlogPost { return posts })
}

// SetSkills replaces the skill list
func (s *Store) SetSkills(skills []model.Skill) {
	s.UpdateSkills(func([]model.Skill) []model.Skill { return skills })
}

// SetProfile replaces the profile
func (s *Store) SetProfile(profile model.ProfileInfo) {
	s.mutate(CollectionProfile, func() { s.profile = profile })
}

// SetSettings replaces the site settings
func (s *Store) SetSettings(settings model.SiteSettings) {
	s.mutate(CollectionSettings, func() { s.settings = settings })
}

// UpdateProjects replaces the project list with fn(current) under the lock.
// fn receives a copy it may modify.
func (s *Store) UpdateProjects(fn func([]model.Project) []model.Project) {
	s.mutate(CollectionProjects, func() {
		s.projects = cloneProjects(fn(cloneProjects(s.projects)))
	})
}

// UpdateBlogPosts replaces the blog post list with fn(current) under the lock.
func (s *Store) UpdateBlogPosts(fn func([]model.BlogPost) []model.BlogPost) {
	s.mutate(CollectionBlogPosts, func() {
		s.blogPosts = slices.Clone(fn(slices.Clone(s.blogPosts)))
	})
}

// UpdateSkills replaces the skill list with fn(current) under the lock.
func (s *Store) UpdateSkills(fn func([]model.Skill) []model.Skill) {
	s.mutate(CollectionSkills, func() {
		s.skills = cloneSkills(fn(cloneSkills(s.skills)))
	})
}

// mutate applies fn once no hydrate is in flight, then schedules a write
func (s *Store) mutate(c Collection, fn func()) {
	s.hydrateMu.RLock()
	s.mu.Lock()
	fn()
	s.mu.Unlock()
	s.hydrateMu.RUnlock()

	s.changed(c)
}

func (s *Store) changed(c Collection) {
	if s.Persistent() {
		s.queue.Schedule()
	} else {
		s.logger.Warn("persistence disabled, change kept in memory only", zap.String("collection", string(c)))
	}
	s.notify(Change{Collection: c, At: s.opt.now()})
}

// Subscribe registers fn for change notifications and returns its
// cancel func. fn runs synchronously, so it must not block.
func (s *Store) Subscribe(fn func(Change)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(c Change) {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	for _, fn := range s.subs {
		fn(c)
	}
}

// PendingWrite reports whether a debounced write is waiting
func (s *Store) PendingWrite() bool {
	return s.queue.Pending()
}

// Flush writes pending changes now
func (s *Store) Flush(ctx context.Context) error {
	return s.queue.Flush(ctx)
}

// Close flushes pending changes and stops scheduling writes
func (s *Store) Close(ctx context.Context) error {
	return s.queue.Close(ctx)
}

func (s *Store) persistAll(ctx context.Context) error {
	encoded, err := Encode(s.Snapshot())
	if err != nil {
		return errors.Wrap(err, "encode snapshot")
	}

	for _, key := range persistedKeys {
		if err = s.backend.Set(ctx, key, encoded[key], 0); err != nil {
			s.logger.Error("persist content", zap.String("key", key), zap.Error(err))
			return errors.Wrapf(err, "persist %q", key)
		}
	}

	s.logger.Debug("content persisted")
	return nil
}

// PageViews returns the site page view counter
func (s *Store) PageViews(ctx context.Context) (int, error) {
	raw, err := s.backend.Get(ctx, KeyPageViews)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "read page views")
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		s.logger.Warn("invalid page views counter, treat as 0", zap.String("raw", raw))
		return 0, nil
	}
	return n, nil
}

// IncrementPageViews adds one to the page view counter and returns the new value
func (s *Store) IncrementPageViews(ctx context.Context) (int, error) {
	s.pageViewsMu.Lock()
	defer s.pageViewsMu.Unlock()

	n, err := s.PageViews(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	n++
	if err = s.backend.Set(ctx, KeyPageViews, strconv.Itoa(n), 0); err != nil {
		return 0, errors.Wrap(err, "write page views")
	}

	s.notify(Change{Collection: CollectionPageViews, At: s.opt.now()})
	return n, nil
}

// Snapshot returns a copy of every persisted collection, PageViews is left 0
func (s *Store) Snapshot() *dto.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings := s.settings
	return &dto.Snapshot{
		Projects:  cloneProjects(s.projects),
		BlogPosts: slices.Clone(s.blogPosts),
		Skills:    cloneSkills(s.skills),
		Profile:   s.profile,
		Settings:  &settings,
	}
}

// Export returns a snapshot including the page view counter
func (s *Store) Export(ctx context.Context) (*dto.Snapshot, error) {
	snap := s.Snapshot()
	views, err := s.PageViews(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	snap.PageViews = views
	return snap, nil
}

// Restore replaces every collection and the page view counter with snap,
// then writes everything to storage immediately.
func (s *Store) Restore(ctx context.Context, snap *dto.Snapshot) error {
	s.hydrateMu.RLock()
	defer s.hydrateMu.RUnlock()

	s.mu.Lock()
	s.projects = cloneProjects(snap.Projects)
	s.blogPosts = slices.Clone(snap.BlogPosts)
	s.skills = cloneSkills(snap.Skills)
	s.profile = snap.Profile
	if snap.Settings != nil {
		s.settings = *snap.Settings
	}
	s.persist = true
	s.mu.Unlock()

	s.queue.Schedule()
	if err := s.queue.Flush(ctx); err != nil {
		return errors.Wrap(err, "flush restored content")
	}
	if err := s.backend.Set(ctx, KeyPageViews, strconv.Itoa(snap.PageViews), 0); err != nil {
		return errors.Wrap(err, "write page views")
	}

	for _, c := range []Collection{CollectionProjects, CollectionBlogPosts, CollectionSkills, CollectionProfile} {
		s.notify(Change{Collection: c, At: s.opt.now()})
	}
	return nil
}

func cloneProjects(in []model.Project) []model.Project {
	if in == nil {
		return nil
	}
	out := make([]model.Project, len(in))
	for i, p := range in {
		p.Tags = slices.Clone(p.Tags)
		out[i] = p
	}
	return out
}

func cloneSkills(in []model.Skill) []model.Skill {
	if in == nil {
		return nil
	}
	out := make([]model.Skill, len(in))
	for i, sk := range in {
		sk.Items = slices.Clone(sk.Items)
		out[i] = sk
	}
	return out
}
