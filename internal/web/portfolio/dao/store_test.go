package dao

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"

	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/model"
	"github.com/Laisky/laisky-portfolio/library/storage"
)

// countingBackend counts writes per key and can fail reads
type countingBackend struct {
	*storage.Memory
	mu      sync.Mutex
	sets    map[string]int
	failGet error
}

func newCountingBackend() *countingBackend {
	return &countingBackend{Memory: storage.NewMemory(), sets: map[string]int{}}
}

func (b *countingBackend) Get(ctx context.Context, key string) (string, error) {
	if b.failGet != nil {
		return "", b.failGet
	}
	return b.Memory.Get(ctx, key)
}

func (b *countingBackend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	b.mu.Lock()
	b.sets[key]++
	b.mu.Unlock()
	return b.Memory.Set(ctx, key, value, ttl)
}

func (b *countingBackend) setCount(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sets[key]
}

func newTestStore(t *testing.T, backend storage.Backend, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithSaveDebounce(time.Hour)}, opts...)
	s, err := New(backend, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestNewSeedsDefaults(t *testing.T) {
	s := newTestStore(t, storage.NewMemory())
	require.True(t, s.IsLoading())
	require.Len(t, s.Projects(), 4)
	require.Len(t, s.BlogPosts(), 2)
	require.Len(t, s.Skills(), 8)
	require.Equal(t, "Sampresh Karki", s.Profile().Name)
	require.False(t, s.Persistent())

	_, err := New(nil)
	require.Error(t, err)
}

func TestHydrateReplacesDefaults(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()
	require.NoError(t, backend.Set(ctx, KeyProjects, `[{"id":7,"title":"Stored","category":"AI/ML","status":"Draft","date":"","tags":["Go"],"image":""}]`, 0))
	require.NoError(t, backend.Set(ctx, KeySkills, `[]`, 0))

	s := newTestStore(t, backend)
	require.NoError(t, s.Hydrate(ctx))

	projects := s.Projects()
	require.Len(t, projects, 1)
	require.Equal(t, 7, projects[0].ID)
	require.Empty(t, s.Skills(), "stored empty list wins over defaults")
	require.Len(t, s.BlogPosts(), 2, "missing key keeps defaults")
	require.True(t, s.Persistent())
}

func TestHydrateParseFailureDisablesPersistence(t *testing.T) {
	ctx := context.Background()
	backend := newCountingBackend()
	require.NoError(t, backend.Memory.Set(ctx, KeyProjects, `{not json`, 0))
	require.NoError(t, backend.Memory.Set(ctx, KeyBlogPosts, `[{"id":9,"title":"Kept"}]`, 0))

	s := newTestStore(t, backend)
	require.Error(t, s.Hydrate(ctx))
	require.Len(t, s.Projects(), 4, "unparsable key keeps defaults")
	require.Equal(t, 9, s.BlogPosts()[0].ID, "other keys still load")
	require.False(t, s.Persistent())

	s.SetProjects(nil)
	require.False(t, s.PendingWrite())
	require.NoError(t, s.Flush(ctx))
	require.Zero(t, backend.setCount(KeyProjects), "corrupt data must not be overwritten")
}

func TestHydrateReadFailure(t *testing.T) {
	backend := newCountingBackend()
	backend.failGet = errors.New("storage unavailable")

	s := newTestStore(t, backend)
	require.Error(t, s.Hydrate(context.Background()))
	require.Len(t, s.Projects(), 4)
	require.False(t, s.Persistent())
}

func TestStartEndsLoading(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemory())
	s.Start(ctx)

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, s.WaitReady(waitCtx))
	require.False(t, s.IsLoading())
	require.Eventually(t, s.Persistent, time.Second, 10*time.Millisecond)
}

// blockingBackend never answers Get until released
type blockingBackend struct {
	*storage.Memory
	release chan struct{}
}

func (b *blockingBackend) Get(ctx context.Context, key string) (string, error) {
	<-b.release
	return b.Memory.Get(ctx, key)
}

func TestStartLoadCeiling(t *testing.T) {
	backend := &blockingBackend{Memory: storage.NewMemory(), release: make(chan struct{})}
	s := newTestStore(t, backend, WithLoadCeiling(20*time.Millisecond))
	s.Start(context.Background())

	select {
	case <-s.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("loading should end at the ceiling")
	}
	require.False(t, s.IsLoading())
	require.False(t, s.Persistent(), "hydrate has not finished")

	close(backend.release)
	require.Eventually(t, s.Persistent, time.Second, 10*time.Millisecond)
}

// slowBackend delays every read
type slowBackend struct {
	*storage.Memory
	delay time.Duration
}

func (b *slowBackend) Get(ctx context.Context, key string) (string, error) {
	time.Sleep(b.delay)
	return b.Memory.Get(ctx, key)
}

func TestMutationDuringHydrateIsPersisted(t *testing.T) {
	ctx := context.Background()
	backend := &slowBackend{Memory: storage.NewMemory(), delay: 100 * time.Millisecond}
	require.NoError(t, backend.Memory.Set(ctx, KeyBlogPosts, `[{"id":5,"title":"Stored","slug":"stored"}]`, 0))

	s := newTestStore(t, backend, WithLoadCeiling(10*time.Millisecond))
	s.Start(ctx)
	require.NoError(t, s.WaitReady(ctx))
	require.False(t, s.Persistent(), "ceiling fired before hydrate")

	// waits for the hydrate, then applies on top of the stored posts
	s.UpdateBlogPosts(func(ps []model.BlogPost) []model.BlogPost {
		return append(ps, model.BlogPost{ID: 6, Title: "Added", Slug: "added"})
	})
	require.True(t, s.Persistent())
	require.True(t, s.PendingWrite())
	require.NoError(t, s.Flush(ctx))

	raw, err := backend.Memory.Get(ctx, KeyBlogPosts)
	require.NoError(t, err)
	require.Contains(t, raw, `"stored"`)
	require.Contains(t, raw, `"added"`)

	posts := s.BlogPosts()
	require.Len(t, posts, 2)
	require.Equal(t, []int{5, 6}, []int{posts[0].ID, posts[1].ID})
}

func TestHydrateEndsLoading(t *testing.T) {
	s := newTestStore(t, storage.NewMemory())
	require.True(t, s.IsLoading())
	require.NoError(t, s.Hydrate(context.Background()))
	require.False(t, s.IsLoading())

	select {
	case <-s.Ready():
	default:
		t.Fatal("ready should be closed after hydrate")
	}
}

func TestDebounceCoalescesWrites(t *testing.T) {
	ctx := context.Background()
	backend := newCountingBackend()
	s := newTestStore(t, backend, WithSaveDebounce(50*time.Millisecond))
	require.NoError(t, s.Hydrate(ctx))

	for i := 0; i < 10; i++ {
		s.UpdateProjects(func(ps []model.Project) []model.Project {
			ps[0].Title = "edit"
			return ps
		})
	}
	require.True(t, s.PendingWrite())

	require.Eventually(t, func() bool { return backend.setCount(KeyProjects) == 1 },
		2*time.Second, 10*time.Millisecond)
	require.False(t, s.PendingWrite())

	// quiet period passed, nothing else is written
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, 1, backend.setCount(KeyProjects))
	require.Equal(t, 1, backend.setCount(KeyProfile), "every collection is written together")
}

func TestFlushAndClose(t *testing.T) {
	ctx := context.Background()
	backend := newCountingBackend()
	s := newTestStore(t, backend)
	require.NoError(t, s.Hydrate(ctx))

	require.NoError(t, s.Flush(ctx))
	require.Zero(t, backend.setCount(KeyProjects), "nothing pending")

	s.SetSkills([]model.Skill{{ID: 1, Category: "Go", Items: []string{"gin"}}})
	require.NoError(t, s.Flush(ctx))
	require.Equal(t, 1, backend.setCount(KeySkills))

	s.SetProfile(model.ProfileInfo{Name: "Renamed"})
	require.NoError(t, s.Close(ctx))
	require.Equal(t, 2, backend.setCount(KeyProfile))

	s.SetProfile(model.ProfileInfo{Name: "After close"})
	require.False(t, s.PendingWrite())
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()

	s1 := newTestStore(t, backend)
	require.NoError(t, s1.Hydrate(ctx))
	s1.UpdateBlogPosts(func(ps []model.BlogPost) []model.BlogPost {
		return append(ps, model.BlogPost{ID: 3, Title: "New", Slug: "new", Category: "React", Status: model.StatusDraft})
	})
	s1.SetSkills([]model.Skill{{ID: 1, Category: "Only", Items: []string{"a", "b"}}})
	require.NoError(t, s1.Flush(ctx))

	s2 := newTestStore(t, backend)
	require.NoError(t, s2.Hydrate(ctx))
	require.Equal(t, s1.Snapshot(), s2.Snapshot())

	encoded, err := Encode(s1.Snapshot())
	require.NoError(t, err)
	decoded, keys, err := Decode(encoded)
	require.NoError(t, err)
	require.Len(t, keys, len(persistedKeys))
	require.Equal(t, s1.Snapshot(), decoded)

	encoded[KeyProfile] = "null"
	encoded[KeySkills] = "{broken"
	decoded, keys, err = Decode(encoded)
	require.Error(t, err)
	require.False(t, keys[KeyProfile])
	require.False(t, keys[KeySkills])
	require.True(t, keys[KeyProjects])
	require.Equal(t, s1.Snapshot().Projects, decoded.Projects)
}

func TestRestoreAndExport(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()
	s := newTestStore(t, backend)

	snap := s.Snapshot()
	snap.Projects = snap.Projects[:1]
	snap.PageViews = 42
	require.NoError(t, s.Restore(ctx, snap))
	require.True(t, s.Persistent())

	got, err := s.Export(ctx)
	require.NoError(t, err)
	require.Len(t, got.Projects, 1)
	require.Equal(t, 42, got.PageViews)

	raw, err := backend.Get(ctx, KeyProjects)
	require.NoError(t, err)
	require.Contains(t, raw, "Web Security Login System")
}

func TestPageViews(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()
	s := newTestStore(t, backend)

	n, err := s.PageViews(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = s.IncrementPageViews(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	raw, err := backend.Get(ctx, KeyPageViews)
	require.NoError(t, err)
	require.Equal(t, "1", raw)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.IncrementPageViews(ctx)
		}()
	}
	wg.Wait()

	n, err = s.PageViews(ctx)
	require.NoError(t, err)
	require.Equal(t, 21, n)
}

func TestSubscribe(t *testing.T) {
	s := newTestStore(t, storage.NewMemory())

	var got atomic.Int32
	cancel := s.Subscribe(func(c Change) {
		if c.Collection == CollectionProjects {
			got.Add(1)
		}
	})

	s.SetProjects(nil)
	require.EqualValues(t, 1, got.Load())

	cancel()
	s.SetProjects(nil)
	require.EqualValues(t, 1, got.Load())
}

func TestGettersReturnCopies(t *testing.T) {
	s := newTestStore(t, storage.NewMemory())
	ps := s.Projects()
	ps[0].Tags[0] = "mutated"
	ps[0].Title = "mutated"
	require.NotEqual(t, "mutated", s.Projects()[0].Tags[0])
	require.NotEqual(t, "mutated", s.Projects()[0].Title)
}
