package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

func newSQLBackend(t *testing.T) Backend {
	t.Helper()
	db, err := sql.Open("sqlite3", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)

	b, err := NewSQL(context.Background(), db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close(context.Background()) })
	return b
}

func TestBackends(t *testing.T) {
	backends := map[string]func(t *testing.T) Backend{
		"sql":    newSQLBackend,
		"memory": func(*testing.T) Backend { return NewMemory() },
	}

	for name, newBackend := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			b := newBackend(t)

			_, err := b.Get(ctx, "portfolio-page-views")
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, b.Set(ctx, "portfolio-page-views", "1", 0))
			v, err := b.Get(ctx, "portfolio-page-views")
			require.NoError(t, err)
			require.Equal(t, "1", v)

			require.NoError(t, b.Del(ctx, "portfolio-page-views"))
			_, err = b.Get(ctx, "portfolio-page-views")
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", "v", time.Minute))
	_, err := m.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = m.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSessionNamespace(t *testing.T) {
	ctx := context.Background()
	b := NewMemory()

	s1 := SessionNamespace(b, "s1", time.Hour)
	s2 := SessionNamespace(b, "s2", time.Hour)

	require.NoError(t, s1.Set(ctx, "has-viewed", "true"))
	v, err := s1.Get(ctx, "has-viewed")
	require.NoError(t, err)
	require.Equal(t, "true", v)

	_, err = s2.Get(ctx, "has-viewed")
	require.ErrorIs(t, err, ErrNotFound)

	raw, err := b.Get(ctx, "session:s1:has-viewed")
	require.NoError(t, err)
	require.Equal(t, "true", raw)

	require.NoError(t, s1.Del(ctx, "has-viewed"))
	_, err = s1.Get(ctx, "has-viewed")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	b, err := Open(ctx, Config{Type: TypeMemory})
	require.NoError(t, err)
	require.IsType(t, &Memory{}, b)

	for _, driver := range []string{"sqlite3", "sqlite"} {
		b, err = Open(ctx, Config{
			SQLiteDriver: driver,
			SQLitePath:   filepath.Join(t.TempDir(), "portfolio.db"),
		})
		require.NoError(t, err, driver)
		require.NoError(t, b.Set(ctx, "k", "v", 0))
		require.NoError(t, b.Close(ctx))
	}

	_, err = Open(ctx, Config{Type: "cassandra"})
	require.Error(t, err)
	_, err = Open(ctx, Config{SQLiteDriver: "mysql"})
	require.Error(t, err)
}

func TestSQLPurgeExpired(t *testing.T) {
	ctx := context.Background()
	b := newSQLBackend(t)

	purger, ok := b.(Purger)
	require.True(t, ok)
	_, ok = Backend(NewMemory()).(Purger)
	require.False(t, ok)

	require.NoError(t, b.Set(ctx, "session:a:is-admin", "true", time.Millisecond))
	require.NoError(t, b.Set(ctx, "portfolio-skills", "[]", 0))
	time.Sleep(5 * time.Millisecond)

	n, err := purger.PurgeExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	v, err := b.Get(ctx, "portfolio-skills")
	require.NoError(t, err)
	require.Equal(t, "[]", v)
}
