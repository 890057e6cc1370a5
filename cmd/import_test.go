package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/dao"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/dto"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/model"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/service"
	"github.com/Laisky/laisky-portfolio/library/storage"
)

const samplePost = `---
title: Hello Import
excerpt: from disk
category: Web Development
status: published
readTime: 3 min read
---

# Hello

body text
`

func newTestStore(t *testing.T) (*dao.Store, storage.Backend) {
	t.Helper()
	ctx := context.Background()

	backend := storage.NewMemory()
	store, err := dao.New(backend, dao.WithSaveDebounce(time.Hour))
	require.NoError(t, err)
	require.NoError(t, store.Hydrate(ctx))
	require.True(t, store.Persistent())
	t.Cleanup(func() { _ = store.Close(ctx) })

	return store, backend
}

func TestParsePost(t *testing.T) {
	draft, err := parsePost(strings.NewReader(samplePost))
	require.NoError(t, err)
	require.Equal(t, "Hello Import", draft.Title)
	require.Equal(t, "from disk", draft.Excerpt)
	require.Equal(t, "Published", draft.Status)
	require.Equal(t, "# Hello\n\nbody text", draft.Content)
	require.NoError(t, draft.Validate())

	draft, err = parsePost(strings.NewReader("just markdown"))
	require.NoError(t, err)
	require.Error(t, draft.Validate())
}

func TestImportPosts(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)
	svc, err := service.New(store, nil, nil, nil)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "01-hello.md"), []byte(samplePost), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "02-bad.md"),
		[]byte("---\ntitle: Bad\ncategory: Gardening\n---\nx"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	before := len(store.BlogPosts())

	stats, err := importPosts(ctx, svc, dir, true)
	require.NoError(t, err)
	require.Equal(t, importStats{Imported: 1, Skipped: 1}, stats)
	require.Len(t, store.BlogPosts(), before)

	stats, err = importPosts(ctx, svc, dir, false)
	require.NoError(t, err)
	require.Equal(t, importStats{Imported: 1, Skipped: 1}, stats)

	posts := store.BlogPosts()
	require.Len(t, posts, before+1)
	added := posts[len(posts)-1]
	require.Equal(t, "hello-import", added.Slug)
	require.Equal(t, model.StatusPublished, added.Status)
	require.Equal(t, before+1, added.ID)

	require.NoError(t, store.Flush(ctx))
	raw, err := backend.Get(ctx, dao.KeyBlogPosts)
	require.NoError(t, err)
	require.Contains(t, raw, "hello-import")
}

func TestExportImportSnapshot(t *testing.T) {
	ctx := context.Background()
	src, _ := newTestStore(t)
	_, err := src.IncrementPageViews(ctx)
	require.NoError(t, err)
	src.SetSkills([]model.Skill{{ID: 1, Category: "Go", Items: []string{"gin"}}})

	var buf bytes.Buffer
	require.NoError(t, writeSnapshot(ctx, src, &buf))

	var snap dto.Snapshot
	require.NoError(t, json.Unmarshal(buf.Bytes(), &snap))
	require.Equal(t, 1, snap.PageViews)
	require.Len(t, snap.Skills, 1)

	path := filepath.Join(t.TempDir(), "portfolio.json")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	dst, backend := newTestStore(t)
	require.NoError(t, importSnapshot(ctx, dst, path, true))
	require.Len(t, dst.Skills(), len(model.NewDefaults().Skills))

	require.NoError(t, importSnapshot(ctx, dst, path, false))
	require.Equal(t, src.Snapshot(), dst.Snapshot())
	views, err := dst.PageViews(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, views)

	raw, err := backend.Get(ctx, dao.KeySkills)
	require.NoError(t, err)
	require.Contains(t, raw, "gin")

	require.Error(t, importSnapshot(ctx, dst, filepath.Join(t.TempDir(), "missing.json"), false))
}
