package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"A Journey to Pathivara!", "a-journey-to-pathivara"},
		{"  Hello,   World  ", "hello-world"},
		{"Next.js & TypeScript", "next-js-typescript"},
		{"Solo Ride to Pokhara – Just Me", "solo-ride-to-pokhara-just-me"},
		{"---", ""},
		{"", ""},
		{"already-a-slug", "already-a-slug"},
	}

	for _, c := range cases {
		t.Run(c.title, func(t *testing.T) {
			got := Slugify(c.title)
			require.Equal(t, c.want, got)
			require.Equal(t, got, Slugify(got), "slugify must be idempotent")
		})
	}
}

func TestSplitList(t *testing.T) {
	require.Equal(t, []string{"Go", "Gin", "SQL"}, SplitList(" Go, Gin ,SQL "))
	require.Equal(t, []string{"a", "b"}, SplitList("a,,b,"))
	require.Equal(t, []string{}, SplitList(""))
	require.Equal(t, "Go, Gin", JoinList([]string{"Go", "Gin"}))
	require.Equal(t, []string{"Go", "Gin"}, SplitList(JoinList([]string{"Go", "Gin"})))
}

func TestSplitParagraphs(t *testing.T) {
	p := BlogPost{Content: "one\n\ntwo\r\n\r\nthree\n\n\n\n"}
	require.Equal(t, []string{"one", "two", "three"}, p.Paragraphs())
	require.Empty(t, SplitParagraphs(""))
}

func TestDates(t *testing.T) {
	d := FormatDate(time.Date(2023, time.May, 10, 15, 0, 0, 0, time.UTC))
	require.Equal(t, "May 10, 2023", d)

	got, ok := ParseDate(d)
	require.True(t, ok)
	require.Equal(t, 2023, got.Year())

	_, ok = ParseDate("yesterday")
	require.False(t, ok)
}

func TestEnums(t *testing.T) {
	require.True(t, StatusDraft.Valid())
	require.False(t, Status("Archived").Valid())
	require.True(t, ProjectCategoryAIML.Valid())
	require.False(t, ProjectCategory("Games").Valid())
	require.True(t, BlogCategory("Travel").Valid())
	require.False(t, BlogCategory("Cooking").Valid())
}

func TestNewDefaults(t *testing.T) {
	d := NewDefaults()
	require.Len(t, d.Projects, 4)
	require.Len(t, d.BlogPosts, 2)
	require.Len(t, d.Skills, 8)
	require.Equal(t, "Sampresh Karki", d.Profile.Name)

	// copies are independent
	d.Projects[0].Tags[0] = "changed"
	require.Equal(t, "HTML", NewDefaults().Projects[0].Tags[0])

	for _, p := range d.Projects {
		require.True(t, p.Category.Valid(), p.Title)
	}
	for _, p := range d.BlogPosts {
		require.True(t, p.Category.Valid(), p.Title)
	}
}

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
projects:
  - id: 1
    title: Only Project
    category: Web Application
    status: Draft
    tags: [Go]
profile:
  name: Someone Else
`), 0o600))

	d, err := LoadSeedFile(path)
	require.NoError(t, err)
	require.Len(t, d.Projects, 1)
	require.Equal(t, ProjectCategoryWebApplication, d.Projects[0].Category)
	require.Equal(t, "Someone Else", d.Profile.Name)
	require.Len(t, d.BlogPosts, 2, "missing sections keep defaults")

	_, err = LoadSeedFile(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
}
