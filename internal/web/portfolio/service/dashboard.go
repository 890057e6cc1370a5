package service

import (
	"context"
	"slices"

	"github.com/Laisky/errors/v2"

	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/dto"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/model"
)

const dashboardRecentLimit = 4

// Dashboard summarizes the content for the admin landing page
func (s *Service) Dashboard(ctx context.Context) (*dto.Dashboard, error) {
	projects := s.store.Projects()
	posts := s.store.BlogPosts()

	d := &dto.Dashboard{
		Skills:  len(s.store.Skills()),
		Loading: s.store.IsLoading(),
	}
	for _, p := range projects {
		if p.Status == model.StatusPublished {
			d.PublishedProjects++
		} else {
			d.DraftProjects++
		}
	}
	for _, p := range posts {
		if p.Status == model.StatusPublished {
			d.PublishedBlogPosts++
		} else {
			d.DraftBlogPosts++
		}
		d.TotalBlogViews += p.Views
	}

	slices.SortStableFunc(projects, func(a, b model.Project) int { return newestFirst(a.Date, b.Date) })
	slices.SortStableFunc(posts, func(a, b model.BlogPost) int { return newestFirst(a.Date, b.Date) })
	d.RecentProjects = projects[:min(len(projects), dashboardRecentLimit)]
	d.RecentBlogPosts = posts[:min(len(posts), dashboardRecentLimit)]

	views, err := s.store.PageViews(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "read page views")
	}
	d.PageViews = views

	return d, nil
}

// newestFirst orders dates descending, unparsable dates last
func newestFirst(a, b string) int {
	ta, okA := model.ParseDate(a)
	tb, okB := model.ParseDate(b)
	switch {
	case okA && okB:
		return tb.Compare(ta)
	case okA:
		return -1
	case okB:
		return 1
	default:
		return 0
	}
}
