package service

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/model"
	"github.com/Laisky/laisky-portfolio/library/storage"
)

// Session keys
const (
	SessionKeyViewedPosts = "viewed-posts"
	SessionKeyHasViewed   = "has-viewed"
)

// ViewBlogPost resolves slugOrID and counts one view per post per session.
//
// Sessions are tracked independently, so two sessions viewing the same
// post both count.
func (s *Service) ViewBlogPost(ctx context.Context, sess SessionState, slugOrID string) (model.BlogPost, error) {
	post, err := s.FindBlogPost(slugOrID)
	if err != nil {
		return model.BlogPost{}, err
	}
	if sess == nil {
		return post, nil
	}

	// requests of one session may race, the check and the mark must not interleave
	defer s.sessionLocks.Lock(sess.Prefix())()

	viewed := s.viewedPosts(ctx, sess)
	if slices.Contains(viewed, post.ID) {
		return post, nil
	}

	// mark first, an untracked view must not be counted
	raw, err := json.Marshal(append(viewed, post.ID))
	if err != nil {
		return post, errors.Wrap(err, "marshal viewed posts")
	}
	if err = sess.Set(ctx, SessionKeyViewedPosts, string(raw)); err != nil {
		s.log().Warn("track viewed post, skip counting", zap.Int("id", post.ID), zap.Error(err))
		return post, nil
	}

	s.store.UpdateBlogPosts(func(ps []model.BlogPost) []model.BlogPost {
		for i := range ps {
			if ps[i].ID == post.ID {
				ps[i].Views++
				post = ps[i]
				break
			}
		}
		return ps
	})

	return post, nil
}

func (s *Service) viewedPosts(ctx context.Context, sess SessionState) []int {
	raw, err := sess.Get(ctx, SessionKeyViewedPosts)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log().Warn("read viewed posts", zap.Error(err))
		}
		return nil
	}

	var ids []int
	if err = json.Unmarshal([]byte(raw), &ids); err != nil {
		s.log().Warn("parse viewed posts, reset", zap.Error(err))
		return nil
	}
	return ids
}

// CountPageView increments the site page view counter on the first
// call of a session. It reports whether this call counted.
func (s *Service) CountPageView(ctx context.Context, sess SessionState) (bool, error) {
	if sess == nil {
		return false, nil
	}

	defer s.sessionLocks.Lock(sess.Prefix())()

	if _, err := sess.Get(ctx, SessionKeyHasViewed); err == nil {
		return false, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return false, errors.Wrap(err, "read session")
	}

	if err := sess.Set(ctx, SessionKeyHasViewed, "true"); err != nil {
		return false, errors.Wrap(err, "mark session viewed")
	}
	if _, err := s.store.IncrementPageViews(ctx); err != nil {
		return false, errors.Wrap(err, "increment page views")
	}

	return true, nil
}

// PageViews returns the site page view counter
func (s *Service) PageViews(ctx context.Context) (int, error) {
	return s.store.PageViews(ctx)
}
