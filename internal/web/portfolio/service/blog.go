package service

import (
	"context"
	"html/template"
	"slices"
	"strconv"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/dto"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/model"
)

func blogPostID(p model.BlogPost) int { return p.ID }

// ListBlogPosts returns every blog post
func (s *Service) ListBlogPosts() []model.BlogPost {
	return s.store.BlogPosts()
}

// PublishedBlogPosts returns published posts in stored order
func (s *Service) PublishedBlogPosts() []model.BlogPost {
	return slices.DeleteFunc(s.store.BlogPosts(), func(p model.BlogPost) bool {
		return p.Status != model.StatusPublished
	})
}

// FindBlogPost returns the first post whose slug, or id as a decimal
// string, equals slugOrID. Duplicate slugs resolve to the first match.
func (s *Service) FindBlogPost(slugOrID string) (model.BlogPost, error) {
	for _, p := range s.store.BlogPosts() {
		if p.Slug == slugOrID || strconv.Itoa(p.ID) == slugOrID {
			return p, nil
		}
	}
	return model.BlogPost{}, errors.Wrapf(model.ErrNotFound, "blog post %q", slugOrID)
}

// GetBlogPost returns the post with id
func (s *Service) GetBlogPost(id int) (model.BlogPost, error) {
	for _, p := range s.store.BlogPosts() {
		if p.ID == id {
			return p, nil
		}
	}
	return model.BlogPost{}, errors.Wrapf(model.ErrNotFound, "blog post %d", id)
}

// AddBlogPost appends a post with id max+1, zero views and a slug
// derived from its title
func (s *Service) AddBlogPost(_ context.Context, draft dto.BlogPostDraft) (model.BlogPost, error) {
	if err := draft.Validate(); err != nil {
		return model.BlogPost{}, err
	}
	p, err := draft.ToBlogPost()
	if err != nil {
		return model.BlogPost{}, errors.WithStack(err)
	}
	p.Date = s.today()
	p.Views = 0
	p.Slug = model.Slugify(p.Title)

	s.store.UpdateBlogPosts(func(ps []model.BlogPost) []model.BlogPost {
		p.ID = nextID(ps, blogPostID)
		return append(ps, p)
	})

	s.log().Info("blog post added", zap.Int("id", p.ID), zap.String("slug", p.Slug))
	return p, nil
}

// EditBlogPost replaces post id with draft.
//
// Date and views are kept. The slug is re-derived only when the title
// differs from draft.OriginalTitle, or from the stored title when the
// draft carries none.
func (s *Service) EditBlogPost(_ context.Context, id int, draft dto.BlogPostDraft) (model.BlogPost, error) {
	if err := draft.Validate(); err != nil {
		return model.BlogPost{}, err
	}
	p, err := draft.ToBlogPost()
	if err != nil {
		return model.BlogPost{}, errors.WithStack(err)
	}

	found := false
	s.store.UpdateBlogPosts(func(ps []model.BlogPost) []model.BlogPost {
		i := slices.IndexFunc(ps, func(x model.BlogPost) bool { return x.ID == id })
		if i < 0 {
			return ps
		}
		found = true

		old := ps[i]
		originalTitle := draft.OriginalTitle
		if originalTitle == "" {
			originalTitle = old.Title
		}

		p.ID = id
		p.Date = old.Date
		p.Views = old.Views
		p.Slug = old.Slug
		if p.Title != originalTitle || p.Slug == "" {
			p.Slug = model.Slugify(p.Title)
		}
		ps[i] = p
		return ps
	})
	if !found {
		return model.BlogPost{}, errors.Wrapf(model.ErrNotFound, "blog post %d", id)
	}

	s.log().Info("blog post edited", zap.Int("id", id), zap.String("slug", p.Slug))
	return p, nil
}

// DeleteBlogPost removes post id
func (s *Service) DeleteBlogPost(_ context.Context, id int) error {
	found := false
	s.store.UpdateBlogPosts(func(ps []model.BlogPost) []model.BlogPost {
		if i := slices.IndexFunc(ps, func(x model.BlogPost) bool { return x.ID == id }); i >= 0 {
			found = true
			return slices.Delete(ps, i, i+1)
		}
		return ps
	})
	if !found {
		return errors.Wrapf(model.ErrNotFound, "blog post %d", id)
	}

	s.log().Info("blog post deleted", zap.Int("id", id))
	return nil
}

// SearchBlogPosts filters posts by title, category or excerpt
func (s *Service) SearchBlogPosts(term string) []model.BlogPost {
	return slices.DeleteFunc(s.store.BlogPosts(), func(p model.BlogPost) bool {
		return !matches(term, p.Title, string(p.Category), p.Excerpt)
	})
}

// SearchPublishedBlogPosts is SearchBlogPosts over published posts only
func (s *Service) SearchPublishedBlogPosts(term string) []model.BlogPost {
	return slices.DeleteFunc(s.store.BlogPosts(), func(p model.BlogPost) bool {
		return p.Status != model.StatusPublished || !matches(term, p.Title, string(p.Category), p.Excerpt)
	})
}

// RelatedBlogPosts returns up to n published posts other than id
func (s *Service) RelatedBlogPosts(id, n int) []model.BlogPost {
	related := slices.DeleteFunc(s.PublishedBlogPosts(), func(p model.BlogPost) bool {
		return p.ID == id
	})
	return related[:min(n, len(related))]
}

// RenderContent renders post content as HTML. Paragraphs are separated
// by blank lines, and markdown inside them is honored. Raw html is dropped
// and only safe link schemes are kept.
func RenderContent(content string) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank | html.SkipHTML | html.Safelink,
	})

	// content is author supplied and raw html is skipped
	return template.HTML(markdown.ToHTML([]byte(content), p, renderer)) // nolint: gosec
}
