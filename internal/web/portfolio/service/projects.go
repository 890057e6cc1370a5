package service

import (
	"context"
	"slices"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/dto"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/model"
)

func projectID(p model.Project) int { return p.ID }

// ListProjects returns every project
func (s *Service) ListProjects() []model.Project {
	return s.store.Projects()
}

// PublishedProjects returns published projects in stored order
func (s *Service) PublishedProjects() []model.Project {
	return slices.DeleteFunc(s.store.Projects(), func(p model.Project) bool {
		return p.Status != model.StatusPublished
	})
}

// GetProject returns the project with id
func (s *Service) GetProject(id int) (model.Project, error) {
	for _, p := range s.store.Projects() {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Project{}, errors.Wrapf(model.ErrNotFound, "project %d", id)
}

// AddProject appends a project built from draft with id max+1
func (s *Service) AddProject(_ context.Context, draft dto.ProjectDraft) (model.Project, error) {
	if err := draft.Validate(); err != nil {
		return model.Project{}, err
	}
	p, err := draft.ToProject()
	if err != nil {
		return model.Project{}, errors.WithStack(err)
	}
	p.Date = s.today()

	s.store.UpdateProjects(func(ps []model.Project) []model.Project {
		p.ID = nextID(ps, projectID)
		return append(ps, p)
	})

	s.log().Info("project added", zap.Int("id", p.ID), zap.String("title", p.Title))
	return p, nil
}

// EditProject replaces project id with draft, keeping its date
func (s *Service) EditProject(_ context.Context, id int, draft dto.ProjectDraft) (model.Project, error) {
	if err := draft.Validate(); err != nil {
		return model.Project{}, err
	}
	p, err := draft.ToProject()
	if err != nil {
		return model.Project{}, errors.WithStack(err)
	}

	found := false
	s.store.UpdateProjects(func(ps []model.Project) []model.Project {
		for i := range ps {
			if ps[i].ID == id {
				p.ID = id
				p.Date = ps[i].Date
				ps[i] = p
				found = true
				break
			}
		}
		return ps
	})
	if !found {
		return model.Project{}, errors.Wrapf(model.ErrNotFound, "project %d", id)
	}

	s.log().Info("project edited", zap.Int("id", id))
	return p, nil
}

// DeleteProject removes project id, keeping the order of the rest
func (s *Service) DeleteProject(_ context.Context, id int) error {
	found := false
	s.store.UpdateProjects(func(ps []model.Project) []model.Project {
		return slices.DeleteFunc(ps, func(p model.Project) bool {
			if p.ID == id && !found {
				found = true
				return true
			}
			return false
		})
	})
	if !found {
		return errors.Wrapf(model.ErrNotFound, "project %d", id)
	}

	s.log().Info("project deleted", zap.Int("id", id))
	return nil
}

// SearchProjects filters projects by a case-insensitive substring of
// title or category. Empty term matches everything.
func (s *Service) SearchProjects(term string) []model.Project {
	return slices.DeleteFunc(s.store.Projects(), func(p model.Project) bool {
		return !matches(term, p.Title, string(p.Category))
	})
}
