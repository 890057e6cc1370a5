package service

import (
	"context"
	"slices"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/dto"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/model"
)

func skillID(s model.Skill) int { return s.ID }

// ListSkills returns every skill group
func (s *Service) ListSkills() []model.Skill {
	return s.store.Skills()
}

// AddSkill appends a skill group with id max+1
func (s *Service) AddSkill(_ context.Context, draft dto.SkillDraft) (model.Skill, error) {
	if err := draft.Validate(); err != nil {
		return model.Skill{}, err
	}
	sk := draft.ToSkill()

	s.store.UpdateSkills(func(ss []model.Skill) []model.Skill {
		sk.ID = nextID(ss, skillID)
		return append(ss, sk)
	})

	s.log().Info("skill added", zap.Int("id", sk.ID))
	return sk, nil
}

// EditSkill replaces skill group id
func (s *Service) EditSkill(_ context.Context, id int, draft dto.SkillDraft) (model.Skill, error) {
	if err := draft.Validate(); err != nil {
		return model.Skill{}, err
	}
	sk := draft.ToSkill()
	sk.ID = id

	found := false
	s.store.UpdateSkills(func(ss []model.Skill) []model.Skill {
		if i := slices.IndexFunc(ss, func(x model.Skill) bool { return x.ID == id }); i >= 0 {
			ss[i] = sk
			found = true
		}
		return ss
	})
	if !found {
		return model.Skill{}, errors.Wrapf(model.ErrNotFound, "skill %d", id)
	}

	s.log().Info("skill edited", zap.Int("id", id))
	return sk, nil
}

// DeleteSkill removes skill group id
func (s *Service) DeleteSkill(_ context.Context, id int) error {
	found := false
	s.store.UpdateSkills(func(ss []model.Skill) []model.Skill {
		if i := slices.IndexFunc(ss, func(x model.Skill) bool { return x.ID == id }); i >= 0 {
			found = true
			return slices.Delete(ss, i, i+1)
		}
		return ss
	})
	if !found {
		return errors.Wrapf(model.ErrNotFound, "skill %d", id)
	}

	s.log().Info("skill deleted", zap.Int("id", id))
	return nil
}

// SearchSkills filters skill groups by category
func (s *Service) SearchSkills(term string) []model.Skill {
	return slices.DeleteFunc(s.store.Skills(), func(sk model.Skill) bool {
		return !matches(term, sk.Category)
	})
}
