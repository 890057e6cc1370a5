package service

import (
	"context"
	"io"
	"net/mail"
	"path/filepath"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/model"
	"github.com/Laisky/laisky-portfolio/library/objstore"
)

// MaxCVSize bounds CV uploads
const MaxCVSize = 10 << 20

// Profile returns the profile
func (s *Service) Profile() model.ProfileInfo {
	return s.store.Profile()
}

// UpdateProfile replaces the whole profile
func (s *Service) UpdateProfile(_ context.Context, p model.ProfileInfo) (model.ProfileInfo, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	if p.Name == "" {
		return model.ProfileInfo{}, errors.Wrap(ErrInvalidProfile, "name is required")
	}
	if p.Email != "" {
		if _, err := mail.ParseAddress(p.Email); err != nil {
			return model.ProfileInfo{}, errors.Wrapf(ErrInvalidProfile, "invalid email %q", p.Email)
		}
	}
	if p.Age < 0 {
		return model.ProfileInfo{}, errors.Wrap(ErrInvalidProfile, "age cannot be negative")
	}

	s.store.SetProfile(p)
	s.log().Info("profile updated")
	return p, nil
}

// Settings returns the site settings
func (s *Service) Settings() model.SiteSettings {
	return s.store.Settings()
}

// UpdateSettings replaces the site settings
func (s *Service) UpdateSettings(_ context.Context, st model.SiteSettings) model.SiteSettings {
	s.store.SetSettings(st)
	s.log().Info("site settings updated")
	return st
}

// UploadCV stores a pdf and points the profile CV at it.
// title falls back to the current CV title.
func (s *Service) UploadCV(ctx context.Context, fileName, title string, r io.Reader, size int64) (model.CV, error) {
	if s.files == nil {
		return model.CV{}, ErrFilesDisabled
	}

	fileName = filepath.Base(strings.TrimSpace(fileName))
	if !strings.EqualFold(filepath.Ext(fileName), ".pdf") {
		return model.CV{}, errors.Wrapf(ErrInvalidCV, "only pdf files are accepted, got %q", fileName)
	}
	if err := objstore.ValidName(fileName); err != nil {
		return model.CV{}, errors.Wrap(ErrInvalidCV, err.Error())
	}
	if size <= 0 || size > MaxCVSize {
		return model.CV{}, errors.Wrapf(ErrInvalidCV, "size %d out of range", size)
	}

	if err := s.files.Put(ctx, fileName, io.LimitReader(r, MaxCVSize), size, "application/pdf"); err != nil {
		return model.CV{}, errors.Wrap(err, "store cv")
	}

	profile := s.store.Profile()
	old := profile.CV
	if title = strings.TrimSpace(title); title == "" {
		title = old.Title
	}
	profile.CV = model.CV{
		Title:      title,
		FileName:   fileName,
		UploadDate: s.today(),
		Path:       "/cv/" + fileName,
	}
	s.store.SetProfile(profile)

	if old.FileName != "" && old.FileName != fileName {
		if err := s.files.Delete(ctx, old.FileName); err != nil {
			s.log().Warn("remove replaced cv", zap.String("file", old.FileName), zap.Error(err))
		}
	}

	s.log().Info("cv uploaded", zap.String("file", fileName), zap.Int64("size", size))
	return profile.CV, nil
}

// RemoveCV deletes the stored CV and clears the profile link
func (s *Service) RemoveCV(ctx context.Context) error {
	profile := s.store.Profile()
	if profile.CV.FileName == "" {
		return ErrNoCV
	}

	if s.files != nil {
		if err := s.files.Delete(ctx, profile.CV.FileName); err != nil {
			return errors.Wrap(err, "delete cv")
		}
	}

	profile.CV = model.CV{Title: profile.CV.Title}
	s.store.SetProfile(profile)
	return nil
}

// OpenCV opens the stored CV file named name
func (s *Service) OpenCV(ctx context.Context, name string) (io.ReadCloser, error) {
	if s.files == nil {
		return nil, ErrFilesDisabled
	}

	r, err := s.files.Get(ctx, name)
	if err != nil {
		if errors.Is(err, objstore.ErrNotFound) {
			return nil, errors.Wrap(ErrNoCV, name)
		}
		return nil, errors.WithStack(err)
	}
	return r, nil
}
