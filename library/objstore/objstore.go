// Package objstore stores uploaded files, on S3 compatible storage or
// in a local directory.
package objstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/Laisky/errors/v2"
)

// ErrNotFound the object does not exist
var ErrNotFound = errors.New("object not found")

var regexpObjectName = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_\-. ]{0,254}$`)

// Store keeps named objects
type Store interface {
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
}

// ValidName reports whether name is a safe flat object name
func ValidName(name string) error {
	if !regexpObjectName.MatchString(name) || filepath.Base(name) != name {
		return errors.Errorf("invalid object name %q", name)
	}
	return nil
}

// Local stores objects as files in one directory
type Local struct {
	dir string
}

// NewLocal creates dir if needed
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "mkdir %q", dir)
	}
	return &Local{dir: dir}, nil
}

// Put writes r to name, replacing any previous file
func (l *Local) Put(_ context.Context, name string, r io.Reader, _ int64, _ string) error {
	if err := ValidName(name); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(l.dir, ".upload-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name()) // nolint: errcheck

	if _, err = io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "write object")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "close object")
	}

	return errors.Wrap(os.Rename(tmp.Name(), filepath.Join(l.dir, name)), "rename object")
}

// Get opens name
func (l *Local) Get(_ context.Context, name string) (io.ReadCloser, error) {
	if err := ValidName(name); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(l.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrNotFound, name)
		}
		return nil, errors.Wrapf(err, "open %q", name)
	}
	return f, nil
}

// Delete removes name, missing files are ignored
func (l *Local) Delete(_ context.Context, name string) error {
	if err := ValidName(name); err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(l.dir, name)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "remove %q", name)
	}
	return nil
}
