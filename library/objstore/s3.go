package objstore

import (
	"context"
	"io"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config S3 compatible endpoint
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	// Prefix is prepended to every object name
	Prefix string
	Secure bool
}

// S3 stores objects in a bucket
type S3 struct {
	cli    *minio.Client
	bucket string
	prefix string
}

// NewS3 creates a minio client for cfg
func NewS3(cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "new minio client for %q", cfg.Endpoint)
	}

	prefix := strings.Trim(cfg.Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &S3{cli: cli, bucket: cfg.Bucket, prefix: prefix}, nil
}

func (s *S3) key(name string) string {
	return s.prefix + name
}

// Put uploads r as name
func (s *S3) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	if err := ValidName(name); err != nil {
		return err
	}

	if _, err := s.cli.PutObject(ctx, s.bucket, s.key(name), r, size,
		minio.PutObjectOptions{
			ContentType: contentType,
		},
	); err != nil {
		return errors.Wrapf(err, "put object %q", name)
	}
	return nil
}

// Get downloads name
func (s *S3) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ValidName(name); err != nil {
		return nil, err
	}

	obj, err := s.cli.GetObject(ctx, s.bucket, s.key(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "get object %q", name)
	}

	// GetObject is lazy, Stat surfaces a missing key
	if _, err = obj.Stat(); err != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, errors.Wrap(ErrNotFound, name)
		}
		return nil, errors.Wrapf(err, "stat object %q", name)
	}

	return obj, nil
}

// Delete removes name
func (s *S3) Delete(ctx context.Context, name string) error {
	if err := ValidName(name); err != nil {
		return err
	}

	if err := s.cli.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrapf(err, "remove object %q", name)
	}
	return nil
}
