package service

import "github.com/Laisky/errors/v2"

var (
	// ErrNoCV no CV file is stored
	ErrNoCV = errors.New("no cv uploaded")
	// ErrFilesDisabled no object store is configured
	ErrFilesDisabled = errors.New("file uploads are not configured")
	// ErrInvalidCV the upload is not an acceptable CV file
	ErrInvalidCV = errors.New("invalid cv file")
	// ErrInvalidProfile the profile failed validation
	ErrInvalidProfile = errors.New("invalid profile")
)
