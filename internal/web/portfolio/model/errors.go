package model

import "github.com/Laisky/errors/v2"

var (
	// ErrNotFound no record matches the given id or slug
	ErrNotFound = errors.New("not found")
	// ErrInvalidDraft a draft failed validation on save
	ErrInvalidDraft = errors.New("invalid draft")
)
