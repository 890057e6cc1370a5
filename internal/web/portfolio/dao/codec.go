package dao

import (
	"encoding/json"

	"github.com/Laisky/errors/v2"

	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/dto"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/model"
)

// persistedKeys are written on every persist, in this order
var persistedKeys = []string{KeyProjects, KeyBlogPosts, KeySkills, KeyProfile, KeySettings}

// Encode serializes snap into the stored representation, one JSON
// document per key. The page view counter is not included.
func Encode(snap *dto.Snapshot) (map[string]string, error) {
	settings := model.DefaultSettings()
	if snap.Settings != nil {
		settings = *snap.Settings
	}

	values := map[string]any{
		KeyProjects:  nonNil(snap.Projects),
		KeyBlogPosts: nonNil(snap.BlogPosts),
		KeySkills:    nonNil(snap.Skills),
		KeyProfile:   snap.Profile,
		KeySettings:  settings,
	}

	out := make(map[string]string, len(values))
	for key, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, errors.Wrapf(err, "marshal %q", key)
		}
		out[key] = string(raw)
	}

	return out, nil
}

// Decode parses the stored representation.
//
// Keys that are missing, null or unparsable stay zero and are left out of
// the returned set. Every key is tried, the first parse failure is returned.
func Decode(stored map[string]string) (*dto.Snapshot, map[string]bool, error) {
	snap := new(dto.Snapshot)
	targets := map[string]any{
		KeyProjects:  &snap.Projects,
		KeyBlogPosts: &snap.BlogPosts,
		KeySkills:    &snap.Skills,
		KeyProfile:   &snap.Profile,
		KeySettings:  &snap.Settings,
	}

	var (
		decoded  = make(map[string]bool, len(targets))
		firstErr error
	)
	for _, key := range persistedKeys {
		raw, ok := stored[key]
		if !ok || raw == "null" {
			continue
		}
		if err := json.Unmarshal([]byte(raw), targets[key]); err != nil {
			if firstErr == nil {
				firstErr = errors.Wrapf(err, "unmarshal %q", key)
			}
			continue
		}
		decoded[key] = true
	}

	return snap, decoded, firstErr
}

// nonNil keeps empty collections encoded as [] rather than null
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
