package model

import (
	"fmt"
	"strings"
)

// EfSearch is the query-time search effort tier.
type EfSearch uint8

const (
	// EfFast explores few candidates.
	EfFast EfSearch = iota
	// EfBalanced is the default tier.
	EfBalanced
	// EfAccurate explores many candidates for higher recall.
	EfAccurate
)

// Value returns the candidate list size used by the index at query time.
func (e EfSearch) Value() int {
	switch e {
	case EfFast:
		return 50
	case EfAccurate:
		return 500
	default:
		return 200
	}
}

// String returns the stable name of the tier.
func (e EfSearch) String() string {
	switch e {
	case EfFast:
		return "fast"
	case EfBalanced:
		return "balanced"
	case EfAccurate:
		return "accurate"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(e))
	}
}

// ParseEfSearch parses a tier name. The empty string yields EfBalanced.
func ParseEfSearch(s string) (EfSearch, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fast":
		return EfFast, nil
	case "balanced", "":
		return EfBalanced, nil
	case "accurate":
		return EfAccurate, nil
	default:
		return 0, fmt.Errorf("unknown search effort %q", s)
	}
}

// MetadataFilter lists key/value pairs a point must all carry.
type MetadataFilter map[string]string

// Matches reports whether metadata contains every pair of f.
// An empty filter matches everything.
func (f MetadataFilter) Matches(metadata map[string]string) bool {
	for k, want := range f {
		got, ok := metadata[k]
		if !ok || got != want {
			return false
		}
	}
	return true
}

// MatchesAny reports whether metadata satisfies at least one filter.
// An empty filter list matches everything.
func MatchesAny(filters []MetadataFilter, metadata map[string]string) bool {
	if len(filters) == 0 {
		return true
	}
	for _, f := range filters {
		if f.Matches(metadata) {
			return true
		}
	}
	return false
}
