package model

import (
	"fmt"
	"strings"
	"time"
)

// MatchKind controls how a pattern's text is compared with an item name.
type MatchKind string

// Supported match kinds.
const (
	MatchExact      MatchKind = "exact"
	MatchContains   MatchKind = "contains"
	MatchStartsWith MatchKind = "starts_with"
	MatchEndsWith   MatchKind = "ends_with"
)

// ParseMatchKind validates a match kind string. Empty means exact.
func ParseMatchKind(s string) (MatchKind, error) {
	switch k := MatchKind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return MatchExact, nil
	case MatchExact, MatchContains, MatchStartsWith, MatchEndsWith:
		return k, nil
	default:
		return "", fmt.Errorf("unknown match kind %q", s)
	}
}

// Pattern is a learned rule mapping item names to a category.
type Pattern struct {
	CreatedAt time.Time `json:"created_at"`
	Text      string    `json:"pattern"`
	MatchKind MatchKind `json:"match_type"`
	Category  Category  `json:"category_id"`
	Priority  int       `json:"priority"`
	ID        int64     `json:"id"`
}

// Key returns the normalized text used for system-wide uniqueness.
func (p Pattern) Key() string {
	return PatternKey(p.Text)
}

// PatternKey normalizes pattern text for comparisons and uniqueness.
func PatternKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Matches reports whether name satisfies the pattern, ignoring case.
func (p Pattern) Matches(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	text := p.Key()
	if text == "" {
		return false
	}

	switch p.MatchKind {
	case MatchExact:
		return name == text
	case MatchContains:
		return strings.Contains(name, text)
	case MatchStartsWith:
		return strings.HasPrefix(name, text)
	case MatchEndsWith:
		return strings.HasSuffix(name, text)
	default:
		return false
	}
}
