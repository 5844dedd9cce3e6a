package pattern

import (
	"context"
	"fmt"
	"sort"

	"github.com/Veraticus/receipt-ledger/internal/model"
)

// Matcher finds the pattern that applies to an item name. Exact patterns are
// always tried before fuzzy ones, so an exact textual match wins regardless
// of priority.
type Matcher struct {
	exact []model.Pattern
	fuzzy []model.Pattern
}

// NewMatcher builds a matcher over patterns.
func NewMatcher(patterns []model.Pattern) *Matcher {
	m := &Matcher{}
	for _, p := range patterns {
		if p.MatchKind == model.MatchExact {
			m.exact = append(m.exact, p)
		} else {
			m.fuzzy = append(m.fuzzy, p)
		}
	}
	sortByPriority(m.exact)
	sortByPriority(m.fuzzy)
	return m
}

// LoadMatcher builds a matcher from every stored pattern.
func LoadMatcher(ctx context.Context, src Source) (*Matcher, error) {
	patterns, err := src.GetPatterns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load patterns: %w", err)
	}
	return NewMatcher(patterns), nil
}

// FindMatch returns the first pattern matching name.
func (m *Matcher) FindMatch(name string) (*model.Pattern, bool) {
	for _, group := range [][]model.Pattern{m.exact, m.fuzzy} {
		for i := range group {
			if group[i].Matches(name) {
				p := group[i]
				return &p, true
			}
		}
	}
	return nil, false
}

// Len returns the number of loaded patterns.
func (m *Matcher) Len() int {
	return len(m.exact) + len(m.fuzzy)
}

// sortByPriority orders by priority descending, then by id so that older
// patterns win ties.
func sortByPriority(patterns []model.Pattern) {
	sort.SliceStable(patterns, func(i, j int) bool {
		if patterns[i].Priority != patterns[j].Priority {
			return patterns[i].Priority > patterns[j].Priority
		}
		return patterns[i].ID < patterns[j].ID
	})
}
