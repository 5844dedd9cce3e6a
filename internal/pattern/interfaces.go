// Package pattern matches item names against learned category rules and
// learns new rules from user corrections.
package pattern

import (
	"context"

	"github.com/Veraticus/receipt-ledger/internal/model"
)

// Source loads the learned patterns.
type Source interface {
	GetPatterns(ctx context.Context) ([]model.Pattern, error)
}

// Store persists learned patterns. SavePattern enforces the system-wide
// uniqueness of (text, match kind) by removing conflicting rows in other
// categories.
type Store interface {
	SavePattern(ctx context.Context, p *model.Pattern) error
}
