package pattern

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/receipt-ledger/internal/common"
	"github.com/Veraticus/receipt-ledger/internal/model"
)

// DefaultPriority is given to every learned pattern.
const DefaultPriority = 1

// NewPattern builds a quantity-agnostic pattern from an item name by
// dropping its trailing "(Nx)" counter.
func NewPattern(category model.Category, itemName string, kind model.MatchKind) (*model.Pattern, error) {
	if !category.Valid() {
		return nil, common.NewValidationError("unknown category id %d", int(category))
	}
	if kind == "" {
		kind = model.MatchExact
	}
	if _, err := model.ParseMatchKind(string(kind)); err != nil {
		return nil, common.NewValidationError("%v", err)
	}

	text := model.StripCounter(itemName)
	if model.PatternKey(text) == "" {
		return nil, common.NewValidationError("pattern text is empty")
	}

	return &model.Pattern{
		Category:  category,
		Text:      text,
		MatchKind: kind,
		Priority:  DefaultPriority,
	}, nil
}

// Learner records patterns learned from recategorized items.
type Learner struct {
	store Store
}

// NewLearner creates a learner writing to store.
func NewLearner(store Store) *Learner {
	return &Learner{store: store}
}

// Learn stores a pattern mapping itemName to category. Patterns with the same
// text and kind under other categories are replaced.
func (l *Learner) Learn(ctx context.Context, category model.Category, itemName string, kind model.MatchKind) (*model.Pattern, error) {
	p, err := NewPattern(category, itemName, kind)
	if err != nil {
		return nil, err
	}

	if err := l.store.SavePattern(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save pattern: %w", err)
	}

	slog.Info("Learned item pattern",
		"pattern", p.Text,
		"match_type", string(p.MatchKind),
		"category", p.Category.String(),
		"id", p.ID)

	return p, nil
}
