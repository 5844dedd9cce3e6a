// Package ledger applies user edits to categorized receipts and keeps the
// per-category totals in step with the assignments.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/receipt-ledger/internal/common"
	"github.com/Veraticus/receipt-ledger/internal/metrics"
	"github.com/Veraticus/receipt-ledger/internal/model"
	"github.com/Veraticus/receipt-ledger/internal/pattern"
	"github.com/Veraticus/receipt-ledger/internal/service"
)

// Edit operation names used in logs and metrics.
const (
	OpRecategorize = "recategorize"
	OpBundle       = "bundle"
)

// Ledger runs edit operations. Each operation is a single transaction.
type Ledger struct {
	store   service.Storage
	metrics *metrics.Recorder
}

// New creates a ledger over store. rec may be nil.
func New(store service.Storage, rec *metrics.Recorder) *Ledger {
	return &Ledger{store: store, metrics: rec}
}

// RecategorizeRequest moves one assignment to another category.
type RecategorizeRequest struct {
	// Learn defaults to true when nil.
	Learn        *bool           `json:"learn_pattern"`
	MatchKind    model.MatchKind `json:"pattern_match_type" validate:"omitempty,oneof=exact contains starts_with ends_with"`
	AssignmentID int64           `json:"receipt_item_id" validate:"required,gt=0"`
	Category     model.Category  `json:"new_category_id" validate:"required"`
}

func (r RecategorizeRequest) learn() bool {
	return r.Learn == nil || *r.Learn
}

// RecategorizeResult describes an applied recategorization.
type RecategorizeResult struct {
	Pattern     *model.Pattern
	Assignment  model.Assignment
	OldCategory model.Category
}

// Recategorize reassigns one item, optionally learns a pattern from its name
// and recomputes the totals of the old and new category.
func (l *Ledger) Recategorize(ctx context.Context, req RecategorizeRequest) (*RecategorizeResult, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}
	if !req.Category.Valid() {
		return nil, common.NewValidationError("unknown category id %d", int(req.Category))
	}
	kind, err := model.ParseMatchKind(string(req.MatchKind))
	if err != nil {
		return nil, common.NewValidationError("%v", err)
	}

	var result RecategorizeResult
	err = service.WithTx(ctx, l.store, func(tx service.Storage) error {
		a, err := tx.GetAssignment(ctx, req.AssignmentID)
		if err != nil {
			return err
		}
		receipt, err := tx.GetReceipt(ctx, a.ReceiptID)
		if err != nil {
			return err
		}

		result.OldCategory = a.Category
		if a.Category != req.Category {
			if err := tx.UpdateAssignmentCategory(ctx, a.ID, req.Category); err != nil {
				return err
			}
			a.Category = req.Category
		}
		result.Assignment = *a

		if req.learn() {
			p, err := pattern.NewLearner(tx).Learn(ctx, req.Category, a.ItemName, kind)
			if err != nil {
				return err
			}
			result.Pattern = p
		}

		return RecomputeTotals(ctx, tx, receipt, result.OldCategory, req.Category)
	})
	if err != nil {
		return nil, fmt.Errorf("recategorize assignment %d: %w", req.AssignmentID, err)
	}

	l.metrics.EditApplied(OpRecategorize)
	slog.Info("Recategorized item",
		"receipt_id", result.Assignment.ReceiptID,
		"item_index", result.Assignment.ItemIndex,
		"item", result.Assignment.ItemName,
		"from", result.OldCategory.String(),
		"to", req.Category.String(),
		"learned", result.Pattern != nil)

	return &result, nil
}

// BundleRequest merges several items of one receipt into a synthetic aggregate.
type BundleRequest struct {
	Name      string `json:"new_name" validate:"max=255"`
	Indices   []int  `json:"item_indices" validate:"required,min=2,dive,min=0"`
	ReceiptID int64  `json:"receipt_id" validate:"required,gt=0"`
}

// BundleResult describes an applied bundle.
type BundleResult struct {
	// Category is nil when none of the sources were assigned.
	Category   *model.Category
	Assignment *model.Assignment
	Item       model.RawItem
}

// Bundle appends an aggregate item built from the requested items, voids the
// sources and moves their shared category assignment onto the aggregate.
func (l *Ledger) Bundle(ctx context.Context, req BundleRequest) (*BundleResult, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}
	seen := make(map[int]bool, len(req.Indices))
	for _, idx := range req.Indices {
		if seen[idx] {
			return nil, common.NewValidationError("item %d listed more than once", idx)
		}
		seen[idx] = true
	}

	var result BundleResult
	err := service.WithTx(ctx, l.store, func(tx service.Storage) error {
		receipt, err := tx.GetReceipt(ctx, req.ReceiptID)
		if err != nil {
			return err
		}

		sources, category, err := bundleSources(ctx, tx, receipt, req.Indices)
		if err != nil {
			return err
		}

		quantity, total := decimal.Zero, decimal.Zero
		for _, item := range sources {
			quantity = quantity.Add(item.Quantity)
			total = total.Add(item.TotalPrice)
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			name = model.WithCounter(sources[0].Name, quantity)
		}
		unit := decimal.Zero
		if quantity.IsPositive() {
			unit = total.Div(quantity)
		}

		aggregate := model.RawItem{
			Name:        name,
			Quantity:    quantity,
			UnitPrice:   unit,
			TotalPrice:  total,
			BundledFrom: append([]int(nil), req.Indices...),
		}
		newIndex := receipt.Append(aggregate)
		for _, idx := range req.Indices {
			target := newIndex
			item := &receipt.Items[idx]
			item.BundledInto = &target
			item.Quantity = decimal.Zero
			item.TotalPrice = decimal.Zero
		}
		result.Item = receipt.Items[newIndex]

		if err := tx.UpdateReceiptItems(ctx, receipt); err != nil {
			return err
		}
		if err := tx.DeleteAssignments(ctx, receipt.ID, req.Indices); err != nil {
			return err
		}
		if category == nil {
			return nil
		}

		a := &model.Assignment{
			ReceiptID: receipt.ID,
			ItemIndex: newIndex,
			ItemName:  name,
			ItemPrice: total,
			Category:  *category,
		}
		if err := tx.CreateAssignment(ctx, a); err != nil {
			return err
		}
		result.Category = category
		result.Assignment = a

		return RecomputeTotals(ctx, tx, receipt, *category)
	})
	if err != nil {
		return nil, fmt.Errorf("bundle items of receipt %d: %w", req.ReceiptID, err)
	}

	l.metrics.EditApplied(OpBundle)
	slog.Info("Bundled items",
		"receipt_id", req.ReceiptID,
		"sources", req.Indices,
		"item_index", result.Item.Index,
		"name", result.Item.Name,
		"total", result.Item.TotalPrice.StringFixed(2))

	return &result, nil
}

// bundleSources resolves the requested items and the single category they
// share, if any of them is assigned.
func bundleSources(ctx context.Context, store service.Storage, receipt *model.Receipt, indices []int) ([]model.RawItem, *model.Category, error) {
	sources := make([]model.RawItem, 0, len(indices))
	var shared *model.Category

	for _, idx := range indices {
		item, ok := receipt.Item(idx)
		if !ok {
			return nil, nil, common.NewValidationError("item %d not found in receipt %d", idx, receipt.ID)
		}
		if item.IsVoid() {
			return nil, nil, common.NewValidationError("item %d is already part of a bundle", idx)
		}
		sources = append(sources, *item)

		a, err := store.GetAssignmentByIndex(ctx, receipt.ID, idx)
		switch {
		case errors.Is(err, common.ErrNotFound):
			continue
		case err != nil:
			return nil, nil, err
		}

		if shared == nil {
			c := a.Category
			shared = &c
		} else if *shared != a.Category {
			return nil, nil, common.NewValidationError("cannot bundle items from different categories (%s and %s)", *shared, a.Category)
		}
	}
	return sources, shared, nil
}
