package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/receipt-ledger/internal/model"
	"github.com/Veraticus/receipt-ledger/internal/service"
)

// counts reports whether an assignment contributes to its category total.
// Void items never do; an index missing from the arena still counts.
func counts(receipt *model.Receipt, a model.Assignment) bool {
	item, ok := receipt.Item(a.ItemIndex)
	return !ok || !item.IsVoid()
}

// ComputeTotals sums the item price of every counted assignment per
// category. Categories whose sum is zero are left out.
func ComputeTotals(receipt *model.Receipt, assignments []model.Assignment) map[model.Category]decimal.Decimal {
	totals := make(map[model.Category]decimal.Decimal)
	for _, a := range assignments {
		if !counts(receipt, a) {
			continue
		}
		totals[a.Category] = totals[a.Category].Add(a.ItemPrice)
	}
	for category, amount := range totals {
		if amount.IsZero() {
			delete(totals, category)
		}
	}
	return totals
}

// CategoryTotal sums the counted assignments of a single category.
func CategoryTotal(receipt *model.Receipt, assignments []model.Assignment, category model.Category) decimal.Decimal {
	sum := decimal.Zero
	for _, a := range assignments {
		if a.Category == category && counts(receipt, a) {
			sum = sum.Add(a.ItemPrice)
		}
	}
	return sum
}

// RecomputeTotals rebuilds the stored totals of the given categories from the
// receipt's current assignments. A zero total removes the row.
func RecomputeTotals(ctx context.Context, store service.Storage, receipt *model.Receipt, categories ...model.Category) error {
	seen := make(map[model.Category]bool, len(categories))
	for _, category := range categories {
		if seen[category] || !category.Valid() {
			continue
		}
		seen[category] = true

		assignments, err := store.GetAssignmentsByCategory(ctx, receipt.ID, category)
		if err != nil {
			return fmt.Errorf("failed to load %s assignments: %w", category, err)
		}

		amount := CategoryTotal(receipt, assignments, category)
		if err := store.SetCategoryTotal(ctx, receipt.ID, category, amount); err != nil {
			return fmt.Errorf("failed to store %s total: %w", category, err)
		}
	}
	return nil
}

// ReplaceTotals drops every stored total of the receipt and writes the ones
// derived from assignments.
func ReplaceTotals(ctx context.Context, store service.Storage, receipt *model.Receipt, assignments []model.Assignment) (map[model.Category]decimal.Decimal, error) {
	if err := store.DeleteCategoryTotals(ctx, receipt.ID); err != nil {
		return nil, err
	}

	totals := ComputeTotals(receipt, assignments)
	for _, category := range model.AllCategories() {
		amount, ok := totals[category]
		if !ok {
			continue
		}
		if err := store.SetCategoryTotal(ctx, receipt.ID, category, amount); err != nil {
			return nil, fmt.Errorf("failed to store %s total: %w", category, err)
		}
	}
	return totals, nil
}
