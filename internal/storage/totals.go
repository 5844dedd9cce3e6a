package storage

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/receipt-ledger/internal/model"
)

// SetCategoryTotal records the amount a receipt spent in category. A zero
// amount removes the row so that only non-empty categories are stored.
func (s *queries) SetCategoryTotal(ctx context.Context, receiptID int64, category model.Category, amount decimal.Decimal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(receiptID, "receiptID"); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}

	if amount.IsZero() {
		return s.DeleteCategoryTotal(ctx, receiptID, category)
	}

	if _, err := s.q.ExecContext(ctx, `
		INSERT INTO receipt_category_totals (receipt_id, category_id, amount)
		VALUES (?, ?, ?)
		ON CONFLICT (receipt_id, category_id) DO UPDATE SET amount = excluded.amount
	`, receiptID, category.ID(), amount); err != nil {
		return fmt.Errorf("failed to set category total: %w", err)
	}
	return nil
}

// DeleteCategoryTotal removes one category total. A missing row is not an error.
func (s *queries) DeleteCategoryTotal(ctx context.Context, receiptID int64, category model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(receiptID, "receiptID"); err != nil {
		return err
	}

	if _, err := s.q.ExecContext(ctx, `
		DELETE FROM receipt_category_totals WHERE receipt_id = ? AND category_id = ?
	`, receiptID, category.ID()); err != nil {
		return fmt.Errorf("failed to delete category total: %w", err)
	}
	return nil
}

// DeleteCategoryTotals removes every total of a receipt.
func (s *queries) DeleteCategoryTotals(ctx context.Context, receiptID int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(receiptID, "receiptID"); err != nil {
		return err
	}

	if _, err := s.q.ExecContext(ctx, `DELETE FROM receipt_category_totals WHERE receipt_id = ?`, receiptID); err != nil {
		return fmt.Errorf("failed to delete category totals: %w", err)
	}
	return nil
}

// GetCategoryTotals returns the stored totals of a receipt in category order.
func (s *queries) GetCategoryTotals(ctx context.Context, receiptID int64) ([]model.CategoryTotal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(receiptID, "receiptID"); err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT receipt_id, category_id, amount FROM receipt_category_totals
		WHERE receipt_id = ?
		ORDER BY category_id
	`, receiptID)
	if err != nil {
		return nil, fmt.Errorf("failed to query category totals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var totals []model.CategoryTotal
	for rows.Next() {
		var (
			t          model.CategoryTotal
			categoryID int
		)
		if err := rows.Scan(&t.ReceiptID, &categoryID, &t.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		if t.Category, err = model.CategoryFromID(categoryID); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}
