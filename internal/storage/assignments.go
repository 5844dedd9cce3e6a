package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/receipt-ledger/internal/common"
	"github.com/Veraticus/receipt-ledger/internal/model"
)

const assignmentColumns = `a.id, a.receipt_id, a.item_index, a.category_id, a.item_name, a.item_price, a.created_at, a.updated_at`

// ReplaceAssignments drops every assignment of the receipt and inserts the
// given set.
func (s *queries) ReplaceAssignments(ctx context.Context, receiptID int64, assignments []model.Assignment) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(receiptID, "receiptID"); err != nil {
		return err
	}
	for i := range assignments {
		assignments[i].ReceiptID = receiptID
		if err := validateAssignment(&assignments[i]); err != nil {
			return fmt.Errorf("assignment at index %d: %w", i, err)
		}
	}

	return s.atomic(ctx, func(q queryable) error {
		if _, err := q.ExecContext(ctx, `DELETE FROM receipt_item_categories WHERE receipt_id = ?`, receiptID); err != nil {
			return fmt.Errorf("failed to clear assignments: %w", err)
		}
		for i := range assignments {
			if err := insertAssignment(ctx, q, &assignments[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// CreateAssignment inserts a single assignment. An item that is already
// assigned fails with common.ErrDuplicateEntry.
func (s *queries) CreateAssignment(ctx context.Context, assignment *model.Assignment) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAssignment(assignment); err != nil {
		return err
	}
	return insertAssignment(ctx, s.q, assignment)
}

func insertAssignment(ctx context.Context, q queryable, a *model.Assignment) error {
	now := time.Now().UTC()
	result, err := q.ExecContext(ctx, `
		INSERT INTO receipt_item_categories (receipt_id, category_id, item_index, item_name, item_price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.ReceiptID, a.Category.ID(), a.ItemIndex, a.ItemName, a.ItemPrice, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("item %d of receipt %d: %w", a.ItemIndex, a.ReceiptID, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to insert assignment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get assignment id: %w", err)
	}
	a.ID = id
	a.CreatedAt = now
	a.UpdatedAt = now
	return nil
}

// GetAssignment retrieves an assignment by id.
func (s *queries) GetAssignment(ctx context.Context, id int64) (*model.Assignment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id, "id"); err != nil {
		return nil, err
	}

	a, err := scanAssignment(s.q.QueryRowContext(ctx, `
		SELECT `+assignmentColumns+` FROM receipt_item_categories a WHERE a.id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("assignment %d: %w", id, common.ErrNotFound)
	}
	return a, err
}

// GetAssignmentByIndex retrieves the assignment of one item.
func (s *queries) GetAssignmentByIndex(ctx context.Context, receiptID int64, itemIndex int) (*model.Assignment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(receiptID, "receiptID"); err != nil {
		return nil, err
	}

	a, err := scanAssignment(s.q.QueryRowContext(ctx, `
		SELECT `+assignmentColumns+` FROM receipt_item_categories a
		WHERE a.receipt_id = ? AND a.item_index = ?
	`, receiptID, itemIndex))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %d of receipt %d: %w", itemIndex, receiptID, common.ErrNotFound)
	}
	return a, err
}

// GetAssignments returns the assignments of a receipt ordered by item index.
func (s *queries) GetAssignments(ctx context.Context, receiptID int64) ([]model.Assignment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(receiptID, "receiptID"); err != nil {
		return nil, err
	}

	return s.queryAssignments(ctx, `
		SELECT `+assignmentColumns+` FROM receipt_item_categories a
		WHERE a.receipt_id = ?
		ORDER BY a.item_index
	`, receiptID)
}

// GetAssignmentsByCategory returns the assignments of a receipt in one category.
func (s *queries) GetAssignmentsByCategory(ctx context.Context, receiptID int64, category model.Category) ([]model.Assignment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(receiptID, "receiptID"); err != nil {
		return nil, err
	}
	if err := validateCategory(category); err != nil {
		return nil, err
	}

	return s.queryAssignments(ctx, `
		SELECT `+assignmentColumns+` FROM receipt_item_categories a
		WHERE a.receipt_id = ? AND a.category_id = ?
		ORDER BY a.item_index
	`, receiptID, category.ID())
}

// GetCategoryItems lists every item assigned to category across receipts,
// newest purchase first.
func (s *queries) GetCategoryItems(ctx context.Context, category model.Category) ([]model.CategoryItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateCategory(category); err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT `+assignmentColumns+`, r.purchase_date
		FROM receipt_item_categories a
		JOIN receipts r ON r.id = a.receipt_id
		WHERE a.category_id = ?
		ORDER BY r.purchase_date DESC, a.receipt_id DESC, a.item_index
	`, category.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to query category items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []model.CategoryItem
	for rows.Next() {
		var (
			item         model.CategoryItem
			categoryID   int
			purchaseDate string
		)
		if err := rows.Scan(
			&item.ID, &item.ReceiptID, &item.ItemIndex, &categoryID, &item.ItemName,
			&item.ItemPrice, &item.CreatedAt, &item.UpdatedAt, &purchaseDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan category item: %w", err)
		}
		if item.Category, err = model.CategoryFromID(categoryID); err != nil {
			return nil, err
		}
		if item.PurchaseDate, err = time.Parse(dateLayout, purchaseDate); err != nil {
			return nil, fmt.Errorf("receipt %d has invalid purchase date: %w", item.ReceiptID, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateAssignmentCategory moves one assignment to another category.
func (s *queries) UpdateAssignmentCategory(ctx context.Context, id int64, category model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}

	result, err := s.q.ExecContext(ctx, `
		UPDATE receipt_item_categories SET category_id = ?, updated_at = ? WHERE id = ?
	`, category.ID(), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update assignment: %w", err)
	}
	return requireAffected(result, fmt.Sprintf("assignment %d", id))
}

// DeleteAssignments removes the assignments of the given items. Items that
// have none are ignored.
func (s *queries) DeleteAssignments(ctx context.Context, receiptID int64, itemIndices []int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(receiptID, "receiptID"); err != nil {
		return err
	}
	if len(itemIndices) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(itemIndices)), ",")
	args := make([]any, 0, len(itemIndices)+1)
	args = append(args, receiptID)
	for _, idx := range itemIndices {
		args = append(args, idx)
	}

	if _, err := s.q.ExecContext(ctx, `
		DELETE FROM receipt_item_categories WHERE receipt_id = ? AND item_index IN (`+placeholders+`)
	`, args...); err != nil {
		return fmt.Errorf("failed to delete assignments: %w", err)
	}
	return nil
}

func (s *queries) queryAssignments(ctx context.Context, query string, args ...any) ([]model.Assignment, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var assignments []model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}

func scanAssignment(row rowScanner) (*model.Assignment, error) {
	var (
		a          model.Assignment
		categoryID int
	)
	if err := row.Scan(&a.ID, &a.ReceiptID, &a.ItemIndex, &categoryID, &a.ItemName, &a.ItemPrice, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan assignment: %w", err)
	}

	category, err := model.CategoryFromID(categoryID)
	if err != nil {
		return nil, fmt.Errorf("assignment %d: %w", a.ID, err)
	}
	a.Category = category
	return &a, nil
}
