package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/receipt-ledger/internal/common"
	"github.com/Veraticus/receipt-ledger/internal/model"
)

const dateLayout = "2006-01-02"

const receiptColumns = `id, receipt_url, purchase_date, total_amount, total_discount,
	raw_items, original_items, created_at, updated_at`

// CreateReceipt inserts receipt and sets its ID. A second receipt for the
// same URL fails with common.ErrDuplicateEntry.
func (s *queries) CreateReceipt(ctx context.Context, receipt *model.Receipt) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateReceipt(receipt); err != nil {
		return err
	}

	items, original, err := encodeItems(receipt)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	result, err := s.q.ExecContext(ctx, `
		INSERT INTO receipts (receipt_url, purchase_date, total_amount, total_discount,
			raw_items, original_items, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, receipt.URL, receipt.PurchaseDate.Format(dateLayout), receipt.TotalAmount, receipt.TotalDiscount,
		items, original, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("receipt %s: %w", receipt.URL, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to insert receipt: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get receipt id: %w", err)
	}

	receipt.ID = id
	receipt.CreatedAt = now
	receipt.UpdatedAt = now
	return nil
}

// GetReceipt retrieves a receipt by id.
func (s *queries) GetReceipt(ctx context.Context, id int64) (*model.Receipt, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id, "id"); err != nil {
		return nil, err
	}

	row := s.q.QueryRowContext(ctx, `SELECT `+receiptColumns+` FROM receipts WHERE id = ?`, id)
	receipt, err := scanReceipt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("receipt %d: %w", id, common.ErrNotFound)
	}
	return receipt, err
}

// GetReceiptByURL retrieves the receipt ingested from url.
func (s *queries) GetReceiptByURL(ctx context.Context, url string) (*model.Receipt, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(url, "url"); err != nil {
		return nil, err
	}

	row := s.q.QueryRowContext(ctx, `SELECT `+receiptColumns+` FROM receipts WHERE receipt_url = ?`, url)
	receipt, err := scanReceipt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("receipt %s: %w", url, common.ErrNotFound)
	}
	return receipt, err
}

// ListReceipts returns every receipt, newest purchase first.
func (s *queries) ListReceipts(ctx context.Context) ([]model.Receipt, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx, `SELECT `+receiptColumns+` FROM receipts ORDER BY purchase_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query receipts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var receipts []model.Receipt
	for rows.Next() {
		receipt, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, *receipt)
	}

	return receipts, rows.Err()
}

// UpdateReceiptItems stores the current item arena of receipt.
func (s *queries) UpdateReceiptItems(ctx context.Context, receipt *model.Receipt) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateReceipt(receipt); err != nil {
		return err
	}
	if err := validateID(receipt.ID, "receipt.ID"); err != nil {
		return err
	}

	items, _, err := encodeItems(receipt)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	result, err := s.q.ExecContext(ctx, `
		UPDATE receipts SET raw_items = ?, updated_at = ? WHERE id = ?
	`, items, now, receipt.ID)
	if err != nil {
		return fmt.Errorf("failed to update receipt items: %w", err)
	}
	if err := requireAffected(result, fmt.Sprintf("receipt %d", receipt.ID)); err != nil {
		return err
	}

	receipt.UpdatedAt = now
	return nil
}

// DeleteReceipt removes a receipt along with its assignments and totals.
func (s *queries) DeleteReceipt(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	return s.atomic(ctx, func(q queryable) error {
		for _, query := range []string{
			`DELETE FROM receipt_category_totals WHERE receipt_id = ?`,
			`DELETE FROM receipt_item_categories WHERE receipt_id = ?`,
		} {
			if _, err := q.ExecContext(ctx, query, id); err != nil {
				return fmt.Errorf("failed to delete receipt children: %w", err)
			}
		}

		result, err := q.ExecContext(ctx, `DELETE FROM receipts WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete receipt: %w", err)
		}
		return requireAffected(result, fmt.Sprintf("receipt %d", id))
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row rowScanner) (*model.Receipt, error) {
	var (
		r             model.Receipt
		purchaseDate  string
		items         string
		originalItems string
	)

	err := row.Scan(
		&r.ID,
		&r.URL,
		&purchaseDate,
		&r.TotalAmount,
		&r.TotalDiscount,
		&items,
		&originalItems,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan receipt: %w", err)
	}

	if r.PurchaseDate, err = time.Parse(dateLayout, purchaseDate); err != nil {
		return nil, fmt.Errorf("receipt %d has invalid purchase date %q: %w", r.ID, purchaseDate, err)
	}
	if err := json.Unmarshal([]byte(items), &r.Items); err != nil {
		return nil, fmt.Errorf("receipt %d has invalid raw items: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(originalItems), &r.OriginalItems); err != nil {
		return nil, fmt.Errorf("receipt %d has invalid original items: %w", r.ID, err)
	}

	return &r, nil
}

func encodeItems(r *model.Receipt) (string, string, error) {
	items := r.Items
	if items == nil {
		items = []model.RawItem{}
	}
	original := r.OriginalItems
	if original == nil {
		original = []model.RawItem{}
	}

	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode items: %w", err)
	}
	originalJSON, err := json.Marshal(original)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode original items: %w", err)
	}
	return string(itemsJSON), string(originalJSON), nil
}

func requireAffected(result sql.Result, what string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, common.ErrNotFound)
	}
	return nil
}
