// Package testutil provides shared fixtures for tests that need a real database.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/receipt-ledger/internal/model"
	"github.com/Veraticus/receipt-ledger/internal/service"
	"github.com/Veraticus/receipt-ledger/internal/storage"
)

// TestDB represents a migrated in-memory database.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database.
// It automatically handles migrations and cleanup.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// WithTransaction executes fn within a transaction that is always rolled back.
func (db *TestDB) WithTransaction(fn func(tx service.Transaction) error) error {
	tx, err := db.Storage.BeginTx(context.Background())
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	return fn(tx)
}

// MustCreateReceipt stores receipt or fails the test.
func (db *TestDB) MustCreateReceipt(receipt *model.Receipt) *model.Receipt {
	db.t.Helper()
	if err := db.Storage.CreateReceipt(context.Background(), receipt); err != nil {
		db.t.Fatalf("failed to create receipt: %v", err)
	}
	return receipt
}

// MustAssign stores assignments for every active item of receipt using the
// given categories in item order, then records the matching totals.
func (db *TestDB) MustAssign(receipt *model.Receipt, categories ...model.Category) []model.Assignment {
	db.t.Helper()
	ctx := context.Background()

	active := receipt.ActiveItems()
	if len(active) != len(categories) {
		db.t.Fatalf("MustAssign: %d active items but %d categories", len(active), len(categories))
	}

	assignments := make([]model.Assignment, len(active))
	sums := make(map[model.Category]decimal.Decimal)
	for i, item := range active {
		assignments[i] = model.Assignment{
			ReceiptID: receipt.ID,
			ItemIndex: item.Index,
			ItemName:  item.Name,
			ItemPrice: item.TotalPrice,
			Category:  categories[i],
		}
		sums[categories[i]] = sums[categories[i]].Add(item.TotalPrice)
	}

	if err := db.Storage.ReplaceAssignments(ctx, receipt.ID, assignments); err != nil {
		db.t.Fatalf("failed to store assignments: %v", err)
	}
	for category, amount := range sums {
		if err := db.Storage.SetCategoryTotal(ctx, receipt.ID, category, amount); err != nil {
			db.t.Fatalf("failed to store total: %v", err)
		}
	}
	return assignments
}

// Item builds a raw item from string amounts.
func Item(name, quantity, unitPrice, totalPrice string) model.RawItem {
	return model.RawItem{
		Name:       name,
		Quantity:   decimal.RequireFromString(quantity),
		UnitPrice:  decimal.RequireFromString(unitPrice),
		TotalPrice: decimal.RequireFromString(totalPrice),
	}
}

// NewReceipt builds an unsaved receipt whose total is the sum of its items.
// Item indices are assigned in order.
func NewReceipt(url string, purchased time.Time, items ...model.RawItem) *model.Receipt {
	r := &model.Receipt{
		URL:          url,
		PurchaseDate: purchased,
		Items:        []model.RawItem{},
	}
	for _, item := range items {
		r.Append(item)
	}
	r.OriginalItems = append([]model.RawItem(nil), r.Items...)
	r.TotalAmount = r.ItemsTotal()
	return r
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
