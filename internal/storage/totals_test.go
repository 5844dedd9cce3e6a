package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/receipt-ledger/internal/model"
)

func TestSQLiteStorage_CategoryTotals(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	receipt := seedAssignedReceipt(t, store, "https://nfce.example/t", day(2024, 8, 9))

	require.NoError(t, store.SetCategoryTotal(ctx, receipt.ID, model.CategoryFrozenProcessed, dec("7.49")))
	require.NoError(t, store.SetCategoryTotal(ctx, receipt.ID, model.CategoryBeverages, dec("10")))
	// Upsert overwrites.
	require.NoError(t, store.SetCategoryTotal(ctx, receipt.ID, model.CategoryBeverages, dec("22.49")))

	totals, err := store.GetCategoryTotals(ctx, receipt.ID)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, model.CategoryBeverages, totals[0].Category)
	assert.True(t, totals[0].Amount.Equal(dec("22.49")))
	assert.Equal(t, model.CategoryFrozenProcessed, totals[1].Category)

	t.Run("zero removes the row", func(t *testing.T) {
		require.NoError(t, store.SetCategoryTotal(ctx, receipt.ID, model.CategoryFrozenProcessed, dec("0.00")))
		totals, err := store.GetCategoryTotals(ctx, receipt.ID)
		require.NoError(t, err)
		require.Len(t, totals, 1)
		assert.Equal(t, model.CategoryBeverages, totals[0].Category)
	})

	t.Run("delete single and all", func(t *testing.T) {
		require.NoError(t, store.DeleteCategoryTotal(ctx, receipt.ID, model.CategoryDairy))
		require.NoError(t, store.DeleteCategoryTotals(ctx, receipt.ID))
		totals, err := store.GetCategoryTotals(ctx, receipt.ID)
		require.NoError(t, err)
		assert.Empty(t, totals)
	})
}

func TestSQLiteStorage_MonthlyReports(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	jan1 := seedAssignedReceipt(t, store, "https://nfce.example/j1", day(2024, 1, 3))
	jan2 := seedAssignedReceipt(t, store, "https://nfce.example/j2", day(2024, 1, 28))
	feb := seedAssignedReceipt(t, store, "https://nfce.example/f", day(2024, 2, 14))

	for _, r := range []*model.Receipt{jan1, jan2, feb} {
		require.NoError(t, store.SetCategoryTotal(ctx, r.ID, model.CategoryBeverages, dec("22.49")))
		require.NoError(t, store.SetCategoryTotal(ctx, r.ID, model.CategoryFrozenProcessed, dec("7.49")))
	}

	breakdown, err := store.GetMonthlyBreakdown(ctx)
	require.NoError(t, err)
	require.Len(t, breakdown, 4)

	assert.Equal(t, time.February, breakdown[0].Month)
	assert.Equal(t, model.CategoryBeverages, breakdown[0].Category)
	assert.Equal(t, time.January, breakdown[2].Month)
	assert.Equal(t, model.CategoryBeverages, breakdown[2].Category)
	assert.True(t, breakdown[2].Amount.Equal(dec("44.98")), "got %s", breakdown[2].Amount)
	assert.True(t, breakdown[3].Amount.Equal(dec("14.98")))

	monthly, err := store.GetMonthlyTotals(ctx)
	require.NoError(t, err)
	require.Len(t, monthly, 2)
	assert.Equal(t, 2024, monthly[0].Year)
	assert.Equal(t, time.February, monthly[0].Month)
	assert.Equal(t, 1, monthly[0].Receipts)
	assert.Equal(t, 2, monthly[1].Receipts)
	assert.True(t, monthly[1].Amount.Equal(dec("59.96")), "got %s", monthly[1].Amount)
}
