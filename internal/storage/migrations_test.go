package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/receipt-ledger/internal/model"
)

func TestMigrations_SeedCategories(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	rows, err := store.db.Query(`SELECT id, name FROM categories ORDER BY id`)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var (
			id   int
			name string
		)
		require.NoError(t, rows.Scan(&id, &name))
		c, err := model.CategoryFromID(id)
		require.NoError(t, err)
		assert.Equal(t, c.String(), name)
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, model.CategoryNames(), names)
}

func TestMigrations_Indexes(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	for _, index := range []string{
		"idx_receipts_purchase_date",
		"idx_patterns_match_type",
		"idx_patterns_category",
		"idx_item_categories_category",
	} {
		var count int
		err := store.db.QueryRow(`
			SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?
		`, index).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "index %s was not created", index)
	}
}

func TestMigrations_PatternKindConstraint(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	_, err := store.db.ExecContext(context.Background(), `
		INSERT INTO item_category_patterns (category_id, pattern, pattern_key, match_type)
		VALUES (1, 'x', 'x', 'regex')
	`)
	assert.Error(t, err, "unknown match types must be rejected by the schema")
}
