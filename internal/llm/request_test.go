package llm

import (
	"strings"
	"testing"

	"github.com/Veraticus/receipt-ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildClassificationRequest(t *testing.T) {
	items := []model.RawItem{
		{Index: 3, Name: "Coca-Cola 2L", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("9.99"), TotalPrice: decimal.RequireFromString("19.98")},
		{Index: 7, Name: "Banana", Quantity: decimal.RequireFromString("0.5"), UnitPrice: decimal.RequireFromString("4"), TotalPrice: decimal.RequireFromString("2")},
	}

	req := BuildClassificationRequest(items)

	assert.Equal(t, 2, req.Len())
	assert.Equal(t, []int{3, 7}, req.Positions)
	assert.Equal(t, model.AllCategories(), req.Vocabulary)
	assert.NotEmpty(t, req.System)

	assert.Contains(t, req.Prompt, "0. Coca-Cola 2L: 2 x R$9.99 = R$19.98\n")
	assert.Contains(t, req.Prompt, "1. Banana: 0.5 x R$4.00 = R$2.00\n")
	for _, name := range model.CategoryNames() {
		assert.Contains(t, req.Prompt, "- "+name+"\n")
	}
	assert.Contains(t, req.Prompt, `"Household Items"`)
	assert.False(t, strings.Contains(req.Prompt, "3. "), "original indices must not leak into the prompt")

	idx, ok := req.Remap(1)
	require.True(t, ok)
	assert.Equal(t, 7, idx)

	_, ok = req.Remap(2)
	assert.False(t, ok)
	_, ok = req.Remap(-1)
	assert.False(t, ok)
}

func TestBuildClassificationRequestEmpty(t *testing.T) {
	req := BuildClassificationRequest(nil)
	assert.Zero(t, req.Len())
	_, ok := req.Remap(0)
	assert.False(t, ok)
}
