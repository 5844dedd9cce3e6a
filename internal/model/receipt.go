// Package model defines the core data structures for the receipt ledger.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidItem is returned when a raw item fails boundary validation.
var ErrInvalidItem = errors.New("invalid raw item")

// RawItem is a single receipt line. Index is assigned when the item enters a
// receipt and never changes, even when later items are appended.
type RawItem struct {
	BundledInto *int            `json:"bundled_into,omitempty"`
	Name        string          `json:"name"`
	BundledFrom []int           `json:"bundled_from,omitempty"`
	MergedFrom  []int           `json:"merged_from,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	Index       int             `json:"index"`
}

// IsVoid reports whether the item was absorbed into a user bundle.
func (i RawItem) IsVoid() bool {
	return i.BundledInto != nil
}

// IsAggregate reports whether the item was created by a user bundle.
func (i RawItem) IsAggregate() bool {
	return len(i.BundledFrom) > 0
}

// rawItemJSON mirrors RawItem with an optional quantity so a missing value can
// be told apart from an explicit zero.
type rawItemJSON struct {
	BundledInto *int             `json:"bundled_into,omitempty"`
	Quantity    *decimal.Decimal `json:"quantity"`
	Name        string           `json:"name"`
	BundledFrom []int            `json:"bundled_from,omitempty"`
	MergedFrom  []int            `json:"merged_from,omitempty"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	TotalPrice  decimal.Decimal  `json:"total_price"`
	Index       int              `json:"index"`
}

// UnmarshalJSON validates the stored item shape. A missing quantity counts as 1.
func (i *RawItem) UnmarshalJSON(data []byte) error {
	var raw rawItemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	qty := decimal.NewFromInt(1)
	if raw.Quantity != nil {
		qty = *raw.Quantity
	}

	switch {
	case raw.Index < 0:
		return fmt.Errorf("%w: negative index %d", ErrInvalidItem, raw.Index)
	case qty.IsNegative():
		return fmt.Errorf("%w: negative quantity on item %d", ErrInvalidItem, raw.Index)
	case raw.BundledInto != nil && *raw.BundledInto == raw.Index:
		return fmt.Errorf("%w: item %d bundled into itself", ErrInvalidItem, raw.Index)
	}

	*i = RawItem{
		Index:       raw.Index,
		Name:        raw.Name,
		Quantity:    qty,
		UnitPrice:   raw.UnitPrice,
		TotalPrice:  raw.TotalPrice,
		BundledInto: raw.BundledInto,
		BundledFrom: raw.BundledFrom,
		MergedFrom:  raw.MergedFrom,
	}
	return nil
}

// Receipt is one ingested receipt page and its item arena.
type Receipt struct {
	PurchaseDate  time.Time       `json:"purchase_date"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	URL           string          `json:"receipt_url"`
	Items         []RawItem       `json:"raw_items"`
	OriginalItems []RawItem       `json:"original_items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	ID            int64           `json:"id"`
}

// Item returns the item stored under index.
func (r *Receipt) Item(index int) (*RawItem, bool) {
	if index < 0 || index >= len(r.Items) {
		return nil, false
	}
	item := &r.Items[index]
	if item.Index != index {
		return nil, false
	}
	return item, true
}

// Append adds item to the arena under the next free index and returns it.
func (r *Receipt) Append(item RawItem) int {
	item.Index = len(r.Items)
	r.Items = append(r.Items, item)
	return item.Index
}

// ActiveItems returns the items that still count toward totals.
func (r *Receipt) ActiveItems() []RawItem {
	active := make([]RawItem, 0, len(r.Items))
	for _, item := range r.Items {
		if !item.IsVoid() {
			active = append(active, item)
		}
	}
	return active
}

// ItemsTotal sums the total price of every non-void item.
func (r *Receipt) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range r.Items {
		if !item.IsVoid() {
			sum = sum.Add(item.TotalPrice)
		}
	}
	return sum
}

// CheckArena verifies that indices match positions and that bundle links
// point at existing items without nesting.
func (r *Receipt) CheckArena() error {
	for pos, item := range r.Items {
		if item.Index != pos {
			return fmt.Errorf("%w: item at position %d carries index %d", ErrInvalidItem, pos, item.Index)
		}
		if item.BundledInto != nil {
			target, ok := r.Item(*item.BundledInto)
			if !ok || !target.IsAggregate() {
				return fmt.Errorf("%w: item %d bundled into missing aggregate %d", ErrInvalidItem, pos, *item.BundledInto)
			}
		}
		for _, src := range item.BundledFrom {
			source, ok := r.Item(src)
			if !ok {
				return fmt.Errorf("%w: aggregate %d references missing item %d", ErrInvalidItem, pos, src)
			}
			if source.BundledInto == nil || *source.BundledInto != pos {
				return fmt.Errorf("%w: aggregate %d references item %d bundled elsewhere", ErrInvalidItem, pos, src)
			}
		}
	}
	return nil
}
