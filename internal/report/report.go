// Package report assembles read-only views of the ledger for display.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/receipt-ledger/internal/model"
)

// Store is the subset of storage the views read from.
type Store interface {
	GetReceipt(ctx context.Context, id int64) (*model.Receipt, error)
	GetAssignments(ctx context.Context, receiptID int64) ([]model.Assignment, error)
	GetCategoryTotals(ctx context.Context, receiptID int64) ([]model.CategoryTotal, error)
	GetMonthlyBreakdown(ctx context.Context) ([]model.MonthlyCategoryTotal, error)
	GetMonthlyTotals(ctx context.Context) ([]model.MonthlyTotal, error)
}

// ViewItem is a live receipt item with the assignment that placed it.
type ViewItem struct {
	model.RawItem
	AssignmentID int64
}

// CategorySection lists the items of one category on a receipt.
type CategorySection struct {
	Amount   decimal.Decimal
	Items    []ViewItem
	Category model.Category
}

// ReceiptView is a receipt grouped by category.
type ReceiptView struct {
	Receipt    *model.Receipt
	Categories []CategorySection
	Unassigned []model.RawItem
	// Assigned is the sum of all category totals.
	Assigned decimal.Decimal
}

// BuildReceiptView groups the live items of a receipt under their categories.
// Sections are ordered by amount, largest first.
func BuildReceiptView(ctx context.Context, store Store, receiptID int64) (*ReceiptView, error) {
	receipt, err := store.GetReceipt(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	assignments, err := store.GetAssignments(ctx, receiptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}
	totals, err := store.GetCategoryTotals(ctx, receiptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load category totals: %w", err)
	}

	view := &ReceiptView{Receipt: receipt, Assigned: decimal.Zero}
	sections := make(map[model.Category]*CategorySection)
	section := func(c model.Category) *CategorySection {
		s, ok := sections[c]
		if !ok {
			s = &CategorySection{Category: c, Amount: decimal.Zero}
			sections[c] = s
		}
		return s
	}

	for _, t := range totals {
		section(t.Category).Amount = t.Amount
		view.Assigned = view.Assigned.Add(t.Amount)
	}

	assigned := make(map[int]bool, len(assignments))
	for _, a := range assignments {
		item, ok := receipt.Item(a.ItemIndex)
		if !ok || item.IsVoid() {
			continue
		}
		assigned[a.ItemIndex] = true
		s := section(a.Category)
		s.Items = append(s.Items, ViewItem{RawItem: *item, AssignmentID: a.ID})
	}

	for _, item := range receipt.ActiveItems() {
		if !assigned[item.Index] {
			view.Unassigned = append(view.Unassigned, item)
		}
	}

	for _, s := range sections {
		if len(s.Items) == 0 && s.Amount.IsZero() {
			continue
		}
		view.Categories = append(view.Categories, *s)
	}
	sort.Slice(view.Categories, func(i, j int) bool {
		a, b := view.Categories[i], view.Categories[j]
		if cmp := a.Amount.Cmp(b.Amount); cmp != 0 {
			return cmp > 0
		}
		return a.Category < b.Category
	})

	return view, nil
}

// MonthSummary is the spending of one calendar month.
type MonthSummary struct {
	Total      decimal.Decimal
	Categories []model.MonthlyCategoryTotal
	Year       int
	Month      time.Month
	Receipts   int
}

// Label renders the month as "May 2024".
func (m MonthSummary) Label() string {
	return fmt.Sprintf("%s %d", m.Month, m.Year)
}

// CategoryAmount returns what was spent in c during the month.
func (m MonthSummary) CategoryAmount(c model.Category) decimal.Decimal {
	for _, t := range m.Categories {
		if t.Category == c {
			return t.Amount
		}
	}
	return decimal.Zero
}

// MonthlyBreakdown combines per-category and per-receipt monthly sums,
// newest month first. Categories within a month are ordered by amount.
func MonthlyBreakdown(ctx context.Context, store Store) ([]MonthSummary, error) {
	breakdown, err := store.GetMonthlyBreakdown(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load monthly breakdown: %w", err)
	}
	totals, err := store.GetMonthlyTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load monthly totals: %w", err)
	}

	type key struct {
		year  int
		month time.Month
	}
	months := make(map[key]*MonthSummary)
	month := func(year int, m time.Month) *MonthSummary {
		k := key{year, m}
		s, ok := months[k]
		if !ok {
			s = &MonthSummary{Year: year, Month: m, Total: decimal.Zero}
			months[k] = s
		}
		return s
	}

	for _, t := range totals {
		s := month(t.Year, t.Month)
		s.Total = t.Amount
		s.Receipts = t.Receipts
	}
	for _, c := range breakdown {
		s := month(c.Year, c.Month)
		s.Categories = append(s.Categories, c)
	}

	out := make([]MonthSummary, 0, len(months))
	for _, s := range months {
		sort.Slice(s.Categories, func(i, j int) bool {
			a, b := s.Categories[i], s.Categories[j]
			if cmp := a.Amount.Cmp(b.Amount); cmp != 0 {
				return cmp > 0
			}
			return a.Category < b.Category
		})
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Month > out[j].Month
	})

	return out, nil
}
