package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/receipt-ledger/internal/model"
)

type monthKey struct {
	year  int
	month time.Month
}

func (k monthKey) after(o monthKey) bool {
	if k.year != o.year {
		return k.year > o.year
	}
	return k.month > o.month
}

// GetMonthlyBreakdown sums category totals per calendar month of purchase,
// newest month first. Amounts are stored as text, so they are added here
// rather than in SQL.
func (s *queries) GetMonthlyBreakdown(ctx context.Context) ([]model.MonthlyCategoryTotal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT r.purchase_date, t.category_id, t.amount
		FROM receipt_category_totals t
		JOIN receipts r ON r.id = t.receipt_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly breakdown: %w", err)
	}
	defer func() { _ = rows.Close() }()

	type bucketKey struct {
		monthKey
		category model.Category
	}
	sums := make(map[bucketKey]decimal.Decimal)

	for rows.Next() {
		var (
			date       string
			categoryID int
			amount     decimal.Decimal
		)
		if err := rows.Scan(&date, &categoryID, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan monthly breakdown: %w", err)
		}
		month, err := parseMonth(date)
		if err != nil {
			return nil, err
		}
		category, err := model.CategoryFromID(categoryID)
		if err != nil {
			return nil, err
		}
		key := bucketKey{monthKey: month, category: category}
		sums[key] = sums[key].Add(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]model.MonthlyCategoryTotal, 0, len(sums))
	for k, amount := range sums {
		result = append(result, model.MonthlyCategoryTotal{
			Year:     k.year,
			Month:    k.month,
			Category: k.category,
			Amount:   amount,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		a := monthKey{result[i].Year, result[i].Month}
		b := monthKey{result[j].Year, result[j].Month}
		if a != b {
			return a.after(b)
		}
		return result[i].Category < result[j].Category
	})
	return result, nil
}

// GetMonthlyTotals sums receipt totals per calendar month of purchase,
// newest month first.
func (s *queries) GetMonthlyTotals(ctx context.Context) ([]model.MonthlyTotal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx, `SELECT purchase_date, total_amount FROM receipts`)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly totals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	totals := make(map[monthKey]*model.MonthlyTotal)
	for rows.Next() {
		var (
			date   string
			amount decimal.Decimal
		)
		if err := rows.Scan(&date, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan monthly totals: %w", err)
		}
		month, err := parseMonth(date)
		if err != nil {
			return nil, err
		}
		t, ok := totals[month]
		if !ok {
			t = &model.MonthlyTotal{Year: month.year, Month: month.month}
			totals[month] = t
		}
		t.Amount = t.Amount.Add(amount)
		t.Receipts++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]model.MonthlyTotal, 0, len(totals))
	for _, t := range totals {
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool {
		return monthKey{result[i].Year, result[i].Month}.after(monthKey{result[j].Year, result[j].Month})
	})
	return result, nil
}

func parseMonth(date string) (monthKey, error) {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return monthKey{}, fmt.Errorf("invalid purchase date %q: %w", date, err)
	}
	return monthKey{year: t.Year(), month: t.Month()}, nil
}
