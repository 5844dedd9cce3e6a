package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/receipt-ledger/internal/model"
)

// InconsistencyError lists every way a receipt's stored state disagrees with
// the totals derived from its assignments.
type InconsistencyError struct {
	Problems  []string
	ReceiptID int64
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("receipt %d is inconsistent: %s", e.ReceiptID, strings.Join(e.Problems, "; "))
}

// Verify checks a stored receipt: the item arena is well formed, every
// assignment points at a live item, and each stored total equals the sum of
// its category's counted assignments with no zero rows.
func (l *Ledger) Verify(ctx context.Context, receiptID int64) error {
	receipt, err := l.store.GetReceipt(ctx, receiptID)
	if err != nil {
		return err
	}
	assignments, err := l.store.GetAssignments(ctx, receiptID)
	if err != nil {
		return err
	}
	stored, err := l.store.GetCategoryTotals(ctx, receiptID)
	if err != nil {
		return err
	}

	var problems []string
	if err := receipt.CheckArena(); err != nil {
		problems = append(problems, err.Error())
	}

	assigned := make(map[int]bool, len(assignments))
	for _, a := range assignments {
		if assigned[a.ItemIndex] {
			problems = append(problems, fmt.Sprintf("item %d has more than one assignment", a.ItemIndex))
		}
		assigned[a.ItemIndex] = true

		item, ok := receipt.Item(a.ItemIndex)
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("assignment %d points at missing item %d", a.ID, a.ItemIndex))
		case item.IsVoid():
			problems = append(problems, fmt.Sprintf("void item %d is still assigned", a.ItemIndex))
		}
	}

	expected := ComputeTotals(receipt, assignments)
	actual := make(map[model.Category]decimal.Decimal, len(stored))
	for _, t := range stored {
		actual[t.Category] = t.Amount
		if t.Amount.IsZero() {
			problems = append(problems, fmt.Sprintf("%s has a zero total row", t.Category))
		}
	}

	for _, category := range model.AllCategories() {
		want, hasWant := expected[category]
		got, hasGot := actual[category]
		switch {
		case hasWant && !hasGot:
			problems = append(problems, fmt.Sprintf("%s total missing, expected %s", category, want.StringFixed(2)))
		case !hasWant && hasGot && !got.IsZero():
			problems = append(problems, fmt.Sprintf("%s total %s has no assigned items", category, got.StringFixed(2)))
		case hasWant && !want.Equal(got):
			problems = append(problems, fmt.Sprintf("%s total %s, expected %s", category, got.StringFixed(2), want.StringFixed(2)))
		}
	}

	if len(problems) > 0 {
		return &InconsistencyError{ReceiptID: receiptID, Problems: problems}
	}
	return nil
}
