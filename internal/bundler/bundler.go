// Package bundler merges repeated receipt lines before classification.
package bundler

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/Veraticus/receipt-ledger/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	quantityMarker = regexp.MustCompile(`\d+\s*[xX]\s*`)
	unitMarker     = regexp.MustCompile(`(?i)\d+\s*(?:g|kg|ml|l)\b`)
	parenthesized  = regexp.MustCompile(`\([^)]*\)`)
	nonAlnumRun    = regexp.MustCompile(`[^\p{L}\p{N}]+`)

	lower = cases.Lower(language.Und)
)

// NormalizeName derives the key used to detect repeated items. Quantity
// markers, weights, volumes and parenthesized text are dropped so that
// "Banana (2x)" and "BANANA 1kg" collide.
func NormalizeName(name string) string {
	name = norm.NFC.String(name)
	name = quantityMarker.ReplaceAllString(name, "")
	name = unitMarker.ReplaceAllString(name, "")
	name = parenthesized.ReplaceAllString(name, "")
	name = nonAlnumRun.ReplaceAllString(name, " ")
	return lower.String(strings.TrimSpace(name))
}

// Bundle collapses items with the same normalized name into one entry. Items
// with an empty key or a non-positive total pass through untouched. The result
// is re-indexed from zero and each merged slot lists the input indices it
// absorbed in MergedFrom. The input slice is not modified.
func Bundle(items []model.RawItem) []model.RawItem {
	out := make([]model.RawItem, 0, len(items))
	slots := make(map[string]int, len(items))

	for _, item := range items {
		key := NormalizeName(item.Name)
		if key == "" || !item.TotalPrice.IsPositive() {
			out = append(out, clone(item))
			continue
		}

		pos, seen := slots[key]
		if !seen {
			slots[key] = len(out)
			out = append(out, clone(item))
			continue
		}

		slot := &out[pos]
		if len(slot.MergedFrom) == 0 {
			slot.MergedFrom = []int{slot.Index}
		}
		slot.MergedFrom = append(slot.MergedFrom, item.Index)
		slot.Quantity = slot.Quantity.Add(item.Quantity)
		slot.TotalPrice = slot.TotalPrice.Add(item.TotalPrice)
		if !slot.Quantity.IsZero() {
			slot.UnitPrice = slot.TotalPrice.Div(slot.Quantity)
		}
		slot.Name = model.WithCounter(slot.Name, slot.Quantity)

		slog.Debug("Bundled repeated item",
			"key", key,
			"name", item.Name,
			"bundled_name", slot.Name,
			"quantity", slot.Quantity.String(),
			"total", slot.TotalPrice.String())
	}

	for i := range out {
		out[i].Index = i
	}
	return out
}

func clone(item model.RawItem) model.RawItem {
	if item.MergedFrom != nil {
		item.MergedFrom = append([]int(nil), item.MergedFrom...)
	}
	if item.BundledFrom != nil {
		item.BundledFrom = append([]int(nil), item.BundledFrom...)
	}
	return item
}

// Stats summarizes one bundling pass.
type Stats struct {
	Before int
	After  int
}

// Merged returns how many input lines were absorbed into earlier ones.
func (s Stats) Merged() int {
	return s.Before - s.After
}

// Summarize compares the item lists before and after Bundle.
func Summarize(before, after []model.RawItem) Stats {
	return Stats{Before: len(before), After: len(after)}
}
