package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/receipt-ledger/internal/engine"
	"github.com/Veraticus/receipt-ledger/internal/ledger"
	"github.com/Veraticus/receipt-ledger/internal/model"
	"github.com/Veraticus/receipt-ledger/internal/report"
)

const nameWidth = 36

var nameStyle = lipgloss.NewStyle().Width(nameWidth)

func line(name string, cols ...string) string {
	if len([]rune(name)) > nameWidth-1 {
		name = string([]rune(name)[:nameWidth-2]) + "…"
	}
	parts := []string{nameStyle.Render(name)}
	for _, c := range cols {
		parts = append(parts, AmountStyle.Render(c))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// RenderIngest summarizes one ingested receipt.
func RenderIngest(res *engine.IngestResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Receipt #%d, %s, %d items, total %s\n",
		res.Receipt.ID,
		res.Receipt.PurchaseDate.Format(time.DateOnly),
		len(res.Receipt.Items),
		FormatMoney(res.Receipt.TotalAmount))
	if res.ReplacedID != 0 {
		fmt.Fprintf(&b, "%s\n", SubtleStyle.Render(fmt.Sprintf("replaced receipt #%d", res.ReplacedID)))
	}
	if merged := res.Bundle.Merged(); merged > 0 {
		fmt.Fprintf(&b, "%s\n", SubtleStyle.Render(fmt.Sprintf("%d repeated lines merged", merged)))
	}
	for _, w := range res.Warnings {
		fmt.Fprintln(&b, FormatWarning(w.Message))
	}
	if res.Categorization != nil {
		b.WriteString(RenderCategorization(res.Categorization))
	}
	return b.String()
}

// RenderCategorization summarizes one categorization run.
func RenderCategorization(res *engine.CategorizeResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d from patterns, %s %d classified",
		SuccessIcon, res.PatternMatched, RobotIcon, res.Classified)
	if n := len(res.Unassigned); n > 0 {
		fmt.Fprintf(&b, ", %s", WarningStyle.Render(fmt.Sprintf("%d unassigned", n)))
	}
	b.WriteString("\n")
	for _, w := range res.Warnings {
		fmt.Fprintln(&b, FormatWarning(w.Message))
	}
	return b.String()
}

// RenderReceiptList renders stored receipts as a table.
func RenderReceiptList(receipts []model.Receipt) string {
	if len(receipts) == 0 {
		return FormatInfo("No receipts yet") + "\n"
	}
	var b strings.Builder
	b.WriteString(TableHeaderStyle.Render(line("Receipt", "Date", "Items", "Total")))
	b.WriteString("\n")
	for _, r := range receipts {
		b.WriteString(line(
			fmt.Sprintf("#%d %s", r.ID, shortURL(r.URL)),
			r.PurchaseDate.Format(time.DateOnly),
			fmt.Sprintf("%d", len(r.ActiveItems())),
			FormatMoney(r.TotalAmount)))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderReceiptView renders a receipt grouped by category. Item indices are
// shown so they can be passed to edit commands.
func RenderReceiptView(view *report.ReceiptView) string {
	var b strings.Builder
	r := view.Receipt
	b.WriteString(FormatTitle(fmt.Sprintf("Receipt #%d (%s)", r.ID, r.PurchaseDate.Format(time.DateOnly))))
	b.WriteString("\n")
	b.WriteString(SubtleStyle.Render(r.URL))
	b.WriteString("\n\n")

	for _, section := range view.Categories {
		b.WriteString(BoldStyle.Render(line(section.Category.String(), FormatMoney(section.Amount))))
		b.WriteString("\n")
		for _, item := range section.Items {
			label := fmt.Sprintf("  [%d] %s", item.Index, item.Name)
			b.WriteString(line(label, item.Quantity.String(), FormatMoney(item.TotalPrice), SubtleStyle.Render(fmt.Sprintf("a%d", item.AssignmentID))))
			b.WriteString("\n")
		}
	}

	if len(view.Unassigned) > 0 {
		b.WriteString(WarningStyle.Render("Unassigned"))
		b.WriteString("\n")
		for _, item := range view.Unassigned {
			b.WriteString(line(fmt.Sprintf("  [%d] %s", item.Index, item.Name), item.Quantity.String(), FormatMoney(item.TotalPrice)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(line("Categorized", FormatMoney(view.Assigned)))
	b.WriteString("\n")
	b.WriteString(line("Receipt total", FormatMoney(r.TotalAmount)))
	b.WriteString("\n")
	if !r.TotalDiscount.IsZero() {
		b.WriteString(line("Discount", FormatMoney(r.TotalDiscount)))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderMonthly renders the monthly spending breakdown.
func RenderMonthly(months []report.MonthSummary) string {
	if len(months) == 0 {
		return FormatInfo("No spending recorded") + "\n"
	}
	var b strings.Builder
	for i, m := range months {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(BoldStyle.Render(line(ChartIcon+" "+m.Label(), fmt.Sprintf("%d receipts", m.Receipts), FormatMoney(m.Total))))
		b.WriteString("\n")
		for _, c := range m.Categories {
			b.WriteString(line("  "+c.Category.String(), "", FormatMoney(c.Amount)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// RenderPatterns renders learned patterns as a table.
func RenderPatterns(patterns []model.Pattern) string {
	if len(patterns) == 0 {
		return FormatInfo("No patterns learned yet") + "\n"
	}
	var b strings.Builder
	b.WriteString(TableHeaderStyle.Render(line("Pattern", "Match", "Priority") + "  Category"))
	b.WriteString("\n")
	for _, p := range patterns {
		b.WriteString(line(fmt.Sprintf("#%d %s", p.ID, p.Text), string(p.MatchKind), fmt.Sprintf("%d", p.Priority)))
		b.WriteString("  " + p.Category.String() + "\n")
	}
	return b.String()
}

// RenderCategories lists the category vocabulary.
func RenderCategories() string {
	var b strings.Builder
	for _, c := range model.AllCategories() {
		fmt.Fprintf(&b, "%2d  %s  %s\n", c.ID(), BoldStyle.Render(c.String()), SubtleStyle.Render(c.Description()))
	}
	return b.String()
}

// RenderCategoryItems lists every item ever assigned to a category.
func RenderCategoryItems(category model.Category, items []model.CategoryItem) string {
	var b strings.Builder
	b.WriteString(FormatTitle(category.String()))
	b.WriteString("\n")
	if len(items) == 0 {
		b.WriteString(FormatInfo("No items in this category") + "\n")
		return b.String()
	}
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.ItemPrice)
		b.WriteString(line(item.ItemName, item.PurchaseDate.Format(time.DateOnly), fmt.Sprintf("#%d", item.ReceiptID), FormatMoney(item.ItemPrice)))
		b.WriteString("\n")
	}
	b.WriteString(BoldStyle.Render(line("Total", "", "", FormatMoney(sum))))
	b.WriteString("\n")
	return b.String()
}

// RenderRecategorize describes a completed recategorization.
func RenderRecategorize(res *ledger.RecategorizeResult) string {
	msg := fmt.Sprintf("%s moved from %s to %s", res.Assignment.ItemName, res.OldCategory, res.Assignment.Category)
	out := FormatSuccess(msg) + "\n"
	if res.Pattern != nil {
		out += SubtleStyle.Render(fmt.Sprintf("learned %s pattern %q", res.Pattern.MatchKind, res.Pattern.Text)) + "\n"
	}
	return out
}

// RenderBundle describes a completed bundle.
func RenderBundle(res *ledger.BundleResult) string {
	msg := fmt.Sprintf("Bundled %d items into [%d] %s (%s)",
		len(res.Item.BundledFrom), res.Item.Index, res.Item.Name, FormatMoney(res.Item.TotalPrice))
	out := FormatSuccess(msg) + "\n"
	if res.Category != nil {
		out += SubtleStyle.Render("assigned to "+res.Category.String()) + "\n"
	}
	return out
}

func shortURL(url string) string {
	const limit = 24
	url = strings.TrimPrefix(strings.TrimPrefix(url, "https://"), "http://")
	if len(url) > limit {
		return url[:limit] + "…"
	}
	return url
}
