// Package extract reads line items and footer totals out of NFC-e receipt pages.
package extract

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/Veraticus/receipt-ledger/internal/model"
	"github.com/shopspring/decimal"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Markup of the supported receipt layout.
const (
	itemRowPrefix  = "Item"
	className      = "txtTit2"
	classQuantity  = "Rqtd"
	classUnitPrice = "RvlUnit"
	classTotal     = "valor"
	classTotalNumb = "totalNumb"
	idFooter       = "totalNota"
	idFooterLine   = "linhaTotal"

	labelTotalAmount   = "Valor total"
	labelTotalDiscount = "Descontos"
	labelTotalItems    = "Qtd. total de itens"
)

var (
	quantityPattern = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	pricePattern    = regexp.MustCompile(`\d[\d.,]*`)
	countPattern    = regexp.MustCompile(`\d+`)

	totalTolerance = decimal.RequireFromString("0.01")
)

// WarningCode classifies a non-fatal extraction problem.
type WarningCode string

// Warning codes.
const (
	WarnMissingName   WarningCode = "missing_name"
	WarnMissingTotal  WarningCode = "missing_total"
	WarnTotalMismatch WarningCode = "total_mismatch"
	WarnCountMismatch WarningCode = "count_mismatch"
)

// Warning is a problem that was logged and then ignored.
type Warning struct {
	Code    WarningCode
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

// Result is everything read from one receipt page.
type Result struct {
	TotalAmount    decimal.Decimal
	TotalDiscount  decimal.Decimal
	Items          []model.RawItem
	Warnings       []Warning
	TotalItemCount int
}

// HasWarning reports whether a warning with code was recorded.
func (r *Result) HasWarning(code WarningCode) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

func (r *Result) warn(code WarningCode, format string, args ...any) {
	w := Warning{Code: code, Message: fmt.Sprintf(format, args...)}
	r.Warnings = append(r.Warnings, w)
	slog.Warn("Receipt extraction warning", "code", string(code), "detail", w.Message)
}

// Extract parses a receipt page. Broken markup is parsed leniently and a page
// without item rows yields an empty result; only read failures are errors.
func Extract(r io.Reader) (*Result, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse receipt html: %w", err)
	}

	res := &Result{
		TotalAmount:   decimal.Zero,
		TotalDiscount: decimal.Zero,
	}

	rows := findAll(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Tr && strings.HasPrefix(attr(n, "id"), itemRowPrefix)
	})
	slog.Debug("Found item rows", "count", len(rows))

	for rowIdx, row := range rows {
		item, ok := extractItem(row)
		if !ok {
			res.warn(WarnMissingName, "row %d (%s) has no item name", rowIdx, attr(row, "id"))
			continue
		}
		item.Index = len(res.Items)
		res.Items = append(res.Items, item)
	}

	extractFooter(doc, res)
	validate(res)

	slog.Info("Item extraction completed",
		"items", len(res.Items),
		"total_amount", res.TotalAmount.String(),
		"total_discount", res.TotalDiscount.String(),
		"warnings", len(res.Warnings))

	return res, nil
}

func extractItem(row *html.Node) (model.RawItem, bool) {
	nameNode := findFirst(row, withClass(className))
	if nameNode == nil {
		return model.RawItem{}, false
	}
	name := strings.Join(strings.Fields(textContent(nameNode)), " ")
	if name == "" {
		return model.RawItem{}, false
	}

	item := model.RawItem{
		Name:       name,
		Quantity:   decimal.NewFromInt(1),
		UnitPrice:  decimal.Zero,
		TotalPrice: decimal.Zero,
	}

	if n := findFirst(row, withClass(classQuantity)); n != nil {
		if qty, ok := parseQuantity(textContent(n)); ok {
			item.Quantity = qty
		}
	}
	if n := findFirst(row, withClass(classUnitPrice)); n != nil {
		item.UnitPrice = parseMoney(textContent(n))
	}
	if n := findFirst(row, withClass(classTotal)); n != nil {
		item.TotalPrice = parseMoney(textContent(n))
	}

	slog.Debug("Extracted item",
		"name", item.Name,
		"quantity", item.Quantity.String(),
		"unit_price", item.UnitPrice.String(),
		"total_price", item.TotalPrice.String())

	return item, true
}

func extractFooter(doc *html.Node, res *Result) {
	var lines []*html.Node
	if footer := findFirst(doc, withID(idFooter)); footer != nil {
		lines = findAll(footer, withID(idFooterLine))
	}

	if text, ok := footerValue(lines, labelTotalAmount); ok {
		res.TotalAmount = parseMoney(text)
	} else {
		res.warn(WarnMissingTotal, "footer line %q not found", labelTotalAmount)
	}

	if text, ok := footerValue(lines, labelTotalDiscount); ok {
		res.TotalDiscount = parseMoney(text)
	} else {
		res.warn(WarnMissingTotal, "footer line %q not found", labelTotalDiscount)
	}

	if text, ok := footerValue(lines, labelTotalItems); ok {
		if m := countPattern.FindString(text); m != "" {
			res.TotalItemCount, _ = strconv.Atoi(m)
		}
	} else {
		res.warn(WarnMissingTotal, "footer line %q not found", labelTotalItems)
	}
}

// footerValue returns the totalNumb text of the first footer line whose label
// contains want.
func footerValue(lines []*html.Node, want string) (string, bool) {
	for _, line := range lines {
		label := findFirst(line, func(n *html.Node) bool {
			return n.DataAtom == atom.Label && strings.Contains(textContent(n), want)
		})
		if label == nil {
			continue
		}
		if value := findFirst(line, withClass(classTotalNumb)); value != nil {
			return textContent(value), true
		}
	}
	return "", false
}

func validate(res *Result) {
	sum := decimal.Zero
	for _, item := range res.Items {
		sum = sum.Add(item.TotalPrice)
	}

	if diff := sum.Sub(res.TotalAmount).Abs(); diff.GreaterThan(totalTolerance) {
		res.warn(WarnTotalMismatch, "items sum to %s but receipt total is %s (difference %s)",
			sum.StringFixed(2), res.TotalAmount.StringFixed(2), diff.StringFixed(2))
	}

	if len(res.Items) != res.TotalItemCount {
		res.warn(WarnCountMismatch, "extracted %d items but receipt lists %d",
			len(res.Items), res.TotalItemCount)
	}
}

// parseQuantity reads the first number, accepting a comma decimal separator.
func parseQuantity(text string) (decimal.Decimal, bool) {
	m := quantityPattern.FindString(text)
	if m == "" {
		return decimal.Zero, false
	}
	qty, err := decimal.NewFromString(strings.Replace(m, ",", ".", 1))
	if err != nil {
		return decimal.Zero, false
	}
	return qty, true
}

// parseMoney reads a Brazilian formatted amount such as "1.234,56". Missing or
// unparsable values are zero.
func parseMoney(text string) decimal.Decimal {
	m := pricePattern.FindString(text)
	if m == "" {
		return decimal.Zero
	}
	m = strings.TrimRight(m, ".,")
	if strings.Contains(m, ",") {
		m = strings.ReplaceAll(m, ".", "")
		m = strings.ReplaceAll(m, ",", ".")
	}
	v, err := decimal.NewFromString(m)
	if err != nil {
		return decimal.Zero
	}
	if strings.HasPrefix(strings.TrimSpace(text), "-") {
		v = v.Neg()
	}
	return v
}
