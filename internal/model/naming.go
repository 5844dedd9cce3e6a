package model

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

var counterSuffix = regexp.MustCompile(`\s*\(\d+(?:[.,]\d+)?x\)$`)

// StripCounter removes a trailing "(Nx)" counter, e.g. "Coca-Cola 2L (2x)" becomes "Coca-Cola 2L".
func StripCounter(name string) string {
	return counterSuffix.ReplaceAllString(name, "")
}

// WithCounter replaces or appends the trailing "(Nx)" counter.
func WithCounter(name string, qty decimal.Decimal) string {
	return fmt.Sprintf("%s (%sx)", StripCounter(name), qty.String())
}
