// Package storage provides the SQLite persistence layer for the receipt ledger.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/receipt-ledger/internal/model"
)

// Validation errors.
var (
	ErrNilContext        = errors.New("context cannot be nil")
	ErrEmptyString       = errors.New("string parameter cannot be empty")
	ErrNilParameter      = errors.New("parameter cannot be nil")
	ErrInvalidID         = errors.New("invalid id")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrInvalidReceipt    = errors.New("invalid receipt")
	ErrInvalidPattern    = errors.New("invalid pattern")
	ErrInvalidAssignment = errors.New("invalid assignment")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateID(id int64, paramName string) error {
	if id <= 0 {
		return fmt.Errorf("%w: %s=%d", ErrInvalidID, paramName, id)
	}
	return nil
}

func validateCategory(c model.Category) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidCategory, int(c))
	}
	return nil
}

func validateReceipt(r *model.Receipt) error {
	if r == nil {
		return fmt.Errorf("%w: receipt", ErrNilParameter)
	}
	if strings.TrimSpace(r.URL) == "" {
		return fmt.Errorf("%w: missing url", ErrInvalidReceipt)
	}
	if r.PurchaseDate.IsZero() {
		return fmt.Errorf("%w: missing purchase date", ErrInvalidReceipt)
	}
	if err := r.CheckArena(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidReceipt, err)
	}
	return nil
}

func validatePattern(p *model.Pattern) error {
	if p == nil {
		return fmt.Errorf("%w: pattern", ErrNilParameter)
	}
	if p.Key() == "" {
		return fmt.Errorf("%w: empty text", ErrInvalidPattern)
	}
	if _, err := model.ParseMatchKind(string(p.MatchKind)); err != nil || p.MatchKind == "" {
		return fmt.Errorf("%w: match type %q", ErrInvalidPattern, p.MatchKind)
	}
	return validateCategory(p.Category)
}

func validateAssignment(a *model.Assignment) error {
	if a == nil {
		return fmt.Errorf("%w: assignment", ErrNilParameter)
	}
	if err := validateID(a.ReceiptID, "receiptID"); err != nil {
		return err
	}
	if a.ItemIndex < 0 {
		return fmt.Errorf("%w: negative item index %d", ErrInvalidAssignment, a.ItemIndex)
	}
	return validateCategory(a.Category)
}
