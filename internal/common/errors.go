// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")
	ErrReceiptExists  = errors.New("receipt already exists")

	// Pipeline errors.
	ErrFetchFailed          = errors.New("fetch failed")
	ErrClassificationFailed = errors.New("classification failed")
	ErrValidation           = errors.New("validation failed")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// FetchError reports a receipt page that could not be retrieved.
type FetchError struct {
	Err        error
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFetchFailed}
	}
	return []error{ErrFetchFailed, e.Err}
}

// ClassificationError reports a failed external classification. The receipt
// it belongs to stays persisted without assignments.
type ClassificationError struct {
	Err       error
	ReceiptID int64
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classify receipt %d: %v", e.ReceiptID, e.Err)
}

func (e *ClassificationError) Unwrap() []error {
	return []error{ErrClassificationFailed, e.Err}
}

// ValidationError rejects a single edit operation before anything is changed.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError formats a ValidationError.
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// DuplicateReceiptError is returned when a URL was already ingested and no
// overwrite was requested.
type DuplicateReceiptError struct {
	URL        string
	ExistingID int64
}

func (e *DuplicateReceiptError) Error() string {
	return fmt.Sprintf("receipt for %s already exists (id %d)", e.URL, e.ExistingID)
}

func (e *DuplicateReceiptError) Unwrap() error {
	return ErrReceiptExists
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// UserMessage picks the message to print for err. Known failures get a short
// explanation; everything else falls back to the error text.
func UserMessage(err error) string {
	var userErr *UserError
	var validationErr *ValidationError
	var dupErr *DuplicateReceiptError
	var fetchErr *FetchError

	switch {
	case errors.As(err, &userErr):
		return userErr.Error()
	case errors.As(err, &validationErr):
		return "invalid request: " + validationErr.Reason
	case errors.As(err, &dupErr):
		return fmt.Sprintf("receipt already ingested as #%d, use --overwrite to replace it", dupErr.ExistingID)
	case errors.As(err, &fetchErr):
		return "could not download receipt: " + fetchErr.Error()
	case errors.Is(err, ErrClassificationFailed):
		return "receipt saved but categorization failed, run `ledger categorize` to retry: " + err.Error()
	case errors.Is(err, ErrNotFound):
		return "not found: " + err.Error()
	default:
		return err.Error()
	}
}
