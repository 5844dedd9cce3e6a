package common

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedErrorsUnwrap(t *testing.T) {
	cause := errors.New("connection reset")

	tests := []struct {
		err      error
		name     string
		sentinel error
		message  string
	}{
		{
			name:     "fetch status",
			err:      &FetchError{URL: "https://example.com/r", StatusCode: 503},
			sentinel: ErrFetchFailed,
			message:  "unexpected status 503",
		},
		{
			name:     "fetch transport",
			err:      &FetchError{URL: "https://example.com/r", Err: cause},
			sentinel: cause,
			message:  "connection reset",
		},
		{
			name:     "classification",
			err:      &ClassificationError{ReceiptID: 9, Err: cause},
			sentinel: ErrClassificationFailed,
			message:  "classify receipt 9",
		},
		{
			name:     "validation",
			err:      NewValidationError("indices must contain at least %d entries", 2),
			sentinel: ErrValidation,
			message:  "at least 2 entries",
		},
		{
			name:     "duplicate receipt",
			err:      &DuplicateReceiptError{URL: "https://example.com/r", ExistingID: 4},
			sentinel: ErrReceiptExists,
			message:  "(id 4)",
		},
		{
			name:     "wrapped user error",
			err:      NewUserError("could not open database", ErrNotFound),
			sentinel: ErrNotFound,
			message:  "could not open database: not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("ingest: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			assert.Contains(t, wrapped.Error(), tt.message)
		})
	}

	assert.ErrorIs(t, &ClassificationError{Err: cause}, cause)
	assert.ErrorIs(t, &FetchError{Err: cause}, ErrFetchFailed)
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want string
	}{
		{name: "user error", err: NewUserError("no API key", nil), want: "no API key"},
		{name: "validation", err: fmt.Errorf("bundle: %w", NewValidationError("item 3 is void")), want: "invalid request: item 3 is void"},
		{name: "duplicate", err: &DuplicateReceiptError{ExistingID: 12}, want: "receipt already ingested as #12, use --overwrite to replace it"},
		{name: "fetch", err: &FetchError{URL: "https://x", StatusCode: 404}, want: "could not download receipt: fetch https://x: unexpected status 404"},
		{name: "classification", err: &ClassificationError{ReceiptID: 2, Err: errors.New("timeout")}, want: "run `ledger categorize` to retry"},
		{name: "not found", err: fmt.Errorf("receipt 5: %w", ErrNotFound), want: "not found: receipt 5: not found"},
		{name: "other", err: errors.New("disk full"), want: "disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, UserMessage(tt.err), tt.want)
		})
	}
}

type sampleRequest struct {
	Kind    string `json:"match_type" validate:"omitempty,oneof=exact contains"`
	URL     string `json:"receipt_url" validate:"required,url"`
	Name    string `json:"new_name" validate:"max=5"`
	Indices []int  `json:"item_indices" validate:"required,min=2"`
	ID      int64  `json:"id" validate:"gt=0"`
}

func TestValidateStruct(t *testing.T) {
	valid := sampleRequest{URL: "https://example.com/r", Indices: []int{0, 1}, ID: 1}

	tests := []struct {
		mutate func(*sampleRequest)
		name   string
		reason string
	}{
		{name: "valid", mutate: func(*sampleRequest) {}},
		{name: "missing url", mutate: func(r *sampleRequest) { r.URL = "" }, reason: "receipt_url is required"},
		{name: "bad url", mutate: func(r *sampleRequest) { r.URL = "nota url" }, reason: "receipt_url must be a valid URL"},
		{name: "bad kind", mutate: func(r *sampleRequest) { r.Kind = "regex" }, reason: "match_type must be one of: exact contains"},
		{name: "long name", mutate: func(r *sampleRequest) { r.Name = "abcdefg" }, reason: "new_name must be at most 5 characters long"},
		{name: "one index", mutate: func(r *sampleRequest) { r.Indices = []int{3} }, reason: "item_indices must contain at least 2 entries"},
		{name: "zero id", mutate: func(r *sampleRequest) { r.ID = 0 }, reason: "id must be greater than 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)

			err := ValidateStruct(req)
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.reason, vErr.Reason)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestValidateStruct_NotAStruct(t *testing.T) {
	err := ValidateStruct(42)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "", want: slog.LevelInfo},
		{in: " INFO ", want: slog.LevelInfo},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetupLoggerTo(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer
	require.NoError(t, SetupLoggerTo(&buf, slog.LevelInfo, "json"))
	slog.Debug("hidden")
	slog.Info("Stored receipt", "receipt_id", 3)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"receipt_id":3`)

	buf.Reset()
	require.NoError(t, SetupLoggerTo(&buf, slog.LevelDebug, "console"))
	slog.Debug("Pattern match", "item", "ARROZ")
	assert.True(t, strings.Contains(buf.String(), "item=ARROZ"))

	assert.ErrorIs(t, SetupLoggerTo(&buf, slog.LevelInfo, "xml"), ErrInvalidConfig)
}

func TestLoggerContext(t *testing.T) {
	assert.Equal(t, slog.Default(), Logger(context.Background()))

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)).With("run_id", "abc")
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, Logger(ctx))
}
