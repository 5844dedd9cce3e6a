package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/receipt-ledger/internal/model"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name    string
		str     string
		wantErr bool
	}{
		{name: "valid string", str: "test"},
		{name: "empty string", str: "", wantErr: true},
		{name: "whitespace only", str: "  \t", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, "param")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrEmptyString)
				assert.Contains(t, err.Error(), "param")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateReceipt(t *testing.T) {
	bundled := 5
	tests := []struct {
		receipt *model.Receipt
		wantErr error
		name    string
	}{
		{
			name:    "nil receipt",
			wantErr: ErrNilParameter,
		},
		{
			name:    "missing url",
			receipt: &model.Receipt{PurchaseDate: time.Now()},
			wantErr: ErrInvalidReceipt,
		},
		{
			name:    "missing date",
			receipt: &model.Receipt{URL: "https://nfce.example/1"},
			wantErr: ErrInvalidReceipt,
		},
		{
			name: "index out of place",
			receipt: &model.Receipt{
				URL:          "https://nfce.example/1",
				PurchaseDate: time.Now(),
				Items:        []model.RawItem{{Index: 3, Name: "x"}},
			},
			wantErr: ErrInvalidReceipt,
		},
		{
			name: "dangling bundle link",
			receipt: &model.Receipt{
				URL:          "https://nfce.example/1",
				PurchaseDate: time.Now(),
				Items:        []model.RawItem{{Index: 0, Name: "x", BundledInto: &bundled}},
			},
			wantErr: ErrInvalidReceipt,
		},
		{
			name: "valid receipt",
			receipt: &model.Receipt{
				URL:          "https://nfce.example/1",
				PurchaseDate: time.Now(),
				Items:        []model.RawItem{{Index: 0, Name: "x"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateReceipt(tt.receipt)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePattern(t *testing.T) {
	tests := []struct {
		pattern *model.Pattern
		wantErr error
		name    string
	}{
		{name: "nil pattern", wantErr: ErrNilParameter},
		{
			name:    "empty text",
			pattern: &model.Pattern{Text: "  ", MatchKind: model.MatchExact, Category: model.CategoryDairy},
			wantErr: ErrInvalidPattern,
		},
		{
			name:    "missing kind",
			pattern: &model.Pattern{Text: "leite", Category: model.CategoryDairy},
			wantErr: ErrInvalidPattern,
		},
		{
			name:    "unknown kind",
			pattern: &model.Pattern{Text: "leite", MatchKind: "regex", Category: model.CategoryDairy},
			wantErr: ErrInvalidPattern,
		},
		{
			name:    "unknown category",
			pattern: &model.Pattern{Text: "leite", MatchKind: model.MatchContains, Category: 99},
			wantErr: ErrInvalidCategory,
		},
		{
			name:    "valid",
			pattern: &model.Pattern{Text: "leite", MatchKind: model.MatchContains, Category: model.CategoryDairy},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePattern(tt.pattern)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateAssignment(t *testing.T) {
	tests := []struct {
		assignment *model.Assignment
		wantErr    error
		name       string
	}{
		{name: "nil", wantErr: ErrNilParameter},
		{
			name:       "missing receipt",
			assignment: &model.Assignment{Category: model.CategoryDairy},
			wantErr:    ErrInvalidID,
		},
		{
			name:       "negative index",
			assignment: &model.Assignment{ReceiptID: 1, ItemIndex: -1, Category: model.CategoryDairy},
			wantErr:    ErrInvalidAssignment,
		},
		{
			name:       "no category",
			assignment: &model.Assignment{ReceiptID: 1},
			wantErr:    ErrInvalidCategory,
		},
		{
			name:       "valid",
			assignment: &model.Assignment{ReceiptID: 1, ItemIndex: 0, Category: model.CategoryDairy},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAssignment(tt.assignment)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
