// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/Veraticus/receipt-ledger/internal/model"
	"github.com/shopspring/decimal"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Receipt operations
	CreateReceipt(ctx context.Context, receipt *model.Receipt) error
	GetReceipt(ctx context.Context, id int64) (*model.Receipt, error)
	GetReceiptByURL(ctx context.Context, url string) (*model.Receipt, error)
	ListReceipts(ctx context.Context) ([]model.Receipt, error)
	UpdateReceiptItems(ctx context.Context, receipt *model.Receipt) error
	DeleteReceipt(ctx context.Context, id int64) error

	// Pattern operations
	GetPatterns(ctx context.Context) ([]model.Pattern, error)
	GetPatternsByKind(ctx context.Context, kind model.MatchKind) ([]model.Pattern, error)
	GetPatternsByCategory(ctx context.Context, category model.Category) ([]model.Pattern, error)
	SavePattern(ctx context.Context, pattern *model.Pattern) error
	DeletePattern(ctx context.Context, id int64) error

	// Assignment operations
	ReplaceAssignments(ctx context.Context, receiptID int64, assignments []model.Assignment) error
	CreateAssignment(ctx context.Context, assignment *model.Assignment) error
	GetAssignment(ctx context.Context, id int64) (*model.Assignment, error)
	GetAssignmentByIndex(ctx context.Context, receiptID int64, itemIndex int) (*model.Assignment, error)
	GetAssignments(ctx context.Context, receiptID int64) ([]model.Assignment, error)
	GetAssignmentsByCategory(ctx context.Context, receiptID int64, category model.Category) ([]model.Assignment, error)
	GetCategoryItems(ctx context.Context, category model.Category) ([]model.CategoryItem, error)
	UpdateAssignmentCategory(ctx context.Context, id int64, category model.Category) error
	DeleteAssignments(ctx context.Context, receiptID int64, itemIndices []int) error

	// Category total operations
	SetCategoryTotal(ctx context.Context, receiptID int64, category model.Category, amount decimal.Decimal) error
	DeleteCategoryTotal(ctx context.Context, receiptID int64, category model.Category) error
	DeleteCategoryTotals(ctx context.Context, receiptID int64) error
	GetCategoryTotals(ctx context.Context, receiptID int64) ([]model.CategoryTotal, error)

	// Reporting
	GetMonthlyBreakdown(ctx context.Context) ([]model.MonthlyCategoryTotal, error)
	GetMonthlyTotals(ctx context.Context) ([]model.MonthlyTotal, error)

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Storage
	Commit() error
	Rollback() error
}
