package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Assignment places one item of one receipt into a category.
type Assignment struct {
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	ItemName  string          `json:"item_name"`
	ItemPrice decimal.Decimal `json:"item_price"`
	ID        int64           `json:"id"`
	ReceiptID int64           `json:"receipt_id"`
	ItemIndex int             `json:"item_index"`
	Category  Category        `json:"category_id"`
}

// CategoryTotal is the derived amount spent in one category on one receipt.
type CategoryTotal struct {
	Amount    decimal.Decimal `json:"amount"`
	ReceiptID int64           `json:"receipt_id"`
	Category  Category        `json:"category_id"`
}

// CategoryItem is an assignment joined with its receipt's purchase date.
type CategoryItem struct {
	PurchaseDate time.Time `json:"purchase_date"`
	Assignment
}

// MonthlyCategoryTotal aggregates category totals for one calendar month.
type MonthlyCategoryTotal struct {
	Amount   decimal.Decimal `json:"amount"`
	Year     int             `json:"year"`
	Month    time.Month      `json:"month"`
	Category Category        `json:"category"`
}

// MonthlyTotal aggregates receipt totals for one calendar month.
type MonthlyTotal struct {
	Amount   decimal.Decimal `json:"amount"`
	Year     int             `json:"year"`
	Month    time.Month      `json:"month"`
	Receipts int             `json:"receipts"`
}
