package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID         string
	SKU        string
	Name       string
	Stock      int
	PriceCents int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Order is the stored row. Status and PaymentStatus are kept raw; use State
// or View to interpret them.
type Order struct {
	ID            string
	ExternalID    string
	UserID        string
	Status        string
	PaymentStatus string // empty until the payment callback records one
	TotalCents    int
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Items         []OrderItem
}

type OrderItem struct {
	ID         string
	OrderID    string
	ProductID  string
	Qty        int
	PriceCents int
	Product    *Product
}

type ItemInput struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

// ListFilter narrows ListOrders. Zero values mean no filter.
type ListFilter struct {
	UserID string
	States []string // canonical or raw status tokens
	Limit  int
	Offset int
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// Normalized clamps paging to sane bounds: a missing limit gets the default,
// an oversized one is capped at MaxListLimit.
func (f ListFilter) Normalized() ListFilter {
	switch {
	case f.Limit < 1:
		f.Limit = DefaultListLimit
	case f.Limit > MaxListLimit:
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// FormatCents renders an amount in minor units as a fixed two-decimal string.
func FormatCents(cents int) string {
	return decimal.New(int64(cents), -2).StringFixed(2)
}
