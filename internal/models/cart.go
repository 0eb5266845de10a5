package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartEntry struct {
	ID        int64     `json:"id"`
	OwnerKey  string    `json:"-"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartLine is a cart entry joined with the catalog at read time. Product is
// nil when the referenced product no longer resolves.
type CartLine struct {
	Entry   CartEntry `json:"entry"`
	Product *Product  `json:"product"`
}

func (l CartLine) LineTotal() decimal.Decimal {
	if l.Product == nil {
		return decimal.Zero
	}

	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Entry.Quantity)))
}

type CartView struct {
	Lines []CartLine      `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

type AddItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity"`
}

type CartTotalResponse struct {
	Total decimal.Decimal `json:"total"`
}
