package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageRef    *string         `json:"image_ref,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Fields arrive as raw form text; the catalog parses and range-checks them.
type CreateProductRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Price       string `json:"price" validate:"required"`
	ImageRef    string `json:"image_ref" validate:"max=500"`
}
