package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusConfirmed OrderStatus = "confirmed"
)

type OrderItem struct {
	ID          int64           `json:"id"`
	OrderID     uuid.UUID       `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type Order struct {
	ID               uuid.UUID       `json:"id"`
	OwnerKey         string          `json:"-"`
	Status           OrderStatus     `json:"status"`
	PaymentMethod    string          `json:"payment_method"`
	PaymentReference string          `json:"payment_reference"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	ContactEmail     string          `json:"contact_email,omitempty"`
	Items            []OrderItem     `json:"items"`
	CreatedAt        time.Time       `json:"created_at"`
}
