package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CheckoutState string

const (
	CheckoutReviewing  CheckoutState = "reviewing"
	CheckoutValidating CheckoutState = "validating"
	CheckoutConfirmed  CheckoutState = "confirmed"
	CheckoutRejected   CheckoutState = "rejected"
)

var checkoutTransitions = map[CheckoutState][]CheckoutState{
	CheckoutReviewing:  {CheckoutValidating},
	CheckoutValidating: {CheckoutConfirmed, CheckoutRejected},
	CheckoutRejected:   {CheckoutReviewing},
}

// CanTransition reports whether the checkout state machine allows moving
// from s to next. Confirmed is terminal.
func (s CheckoutState) CanTransition(next CheckoutState) bool {
	for _, allowed := range checkoutTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

func (s CheckoutState) Terminal() bool {
	return s == CheckoutConfirmed
}

const (
	PaymentMethodMobileMoney = "mobile_money"
	PaymentMethodCard        = "card"
)

type PaymentFields struct {
	MobileNumber string `json:"mobile_number,omitempty"`
	CardNumber   string `json:"card_number,omitempty"`
	CVV          string `json:"cvv,omitempty"`
	Expiry       string `json:"expiry,omitempty"`
}

type SubmitCheckoutRequest struct {
	PaymentMethod string        `json:"payment_method"`
	Payment       PaymentFields `json:"payment"`
	ContactEmail  string        `json:"contact_email,omitempty" validate:"omitempty,email"`
}

type CheckoutReview struct {
	State CheckoutState   `json:"state"`
	Lines []CartLine      `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

type Confirmation struct {
	State            CheckoutState   `json:"state"`
	OrderID          uuid.UUID       `json:"order_id"`
	Total            decimal.Decimal `json:"total"`
	PaymentMethod    string          `json:"payment_method"`
	PaymentReference string          `json:"payment_reference"`
	Items            []OrderItem     `json:"items"`
	ConfirmedAt      time.Time       `json:"confirmed_at"`
}
