package service

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/farmsmart/farm-smart/internal/api/middleware"
	"github.com/farmsmart/farm-smart/internal/errors"
	"github.com/farmsmart/farm-smart/internal/metrics"
	"github.com/farmsmart/farm-smart/internal/models"
	repository "github.com/farmsmart/farm-smart/internal/repositories"
	"github.com/google/uuid"
)

const notifyTimeout = 10 * time.Second

type CheckoutService interface {
	BeginCheckout(ctx context.Context, ownerKey string) (*models.CheckoutReview, error)
	Submit(ctx context.Context, ownerKey string, req *models.SubmitCheckoutRequest) (*models.Confirmation, error)
}

type checkoutService struct {
	cartRepo  repository.CartRepository
	orderRepo repository.OrderRepository
	notifier  NotificationService
	locks     *OwnerLocks
}

// NewCheckoutService builds the checkout flow. notifier may be nil.
func NewCheckoutService(cartRepo repository.CartRepository, orderRepo repository.OrderRepository, notifier NotificationService, locks *OwnerLocks) CheckoutService {
	return &checkoutService{cartRepo: cartRepo, orderRepo: orderRepo, notifier: notifier, locks: locks}
}

func (s *checkoutService) BeginCheckout(ctx context.Context, ownerKey string) (*models.CheckoutReview, error) {

	unlock := s.locks.Lock(ownerKey)
	defer unlock()

	lines, err := s.cartRepo.ListLines(ctx, ownerKey)
	if err != nil {
		return nil, errors.DatabaseError("Failed to load cart").WithError(err)
	}

	if len(lines) == 0 {
		return nil, errors.EmptyCartError("Cart is empty")
	}

	total, err := SumLines(lines)
	if err != nil {
		return nil, err
	}

	return &models.CheckoutReview{State: models.CheckoutReviewing, Lines: lines, Total: total}, nil
}

/*
Submit walks Reviewing -> Validating, then either Rejected (bad payment
fields) or Confirmed. Confirmation reprices the cart, writes the order and
empties the cart in one transaction, so a repeated submit finds nothing to
buy and fails with EmptyCart.
*/
func (s *checkoutService) Submit(ctx context.Context, ownerKey string, req *models.SubmitCheckoutRequest) (*models.Confirmation, error) {

	logger := middleware.LoggerFromContext(ctx)

	state := models.CheckoutReviewing

	state, err := advance(state, models.CheckoutValidating)
	if err != nil {
		return nil, err
	}

	method, reference, validationErr := validatePayment(req)
	if validationErr != nil {
		if _, err := advance(state, models.CheckoutRejected); err != nil {
			return nil, err
		}
		metrics.RecordCheckout(metrics.CheckoutRejected)
		logger.Warn("Checkout rejected", slog.String("paymentMethod", req.PaymentMethod), slog.String("reason", validationErr.Message))
		return nil, validationErr
	}

	unlock := s.locks.Lock(ownerKey)
	order, err := s.orderRepo.PlaceOrder(ctx, ownerKey, func(lines []models.CartLine) (*models.Order, error) {
		return buildOrder(lines, method, reference, strings.TrimSpace(req.ContactEmail))
	})
	unlock()

	if err != nil {
		switch {
		case errors.HasCode(err, errors.ErrCodeEmptyCart):
			metrics.RecordCheckout(metrics.CheckoutEmptyCart)
			return nil, err
		case errors.HasCode(err, errors.ErrCodeInconsistentState):
			metrics.RecordCheckout(metrics.CheckoutFailed)
			return nil, err
		default:
			metrics.RecordCheckout(metrics.CheckoutFailed)
			logger.Error("Failed to place order", slog.Any("error", err))
			return nil, errors.DatabaseError("Failed to place order").WithError(err)
		}
	}

	state, err = advance(state, models.CheckoutConfirmed)
	if err != nil {
		return nil, err
	}

	metrics.RecordCheckout(metrics.CheckoutConfirmed)
	logger.Info("Checkout confirmed", slog.String("orderId", order.ID.String()), slog.String("total", order.TotalAmount.StringFixed(2)))

	s.notify(ctx, order)

	return &models.Confirmation{
		State:            state,
		OrderID:          order.ID,
		Total:            order.TotalAmount,
		PaymentMethod:    order.PaymentMethod,
		PaymentReference: order.PaymentReference,
		Items:            order.Items,
		ConfirmedAt:      order.CreatedAt,
	}, nil
}

// notify is best effort; the order is already committed.
func (s *checkoutService) notify(ctx context.Context, order *models.Order) {

	if s.notifier == nil {
		return
	}

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := s.notifier.SendOrderConfirmation(notifyCtx, order); err != nil {
		middleware.LoggerFromContext(ctx).Warn("Order confirmation not sent", slog.String("orderId", order.ID.String()), slog.Any("error", err))
	}
}

func advance(from, to models.CheckoutState) (models.CheckoutState, error) {
	if !from.CanTransition(to) {
		return from, errors.InternalError("Invalid checkout state transition").WithDetail(string(from) + " -> " + string(to))
	}
	return to, nil
}

func buildOrder(lines []models.CartLine, method, reference, contactEmail string) (*models.Order, error) {

	if len(lines) == 0 {
		return nil, errors.EmptyCartError("Cart is empty")
	}

	total, err := SumLines(lines)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:               uuid.New(),
		Status:           models.OrderStatusConfirmed,
		PaymentMethod:    method,
		PaymentReference: reference,
		TotalAmount:      total,
		ContactEmail:     contactEmail,
		Items:            make([]models.OrderItem, 0, len(lines)),
	}

	for _, line := range lines {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   line.Entry.ProductID,
			ProductName: line.Product.Name,
			Quantity:    line.Entry.Quantity,
			UnitPrice:   line.Product.Price,
		})
	}

	return order, nil
}

// validatePayment checks the fields the chosen method needs and returns the
// normalized method with a masked reference safe to store.
func validatePayment(req *models.SubmitCheckoutRequest) (string, string, *errors.AppError) {

	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	fields := req.Payment

	switch method {
	case models.PaymentMethodMobileMoney:
		number := strings.TrimSpace(fields.MobileNumber)
		if number == "" {
			return "", "", errors.ValidationError("missing momo number")
		}
		return method, "momo " + mask(number), nil

	case models.PaymentMethodCard:
		card := strings.TrimSpace(fields.CardNumber)
		if card == "" || strings.TrimSpace(fields.CVV) == "" || strings.TrimSpace(fields.Expiry) == "" {
			return "", "", errors.ValidationError("incomplete card details")
		}
		return method, "card " + mask(card), nil

	default:
		return "", "", errors.ValidationError("unsupported payment method")
	}
}

// mask keeps the last four digits.
func mask(number string) string {

	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, number)

	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}

	return "****" + digits
}
