package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	appErrors "github.com/farmsmart/farm-smart/internal/errors"
	"github.com/farmsmart/farm-smart/internal/models"
	"github.com/farmsmart/farm-smart/internal/repositories/mocks"
	service "github.com/farmsmart/farm-smart/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type fakeNotifier struct {
	mu       sync.Mutex
	orders   []*models.Order
	ctxErrs  []error
	deadline time.Time
	err      error
}

func (n *fakeNotifier) SendOrderConfirmation(ctx context.Context, order *models.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.orders = append(n.orders, order)
	n.ctxErrs = append(n.ctxErrs, ctx.Err())
	n.deadline, _ = ctx.Deadline()

	return n.err
}

func momo() *models.SubmitCheckoutRequest {
	return &models.SubmitCheckoutRequest{
		PaymentMethod: "mobile_money",
		Payment:       models.PaymentFields{MobileNumber: "0244 123 5678"},
		ContactEmail:  "grower@example.com",
	}
}

// cartLines mirrors what the memory cart holds so PlaceOrder sees the same
// rows the cart service does.
func cartLines(t *testing.T, carts *memoryCart) []models.CartLine {
	t.Helper()

	lines, err := carts.ListLines(context.Background(), shopper)
	require.NoError(t, err)

	return lines
}

func TestBeginCheckout(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - review with total", func(t *testing.T) {
		// Arrange
		carts := newMemoryCart(lettuce())
		_, _ = carts.AddEntry(ctx, shopper, 1, 2, false)
		checkoutService := service.NewCheckoutService(carts, new(mocks.OrderRepository), nil, service.NewOwnerLocks())

		// Act
		review, err := checkoutService.BeginCheckout(ctx, shopper)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, models.CheckoutReviewing, review.State)
		assert.Len(t, review.Lines, 1)
		assert.Equal(t, "20.00", review.Total.StringFixed(2))
	})

	t.Run("Failure - empty cart", func(t *testing.T) {
		checkoutService := service.NewCheckoutService(newMemoryCart(), new(mocks.OrderRepository), nil, service.NewOwnerLocks())

		review, err := checkoutService.BeginCheckout(ctx, shopper)

		assert.Nil(t, review)
		assertAppError(t, err, appErrors.ErrCodeEmptyCart)
	})

	t.Run("Failure - vanished product", func(t *testing.T) {
		carts := newMemoryCart()
		_, _ = carts.AddEntry(ctx, shopper, 9, 1, false)
		checkoutService := service.NewCheckoutService(carts, new(mocks.OrderRepository), nil, service.NewOwnerLocks())

		_, err := checkoutService.BeginCheckout(ctx, shopper)

		assertAppError(t, err, appErrors.ErrCodeInconsistentState)
	})

	t.Run("Failure - Database Error", func(t *testing.T) {
		cartRepo := new(mocks.CartRepository)
		checkoutService := service.NewCheckoutService(cartRepo, new(mocks.OrderRepository), nil, service.NewOwnerLocks())

		cartRepo.On("ListLines", ctx, shopper).Return(nil, errors.New("timeout")).Once()

		_, err := checkoutService.BeginCheckout(ctx, shopper)

		assertAppError(t, err, appErrors.ErrCodeDatabaseError)
	})
}

func TestSubmitCheckout(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - mobile money", func(t *testing.T) {
		// Arrange
		carts := newMemoryCart(lettuce())
		_, _ = carts.AddEntry(ctx, shopper, 1, 2, false)
		_, _ = carts.AddEntry(ctx, shopper, 1, 3, false)

		orderRepo := new(mocks.OrderRepository)
		notifier := &fakeNotifier{}
		checkoutService := service.NewCheckoutService(carts, orderRepo, notifier, service.NewOwnerLocks())

		orderRepo.On("PlaceOrder", ctx, shopper, mock.Anything).Return(cartLines(t, carts), nil).Once()

		// Act
		confirmation, err := checkoutService.Submit(ctx, shopper, momo())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, models.CheckoutConfirmed, confirmation.State)
		assert.NotEqual(t, uuid.Nil, confirmation.OrderID)
		assert.Equal(t, "50.00", confirmation.Total.StringFixed(2))
		assert.Equal(t, "mobile_money", confirmation.PaymentMethod)
		assert.Equal(t, "momo ****5678", confirmation.PaymentReference)
		require.Len(t, confirmation.Items, 2)
		assert.Equal(t, "Lettuce", confirmation.Items[0].ProductName)
		assert.False(t, confirmation.ConfirmedAt.IsZero())

		require.Len(t, notifier.orders, 1)
		assert.Equal(t, "grower@example.com", notifier.orders[0].ContactEmail)
		orderRepo.AssertExpectations(t)
	})

	t.Run("Success - card with normalized method", func(t *testing.T) {
		carts := newMemoryCart(lettuce())
		_, _ = carts.AddEntry(ctx, shopper, 1, 1, false)

		orderRepo := new(mocks.OrderRepository)
		checkoutService := service.NewCheckoutService(carts, orderRepo, nil, service.NewOwnerLocks())

		orderRepo.On("PlaceOrder", ctx, shopper, mock.Anything).Return(cartLines(t, carts), nil).Once()

		confirmation, err := checkoutService.Submit(ctx, shopper, &models.SubmitCheckoutRequest{
			PaymentMethod: " Card ",
			Payment:       models.PaymentFields{CardNumber: "4111-1111-1111-1234", CVV: "123", Expiry: "12/29"},
		})

		require.NoError(t, err)
		assert.Equal(t, "card", confirmation.PaymentMethod)
		assert.Equal(t, "card ****1234", confirmation.PaymentReference)
		assert.Equal(t, "10.00", confirmation.Total.StringFixed(2))
	})

	rejected := []struct {
		name    string
		req     models.SubmitCheckoutRequest
		message string
	}{
		{"missing momo number", models.SubmitCheckoutRequest{PaymentMethod: "mobile_money"}, "missing momo number"},
		{"blank momo number", models.SubmitCheckoutRequest{PaymentMethod: "mobile_money", Payment: models.PaymentFields{MobileNumber: "   "}}, "missing momo number"},
		{"card without cvv", models.SubmitCheckoutRequest{PaymentMethod: "card", Payment: models.PaymentFields{CardNumber: "4111111111111111", Expiry: "12/29"}}, "incomplete card details"},
		{"card without expiry", models.SubmitCheckoutRequest{PaymentMethod: "card", Payment: models.PaymentFields{CardNumber: "4111111111111111", CVV: "123"}}, "incomplete card details"},
		{"unknown method", models.SubmitCheckoutRequest{PaymentMethod: "cash"}, "unsupported payment method"},
		{"no method", models.SubmitCheckoutRequest{}, "unsupported payment method"},
	}

	for _, tc := range rejected {
		t.Run("Rejected - "+tc.name, func(t *testing.T) {
			carts := newMemoryCart(lettuce())
			_, _ = carts.AddEntry(ctx, shopper, 1, 2, false)

			orderRepo := new(mocks.OrderRepository)
			checkoutService := service.NewCheckoutService(carts, orderRepo, nil, service.NewOwnerLocks())

			confirmation, err := checkoutService.Submit(ctx, shopper, &tc.req)

			assert.Nil(t, confirmation)
			appErr := assertAppError(t, err, appErrors.ErrCodeValidation)
			assert.Equal(t, tc.message, appErr.Message)
			orderRepo.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything, mock.Anything)

			// The cart survives a rejected submit
			entries, _ := carts.ListEntries(ctx, shopper)
			assert.Len(t, entries, 1)
		})
	}

	t.Run("Failure - empty cart", func(t *testing.T) {
		orderRepo := new(mocks.OrderRepository)
		checkoutService := service.NewCheckoutService(newMemoryCart(), orderRepo, nil, service.NewOwnerLocks())

		orderRepo.On("PlaceOrder", ctx, shopper, mock.Anything).Return([]models.CartLine{}, nil).Once()

		_, err := checkoutService.Submit(ctx, shopper, momo())

		appErr := assertAppError(t, err, appErrors.ErrCodeEmptyCart)
		assert.Equal(t, "Cart is empty", appErr.Message)
	})

	t.Run("Failure - submitting twice", func(t *testing.T) {
		carts := newMemoryCart(lettuce())
		_, _ = carts.AddEntry(ctx, shopper, 1, 2, false)

		orderRepo := new(mocks.OrderRepository)
		checkoutService := service.NewCheckoutService(carts, orderRepo, nil, service.NewOwnerLocks())

		// the first order consumes the cart, the second sees it empty
		orderRepo.On("PlaceOrder", ctx, shopper, mock.Anything).Return(cartLines(t, carts), nil).Once()
		orderRepo.On("PlaceOrder", ctx, shopper, mock.Anything).Return([]models.CartLine{}, nil).Once()

		_, err := checkoutService.Submit(ctx, shopper, momo())
		require.NoError(t, err)

		_, err = checkoutService.Submit(ctx, shopper, momo())
		assertAppError(t, err, appErrors.ErrCodeEmptyCart)
		orderRepo.AssertExpectations(t)
	})

	t.Run("Failure - vanished product", func(t *testing.T) {
		orderRepo := new(mocks.OrderRepository)
		checkoutService := service.NewCheckoutService(newMemoryCart(), orderRepo, nil, service.NewOwnerLocks())

		orderRepo.On("PlaceOrder", ctx, shopper, mock.Anything).
			Return([]models.CartLine{{Entry: models.CartEntry{ProductID: 3, Quantity: 1}}}, nil).Once()

		_, err := checkoutService.Submit(ctx, shopper, momo())

		appErr := assertAppError(t, err, appErrors.ErrCodeInconsistentState)
		assert.Equal(t, "productId=3", appErr.Detail)
	})

	t.Run("Failure - Database Error", func(t *testing.T) {
		orderRepo := new(mocks.OrderRepository)
		checkoutService := service.NewCheckoutService(newMemoryCart(), orderRepo, nil, service.NewOwnerLocks())
		dbErr := errors.New("serialization failure")

		orderRepo.On("PlaceOrder", ctx, shopper, mock.Anything).Return(nil, dbErr).Once()

		_, err := checkoutService.Submit(ctx, shopper, momo())

		assertAppError(t, err, appErrors.ErrCodeDatabaseError)
		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("Notification failure does not fail the checkout", func(t *testing.T) {
		carts := newMemoryCart(lettuce())
		_, _ = carts.AddEntry(ctx, shopper, 1, 1, false)

		orderRepo := new(mocks.OrderRepository)
		notifier := &fakeNotifier{err: errors.New("sendgrid unavailable")}
		checkoutService := service.NewCheckoutService(carts, orderRepo, notifier, service.NewOwnerLocks())

		orderRepo.On("PlaceOrder", ctx, shopper, mock.Anything).Return(cartLines(t, carts), nil).Once()

		confirmation, err := checkoutService.Submit(ctx, shopper, momo())

		require.NoError(t, err)
		assert.Equal(t, models.CheckoutConfirmed, confirmation.State)
		assert.Len(t, notifier.orders, 1)
	})

	t.Run("Confirmation is sent even when the request is gone", func(t *testing.T) {
		carts := newMemoryCart(lettuce())
		_, _ = carts.AddEntry(ctx, shopper, 1, 1, false)

		orderRepo := new(mocks.OrderRepository)
		notifier := &fakeNotifier{}
		checkoutService := service.NewCheckoutService(carts, orderRepo, notifier, service.NewOwnerLocks())

		reqCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		orderRepo.On("PlaceOrder", mock.Anything, shopper, mock.Anything).
			Run(func(mock.Arguments) { cancel() }).
			Return(cartLines(t, carts), nil).Once()

		started := time.Now()
		_, err := checkoutService.Submit(reqCtx, shopper, momo())

		require.NoError(t, err)
		require.Len(t, notifier.ctxErrs, 1)
		assert.NoError(t, notifier.ctxErrs[0], "a client hanging up must not cancel the e-mail")
		assert.WithinDuration(t, started.Add(10*time.Second), notifier.deadline, 2*time.Second)
	})
}

func TestConcurrentSubmitPlacesOneOrder(t *testing.T) {
	ctx := context.Background()
	carts := newMemoryCart(lettuce())
	_, _ = carts.AddEntry(ctx, shopper, 1, 2, false)

	lines := cartLines(t, carts)
	orderRepo := new(mocks.OrderRepository)
	checkoutService := service.NewCheckoutService(carts, orderRepo, nil, service.NewOwnerLocks())

	// PlaceOrder calls are serialized per owner; only the first sees items.
	orderRepo.On("PlaceOrder", ctx, shopper, mock.Anything).Return(lines, nil).Once()
	orderRepo.On("PlaceOrder", ctx, shopper, mock.Anything).Return([]models.CartLine{}, nil)

	var confirmed, empty atomic.Int32
	var g errgroup.Group

	for range 10 {
		g.Go(func() error {
			_, err := checkoutService.Submit(ctx, shopper, momo())
			switch {
			case err == nil:
				confirmed.Add(1)
			case appErrors.HasCode(err, appErrors.ErrCodeEmptyCart):
				empty.Add(1)
			default:
				return err
			}
			return nil
		})
	}

	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), confirmed.Load())
	assert.Equal(t, int32(9), empty.Load())
}
