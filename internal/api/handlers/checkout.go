package handlers

import (
	"log/slog"
	"net/http"

	"github.com/farmsmart/farm-smart/internal/api/middleware"
	"github.com/farmsmart/farm-smart/internal/errors"
	"github.com/farmsmart/farm-smart/internal/metrics"
	"github.com/farmsmart/farm-smart/internal/models"
	repository "github.com/farmsmart/farm-smart/internal/repositories"
	service "github.com/farmsmart/farm-smart/internal/services"
	"github.com/farmsmart/farm-smart/internal/utils"
	"github.com/farmsmart/farm-smart/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
	rateLimiter     repository.RateLimitRepository
	validator       *validator.Validate
}

// NewCheckoutHandler wires the checkout endpoints. rateLimiter may be nil.
func NewCheckoutHandler(checkoutService service.CheckoutService, rateLimiter repository.RateLimitRepository) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService, rateLimiter: rateLimiter, validator: validator.New()}
}

// BeginCheckout godoc
//	@Summary		Review the cart before paying
//	@Tags			Checkout
//	@Produce		json
//	@Success		200	{object}	models.CheckoutReview	"Items and total"
//	@Failure		409	{object}	response.ErrorResponse	"Cart is empty or references a missing product"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Router			/checkout [get]
func (h *CheckoutHandler) BeginCheckout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		owner, ok := requestOwner(w, r)
		if !ok {
			return
		}

		review, err := h.checkoutService.BeginCheckout(r.Context(), owner.Key)
		if err != nil {
			middleware.LoggerFromContext(r.Context()).Warn("Checkout could not begin", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, review)
	}
}

// Submit godoc
//	@Summary		Pay for the cart
//	@Description	Validates the payment fields for the chosen method, places the order and empties the cart.
//	@Tags			Checkout
//	@Accept			json
//	@Produce		json
//	@Param			checkout	body		models.SubmitCheckoutRequest	true	"Payment method and fields"
//	@Success		201			{object}	models.Confirmation				"Order confirmed"
//	@Failure		400			{object}	response.ErrorResponse			"Payment details rejected"
//	@Failure		409			{object}	response.ErrorResponse			"Cart is empty or references a missing product"
//	@Failure		429			{object}	response.ErrorResponse			"Too many checkout attempts"
//	@Failure		500			{object}	response.ErrorResponse			"Internal server error"
//	@Router			/checkout [post]
func (h *CheckoutHandler) Submit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		owner, ok := requestOwner(w, r)
		if !ok {
			return
		}

		if h.rateLimiter != nil {
			allowed, _, retryAfter, err := h.rateLimiter.CheckCheckoutRateLimit(r.Context(), owner.Key)
			if err != nil {
				// fail open
				logger.Error("Checkout rate limit check failed", slog.Any("error", err))
			} else if !allowed {
				metrics.RecordCheckout(metrics.CheckoutRateLimited)
				logger.Warn("Checkout rate limit exceeded", slog.Int("retryAfter", retryAfter))
				response.RetryLater(w, retryAfter, errors.TooManyRequestsError("Too many checkout attempts, please try again later"))
				return
			}
		}

		var req models.SubmitCheckoutRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid checkout input")
			return
		}

		if req.ContactEmail == "" {
			req.ContactEmail = owner.Email
		}

		confirmation, err := h.checkoutService.Submit(r.Context(), owner.Key, &req)
		if err != nil {
			logger.Warn("Checkout not completed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Checkout completed", slog.String("orderId", confirmation.OrderID.String()))
		response.Success(w, http.StatusCreated, confirmation)
	}
}
