package handlers

import (
	"log/slog"
	"net/http"

	"github.com/farmsmart/farm-smart/internal/api/middleware"
	"github.com/farmsmart/farm-smart/internal/errors"
	"github.com/farmsmart/farm-smart/internal/models"
	service "github.com/farmsmart/farm-smart/internal/services"
	"github.com/farmsmart/farm-smart/internal/utils"
	"github.com/farmsmart/farm-smart/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type CartHandler struct {
	cartService service.CartService
	sessions    *middleware.OwnerMiddleware
	validator   *validator.Validate
}

func NewCartHandler(cartService service.CartService, sessions *middleware.OwnerMiddleware) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		sessions:    sessions,
		validator:   validator.New(),
	}
}

// requestOwner reads the owner attached by OwnerMiddleware.Resolve.
func requestOwner(w http.ResponseWriter, r *http.Request) (models.Owner, bool) {

	owner, ok := middleware.OwnerFromContext(r.Context())
	if !ok {
		middleware.LoggerFromContext(r.Context()).Warn("Request reached a cart route without an owner")
		response.Error(w, errors.UnauthorizedError("Authentication required"))
		return models.Owner{}, false
	}

	return owner, true
}

// GetCart godoc
//	@Summary		View the cart
//	@Description	Returns each entry joined with its current catalog product, and the total at current prices.
//	@Tags			Carts
//	@Produce		json
//	@Success		200	{object}	models.CartView			"Cart contents"
//	@Failure		409	{object}	response.ErrorResponse	"Cart references a product that no longer exists"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Router			/carts [get]
func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		owner, ok := requestOwner(w, r)
		if !ok {
			return
		}

		view, err := h.cartService.GetCart(r.Context(), owner.Key)
		if err != nil {
			middleware.LoggerFromContext(r.Context()).Error("Failed to get cart", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, view)
	}
}

// ListItems godoc
//	@Summary		List cart entries
//	@Tags			Carts
//	@Produce		json
//	@Success		200	{array}		models.CartEntry		"Cart entries"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Router			/carts/items [get]
func (h *CartHandler) ListItems() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		owner, ok := requestOwner(w, r)
		if !ok {
			return
		}

		entries, err := h.cartService.ListItems(r.Context(), owner.Key)
		if err != nil {
			middleware.LoggerFromContext(r.Context()).Error("Failed to list cart items", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		if entries == nil {
			entries = []models.CartEntry{}
		}

		response.Success(w, http.StatusOK, entries)
	}
}

// AddItem godoc
//	@Summary		Add a product to the cart
//	@Tags			Carts
//	@Accept			json
//	@Produce		json
//	@Param			item	body		models.AddItemRequest	true	"Product and quantity"
//	@Success		201		{object}	models.CartEntry		"Entry added"
//	@Failure		400		{object}	response.ErrorResponse	"Invalid input"
//	@Failure		404		{object}	response.ErrorResponse	"Product not found"
//	@Failure		500		{object}	response.ErrorResponse	"Internal server error"
//	@Router			/carts/items [post]
func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		owner, ok := requestOwner(w, r)
		if !ok {
			return
		}

		var req models.AddItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid add item input")
			return
		}

		entry, err := h.cartService.AddItem(r.Context(), owner.Key, req.ProductID, req.Quantity)
		if err != nil {
			logger.Warn("Failed to add item", slog.Int64("productId", req.ProductID), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusCreated, entry)
	}
}

// RemoveItem godoc
//	@Summary		Remove a product from the cart
//	@Description	Removes every entry for the product. Removing an absent product succeeds.
//	@Tags			Carts
//	@Param			productId	path	int	true	"Product ID"
//	@Success		204
//	@Failure		400	{object}	response.ErrorResponse	"Invalid product ID"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Router			/carts/items/{productId} [delete]
func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		owner, ok := requestOwner(w, r)
		if !ok {
			return
		}

		productID, err := utils.ParseInt64ID(r, "productId")
		if err != nil {
			logger.Warn("Invalid product id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		if err := h.cartService.RemoveItem(r.Context(), owner.Key, productID); err != nil {
			logger.Error("Failed to remove item", slog.Int64("productId", productID), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.NoContent(w)
	}
}

// Total godoc
//	@Summary		Cart total at current prices
//	@Tags			Carts
//	@Produce		json
//	@Success		200	{object}	models.CartTotalResponse	"Total"
//	@Failure		409	{object}	response.ErrorResponse		"Cart references a product that no longer exists"
//	@Failure		500	{object}	response.ErrorResponse		"Internal server error"
//	@Router			/carts/total [get]
func (h *CartHandler) Total() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		owner, ok := requestOwner(w, r)
		if !ok {
			return
		}

		total, err := h.cartService.Total(r.Context(), owner.Key)
		if err != nil {
			middleware.LoggerFromContext(r.Context()).Warn("Failed to total cart", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, models.CartTotalResponse{Total: total})
	}
}

// Clear godoc
//	@Summary	Empty the cart
//	@Tags		Carts
//	@Success	204
//	@Failure	500	{object}	response.ErrorResponse	"Internal server error"
//	@Router		/carts [delete]
func (h *CartHandler) Clear() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		owner, ok := requestOwner(w, r)
		if !ok {
			return
		}

		if err := h.cartService.Clear(r.Context(), owner.Key); err != nil {
			middleware.LoggerFromContext(r.Context()).Error("Failed to clear cart", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.NoContent(w)
	}
}

// EndSession godoc
//	@Summary		End the browsing session
//	@Description	Discards an anonymous cart and expires the session cookie. Signed-in carts are kept.
//	@Tags			Session
//	@Success		204
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Router			/session/logout [post]
func (h *CartHandler) EndSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		owner, ok := requestOwner(w, r)
		if !ok {
			return
		}

		if owner.Anonymous() {
			if err := h.cartService.Clear(r.Context(), owner.Key); err != nil {
				middleware.LoggerFromContext(r.Context()).Error("Failed to discard anonymous cart", slog.Any("error", err))
				response.Error(w, err)
				return
			}
		}

		h.sessions.ExpireSession(w)
		response.NoContent(w)
	}
}
