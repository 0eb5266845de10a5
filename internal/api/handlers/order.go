package handlers

import (
	"log/slog"
	"net/http"

	"github.com/farmsmart/farm-smart/internal/api/middleware"
	service "github.com/farmsmart/farm-smart/internal/services"
	"github.com/farmsmart/farm-smart/internal/utils"
	"github.com/farmsmart/farm-smart/internal/utils/response"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// GetOrder godoc
//	@Summary		Get an order by ID
//	@Description	Only orders placed by the current cart owner are visible.
//	@Tags			Orders
//	@Produce		json
//	@Param			id	path		string					true	"Order ID (UUID)"	Format(uuid)
//	@Success		200	{object}	models.Order			"Order"
//	@Failure		400	{object}	response.ErrorResponse	"Invalid order ID format"
//	@Failure		404	{object}	response.ErrorResponse	"Order not found"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Router			/orders/{id} [get]
func (h *OrderHandler) GetOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		owner, ok := requestOwner(w, r)
		if !ok {
			return
		}

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid order id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		order, err := h.orderService.GetOrder(r.Context(), owner.Key, id)
		if err != nil {
			logger.Warn("Failed to get order", slog.String("orderId", id.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, order)
	}
}

// ListOrders godoc
//	@Summary		List the current owner's orders
//	@Tags			Orders
//	@Produce		json
//	@Param			page		query		int												false	"Page number (default: 1)"				minimum(1)
//	@Param			pageSize	query		int												false	"Items per page (default: 20, max: 100)"	minimum(1)	maximum(100)
//	@Success		200			{object}	models.PaginatedResponse{Data=[]models.Order}	"Orders, newest first"
//	@Failure		500			{object}	response.ErrorResponse							"Internal server error"
//	@Router			/orders [get]
func (h *OrderHandler) ListOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		owner, ok := requestOwner(w, r)
		if !ok {
			return
		}

		page, pageSize := service.NormalizePage(utils.ParsePagination(r))

		orders, total, err := h.orderService.ListOrders(r.Context(), owner.Key, page, pageSize)
		if err != nil {
			logger.Error("Failed to list orders", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Orders listed successfully", slog.Int("count", len(orders)), slog.Int("total", total))
		response.Page(w, orders, total, page, pageSize)
	}
}
