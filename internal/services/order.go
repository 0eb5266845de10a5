package service

import (
	"context"
	"database/sql"
	stdErrors "errors"

	"github.com/farmsmart/farm-smart/internal/errors"
	"github.com/farmsmart/farm-smart/internal/models"
	repository "github.com/farmsmart/farm-smart/internal/repositories"
	"github.com/google/uuid"
)

type OrderService interface {
	GetOrder(ctx context.Context, ownerKey string, id uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, ownerKey string, page, pageSize int) ([]*models.Order, int, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
}

func NewOrderService(orderRepo repository.OrderRepository) OrderService {
	return &orderService{orderRepo: orderRepo}
}

// GetOrder only reveals orders placed by ownerKey; anyone else's order is
// reported as missing.
func (s *orderService) GetOrder(ctx context.Context, ownerKey string, id uuid.UUID) (*models.Order, error) {

	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if stdErrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Order not found").WithError(err)
		}
		return nil, errors.DatabaseError("Failed to fetch order").WithError(err)
	}

	if order.OwnerKey != ownerKey {
		return nil, errors.NotFoundError("Order not found")
	}

	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, ownerKey string, page, pageSize int) ([]*models.Order, int, error) {

	page, pageSize = NormalizePage(page, pageSize)

	orders, total, err := s.orderRepo.ListOrdersByOwner(ctx, ownerKey, page, pageSize)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to fetch orders").WithError(err)
	}

	return orders, total, nil
}
