// Package mocks holds testify mocks for the repository interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/farmsmart/farm-smart/internal/models"
	repository "github.com/farmsmart/farm-smart/internal/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type ProductRepository struct {
	mock.Mock
}

func (m *ProductRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *ProductRepository) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	args := m.Called(ctx, id)
	product, _ := args.Get(0).(*models.Product)
	return product, args.Error(1)
}

func (m *ProductRepository) ListProducts(ctx context.Context, page, size int) ([]*models.Product, int, error) {
	args := m.Called(ctx, page, size)
	products, _ := args.Get(0).([]*models.Product)
	return products, args.Int(1), args.Error(2)
}

type CartRepository struct {
	mock.Mock
}

func (m *CartRepository) AddEntry(ctx context.Context, ownerKey string, productID int64, quantity int, merge bool) (*models.CartEntry, error) {
	args := m.Called(ctx, ownerKey, productID, quantity, merge)
	entry, _ := args.Get(0).(*models.CartEntry)
	return entry, args.Error(1)
}

func (m *CartRepository) RemoveProduct(ctx context.Context, ownerKey string, productID int64) (int64, error) {
	args := m.Called(ctx, ownerKey, productID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *CartRepository) ListEntries(ctx context.Context, ownerKey string) ([]models.CartEntry, error) {
	args := m.Called(ctx, ownerKey)
	entries, _ := args.Get(0).([]models.CartEntry)
	return entries, args.Error(1)
}

func (m *CartRepository) ListLines(ctx context.Context, ownerKey string) ([]models.CartLine, error) {
	args := m.Called(ctx, ownerKey)
	lines, _ := args.Get(0).([]models.CartLine)
	return lines, args.Error(1)
}

func (m *CartRepository) Clear(ctx context.Context, ownerKey string) (int64, error) {
	args := m.Called(ctx, ownerKey)
	return args.Get(0).(int64), args.Error(1)
}

func (m *CartRepository) PurgeIdle(ctx context.Context, ownerPrefix string, idleSince time.Time) (int64, error) {
	args := m.Called(ctx, ownerPrefix, idleSince)
	return args.Get(0).(int64), args.Error(1)
}

type OrderRepository struct {
	mock.Mock
}

// PlaceOrder runs build against the lines given to Return, the way the real
// repository runs it against the locked cart.
// Return(lines []models.CartLine, err error); a non-nil err skips build.
func (m *OrderRepository) PlaceOrder(ctx context.Context, ownerKey string, build repository.BuildOrderFunc) (*models.Order, error) {
	args := m.Called(ctx, ownerKey, build)

	if err := args.Error(1); err != nil {
		return nil, err
	}

	lines, _ := args.Get(0).([]models.CartLine)

	order, err := build(lines)
	if err != nil {
		return nil, err
	}

	order.OwnerKey = ownerKey
	order.CreatedAt = time.Now()

	return order, nil
}

func (m *OrderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

func (m *OrderRepository) ListOrdersByOwner(ctx context.Context, ownerKey string, page, size int) ([]*models.Order, int, error) {
	args := m.Called(ctx, ownerKey, page, size)
	orders, _ := args.Get(0).([]*models.Order)
	return orders, args.Int(1), args.Error(2)
}

type RateLimitRepository struct {
	mock.Mock
}

func (m *RateLimitRepository) CheckCheckoutRateLimit(ctx context.Context, ownerKey string) (bool, int, int, error) {
	args := m.Called(ctx, ownerKey)
	return args.Bool(0), args.Int(1), args.Int(2), args.Error(3)
}
