// Package mocks holds testify mocks for the service interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/farmsmart/farm-smart/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type ProductService struct {
	mock.Mock
}

func (m *ProductService) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	args := m.Called(ctx, req)
	product, _ := args.Get(0).(*models.Product)
	return product, args.Error(1)
}

func (m *ProductService) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	args := m.Called(ctx, id)
	product, _ := args.Get(0).(*models.Product)
	return product, args.Error(1)
}

func (m *ProductService) ListProducts(ctx context.Context, page, pageSize int) ([]*models.Product, int, error) {
	args := m.Called(ctx, page, pageSize)
	products, _ := args.Get(0).([]*models.Product)
	return products, args.Int(1), args.Error(2)
}

type CartService struct {
	mock.Mock
}

func (m *CartService) AddItem(ctx context.Context, ownerKey string, productID int64, quantity int) (*models.CartEntry, error) {
	args := m.Called(ctx, ownerKey, productID, quantity)
	entry, _ := args.Get(0).(*models.CartEntry)
	return entry, args.Error(1)
}

func (m *CartService) RemoveItem(ctx context.Context, ownerKey string, productID int64) error {
	args := m.Called(ctx, ownerKey, productID)
	return args.Error(0)
}

func (m *CartService) ListItems(ctx context.Context, ownerKey string) ([]models.CartEntry, error) {
	args := m.Called(ctx, ownerKey)
	entries, _ := args.Get(0).([]models.CartEntry)
	return entries, args.Error(1)
}

func (m *CartService) GetCart(ctx context.Context, ownerKey string) (*models.CartView, error) {
	args := m.Called(ctx, ownerKey)
	view, _ := args.Get(0).(*models.CartView)
	return view, args.Error(1)
}

func (m *CartService) Total(ctx context.Context, ownerKey string) (decimal.Decimal, error) {
	args := m.Called(ctx, ownerKey)
	total, _ := args.Get(0).(decimal.Decimal)
	return total, args.Error(1)
}

func (m *CartService) Clear(ctx context.Context, ownerKey string) error {
	args := m.Called(ctx, ownerKey)
	return args.Error(0)
}

func (m *CartService) PurgeAbandoned(ctx context.Context, idleFor time.Duration) (int64, error) {
	args := m.Called(ctx, idleFor)
	return args.Get(0).(int64), args.Error(1)
}

type CheckoutService struct {
	mock.Mock
}

func (m *CheckoutService) BeginCheckout(ctx context.Context, ownerKey string) (*models.CheckoutReview, error) {
	args := m.Called(ctx, ownerKey)
	review, _ := args.Get(0).(*models.CheckoutReview)
	return review, args.Error(1)
}

func (m *CheckoutService) Submit(ctx context.Context, ownerKey string, req *models.SubmitCheckoutRequest) (*models.Confirmation, error) {
	args := m.Called(ctx, ownerKey, req)
	confirmation, _ := args.Get(0).(*models.Confirmation)
	return confirmation, args.Error(1)
}

type OrderService struct {
	mock.Mock
}

func (m *OrderService) GetOrder(ctx context.Context, ownerKey string, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, ownerKey, id)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

func (m *OrderService) ListOrders(ctx context.Context, ownerKey string, page, pageSize int) ([]*models.Order, int, error) {
	args := m.Called(ctx, ownerKey, page, pageSize)
	orders, _ := args.Get(0).([]*models.Order)
	return orders, args.Int(1), args.Error(2)
}
