package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/farmsmart/farm-smart/internal/models"
	"github.com/farmsmart/farm-smart/internal/utils"
	"github.com/google/uuid"
)

// BuildOrderFunc turns the owner's locked cart lines into the order to persist.
// Returning an error aborts the checkout and leaves the cart untouched.
type BuildOrderFunc func(lines []models.CartLine) (*models.Order, error)

type OrderRepository interface {
	PlaceOrder(ctx context.Context, ownerKey string, build BuildOrderFunc) (*models.Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrdersByOwner(ctx context.Context, ownerKey string, page, size int) ([]*models.Order, int, error)
}

type orderRepository struct {
	DB *sql.DB
}

func NewOrderRepo(db *sql.DB) OrderRepository {
	return &orderRepository{DB: db}
}

/*
PlaceOrder runs in one transaction:
lock the owner, read the cart lines, build the order,
insert the order and its items, delete the cart entries.
*/
func (r *orderRepository) PlaceOrder(ctx context.Context, ownerKey string, build BuildOrderFunc) (*models.Order, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	tx, err := r.DB.BeginTx(dbCtx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	if err := lockOwner(dbCtx, tx, ownerKey); err != nil {
		return nil, err
	}

	lines, err := queryCartLines(dbCtx, tx, ownerKey)
	if err != nil {
		return nil, err
	}

	order, err := build(lines)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO orders (id, owner_key, status, payment_method, payment_reference, total_amount, contact_email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NOW())
		RETURNING created_at
	`

	err = tx.QueryRowContext(dbCtx, query, order.ID, ownerKey, order.Status, order.PaymentMethod, order.PaymentReference, order.TotalAmount, order.ContactEmail).Scan(&order.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID

		if err := tx.QueryRowContext(dbCtx, itemQuery, order.ID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice).Scan(&item.ID); err != nil {
			return nil, fmt.Errorf("failed to insert an order item: %w", err)
		}
	}

	if _, err := tx.ExecContext(dbCtx, `DELETE FROM cart_entries WHERE owner_key = $1`, ownerKey); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	order.OwnerKey = ownerKey

	return order, nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	order := &models.Order{ID: id}

	var contactEmail sql.NullString

	query := `
		SELECT owner_key, status, payment_method, payment_reference, total_amount, contact_email, created_at
		FROM orders
		WHERE id = $1
	`

	err := r.DB.QueryRowContext(dbCtx, query, id).Scan(&order.OwnerKey, &order.Status, &order.PaymentMethod, &order.PaymentReference, &order.TotalAmount, &contactEmail, &order.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get the order: %w", err)
	}

	order.ContactEmail = contactEmail.String

	items, err := r.listItems(dbCtx, id)
	if err != nil {
		return nil, err
	}

	order.Items = items

	return order, nil
}

func (r *orderRepository) ListOrdersByOwner(ctx context.Context, ownerKey string, page, size int) ([]*models.Order, int, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int

	if err := r.DB.QueryRowContext(dbCtx, `SELECT COUNT(*) FROM orders WHERE owner_key = $1`, ownerKey).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (page - 1) * size

	query := `
		SELECT id, status, payment_method, payment_reference, total_amount, contact_email, created_at
		FROM orders
		WHERE owner_key = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.DB.QueryContext(dbCtx, query, ownerKey, size, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	defer rows.Close()

	orders := []*models.Order{}

	for rows.Next() {
		order := &models.Order{OwnerKey: ownerKey}

		var contactEmail sql.NullString

		if err := rows.Scan(&order.ID, &order.Status, &order.PaymentMethod, &order.PaymentReference, &order.TotalAmount, &contactEmail, &order.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}

		order.ContactEmail = contactEmail.String
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate orders: %w", err)
	}

	// fetch the items after the cursor is drained
	for _, order := range orders {
		items, err := r.listItems(dbCtx, order.ID)
		if err != nil {
			return nil, 0, err
		}
		order.Items = items
	}

	return orders, total, nil
}

func (r *orderRepository) listItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {

	query := `
		SELECT id, product_id, product_name, quantity, unit_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := r.DB.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get the order items: %w", err)
	}

	defer rows.Close()

	items := []models.OrderItem{}

	for rows.Next() {
		item := models.OrderItem{OrderID: orderID}

		if err := rows.Scan(&item.ID, &item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order items: %w", err)
	}

	return items, nil
}
