package repository_test

import (
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/farmsmart/farm-smart/internal/models"
	repository "github.com/farmsmart/farm-smart/internal/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	insertOrderSQL     = regexp.QuoteMeta(`INSERT INTO orders (id, owner_key, status, payment_method, payment_reference, total_amount, contact_email, created_at)`)
	insertOrderItemSQL = regexp.QuoteMeta(`INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price)`)
	clearCartSQL       = regexp.QuoteMeta(`DELETE FROM cart_entries WHERE owner_key = $1`)
	orderItemsSQL      = regexp.QuoteMeta(`FROM order_items`)
)

var orderItemColumns = []string{"id", "product_id", "product_name", "quantity", "unit_price"}

func setupOrderRepoTest(t *testing.T) (repository.OrderRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return repository.NewOrderRepo(db), mock
}

// buildFromLines mimics the checkout service: one item per line, no validation.
func buildFromLines(orderID uuid.UUID) repository.BuildOrderFunc {
	return func(lines []models.CartLine) (*models.Order, error) {
		order := &models.Order{
			ID:               orderID,
			Status:           models.OrderStatusConfirmed,
			PaymentMethod:    models.PaymentMethodCard,
			PaymentReference: "card ****4242",
			TotalAmount:      decimal.Zero,
		}
		for _, line := range lines {
			order.TotalAmount = order.TotalAmount.Add(line.LineTotal())
			order.Items = append(order.Items, models.OrderItem{
				ProductID:   line.Entry.ProductID,
				ProductName: line.Product.Name,
				Quantity:    line.Entry.Quantity,
				UnitPrice:   line.Product.Price,
			})
		}
		return order, nil
	}
}

func TestOrderRepository_PlaceOrder(t *testing.T) {
	ctx := t.Context()
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		repo, mock := setupOrderRepoTest(t)
		orderID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec(lockSQL).WithArgs(testOwner).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(cartLinesSQL).
			WithArgs(testOwner).
			WillReturnRows(sqlmock.NewRows(cartLineColumns).
				AddRow(int64(1), testOwner, int64(3), 2, now, now, int64(3), "Lettuce", "", "10.00", nil, now).
				AddRow(int64(2), testOwner, int64(3), 3, now, now, int64(3), "Lettuce", "", "10.00", nil, now))
		mock.ExpectQuery(insertOrderSQL).
			WithArgs(orderID, testOwner, models.OrderStatusConfirmed, models.PaymentMethodCard, "card ****4242", sqlmock.AnyArg(), "").
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))
		mock.ExpectQuery(insertOrderItemSQL).
			WithArgs(orderID, int64(3), "Lettuce", 2, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(100)))
		mock.ExpectQuery(insertOrderItemSQL).
			WithArgs(orderID, int64(3), "Lettuce", 3, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(101)))
		mock.ExpectExec(clearCartSQL).WithArgs(testOwner).WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		// Act
		order, err := repo.PlaceOrder(ctx, testOwner, buildFromLines(orderID))

		// Assert
		require.NoError(t, err)
		require.NotNil(t, order)
		assert.Equal(t, orderID, order.ID)
		assert.Equal(t, testOwner, order.OwnerKey)
		assert.True(t, decimal.RequireFromString("50").Equal(order.TotalAmount))
		require.Len(t, order.Items, 2)
		assert.Equal(t, int64(100), order.Items[0].ID)
		assert.Equal(t, orderID, order.Items[1].OrderID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Build error keeps the cart", func(t *testing.T) {
		// Arrange
		repo, mock := setupOrderRepoTest(t)
		buildErr := errors.New("cart is empty")

		mock.ExpectBegin()
		mock.ExpectExec(lockSQL).WithArgs(testOwner).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(cartLinesSQL).WithArgs(testOwner).WillReturnRows(sqlmock.NewRows(cartLineColumns))
		mock.ExpectRollback()

		var seen []models.CartLine

		// Act
		order, err := repo.PlaceOrder(ctx, testOwner, func(lines []models.CartLine) (*models.Order, error) {
			seen = lines
			return nil, buildErr
		})

		// Assert
		require.ErrorIs(t, err, buildErr)
		assert.Nil(t, order)
		assert.Empty(t, seen)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Item insert failure rolls back", func(t *testing.T) {
		// Arrange
		repo, mock := setupOrderRepoTest(t)
		orderID := uuid.New()
		dbError := errors.New("disk full")

		mock.ExpectBegin()
		mock.ExpectExec(lockSQL).WithArgs(testOwner).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(cartLinesSQL).
			WithArgs(testOwner).
			WillReturnRows(sqlmock.NewRows(cartLineColumns).
				AddRow(int64(1), testOwner, int64(3), 1, now, now, int64(3), "Lettuce", "", "10.00", nil, now))
		mock.ExpectQuery(insertOrderSQL).WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))
		mock.ExpectQuery(insertOrderItemSQL).WillReturnError(dbError)
		mock.ExpectRollback()

		// Act
		order, err := repo.PlaceOrder(ctx, testOwner, buildFromLines(orderID))

		// Assert
		require.ErrorIs(t, err, dbError)
		assert.Nil(t, order)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Commit failure", func(t *testing.T) {
		// Arrange
		repo, mock := setupOrderRepoTest(t)
		commitErr := errors.New("serialization failure")

		mock.ExpectBegin()
		mock.ExpectExec(lockSQL).WithArgs(testOwner).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(cartLinesSQL).
			WithArgs(testOwner).
			WillReturnRows(sqlmock.NewRows(cartLineColumns).
				AddRow(int64(1), testOwner, int64(3), 1, now, now, int64(3), "Lettuce", "", "10.00", nil, now))
		mock.ExpectQuery(insertOrderSQL).WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))
		mock.ExpectQuery(insertOrderItemSQL).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
		mock.ExpectExec(clearCartSQL).WithArgs(testOwner).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit().WillReturnError(commitErr)

		// Act
		_, err := repo.PlaceOrder(ctx, testOwner, buildFromLines(uuid.New()))

		// Assert
		require.ErrorIs(t, err, commitErr)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOrderRepository_GetOrderByID(t *testing.T) {
	ctx := t.Context()
	now := time.Now()
	selectSQL := regexp.QuoteMeta(`FROM orders`) + `\s+` + regexp.QuoteMeta(`WHERE id = $1`)
	orderColumns := []string{"owner_key", "status", "payment_method", "payment_reference", "total_amount", "contact_email", "created_at"}

	t.Run("Success", func(t *testing.T) {
		// Arrange
		repo, mock := setupOrderRepoTest(t)
		orderID := uuid.New()

		mock.ExpectQuery(selectSQL).
			WithArgs(orderID).
			WillReturnRows(sqlmock.NewRows(orderColumns).
				AddRow(testOwner, models.OrderStatusConfirmed, models.PaymentMethodMobileMoney, "momo ****5678", "20.00", "grower@example.com", now))
		mock.ExpectQuery(orderItemsSQL).
			WithArgs(orderID).
			WillReturnRows(sqlmock.NewRows(orderItemColumns).AddRow(int64(1), int64(3), "Lettuce", 2, "10.00"))

		// Act
		order, err := repo.GetOrderByID(ctx, orderID)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, testOwner, order.OwnerKey)
		assert.Equal(t, "grower@example.com", order.ContactEmail)
		assert.True(t, decimal.RequireFromString("20").Equal(order.TotalAmount))
		require.Len(t, order.Items, 1)
		assert.Equal(t, orderID, order.Items[0].OrderID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		// Arrange
		repo, mock := setupOrderRepoTest(t)
		orderID := uuid.New()

		mock.ExpectQuery(selectSQL).WithArgs(orderID).WillReturnError(sql.ErrNoRows)

		// Act
		order, err := repo.GetOrderByID(ctx, orderID)

		// Assert
		require.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, order)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOrderRepository_ListOrdersByOwner(t *testing.T) {
	ctx := t.Context()
	now := time.Now()
	repo, mock := setupOrderRepoTest(t)
	first, second := uuid.New(), uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM orders WHERE owner_key = $1`)).
		WithArgs(testOwner).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta(`LIMIT $2 OFFSET $3`)).
		WithArgs(testOwner, 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "payment_method", "payment_reference", "total_amount", "contact_email", "created_at"}).
			AddRow(first.String(), models.OrderStatusConfirmed, models.PaymentMethodCard, "card ****4242", "10.00", nil, now).
			AddRow(second.String(), models.OrderStatusConfirmed, models.PaymentMethodCard, "card ****4242", "5.00", nil, now))
	mock.ExpectQuery(orderItemsSQL).WithArgs(first).WillReturnRows(sqlmock.NewRows(orderItemColumns).AddRow(int64(1), int64(3), "Lettuce", 1, "10.00"))
	mock.ExpectQuery(orderItemsSQL).WithArgs(second).WillReturnRows(sqlmock.NewRows(orderItemColumns).AddRow(int64(2), int64(4), "Basil", 2, "2.50"))

	orders, total, err := repo.ListOrdersByOwner(ctx, testOwner, 1, 10)

	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, orders, 2)
	assert.Equal(t, first, orders[0].ID)
	assert.Empty(t, orders[0].ContactEmail)
	require.Len(t, orders[1].Items, 1)
	assert.Equal(t, "Basil", orders[1].Items[0].ProductName)
	require.NoError(t, mock.ExpectationsWereMet())
}
