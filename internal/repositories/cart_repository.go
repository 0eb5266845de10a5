package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/farmsmart/farm-smart/internal/models"
	"github.com/farmsmart/farm-smart/internal/utils"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// ErrQuantityOverflow means the entry quantity would not fit the INTEGER column.
var ErrQuantityOverflow = errors.New("cart entry quantity out of range")

// SQLSTATE numeric_value_out_of_range
const pqNumericOutOfRange = "22003"

type CartRepository interface {
	AddEntry(ctx context.Context, ownerKey string, productID int64, quantity int, merge bool) (*models.CartEntry, error)
	RemoveProduct(ctx context.Context, ownerKey string, productID int64) (int64, error)
	ListEntries(ctx context.Context, ownerKey string) ([]models.CartEntry, error)
	ListLines(ctx context.Context, ownerKey string) ([]models.CartLine, error)
	Clear(ctx context.Context, ownerKey string) (int64, error)
	PurgeIdle(ctx context.Context, ownerPrefix string, idleSince time.Time) (int64, error)
}

type cartRepository struct {
	DB *sql.DB
}

func NewCartRepo(db *sql.DB) CartRepository {
	return &cartRepository{DB: db}
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// lockOwner serializes every transaction touching one owner's cart until
// the surrounding transaction ends.
func lockOwner(ctx context.Context, tx execer, ownerKey string) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, ownerKey); err != nil {
		return fmt.Errorf("failed to lock cart owner: %w", err)
	}

	return nil
}

const cartLinesQuery = `
	SELECT ce.id, ce.owner_key, ce.product_id, ce.quantity, ce.created_at, ce.updated_at,
	       p.id, p.name, p.description, p.price, p.image_ref, p.created_at
	FROM cart_entries ce
	LEFT JOIN products p ON p.id = ce.product_id
	WHERE ce.owner_key = $1
	ORDER BY ce.id
`

func queryCartLines(ctx context.Context, q querier, ownerKey string) ([]models.CartLine, error) {

	rows, err := q.QueryContext(ctx, cartLinesQuery, ownerKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart lines: %w", err)
	}

	defer rows.Close()

	lines := []models.CartLine{}

	for rows.Next() {
		var (
			line        models.CartLine
			productID   sql.NullInt64
			name        sql.NullString
			description sql.NullString
			price       decimal.NullDecimal
			imageRef    sql.NullString
			createdAt   sql.NullTime
		)

		err := rows.Scan(&line.Entry.ID, &line.Entry.OwnerKey, &line.Entry.ProductID, &line.Entry.Quantity, &line.Entry.CreatedAt, &line.Entry.UpdatedAt,
			&productID, &name, &description, &price, &imageRef, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}

		// a NULL product id means the catalog no longer has this product
		if productID.Valid {
			line.Product = &models.Product{
				ID:          productID.Int64,
				Name:        name.String,
				Description: description.String,
				Price:       price.Decimal,
				CreatedAt:   createdAt.Time,
			}
			if imageRef.Valid {
				ref := imageRef.String
				line.Product.ImageRef = &ref
			}
		}

		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cart lines: %w", err)
	}

	return lines, nil
}

func (r *cartRepository) AddEntry(ctx context.Context, ownerKey string, productID int64, quantity int, merge bool) (*models.CartEntry, error) {
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

	entry := &models.CartEntry{
		OwnerKey:  ownerKey,
		ProductID: productID,
		Quantity:  quantity,
	}

	if merge {
		mergeQuery := `
			UPDATE cart_entries
			SET quantity = quantity + $3, updated_at = NOW()
			WHERE id = (
				SELECT id FROM cart_entries
				WHERE owner_key = $1 AND product_id = $2
				ORDER BY id
				LIMIT 1
			)
			RETURNING id, quantity, created_at, updated_at
		`

		err := tx.QueryRowContext(dbCtx, mergeQuery, ownerKey, productID, quantity).Scan(&entry.ID, &entry.Quantity, &entry.CreatedAt, &entry.UpdatedAt)

		switch {
		case err == nil:
			if err := tx.Commit(); err != nil {
				return nil, fmt.Errorf("failed to commit cart entry: %w", err)
			}
			return entry, nil
		case isOutOfRange(err):
			return nil, ErrQuantityOverflow
		case !errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("failed to merge cart entry: %w", err)
		}
	}

	insertQuery := `
		INSERT INTO cart_entries (owner_key, product_id, quantity)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	if err := tx.QueryRowContext(dbCtx, insertQuery, ownerKey, productID, quantity).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		if isOutOfRange(err) {
			return nil, ErrQuantityOverflow
		}
		return nil, fmt.Errorf("failed to insert cart entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cart entry: %w", err)
	}

	return entry, nil
}

func isOutOfRange(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqNumericOutOfRange
}

func (r *cartRepository) RemoveProduct(ctx context.Context, ownerKey string, productID int64) (int64, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `DELETE FROM cart_entries WHERE owner_key = $1 AND product_id = $2`

	result, err := r.DB.ExecContext(dbCtx, query, ownerKey, productID)
	if err != nil {
		return 0, fmt.Errorf("failed to remove cart entries: %w", err)
	}

	return result.RowsAffected()
}

func (r *cartRepository) ListEntries(ctx context.Context, ownerKey string) ([]models.CartEntry, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, owner_key, product_id, quantity, created_at, updated_at
		FROM cart_entries
		WHERE owner_key = $1
		ORDER BY id
	`

	rows, err := r.DB.QueryContext(dbCtx, query, ownerKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart entries: %w", err)
	}

	defer rows.Close()

	entries := []models.CartEntry{}

	for rows.Next() {
		var entry models.CartEntry

		if err := rows.Scan(&entry.ID, &entry.OwnerKey, &entry.ProductID, &entry.Quantity, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cart entry: %w", err)
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cart entries: %w", err)
	}

	return entries, nil
}

func (r *cartRepository) ListLines(ctx context.Context, ownerKey string) ([]models.CartLine, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	return queryCartLines(dbCtx, r.DB, ownerKey)
}

func (r *cartRepository) Clear(ctx context.Context, ownerKey string) (int64, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, `DELETE FROM cart_entries WHERE owner_key = $1`, ownerKey)
	if err != nil {
		return 0, fmt.Errorf("failed to clear cart: %w", err)
	}

	return result.RowsAffected()
}

// PurgeIdle drops every cart under ownerPrefix whose newest entry is older than idleSince.
func (r *cartRepository) PurgeIdle(ctx context.Context, ownerPrefix string, idleSince time.Time) (int64, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		DELETE FROM cart_entries
		WHERE owner_key IN (
			SELECT owner_key FROM cart_entries
			WHERE owner_key LIKE $1 || '%'
			GROUP BY owner_key
			HAVING MAX(updated_at) < $2
		)
	`

	result, err := r.DB.ExecContext(dbCtx, query, ownerPrefix, idleSince)
	if err != nil {
		return 0, fmt.Errorf("failed to purge idle carts: %w", err)
	}

	return result.RowsAffected()
}
