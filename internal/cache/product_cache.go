package cache

import (
	"context"
	"strconv"

	"github.com/farmsmart/farm-smart/internal/models"
)

const ProductKeyPrefix = "product"

func ProductKey(id int64) string {
	return Key(ProductKeyPrefix, strconv.FormatInt(id, 10))
}

// GetProduct looks up a catalog record by id. A miss returns nil, false, nil.
func GetProduct(ctx context.Context, c Cache, id int64) (*models.Product, bool, error) {

	var product models.Product

	found, err := c.Get(ctx, ProductKey(id), &product)
	if err != nil || !found {
		return nil, false, err
	}

	return &product, true, nil
}

// SetProduct stores a catalog record under its id with the default TTL.
// Products are never updated, so there is no invalidation path.
func SetProduct(ctx context.Context, c Cache, product *models.Product) error {
	return c.Set(ctx, ProductKey(product.ID), product, 0)
}
