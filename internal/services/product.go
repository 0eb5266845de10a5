package service

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"html"
	"log/slog"
	"strconv"
	"strings"

	"github.com/farmsmart/farm-smart/internal/api/middleware"
	"github.com/farmsmart/farm-smart/internal/cache"
	"github.com/farmsmart/farm-smart/internal/errors"
	"github.com/farmsmart/farm-smart/internal/models"
	repository "github.com/farmsmart/farm-smart/internal/repositories"
	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
)

// NUMERIC(12,2)
var maxPrice = decimal.RequireFromString("9999999999.99")

type ProductService interface {
	CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context, page, pageSize int) ([]*models.Product, int, error)
}

type productService struct {
	repo      repository.ProductRepository
	cache     cache.Cache
	sanitizer *bluemonday.Policy
	sfg       singleflight.Group
}

// NewProductService builds the catalog. productCache may be nil, in which
// case every read goes to the database.
func NewProductService(repo repository.ProductRepository, productCache cache.Cache) ProductService {
	return &productService{repo: repo, cache: productCache, sanitizer: bluemonday.StrictPolicy()}
}

func (s *productService) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {

	logger := middleware.LoggerFromContext(ctx)

	name := s.plainText(req.Name)
	if name == "" {
		return nil, errors.AddValidationError("name", "must not be empty")
	}

	price, err := ParsePrice(req.Price)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:        name,
		Description: s.plainText(req.Description),
		Price:       price,
	}

	if ref := s.plainText(req.ImageRef); ref != "" {
		product.ImageRef = &ref
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		logger.Error("Failed to create product", slog.String("name", product.Name), slog.Any("error", err))
		return nil, errors.DatabaseError("Failed to create product").WithError(err)
	}

	logger.Info("Product created", slog.Int64("productId", product.ID), slog.String("price", product.Price.StringFixed(2)))

	return product, nil
}

// plainText strips markup and returns the remaining text unescaped, so
// catalog fields are stored the way the grower typed them.
func (s *productService) plainText(raw string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(raw)))
}

// ParsePrice turns raw form text into a catalog price: a non-negative decimal
// with at most two fractional digits.
func ParsePrice(raw string) (decimal.Decimal, error) {

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, errors.AddValidationError("price", "is required")
	}

	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.AddValidationError("price", "must be a number").WithError(err)
	}

	if price.IsNegative() {
		return decimal.Zero, errors.AddValidationError("price", "must not be negative")
	}

	if !price.Equal(price.Round(2)) {
		return decimal.Zero, errors.AddValidationError("price", "must have at most 2 decimal places")
	}

	if price.GreaterThan(maxPrice) {
		return decimal.Zero, errors.AddValidationError("price", "is too large")
	}

	return price, nil
}

// GetProductByID is cache-aside over the product table. Products are
// immutable once created, so cached records never go stale.
func (s *productService) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {

	logger := middleware.LoggerFromContext(ctx)
	key := cache.ProductKey(id)

	if s.cache != nil {
		cached, found, err := cache.GetProduct(ctx, s.cache, id)
		if err != nil {
			logger.Warn("Product cache read failed", slog.String("key", key), slog.Any("error", err))
		} else if found {
			return cached, nil
		}
	}

	// collapse concurrent misses for the same id into one query
	v, err, _ := s.sfg.Do(strconv.FormatInt(id, 10), func() (any, error) {
		return s.repo.GetProductByID(ctx, id)
	})

	if err != nil {
		if stdErrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Product not found").WithError(err)
		}
		logger.Error("Failed to fetch product", slog.Int64("productId", id), slog.Any("error", err))
		return nil, errors.DatabaseError("Failed to fetch product").WithError(err)
	}

	product := v.(*models.Product)

	if s.cache != nil {
		if err := cache.SetProduct(ctx, s.cache, product); err != nil {
			logger.Warn("Product cache write failed", slog.String("key", key), slog.Any("error", err))
		}
	}

	return product, nil
}

// page means "page number requested"
// pageSize means "number of products to be displayed per page"
func (s *productService) ListProducts(ctx context.Context, page, pageSize int) ([]*models.Product, int, error) {

	page, pageSize = NormalizePage(page, pageSize)

	products, total, err := s.repo.ListProducts(ctx, page, pageSize)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to fetch products").WithError(err)
	}

	return products, total, nil
}

// NormalizePage applies the default page and page size and caps the size.
func NormalizePage(page, pageSize int) (int, int) {

	if page < 1 {
		page = defaultPage
	}

	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return page, pageSize
}
