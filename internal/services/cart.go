package service

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/farmsmart/farm-smart/internal/api/middleware"
	"github.com/farmsmart/farm-smart/internal/errors"
	"github.com/farmsmart/farm-smart/internal/metrics"
	"github.com/farmsmart/farm-smart/internal/models"
	repository "github.com/farmsmart/farm-smart/internal/repositories"
	"github.com/shopspring/decimal"
)

// MaxEntryQuantity is the largest quantity one cart entry can hold.
const MaxEntryQuantity = math.MaxInt32

type CartService interface {
	AddItem(ctx context.Context, ownerKey string, productID int64, quantity int) (*models.CartEntry, error)
	RemoveItem(ctx context.Context, ownerKey string, productID int64) error
	ListItems(ctx context.Context, ownerKey string) ([]models.CartEntry, error)
	GetCart(ctx context.Context, ownerKey string) (*models.CartView, error)
	Total(ctx context.Context, ownerKey string) (decimal.Decimal, error)
	Clear(ctx context.Context, ownerKey string) error
	PurgeAbandoned(ctx context.Context, idleFor time.Duration) (int64, error)
}

type cartService struct {
	cartRepo        repository.CartRepository
	products        ProductService
	locks           *OwnerLocks
	mergeDuplicates bool
}

// NewCartService wires the cart to the catalog. With mergeDuplicates set,
// adding a product already in the cart grows that entry instead of
// appending a second one.
func NewCartService(cartRepo repository.CartRepository, products ProductService, locks *OwnerLocks, mergeDuplicates bool) CartService {
	return &cartService{
		cartRepo:        cartRepo,
		products:        products,
		locks:           locks,
		mergeDuplicates: mergeDuplicates,
	}
}

func (s *cartService) AddItem(ctx context.Context, ownerKey string, productID int64, quantity int) (*models.CartEntry, error) {

	logger := middleware.LoggerFromContext(ctx)

	if quantity < 1 {
		return nil, errors.AddValidationError("quantity", "must be at least 1")
	}

	if quantity > MaxEntryQuantity {
		return nil, errors.AddValidationError("quantity", "is too large")
	}

	if _, err := s.products.GetProductByID(ctx, productID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(ownerKey)
	defer unlock()

	entry, err := s.cartRepo.AddEntry(ctx, ownerKey, productID, quantity, s.mergeDuplicates)
	if stdErrors.Is(err, repository.ErrQuantityOverflow) {
		logger.Warn("Merged quantity out of range", slog.Int64("productId", productID), slog.Int("quantity", quantity))
		return nil, errors.AddValidationError("quantity", "would exceed the maximum for one entry").WithError(err)
	}
	if err != nil {
		logger.Error("Failed to add cart entry", slog.Int64("productId", productID), slog.Any("error", err))
		return nil, errors.DatabaseError("Failed to add item to cart").WithError(err)
	}

	metrics.RecordCartMutation("add")
	logger.Info("Item added to cart", slog.Int64("productId", productID), slog.Int("quantity", quantity), slog.Int64("entryId", entry.ID))

	return entry, nil
}

// RemoveItem drops every entry for the product. Removing a product that is
// not in the cart is a no-op.
func (s *cartService) RemoveItem(ctx context.Context, ownerKey string, productID int64) error {

	unlock := s.locks.Lock(ownerKey)
	defer unlock()

	removed, err := s.cartRepo.RemoveProduct(ctx, ownerKey, productID)
	if err != nil {
		return errors.DatabaseError("Failed to remove item from cart").WithError(err)
	}

	metrics.RecordCartMutation("remove")
	middleware.LoggerFromContext(ctx).Info("Item removed from cart", slog.Int64("productId", productID), slog.Int64("entries", removed))

	return nil
}

func (s *cartService) ListItems(ctx context.Context, ownerKey string) ([]models.CartEntry, error) {

	unlock := s.locks.Lock(ownerKey)
	defer unlock()

	entries, err := s.cartRepo.ListEntries(ctx, ownerKey)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list cart items").WithError(err)
	}

	return entries, nil
}

func (s *cartService) GetCart(ctx context.Context, ownerKey string) (*models.CartView, error) {

	unlock := s.locks.Lock(ownerKey)
	defer unlock()

	lines, err := s.cartRepo.ListLines(ctx, ownerKey)
	if err != nil {
		return nil, errors.DatabaseError("Failed to load cart").WithError(err)
	}

	total, err := SumLines(lines)
	if err != nil {
		return nil, err
	}

	return &models.CartView{Lines: lines, Total: total}, nil
}

// Total prices every entry against the catalog as it is now.
func (s *cartService) Total(ctx context.Context, ownerKey string) (decimal.Decimal, error) {

	unlock := s.locks.Lock(ownerKey)
	defer unlock()

	lines, err := s.cartRepo.ListLines(ctx, ownerKey)
	if err != nil {
		return decimal.Zero, errors.DatabaseError("Failed to load cart").WithError(err)
	}

	return SumLines(lines)
}

func (s *cartService) Clear(ctx context.Context, ownerKey string) error {

	unlock := s.locks.Lock(ownerKey)
	defer unlock()

	cleared, err := s.cartRepo.Clear(ctx, ownerKey)
	if err != nil {
		return errors.DatabaseError("Failed to clear cart").WithError(err)
	}

	metrics.RecordCartMutation("clear")
	middleware.LoggerFromContext(ctx).Info("Cart cleared", slog.Int64("entries", cleared))

	return nil
}

// PurgeAbandoned deletes anonymous carts untouched for idleFor. Signed-in
// users keep their carts.
func (s *cartService) PurgeAbandoned(ctx context.Context, idleFor time.Duration) (int64, error) {

	purged, err := s.cartRepo.PurgeIdle(ctx, models.OwnerSessionPrefix, time.Now().Add(-idleFor))
	if err != nil {
		return 0, errors.DatabaseError("Failed to purge abandoned carts").WithError(err)
	}

	metrics.RecordPurgedEntries(purged)

	return purged, nil
}

// SumLines adds up quantity × current price. A line whose product no longer
// resolves fails the whole sum instead of counting as free.
func SumLines(lines []models.CartLine) (decimal.Decimal, error) {

	total := decimal.Zero

	for _, line := range lines {
		if line.Product == nil {
			return decimal.Zero, errors.InconsistentStateError("Cart references a product that is no longer in the catalog").
				WithDetail("productId=" + strconv.FormatInt(line.Entry.ProductID, 10))
		}
		total = total.Add(line.LineTotal())
	}

	return total, nil
}
