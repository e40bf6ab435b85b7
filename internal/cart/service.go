// Package cart keeps each user's product-to-quantity cart.
package cart

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fjod/go_grocery/internal/cache"
	"github.com/fjod/go_grocery/internal/domain"
	"github.com/fjod/go_grocery/internal/repository"
	"github.com/fjod/go_grocery/pkg/logger"
	"golang.org/x/sync/singleflight"
)

type ProductCatalog interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

type Service struct {
	repo     repository.CartRepository
	cache    cache.CartCache
	products ProductCatalog
	sfg      singleflight.Group // Prevents cache stampede
	log      *slog.Logger
	now      func() time.Time
}

func NewService(repo repository.CartRepository, cache cache.CartCache, products ProductCatalog) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		products: products,
		log:      logger.New("cart"),
		now:      time.Now,
	}
}

// GetCart returns the user's cart; a user without one gets an empty cart.
func (s *Service) GetCart(ctx context.Context, userID string) (*domain.CartDocument, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil // cart is in cache
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.WarnContext(ctx, "cache get error", "error", err) // log cache error but continue
		}

		cart, err = s.repo.GetCart(ctx, userID)
		if errors.Is(err, repository.ErrCartNotFound) {
			now := s.now().UTC()
			return &domain.CartDocument{UserID: userID, CreatedAt: now, UpdatedAt: now}, nil
		}
		if err != nil {
			return nil, err
		}

		go func() {
			if err := s.cache.Set(context.Background(), userID, cart); err != nil {
				s.log.Warn("cache set error", "error", err)
			}
		}()
		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.CartDocument), nil
}

// Add puts one more unit of productID in the cart.
func (s *Service) Add(ctx context.Context, userID, productID string) (*domain.CartDocument, error) {
	if err := s.checkProduct(ctx, productID); err != nil {
		return nil, err
	}
	return s.update(ctx, userID, func(c domain.Cart) error {
		if c[productID] >= domain.MaxLineQuantity {
			return domain.NewValidationError("at most %d of product %s per order", domain.MaxLineQuantity, productID)
		}
		c.Add(productID)
		return nil
	})
}

// Remove takes one unit of productID out of the cart, dropping the product
// when its quantity reaches zero.
func (s *Service) Remove(ctx context.Context, userID, productID string) (*domain.CartDocument, error) {
	return s.update(ctx, userID, func(c domain.Cart) error {
		c.Remove(productID)
		return nil
	})
}

// SetQuantity replaces the quantity of productID; zero removes it.
func (s *Service) SetQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.CartDocument, error) {
	if quantity < 0 || quantity > domain.MaxLineQuantity {
		return nil, domain.NewValidationError("invalid quantity %d", quantity)
	}
	if quantity > 0 {
		if err := s.checkProduct(ctx, productID); err != nil {
			return nil, err
		}
	}
	return s.update(ctx, userID, func(c domain.Cart) error {
		c.Set(productID, quantity)
		return nil
	})
}

// Clear deletes the user's cart. Clearing a missing cart is not an error.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := s.repo.DeleteCart(ctx, userID); err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		s.log.ErrorContext(ctx, "repo delete cart error", "user_id", userID, "error", err)
		return err
	}
	s.invalidateCache(userID)
	return nil
}

// maxUpdateAttempts bounds retries of a cart write that lost a version race.
const maxUpdateAttempts = 3

// update applies a change to the stored cart. Concurrent writers are
// serialized by the cart version; a lost race re-reads and re-applies.
func (s *Service) update(ctx context.Context, userID string, apply func(domain.Cart) error) (*domain.CartDocument, error) {
	var err error
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		var doc *domain.CartDocument
		doc, err = s.tryUpdate(ctx, userID, apply)
		if err == nil {
			s.invalidateCache(userID)
			return doc, nil
		}
		if domain.IsValidation(err) {
			return nil, err
		}
		if !errors.Is(err, repository.ErrCartConflict) {
			s.log.ErrorContext(ctx, "repo upsert cart error", "user_id", userID, "error", err)
			return nil, err
		}
		s.log.DebugContext(ctx, "cart version conflict, retrying", "user_id", userID, "attempt", attempt)
	}
	s.log.WarnContext(ctx, "cart update gave up after conflicts", "user_id", userID)
	return nil, err
}

func (s *Service) tryUpdate(ctx context.Context, userID string, apply func(domain.Cart) error) (*domain.CartDocument, error) {
	doc, err := s.repo.GetCart(ctx, userID)
	if errors.Is(err, repository.ErrCartNotFound) {
		doc = &domain.CartDocument{UserID: userID}
	} else if err != nil {
		return nil, err
	}

	c := doc.Cart()
	if err := apply(c); err != nil {
		return nil, err
	}
	doc.Items = mergeItems(doc.Items, c, s.now().UTC())

	if err := s.repo.UpsertCart(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Service) checkProduct(ctx context.Context, productID string) error {
	if productID == "" {
		return domain.NewValidationError("product id required")
	}
	p, err := s.products.GetProduct(ctx, productID)
	if errors.Is(err, repository.ErrProductNotFound) {
		return domain.NewValidationError("product %s not found", productID)
	}
	if err != nil {
		return err
	}
	if !p.InStock {
		return domain.NewValidationError("product %s is out of stock", productID)
	}
	return nil
}

// mergeItems lays c out as items in id order, keeping AddedAt of products
// that were already in the cart.
func mergeItems(prev []domain.CartItem, c domain.Cart, now time.Time) []domain.CartItem {
	added := make(map[string]time.Time, len(prev))
	for _, item := range prev {
		added[item.ProductID] = item.AddedAt
	}
	lines := c.Lines()
	items := make([]domain.CartItem, 0, len(lines))
	for _, l := range lines {
		at, ok := added[l.ProductRef]
		if !ok {
			at = now
		}
		items = append(items, domain.CartItem{ProductID: l.ProductRef, Quantity: l.Quantity, AddedAt: at})
	}
	return items
}

func (s *Service) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.log.Warn("cache invalidate error", "user_id", userID, "error", err)
	}
}
