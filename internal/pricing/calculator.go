// Package pricing derives authoritative order amounts from a cart and a
// delivery address.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fjod/go_grocery/internal/domain"
	"github.com/fjod/go_grocery/internal/repository"
	"github.com/fjod/go_grocery/pkg/logger"
)

type ProductCatalog interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

type AddressBook interface {
	GetAddress(ctx context.Context, id string) (*domain.Address, error)
}

type DeliveryQuoter interface {
	Resolve(ctx context.Context, postalCode string) (domain.DeliveryQuote, error)
}

type Calculator struct {
	products  ProductCatalog
	addresses AddressBook
	delivery  DeliveryQuoter
	log       *slog.Logger
}

func NewCalculator(products ProductCatalog, addresses AddressBook, delivery DeliveryQuoter) *Calculator {
	return &Calculator{
		products:  products,
		addresses: addresses,
		delivery:  delivery,
		log:       logger.New("pricing"),
	}
}

// ComputeAmounts prices lines with catalog prices and adds the delivery cost
// for addressID. Nothing is cached between calls.
func (c *Calculator) ComputeAmounts(ctx context.Context, lines []domain.CartLine, addressID string) (domain.OrderAmounts, error) {
	if err := validateLines(lines); err != nil {
		return domain.OrderAmounts{}, err
	}

	var itemTotal domain.Rupees
	for _, line := range lines {
		product, err := c.products.GetProduct(ctx, line.ProductRef)
		if errors.Is(err, repository.ErrProductNotFound) {
			return domain.OrderAmounts{}, domain.NewValidationError("product %s not found", line.ProductRef)
		}
		if err != nil {
			return domain.OrderAmounts{}, fmt.Errorf("get product %s: %w", line.ProductRef, err)
		}
		if !product.InStock {
			return domain.OrderAmounts{}, domain.NewValidationError("product %s is out of stock", productLabel(product))
		}
		if product.OfferPrice < 0 {
			return domain.OrderAmounts{}, fmt.Errorf("product %s has negative price %d", product.ID, product.OfferPrice)
		}
		if product.OfferPrice > 0 && domain.Rupees(line.Quantity) > (domain.MaxRupees-itemTotal)/product.OfferPrice {
			return domain.OrderAmounts{}, domain.NewValidationError("order total is too large")
		}
		itemTotal += product.OfferPrice * domain.Rupees(line.Quantity)
	}

	address, err := c.addresses.GetAddress(ctx, addressID)
	if errors.Is(err, repository.ErrAddressNotFound) {
		return domain.OrderAmounts{}, domain.NewValidationError("address %s not found", addressID)
	}
	if err != nil {
		return domain.OrderAmounts{}, fmt.Errorf("get address %s: %w", addressID, err)
	}

	var deliveryCost domain.Rupees
	quote, err := c.delivery.Resolve(ctx, address.PostalCode)
	if err != nil {
		// A checkout is never blocked on delivery pricing.
		c.log.WarnContext(ctx, "delivery cost unavailable, charging none",
			"address_id", addressID, "postal_code", address.PostalCode, "error", err)
	} else {
		deliveryCost = quote.DeliveryCost
	}

	if deliveryCost > domain.MaxRupees-itemTotal {
		return domain.OrderAmounts{}, domain.NewValidationError("order total is too large")
	}
	return domain.NewOrderAmounts(itemTotal, deliveryCost), nil
}

func validateLines(lines []domain.CartLine) error {
	if len(lines) == 0 {
		return domain.NewValidationError("cart is empty")
	}
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		if line.ProductRef == "" {
			return domain.NewValidationError("cart line without product")
		}
		if line.Quantity <= 0 || line.Quantity > domain.MaxLineQuantity {
			return domain.NewValidationError("invalid quantity %d for product %s", line.Quantity, line.ProductRef)
		}
		if _, dup := seen[line.ProductRef]; dup {
			return domain.NewValidationError("duplicate cart line for product %s", line.ProductRef)
		}
		seen[line.ProductRef] = struct{}{}
	}
	return nil
}

func productLabel(p *domain.Product) string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}
