// Package delivery prices delivery from a postal-code distance table.
package delivery

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"regexp"
	"strconv"

	"github.com/fjod/go_grocery/internal/domain"
	"github.com/fjod/go_grocery/internal/repository"
	"github.com/fjod/go_grocery/pkg/logger"
)

const (
	baseCost       domain.Rupees = 50
	perKmCost      domain.Rupees = 15
	defaultCost    domain.Rupees = 100
	baseDistanceKm               = 1.0

	unavailableLabel = "Service not available"
)

var postalCodePattern = regexp.MustCompile(`^\d{6}$`)

// TierStore looks up a tier by exact postal code. It returns
// repository.ErrTierNotFound when the code is not in the table.
type TierStore interface {
	FindTier(ctx context.Context, postalCode int) (*domain.DeliveryTier, error)
}

type Resolver struct {
	store TierStore
	log   *slog.Logger
}

func NewResolver(store TierStore) *Resolver {
	return &Resolver{store: store, log: logger.New("delivery")}
}

// ValidPostalCode reports whether s is a 6-digit numeric postal code.
func ValidPostalCode(s string) bool {
	return postalCodePattern.MatchString(s)
}

// CostForDistance is 50 up to the first kilometre plus 15 for every started
// kilometre beyond it.
func CostForDistance(km float64) domain.Rupees {
	if km <= baseDistanceKm {
		return baseCost
	}
	return baseCost + domain.Rupees(math.Ceil(km-baseDistanceKm))*perKmCost
}

// DefaultQuote is used for unknown postal codes and failed lookups.
func DefaultQuote() domain.DeliveryQuote {
	return domain.DeliveryQuote{
		DeliveryCost: defaultCost,
		OriginLabel:  unavailableLabel,
		IsDefault:    true,
	}
}

// Resolve prices delivery to postalCode. Unknown or malformed codes and
// store failures degrade to DefaultQuote; the only error is a context that
// is already done.
func (r *Resolver) Resolve(ctx context.Context, postalCode string) (domain.DeliveryQuote, error) {
	if err := ctx.Err(); err != nil {
		return domain.DeliveryQuote{}, err
	}
	if !ValidPostalCode(postalCode) {
		r.log.DebugContext(ctx, "malformed postal code", "postal_code", postalCode)
		return DefaultQuote(), nil
	}
	code, err := strconv.Atoi(postalCode)
	if err != nil {
		return DefaultQuote(), nil
	}

	tier, err := r.store.FindTier(ctx, code)
	if err != nil {
		if !errors.Is(err, repository.ErrTierNotFound) {
			r.log.WarnContext(ctx, "delivery tier lookup failed, using default cost",
				"postal_code", postalCode, "error", err)
		}
		return DefaultQuote(), nil
	}
	if tier.DistanceKm < 0 || math.IsNaN(tier.DistanceKm) || math.IsInf(tier.DistanceKm, 0) {
		r.log.WarnContext(ctx, "invalid tier distance", "postal_code", postalCode, "distance", tier.DistanceKm)
		return DefaultQuote(), nil
	}

	return domain.DeliveryQuote{
		DeliveryCost: CostForDistance(tier.DistanceKm),
		DistanceKm:   tier.DistanceKm,
		OriginLabel:  tier.OriginLabel,
		IsDefault:    false,
	}, nil
}
