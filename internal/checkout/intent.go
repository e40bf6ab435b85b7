package checkout

import (
	"context"
	"strconv"

	"github.com/fjod/go_grocery/internal/domain"
)

// PricedIntent is what the client needs to open the gateway's payment page.
type PricedIntent struct {
	Intent  domain.PaymentIntent
	Amounts domain.OrderAmounts
}

// CreatePricedIntent prices the cart and opens a gateway order for the total.
func (s *Service) CreatePricedIntent(ctx context.Context, lines []domain.CartLine, addressID string) (PricedIntent, error) {
	amounts, err := s.pricer.ComputeAmounts(ctx, lines, addressID)
	if err != nil {
		intentsTotal.WithLabelValues(resultLabel(err)).Inc()
		return PricedIntent{}, err
	}

	intent, err := s.issuer.CreateIntent(ctx, amounts)
	if err != nil {
		intentsTotal.WithLabelValues(resultLabel(err)).Inc()
		return PricedIntent{}, err
	}

	if err := s.idem.Remember(ctx, intentScope, intent.GatewayOrderID,
		strconv.FormatInt(intent.AmountMinorUnits, 10)); err != nil {
		s.log.WarnContext(ctx, "intent amount not remembered",
			"gateway_order_id", intent.GatewayOrderID, "error", err)
	}

	intentsTotal.WithLabelValues("ok").Inc()
	return PricedIntent{Intent: intent, Amounts: amounts}, nil
}
