package payment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fjod/go_grocery/internal/domain"
	"github.com/fjod/go_grocery/pkg/logger"
	"github.com/google/uuid"
)

type Gateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*GatewayOrder, error)
}

// Issuer turns computed order amounts into gateway payment intents.
type Issuer struct {
	gateway Gateway
	log     *slog.Logger
}

func NewIssuer(gateway Gateway) *Issuer {
	return &Issuer{gateway: gateway, log: logger.New("payment-issuer")}
}

// CreateIntent opens a new gateway order sized to amounts.TotalAmount. It
// never deduplicates: two calls create two gateway orders.
func (i *Issuer) CreateIntent(ctx context.Context, amounts domain.OrderAmounts) (domain.PaymentIntent, error) {
	if amounts.TotalAmount <= 0 {
		return domain.PaymentIntent{}, domain.NewValidationError("order total must be positive, got %d", amounts.TotalAmount)
	}
	if amounts.TotalAmount > domain.MaxRupees {
		return domain.PaymentIntent{}, domain.NewValidationError("order total is too large")
	}
	minor := amounts.TotalAmount.MinorUnits()

	order, err := i.gateway.CreateOrder(ctx, minor, domain.CurrencyINR, newReceipt())
	if err != nil {
		return domain.PaymentIntent{}, err
	}
	if order.Amount != minor || !strings.EqualFold(order.Currency, domain.CurrencyINR) {
		i.log.ErrorContext(ctx, "gateway echoed a different amount",
			"gateway_order_id", order.ID, "requested", minor, "echoed", order.Amount, "currency", order.Currency)
		return domain.PaymentIntent{}, &domain.GatewayError{
			Op:  "create order",
			Err: fmt.Errorf("amount mismatch: requested %d %s, gateway has %d %s", minor, domain.CurrencyINR, order.Amount, order.Currency),
		}
	}

	i.log.InfoContext(ctx, "payment intent created", "gateway_order_id", order.ID, "amount_minor", minor)
	return domain.PaymentIntent{
		GatewayOrderID:   order.ID,
		AmountMinorUnits: minor,
		Currency:         domain.CurrencyINR,
	}, nil
}

// newReceipt fits the gateway's 40 character receipt limit.
func newReceipt() string {
	return "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
