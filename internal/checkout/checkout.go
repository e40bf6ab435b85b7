// Package checkout runs the two server-side steps of a checkout: pricing a
// cart into a gateway payment intent, and recording a confirmed payment as
// an order.
package checkout

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fjod/go_grocery/internal/cache"
	"github.com/fjod/go_grocery/internal/domain"
	"github.com/fjod/go_grocery/internal/repository"
	"github.com/fjod/go_grocery/pkg/logger"
)

const (
	paymentScope = "payment"
	intentScope  = "intent"
)

// ErrConfirmationInProgress means another request is recording the same
// payment right now.
var ErrConfirmationInProgress = errors.New("confirmation for this payment is already in progress")

type Pricer interface {
	ComputeAmounts(ctx context.Context, lines []domain.CartLine, addressID string) (domain.OrderAmounts, error)
}

type IntentIssuer interface {
	CreateIntent(ctx context.Context, amounts domain.OrderAmounts) (domain.PaymentIntent, error)
}

type SignatureVerifier interface {
	Verify(orderID, paymentID, signature string) error
}

type Service struct {
	pricer   Pricer
	issuer   IntentIssuer
	verifier SignatureVerifier
	orders   repository.OrderRepository
	idem     cache.IdempotencyStore
	log      *slog.Logger
	now      func() time.Time
}

func NewService(
	pricer Pricer,
	issuer IntentIssuer,
	verifier SignatureVerifier,
	orders repository.OrderRepository,
	idem cache.IdempotencyStore,
) *Service {
	return &Service{
		pricer:   pricer,
		issuer:   issuer,
		verifier: verifier,
		orders:   orders,
		idem:     idem,
		log:      logger.New("checkout"),
		now:      time.Now,
	}
}
