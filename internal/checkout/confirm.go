package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/fjod/go_grocery/internal/domain"
	"github.com/fjod/go_grocery/internal/repository"
	"github.com/google/uuid"
)

// Confirmation is what the client returns after paying on the gateway, plus
// the cart it originally priced.
type Confirmation struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
	Lines            []domain.CartLine
	AddressID        string
	UserRef          string
}

// VerifyAndRecord checks the gateway signature, re-prices the cart and
// stores the paid order. A payment id is recorded at most once; repeating
// the confirmation returns the stored order.
func (s *Service) VerifyAndRecord(ctx context.Context, c Confirmation) (*domain.Order, error) {
	if err := s.verifier.Verify(c.GatewayOrderID, c.GatewayPaymentID, c.Signature); err != nil {
		s.log.WarnContext(ctx, "payment signature mismatch",
			"gateway_order_id", c.GatewayOrderID,
			"gateway_payment_id", c.GatewayPaymentID,
			"user_id", c.UserRef)
		confirmationsTotal.WithLabelValues("signature_mismatch").Inc()
		return nil, domain.ErrSignatureMismatch
	}

	if existing, err := s.recorded(ctx, c); existing != nil || err != nil {
		return existing, err
	}

	locked, err := s.idem.TryLock(ctx, paymentScope, c.GatewayPaymentID)
	if err != nil {
		// the unique index on the payment id still prevents duplicates
		s.log.WarnContext(ctx, "idempotency lock unavailable", "error", err)
	} else if !locked {
		confirmationsTotal.WithLabelValues("in_progress").Inc()
		return nil, ErrConfirmationInProgress
	} else {
		defer func() {
			if err := s.idem.Unlock(context.WithoutCancel(ctx), paymentScope, c.GatewayPaymentID); err != nil {
				s.log.WarnContext(ctx, "idempotency unlock failed", "error", err)
			}
		}()
	}

	amounts, err := s.pricer.ComputeAmounts(ctx, c.Lines, c.AddressID)
	if err != nil {
		confirmationsTotal.WithLabelValues(resultLabel(err)).Inc()
		return nil, err
	}
	if err := s.matchesIntent(ctx, c, amounts); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	order := &domain.Order{
		ID:          uuid.NewString(),
		UserRef:     c.UserRef,
		Items:       c.Lines,
		Amounts:     amounts,
		AddressRef:  c.AddressID,
		Status:      domain.OrderStatusPlaced,
		PaymentType: domain.PaymentTypeOnline,
		IsPaid:      true,
		Payment: domain.PaymentDetails{
			GatewayOrderID:   c.GatewayOrderID,
			GatewayPaymentID: c.GatewayPaymentID,
			GatewaySignature: c.Signature,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, repository.ErrDuplicatePayment) {
			// lost a race that bypassed the lock
			existing, err := s.orders.GetOrderByPaymentID(ctx, c.GatewayPaymentID)
			if err != nil {
				return nil, fmt.Errorf("load recorded order: %w", err)
			}
			return s.ownedBy(existing, c.UserRef)
		}
		confirmationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.idem.Remember(ctx, paymentScope, c.GatewayPaymentID, order.ID); err != nil {
		s.log.WarnContext(ctx, "idempotency remember failed", "order_id", order.ID, "error", err)
	}

	s.log.InfoContext(ctx, "order recorded",
		"order_id", order.ID,
		"user_id", order.UserRef,
		"gateway_payment_id", c.GatewayPaymentID,
		"total", order.Amounts.TotalAmount)
	confirmationsTotal.WithLabelValues("ok").Inc()
	return order, nil
}

// matchesIntent rejects a confirmation whose re-priced total differs from
// the amount the gateway order was opened for. An intent that is no longer
// remembered is not checked.
func (s *Service) matchesIntent(ctx context.Context, c Confirmation, amounts domain.OrderAmounts) error {
	stored, ok, err := s.idem.Recall(ctx, intentScope, c.GatewayOrderID)
	if err != nil {
		s.log.WarnContext(ctx, "intent amount unavailable",
			"gateway_order_id", c.GatewayOrderID, "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	paid, err := strconv.ParseInt(stored, 10, 64)
	if err != nil {
		s.log.WarnContext(ctx, "intent amount unreadable",
			"gateway_order_id", c.GatewayOrderID, "value", stored)
		return nil
	}
	if got := amounts.TotalAmount.MinorUnits(); got != paid {
		s.log.WarnContext(ctx, "payment amount mismatch",
			"gateway_order_id", c.GatewayOrderID,
			"gateway_payment_id", c.GatewayPaymentID,
			"user_id", c.UserRef,
			"paid_minor_units", paid,
			"computed_minor_units", got)
		confirmationsTotal.WithLabelValues("amount_mismatch").Inc()
		return domain.NewValidationError("cart total changed since payment")
	}
	return nil
}

// recorded returns the order already stored for this payment, if any.
func (s *Service) recorded(ctx context.Context, c Confirmation) (*domain.Order, error) {
	if orderID, ok, err := s.idem.Recall(ctx, paymentScope, c.GatewayPaymentID); err == nil && ok {
		order, err := s.orders.GetOrderByID(ctx, orderID)
		if err == nil {
			return s.ownedBy(order, c.UserRef)
		}
		if !errors.Is(err, repository.ErrOrderNotFound) {
			return nil, fmt.Errorf("load recorded order: %w", err)
		}
	}

	order, err := s.orders.GetOrderByPaymentID(ctx, c.GatewayPaymentID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("check recorded payment: %w", err)
	}
	return s.ownedBy(order, c.UserRef)
}

func (s *Service) ownedBy(order *domain.Order, userRef string) (*domain.Order, error) {
	if order.UserRef != userRef {
		confirmationsTotal.WithLabelValues("foreign_duplicate").Inc()
		return nil, domain.NewValidationError("payment already recorded")
	}
	confirmationsTotal.WithLabelValues("duplicate").Inc()
	return order, nil
}
