package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_grocery/internal/checkout"
	"github.com/fjod/go_grocery/internal/domain"
)

type CheckoutService interface {
	CreatePricedIntent(ctx context.Context, lines []domain.CartLine, addressID string) (checkout.PricedIntent, error)
	VerifyAndRecord(ctx context.Context, c checkout.Confirmation) (*domain.Order, error)
}

type CheckoutHandler struct {
	checkout CheckoutService
	timeout  time.Duration
}

func NewCheckoutHandler(svc CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: svc,
		timeout:  timeout,
	}
}

type CreateIntentRequestDTO struct {
	Items   []domain.CartLine `json:"items"`
	Address string            `json:"address"`
}

type IntentResponseDTO struct {
	GatewayOrderID   string              `json:"gatewayOrderId"`
	AmountMinorUnits int64               `json:"amountMinorUnits"`
	Currency         string              `json:"currency"`
	Amounts          domain.OrderAmounts `json:"amounts"`
}

type ConfirmPaymentRequestDTO struct {
	GatewayOrderID   string            `json:"razorpay_order_id"`
	GatewayPaymentID string            `json:"razorpay_payment_id"`
	Signature        string            `json:"razorpay_signature"`
	Items            []domain.CartLine `json:"items"`
	Address          string            `json:"address"`
}

type ConfirmPaymentResponseDTO struct {
	OrderID string              `json:"orderId"`
	Amounts domain.OrderAmounts `json:"amounts"`
}

// POST /api/v1/order/razorpay
func (h *CheckoutHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if getUserIDFromContext(r.Context()) == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req CreateIntentRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Address == "" {
		respondError(w, http.StatusBadRequest, "missing_address", "address is required")
		return
	}

	res, err := h.checkout.CreatePricedIntent(ctx, req.Items, req.Address)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, IntentResponseDTO{
		GatewayOrderID:   res.Intent.GatewayOrderID,
		AmountMinorUnits: res.Intent.AmountMinorUnits,
		Currency:         res.Intent.Currency,
		Amounts:          res.Amounts,
	})
}

// POST /api/v1/order/online
func (h *CheckoutHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req ConfirmPaymentRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.GatewayOrderID == "" || req.GatewayPaymentID == "" || req.Signature == "" {
		respondError(w, http.StatusBadRequest, "missing_payment_details", "razorpay_order_id, razorpay_payment_id and razorpay_signature are required")
		return
	}
	if req.Address == "" {
		respondError(w, http.StatusBadRequest, "missing_address", "address is required")
		return
	}

	order, err := h.checkout.VerifyAndRecord(ctx, checkout.Confirmation{
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
		Lines:            req.Items,
		AddressID:        req.Address,
		UserRef:          userID,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, ConfirmPaymentResponseDTO{
		OrderID: order.ID,
		Amounts: order.Amounts,
	})
}
