package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_grocery/internal/domain"
)

type OrderStore interface {
	ListPaidOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error)
	ListPaidOrders(ctx context.Context) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderStore
	timeout time.Duration
}

func NewOrdersHandler(orders OrderStore, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

type UpdateStatusRequestDTO struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

type DeleteOrderRequestDTO struct {
	OrderID string `json:"orderId"`
}

// GET /api/v1/order/user
func (h *OrdersHandler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orders, err := h.orders.ListPaidOrdersByUser(ctx, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(orders))
}

// GET /api/v1/order/seller
func (h *OrdersHandler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.ListPaidOrders(ctx)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(orders))
}

// POST /api/v1/order/status
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	status := domain.OrderStatus(req.Status)
	if !status.IsValid() {
		respondError(w, http.StatusBadRequest, "invalid_status", "unknown order status")
		return
	}
	h.setStatus(w, r, req.OrderID, status)
}

// POST /api/v1/order/delete moves the order to Trash; orders are never
// removed.
func (h *OrdersHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	var req DeleteOrderRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	h.setStatus(w, r, req.OrderID, domain.OrderStatusTrash)
}

func (h *OrdersHandler) setStatus(w http.ResponseWriter, r *http.Request, orderID string, status domain.OrderStatus) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if orderID == "" {
		respondError(w, http.StatusBadRequest, "missing_order_id", "orderId is required")
		return
	}

	order, err := h.orders.UpdateStatus(ctx, orderID, status)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil(orders []*domain.Order) []*domain.Order {
	if orders == nil {
		return []*domain.Order{}
	}
	return orders
}
