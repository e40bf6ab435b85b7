package http

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/fjod/go_grocery/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedOrders(d *testDeps) {
	for _, o := range []*domain.Order{
		{ID: "o1", UserRef: "u1", IsPaid: true, Status: domain.OrderStatusPlaced},
		{ID: "o2", UserRef: "u2", IsPaid: true, Status: domain.OrderStatusPlaced},
		{ID: "o3", UserRef: "u1", IsPaid: false, Status: domain.OrderStatusPlaced},
	} {
		d.orders.orders[o.ID] = o
	}
}

func TestListUserOrders(t *testing.T) {
	router, d := newTestRouter(t)
	seedOrders(d)

	rec := do(t, router, http.MethodGet, "/api/v1/order/user", token(t, "u1", RoleUser), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var orders []domain.Order
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&orders))
	require.Len(t, orders, 1)
	assert.Equal(t, "o1", orders[0].ID)
}

func TestListUserOrders_EmptyIsArray(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/v1/order/user", token(t, "nobody", RoleUser), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestListAllOrders_Seller(t *testing.T) {
	router, d := newTestRouter(t)
	seedOrders(d)

	rec := do(t, router, http.MethodGet, "/api/v1/order/seller", token(t, "s1", RoleSeller), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var orders []domain.Order
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&orders))
	assert.Len(t, orders, 2)
}

func TestUpdateStatus(t *testing.T) {
	router, d := newTestRouter(t)
	seedOrders(d)

	rec := do(t, router, http.MethodPost, "/api/v1/order/status", token(t, "s1", RoleSeller),
		UpdateStatusRequestDTO{OrderID: "o1", Status: string(domain.OrderStatusDispatched)})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.OrderStatusDispatched, d.orders.orders["o1"].Status)
}

func TestUpdateStatus_Invalid(t *testing.T) {
	router, d := newTestRouter(t)
	seedOrders(d)

	rec := do(t, router, http.MethodPost, "/api/v1/order/status", token(t, "s1", RoleSeller),
		UpdateStatusRequestDTO{OrderID: "o1", Status: "Teleported"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_status", decodeError(t, rec).Code)
	assert.Equal(t, domain.OrderStatusPlaced, d.orders.orders["o1"].Status)
}

func TestUpdateStatus_UnknownOrder(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/v1/order/status", token(t, "s1", RoleSeller),
		UpdateStatusRequestDTO{OrderID: "missing", Status: string(domain.OrderStatusPacked)})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Code)
}

func TestDeleteOrder_MovesToTrash(t *testing.T) {
	router, d := newTestRouter(t)
	seedOrders(d)

	rec := do(t, router, http.MethodPost, "/api/v1/order/delete", token(t, "s1", RoleSeller), DeleteOrderRequestDTO{OrderID: "o2"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.OrderStatusTrash, d.orders.orders["o2"].Status)
}

func TestDeleteOrder_MissingID(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/v1/order/delete", token(t, "s1", RoleSeller), DeleteOrderRequestDTO{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing_order_id", decodeError(t, rec).Code)
}
