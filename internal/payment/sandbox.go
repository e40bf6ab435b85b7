package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// minOrderAmount is the gateway's smallest accepted order, in paise.
const minOrderAmount = 100

var ErrUnknownOrder = errors.New("unknown sandbox order")

// Decider picks the outcome of a sandbox gateway call.
type Decider interface {
	Decide() (ok bool, reason string)
}

// RandomDecider fails roughly FailurePercent of calls.
type RandomDecider struct {
	FailurePercent int
}

func (r RandomDecider) Decide() (bool, string) {
	return decide(rand.Intn(100), r.FailurePercent)
}

func decide(roll, failurePercent int) (bool, string) {
	if roll >= failurePercent {
		return true, ""
	}
	reasons := []string{"upstream bank timeout", "gateway maintenance", "rate limited"}
	return false, reasons[roll%len(reasons)]
}

type sandboxOrder struct {
	order GatewayOrder
	paid  bool
}

// Sandbox is an in-process stand-in for the gateway's order API used in
// development and tests. It checks basic auth and signs captured payments
// with the same secret a real gateway would use.
type Sandbox struct {
	keyID     string
	keySecret string
	decider   Decider

	mu     sync.RWMutex
	orders map[string]*sandboxOrder
}

func NewSandbox(keyID, keySecret string, decider Decider) *Sandbox {
	return &Sandbox{
		keyID:     keyID,
		keySecret: keySecret,
		decider:   decider,
		orders:    make(map[string]*sandboxOrder),
	}
}

// Routes mounts the sandbox API: POST /v1/orders and
// POST /v1/orders/{id}/pay.
func (s *Sandbox) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post(ordersPath, s.createOrder)
	r.Post(ordersPath+"/{id}/pay", s.pay)
	return r
}

func (s *Sandbox) createOrder(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeGatewayError(w, http.StatusUnauthorized, "BAD_REQUEST_ERROR", "Authentication failed")
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGatewayError(w, http.StatusBadRequest, "BAD_REQUEST_ERROR", "invalid request body")
		return
	}
	if req.Amount < minOrderAmount {
		writeGatewayError(w, http.StatusBadRequest, "BAD_REQUEST_ERROR", "Order amount less than minimum amount allowed")
		return
	}
	if !strings.EqualFold(req.Currency, "INR") {
		writeGatewayError(w, http.StatusBadRequest, "BAD_REQUEST_ERROR", "Currency is not supported")
		return
	}
	if ok, reason := s.decider.Decide(); !ok {
		writeGatewayError(w, http.StatusServiceUnavailable, "SERVER_ERROR", reason)
		return
	}

	order := GatewayOrder{
		ID:       "order_" + shortID(),
		Entity:   "order",
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
	}
	s.mu.Lock()
	s.orders[order.ID] = &sandboxOrder{order: order}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(order)
}

type paymentResult struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

func (s *Sandbox) pay(w http.ResponseWriter, r *http.Request) {
	res, err := s.Capture(chi.URLParam(r, "id"))
	if errors.Is(err, ErrUnknownOrder) {
		writeGatewayError(w, http.StatusNotFound, "BAD_REQUEST_ERROR", "The id provided does not exist")
		return
	}
	if err != nil {
		writeGatewayError(w, http.StatusBadRequest, "BAD_REQUEST_ERROR", err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}

// Capture marks orderID as paid and returns what the checkout page would
// receive from the gateway: a payment id and its signature.
func (s *Sandbox) Capture(orderID string) (paymentResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return paymentResult{}, ErrUnknownOrder
	}
	if o.paid {
		return paymentResult{}, fmt.Errorf("order %s already paid", orderID)
	}
	o.paid = true
	o.order.Status = "paid"

	paymentID := "pay_" + shortID()
	return paymentResult{
		OrderID:   orderID,
		PaymentID: paymentID,
		Signature: Sign(s.keySecret, orderID, paymentID),
	}, nil
}

func (s *Sandbox) authorized(r *http.Request) bool {
	id, secret, ok := r.BasicAuth()
	return ok && id == s.keyID && secret == s.keySecret
}

func writeGatewayError(w http.ResponseWriter, status int, code, description string) {
	var body errorResponse
	body.Error.Code = code
	body.Error.Description = description
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
}
