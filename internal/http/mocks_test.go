package http

import (
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_grocery/internal/checkout"
	"github.com/fjod/go_grocery/internal/domain"
	"github.com/fjod/go_grocery/internal/importer"
	"github.com/fjod/go_grocery/internal/repository"
	"github.com/golang-jwt/jwt/v5"
)

const (
	testSecret   = "test-secret"
	testIssuer   = "grocery-auth"
	testAudience = "grocery-api"
)

type mockCartService struct {
	mu    sync.RWMutex
	carts map[string]domain.Cart
	err   error
}

func newMockCartService() *mockCartService {
	return &mockCartService{carts: make(map[string]domain.Cart)}
}

func (m *mockCartService) doc(userID string) *domain.CartDocument {
	doc := &domain.CartDocument{UserID: userID, Items: []domain.CartItem{}}
	for _, l := range m.carts[userID].Lines() {
		doc.Items = append(doc.Items, domain.CartItem{ProductID: l.ProductRef, Quantity: l.Quantity})
	}
	return doc
}

func (m *mockCartService) apply(userID string, fn func(domain.Cart)) (*domain.CartDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[userID]
	if !ok {
		c = domain.Cart{}
		m.carts[userID] = c
	}
	fn(c)
	return m.doc(userID), nil
}

func (m *mockCartService) GetCart(_ context.Context, userID string) (*domain.CartDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.doc(userID), nil
}

func (m *mockCartService) Add(_ context.Context, userID, productID string) (*domain.CartDocument, error) {
	return m.apply(userID, func(c domain.Cart) { c.Add(productID) })
}

func (m *mockCartService) Remove(_ context.Context, userID, productID string) (*domain.CartDocument, error) {
	return m.apply(userID, func(c domain.Cart) { c.Remove(productID) })
}

func (m *mockCartService) SetQuantity(_ context.Context, userID, productID string, quantity int) (*domain.CartDocument, error) {
	return m.apply(userID, func(c domain.Cart) { c.Set(productID, quantity) })
}

func (m *mockCartService) Clear(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.carts, userID)
	return nil
}

type mockCheckout struct {
	mu        sync.RWMutex
	intent    checkout.PricedIntent
	order     *domain.Order
	err       error
	confirmed []checkout.Confirmation
}

func (m *mockCheckout) CreatePricedIntent(context.Context, []domain.CartLine, string) (checkout.PricedIntent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.intent, m.err
}

func (m *mockCheckout) VerifyAndRecord(_ context.Context, c checkout.Confirmation) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmed = append(m.confirmed, c)
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

type mockOrderStore struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	err    error
}

func newMockOrderStore(orders ...*domain.Order) *mockOrderStore {
	m := &mockOrderStore{orders: make(map[string]*domain.Order)}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *mockOrderStore) ListPaidOrdersByUser(_ context.Context, userID string) ([]*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Order
	for _, o := range m.orders {
		if o.UserRef == userID && o.IsPaid {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrderStore) ListPaidOrders(context.Context) ([]*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Order
	for _, o := range m.orders {
		if o.IsPaid {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrderStore) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	o.Status = status
	return o, nil
}

type mockQuoter struct {
	quote domain.DeliveryQuote
	err   error
}

func (m mockQuoter) Resolve(context.Context, string) (domain.DeliveryQuote, error) {
	return m.quote, m.err
}

type mockImporter struct {
	res  importer.Result
	err  error
	body []byte
}

func (m *mockImporter) Import(_ context.Context, r io.Reader) (importer.Result, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return importer.Result{}, err
	}
	m.body = b
	return m.res, m.err
}

// token mints a signed bearer token the way the auth service does.
func token(t *testing.T, userID string, role Role) string {
	t.Helper()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + signed
}

func withUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
}
