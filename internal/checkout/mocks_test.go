package checkout

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/go_grocery/internal/cache"
	"github.com/fjod/go_grocery/internal/domain"
	"github.com/fjod/go_grocery/internal/repository"
	"github.com/redis/go-redis/v9"
)

type mockPricer struct {
	m       sync.RWMutex
	amounts domain.OrderAmounts
	err     error
	calls   int
}

func (p *mockPricer) ComputeAmounts(context.Context, []domain.CartLine, string) (domain.OrderAmounts, error) {
	p.m.Lock()
	defer p.m.Unlock()
	p.calls++
	return p.amounts, p.err
}

func (p *mockPricer) callCount() int {
	p.m.RLock()
	defer p.m.RUnlock()
	return p.calls
}

type mockIssuer struct {
	m      sync.RWMutex
	err    error
	issued []domain.OrderAmounts
}

func (i *mockIssuer) CreateIntent(_ context.Context, amounts domain.OrderAmounts) (domain.PaymentIntent, error) {
	i.m.Lock()
	defer i.m.Unlock()
	if i.err != nil {
		return domain.PaymentIntent{}, i.err
	}
	i.issued = append(i.issued, amounts)
	return domain.PaymentIntent{
		GatewayOrderID:   "order_test",
		AmountMinorUnits: amounts.TotalAmount.MinorUnits(),
		Currency:         domain.CurrencyINR,
	}, nil
}

// mockOrderRepository enforces the unique payment id like the real index.
type mockOrderRepository struct {
	m         sync.RWMutex
	orders    map[string]*domain.Order
	createErr error
	// delay widens the window between the duplicate check and the insert
	delay time.Duration
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: map[string]*domain.Order{}}
}

func (r *mockOrderRepository) CreateOrder(_ context.Context, order *domain.Order) error {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.m.Lock()
	defer r.m.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, o := range r.orders {
		if o.Payment.GatewayPaymentID == order.Payment.GatewayPaymentID {
			return repository.ErrDuplicatePayment
		}
	}
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *mockOrderRepository) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	r.m.RLock()
	defer r.m.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *mockOrderRepository) GetOrderByPaymentID(_ context.Context, paymentID string) (*domain.Order, error) {
	r.m.RLock()
	defer r.m.RUnlock()
	for _, o := range r.orders {
		if o.Payment.GatewayPaymentID == paymentID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (r *mockOrderRepository) ListPaidOrdersByUser(_ context.Context, userID string) ([]*domain.Order, error) {
	all, _ := r.ListPaidOrders(context.Background())
	var out []*domain.Order
	for _, o := range all {
		if o.UserRef == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *mockOrderRepository) ListPaidOrders(context.Context) ([]*domain.Order, error) {
	r.m.RLock()
	defer r.m.RUnlock()
	var out []*domain.Order
	for _, o := range r.orders {
		if o.IsPaid {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *mockOrderRepository) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	r.m.Lock()
	defer r.m.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	o.Status = status
	cp := *o
	return &cp, nil
}

func (r *mockOrderRepository) GetUnpublishedOrders(context.Context, int64) ([]*domain.Order, error) {
	return nil, errors.New("not used")
}

func (r *mockOrderRepository) MarkPublished(context.Context, string) error {
	return errors.New("not used")
}

func (r *mockOrderRepository) count() int {
	r.m.RLock()
	defer r.m.RUnlock()
	return len(r.orders)
}

func newIdempotencyStore(t *testing.T) (*cache.RedisIdempotencyStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return cache.NewRedisIdempotencyStore(client, time.Minute, time.Hour), mr
}
