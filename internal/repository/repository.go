package repository

import (
	"context"
	"errors"

	"github.com/fjod/go_grocery/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrAddressNotFound  = errors.New("address not found")
	ErrTierNotFound     = errors.New("delivery tier not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrDuplicatePayment = errors.New("order for this payment already exists")
	ErrCartNotFound     = errors.New("cart not found")
	ErrCartConflict     = errors.New("cart was modified concurrently")
)

// ProductRepository is read-only; the catalog is owned elsewhere.
type ProductRepository interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

type AddressRepository interface {
	GetAddress(ctx context.Context, id string) (*domain.Address, error)
}

type PincodeRepository interface {
	FindTier(ctx context.Context, postalCode int) (*domain.DeliveryTier, error)
	InsertTier(ctx context.Context, tier domain.DeliveryTier) error
}

// OrderRepository is insert-only for amounts; only status and the outbox
// flag change after creation.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	GetOrderByPaymentID(ctx context.Context, paymentID string) (*domain.Order, error)
	ListPaidOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error)
	ListPaidOrders(ctx context.Context) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	GetUnpublishedOrders(ctx context.Context, limit int64) ([]*domain.Order, error)
	MarkPublished(ctx context.Context, id string) error
}

type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.CartDocument, error)
	UpsertCart(ctx context.Context, cart *domain.CartDocument) error
	DeleteCart(ctx context.Context, userID string) error
}

// idFilter matches documents whose _id is either the raw string or, for
// 24-hex ids written by other services, the equivalent ObjectID.
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{oid, id}}}
	}
	return bson.M{"_id": id}
}
