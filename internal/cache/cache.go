package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_grocery/internal/domain"
)

type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.CartDocument, error)
	Set(ctx context.Context, userID string, cart *domain.CartDocument) error
	Delete(ctx context.Context, userID string) error
}

// IdempotencyStore coordinates concurrent attempts keyed by scope/key.
type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Unlock(ctx context.Context, scope, key string) error
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}

var ErrCacheMiss = errors.New("cache miss")
