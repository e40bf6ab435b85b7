package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/fjod/go_grocery/internal/domain"
	"github.com/fjod/go_grocery/pkg/logger"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// TierStore is the backing lookup the cache sits in front of.
type TierStore interface {
	FindTier(ctx context.Context, postalCode int) (*domain.DeliveryTier, error)
}

// TierCache is a read-through Redis cache over the delivery tier table.
// Misses are not cached, so newly imported postal codes show up at once.
type TierCache struct {
	client *redis.Client
	store  TierStore
	ttl    time.Duration
	sfg    singleflight.Group // Prevents cache stampede
	log    *slog.Logger
}

func NewTierCache(client *redis.Client, store TierStore, ttl time.Duration) *TierCache {
	return &TierCache{
		client: client,
		store:  store,
		ttl:    ttl,
		log:    logger.New("tier-cache"),
	}
}

func (c *TierCache) FindTier(ctx context.Context, postalCode int) (*domain.DeliveryTier, error) {
	key := tierKey(postalCode)

	v, err, _ := c.sfg.Do(key, func() (interface{}, error) {
		tier, err := c.get(ctx, key)
		if err == nil {
			return tier, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			c.log.WarnContext(ctx, "tier cache get error", "error", err) // log cache error but continue
		}

		tier, err = c.store.FindTier(ctx, postalCode)
		if err != nil {
			return nil, err
		}

		if err := c.set(ctx, key, tier); err != nil {
			c.log.WarnContext(ctx, "tier cache set error", "error", err)
		}
		return tier, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.DeliveryTier), nil
}

func (c *TierCache) get(ctx context.Context, key string) (*domain.DeliveryTier, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	var tier domain.DeliveryTier
	if err := json.Unmarshal(data, &tier); err != nil {
		return nil, fmt.Errorf("unmarshal tier failed: %w", err)
	}
	return &tier, nil
}

func (c *TierCache) set(ctx context.Context, key string, tier *domain.DeliveryTier) error {
	data, err := json.Marshal(tier)
	if err != nil {
		return fmt.Errorf("marshal tier failed: %w", err)
	}
	return c.client.Set(ctx, key, data, jitter(c.ttl)).Err()
}

func tierKey(postalCode int) string {
	return "tier:" + strconv.Itoa(postalCode)
}

var _ TierStore = (*TierCache)(nil)
