// Package consumer reacts to order events published on Kafka.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/fjod/go_grocery/internal/domain"
	"github.com/fjod/go_grocery/pkg/logger"
	"github.com/segmentio/kafka-go"
)

type CartClearer interface {
	Clear(ctx context.Context, userID string) error
}

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// CartCleaner empties a user's cart once their order is placed.
type CartCleaner struct {
	carts   CartClearer
	reader  MessageReader
	backoff time.Duration
	log     *slog.Logger
}

func NewCartCleaner(carts CartClearer, topic, groupID string, brokers ...string) *CartCleaner {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return newCartCleaner(carts, reader)
}

func newCartCleaner(carts CartClearer, reader MessageReader) *CartCleaner {
	return &CartCleaner{
		carts:   carts,
		reader:  reader,
		backoff: time.Second,
		log:     logger.New("cart-cleaner"),
	}
}

func (c *CartCleaner) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := c.handleNext(ctx); err != nil && ctx.Err() == nil {
			c.log.ErrorContext(ctx, "cart cleaner", "error", err)
			select {
			case <-time.After(c.backoff):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (c *CartCleaner) Close() {
	if err := c.reader.Close(); err != nil {
		c.log.Error("error closing reader", "error", err)
	}
}

// handleNext processes one message. The offset is committed only after the
// cart is cleared, or when the message can never be processed.
func (c *CartCleaner) handleNext(ctx context.Context) error {
	m, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return err
	}

	var ev domain.OrderPlacedEvent
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		c.log.WarnContext(ctx, "skipping malformed event", "offset", m.Offset, "error", err)
		return c.reader.CommitMessages(ctx, m)
	}
	if ev.UserID == "" {
		c.log.WarnContext(ctx, "skipping event without user_id", "offset", m.Offset, "order_id", ev.OrderID)
		return c.reader.CommitMessages(ctx, m)
	}

	if err := c.carts.Clear(ctx, ev.UserID); err != nil {
		return fmt.Errorf("clear cart for order %s: %w", ev.OrderID, err)
	}
	c.log.InfoContext(ctx, "cart cleared", "user_id", ev.UserID, "order_id", ev.OrderID)
	return c.reader.CommitMessages(ctx, m)
}
