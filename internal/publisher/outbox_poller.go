// Package publisher drains the order outbox into Kafka.
package publisher

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

const (
	EventTypeOrderPlaced = "order.placed"
	batchSize            = 100
)

// OutboxStore is the part of the order repository the poller needs.
type OutboxStore interface {
	GetUnpublishedOrders(ctx context.Context, limit int64) ([]*domain.Order, error)
	MarkPublished(ctx context.Context, id string) error
}

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OutboxPoller publishes an order-placed event for every stored order and
// then flags the order as published. Delivery is at least once.
type OutboxPoller struct {
	timeout   time.Duration
	eventTick time.Duration
	repo      OutboxStore
	writer    MessageWriter
	log       *slog.Logger
}

func NewOutboxPoller(repo OutboxStore, topic string, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return newOutboxPoller(repo, w)
}

func newOutboxPoller(repo OutboxStore, w MessageWriter) *OutboxPoller {
	return &OutboxPoller{
		timeout:   5 * time.Second,
		eventTick: time.Second,
		repo:      repo,
		writer:    w,
		log:       logger.New("outbox-poller"),
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	defer eventTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedOrders(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) Close() error {
	return p.writer.Close()
}

func (p *OutboxPoller) processUnpublishedOrders(ctx context.Context) int {
	orders, err := p.repo.GetUnpublishedOrders(ctx, batchSize)
	if err != nil {
		p.log.ErrorContext(ctx, "failed to fetch unpublished orders", "error", err)
		return 0
	}

	published := 0
	for _, order := range orders {
		if err := p.publish(ctx, order); err != nil {
			p.log.ErrorContext(ctx, "failed to publish order event", "order_id", order.ID, "error", err)
			continue
		}
		if err := p.repo.MarkPublished(ctx, order.ID); err != nil {
			// republished on the next tick; consumers tolerate duplicates
			p.log.ErrorContext(ctx, "failed to mark order as published", "order_id", order.ID, "error", err)
			continue
		}
		published++
	}
	return published
}

func (p *OutboxPoller) publish(ctx context.Context, order *domain.Order) error {
	payload, err := json.Marshal(order.PlacedEvent())
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(order.UserRef), // one partition per user keeps cart events ordered
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventTypeOrderPlaced)},
			{Key: "order_id", Value: []byte(order.ID)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
