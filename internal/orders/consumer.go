package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kivahq/kiva-backend/pkg/enums"
	"github.com/kivahq/kiva-backend/pkg/logger"
	"github.com/kivahq/kiva-backend/pkg/outbox"
)

const (
	orderEventsConsumer  = "order-events"
	processedMarkerTTL   = 24 * time.Hour
	processedMarkerValue = "1"
)

type processedStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
}

// Consumer tails the order events subscription and records each lifecycle
// transition once, deduplicating redeliveries through Redis.
type Consumer struct {
	subscription *pubsub.Subscriber
	processed    processedStore
	logg         *logger.Logger
}

// NewConsumer builds an order events consumer.
func NewConsumer(subscription *pubsub.Subscriber, processed processedStore, logg *logger.Logger) (*Consumer, error) {
	if subscription == nil {
		return nil, fmt.Errorf("orders subscription required")
	}
	if processed == nil {
		return nil, fmt.Errorf("processed store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		subscription: subscription,
		processed:    processed,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

type orderEventPayload struct {
	ID     uuid.UUID       `json:"id"`
	Status string          `json:"status"`
	Total  decimal.Decimal `json:"total"`
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if !isOrderEvent(eventType) {
		c.logg.Info(logCtx, "skipping non-order event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}
	if envelope.EventID == "" {
		c.logg.Warn(logCtx, "envelope missing event id")
		return processResult{ack: true}
	}

	key := c.processed.IdempotencyKey(orderEventsConsumer, envelope.EventID)
	fresh, err := c.processed.SetNX(ctx, key, processedMarkerValue, processedMarkerTTL)
	if err != nil {
		c.logg.Error(logCtx, "dedup check failed", err)
		return processResult{nack: true}
	}
	if !fresh {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	var payload orderEventPayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse order payload", err)
		return processResult{ack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"event_id":    envelope.EventID,
		"order_id":    payload.ID.String(),
		"status":      payload.Status,
		"total":       payload.Total.String(),
		"occurred_at": envelope.OccurredAt.Format(time.RFC3339Nano),
	})
	c.logg.Info(logCtx, "order event received")
	return processResult{ack: true}
}

func isOrderEvent(eventType string) bool {
	switch enums.OutboxEventType(eventType) {
	case enums.OutboxEventOrderCreated, enums.OutboxEventOrderPaid, enums.OutboxEventOrderCanceled:
		return true
	}
	return false
}
