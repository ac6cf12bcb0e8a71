package sync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"

	"github.com/adrian08041/cardapio/pkg/event"
	"github.com/adrian08041/cardapio/pkg/enums/orderstatus"
)

// OrderEventSubscriber listens to order lifecycle events and folds them
// into the cache between polls. Events are hints only: a poll result
// always replaces whatever they wrote.
type OrderEventSubscriber struct {
	subscriber events.Subscriber
	cache      *OrderStateCache
	sync       *Synchronizer
	logger     apt.Logger
}

func NewOrderEventSubscriber(subscriber events.Subscriber, cache *OrderStateCache, sync *Synchronizer, logger apt.Logger) *OrderEventSubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &OrderEventSubscriber{
		subscriber: subscriber,
		cache:      cache,
		sync:       sync,
		logger:     logger,
	}
}

// Start begins listening to order lifecycle events.
func (s *OrderEventSubscriber) Start(ctx context.Context) error {
	if s.subscriber == nil {
		s.logger.Info("NATS subscriber not configured, relying on polling only")
		return nil
	}

	s.logger.Info("subscribing to order lifecycle topic", "topic", event.OrdersTopic)
	if err := s.subscriber.Subscribe(ctx, event.OrdersTopic, s.handleEvent); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", event.OrdersTopic, err)
	}

	return nil
}

// Stop is a no-op for lifecycle compatibility.
func (s *OrderEventSubscriber) Stop(ctx context.Context) error {
	return nil
}

func (s *OrderEventSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var baseEvent struct {
		EventType string `json:"event_type"`
	}

	if err := json.Unmarshal(msg, &baseEvent); err != nil {
		s.logger.Error("failed to unmarshal event type", "error", err)
		return nil
	}

	switch baseEvent.EventType {
	case event.EventOrderCreated:
		return s.handleOrderCreated(ctx, msg)
	case event.EventOrderStatusChanged:
		return s.handleStatusChanged(ctx, msg)
	default:
		s.logger.Debug("ignoring unknown event type", "event_type", baseEvent.EventType)
		return nil
	}
}

// handleOrderCreated pulls the full order from the server. The event
// payload is too thin to build a board card, so it only triggers an
// early fetch instead of waiting for the next poll.
func (s *OrderEventSubscriber) handleOrderCreated(ctx context.Context, msg []byte) error {
	var evt event.OrderCreatedEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		s.logger.Error("failed to unmarshal order.created event", "error", err)
		return nil
	}

	if s.sync == nil || evt.OrderID == "" {
		return nil
	}

	fresh, err := s.sync.api.Get(ctx, evt.OrderID)
	if err != nil {
		s.logger.Error("cannot fetch created order", "order_id", evt.OrderID, "error", err)
		return nil
	}
	if fresh != nil {
		s.cache.Set(fresh)
		s.logger.Debug("order created", "order_id", evt.OrderID)
	}
	return nil
}

func (s *OrderEventSubscriber) handleStatusChanged(ctx context.Context, msg []byte) error {
	var evt event.OrderStatusChangedEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		s.logger.Error("failed to unmarshal order.status_changed event", "error", err)
		return nil
	}

	if orderstatus.ByName(evt.NewStatus) == nil {
		s.logger.Debug("ignoring unknown status", "status", evt.NewStatus)
		return nil
	}

	o := s.cache.Get(evt.OrderID)
	if o == nil {
		// Order unseen so far, let the next poll pick it up whole.
		return nil
	}

	o.Status = evt.NewStatus
	o.UpdatedAt = evt.OccurredAt
	s.cache.Set(o)

	s.logger.Debug("order status changed", "order_id", evt.OrderID, "new_status", evt.NewStatus)
	return nil
}
