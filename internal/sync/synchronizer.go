package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"

	"github.com/adrian08041/cardapio/internal/order"
	"github.com/adrian08041/cardapio/pkg/event"
)

// DefaultPollInterval is the gap between reconciliation polls.
const DefaultPollInterval = 10 * time.Second

// API is the slice of the Order API the synchronizer needs.
type API interface {
	List(ctx context.Context) ([]*order.Order, error)
	Get(ctx context.Context, id string) (*order.Order, error)
	Advance(ctx context.Context, id, action string) (*order.Order, error)
	Cancel(ctx context.Context, id, reason string) (*order.Order, error)
}

// Synchronizer reconciles the local order cache against the Order API.
// Poll results replace the cache wholesale, so the server stays the
// source of truth. Status mutations are applied optimistically and
// reverted by a forced refetch when the server rejects them.
type Synchronizer struct {
	api      API
	cache    *OrderStateCache
	interval time.Duration
	logger   apt.Logger

	publisher events.Publisher
	source    string

	cancel context.CancelFunc
	done   chan struct{}
}

func NewSynchronizer(api API, cache *OrderStateCache, interval time.Duration, logger apt.Logger) *Synchronizer {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Synchronizer{
		api:      api,
		cache:    cache,
		interval: interval,
		logger:   logger,
	}
}

// AttachPublisher makes successful mutations emit lifecycle events so
// other surfaces refresh before their next poll. The source tag names
// the surface that performed the mutation.
func (s *Synchronizer) AttachPublisher(publisher events.Publisher, source string) {
	s.publisher = publisher
	s.source = source
}

// Start performs an initial fetch and launches the poll loop. A failed
// initial fetch is logged, not fatal: the next tick retries.
func (s *Synchronizer) Start(ctx context.Context) error {
	loopCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	if err := s.Refresh(ctx); err != nil {
		s.logger.Error("initial order fetch failed", "error", err)
	}

	go s.loop(loopCtx)
	return nil
}

// Stop halts the poll loop and waits for it to finish.
func (s *Synchronizer) Stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Synchronizer) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.logger.Error("order poll failed", "error", err)
			}
		}
	}
}

// Refresh fetches the current order set and replaces the cache with it.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	orders, err := s.api.List(ctx)
	if err != nil {
		return fmt.Errorf("cannot refresh orders: %w", err)
	}

	s.cache.Replace(orders)
	s.logger.Debug("order cache refreshed", "count", len(orders))
	return nil
}

// Advance moves an order one step along its lifecycle. The transition
// is applied to the cache immediately so boards react without waiting
// a poll cycle; a server rejection forces a refetch of the order to
// restore truth.
func (s *Synchronizer) Advance(ctx context.Context, id string) (*order.Order, error) {
	o := s.cache.Get(id)
	if o == nil {
		return nil, fmt.Errorf("order %s not in cache", id)
	}

	previous := o.Status
	action, err := o.Advance()
	if err != nil {
		return nil, fmt.Errorf("cannot advance order %s: %w", id, err)
	}

	s.cache.Set(o)

	updated, err := s.api.Advance(ctx, id, action)
	if err != nil {
		s.revert(ctx, id)
		return nil, fmt.Errorf("server rejected %s on order %s: %w", action, id, err)
	}

	s.cache.Set(updated)
	s.publishStatusChanged(ctx, updated, previous, "")
	return updated, nil
}

// Cancel aborts an order with the given reason, optimistically like
// Advance.
func (s *Synchronizer) Cancel(ctx context.Context, id, reason string) (*order.Order, error) {
	o := s.cache.Get(id)
	if o == nil {
		return nil, fmt.Errorf("order %s not in cache", id)
	}

	previous := o.Status
	if err := o.Cancel(); err != nil {
		return nil, fmt.Errorf("cannot cancel order %s: %w", id, err)
	}

	s.cache.Set(o)

	updated, err := s.api.Cancel(ctx, id, reason)
	if err != nil {
		s.revert(ctx, id)
		return nil, fmt.Errorf("server rejected cancel on order %s: %w", id, err)
	}

	s.cache.Set(updated)
	s.publishStatusChanged(ctx, updated, previous, reason)
	return updated, nil
}

// publishStatusChanged emits the lifecycle event best-effort. Other
// surfaces converge by polling either way, so a publish failure is only
// logged.
func (s *Synchronizer) publishStatusChanged(ctx context.Context, o *order.Order, previous, reason string) {
	if s.publisher == nil || o == nil {
		return
	}

	evt := event.OrderStatusChangedEvent{
		OrderEventMetadata: event.OrderEventMetadata{
			EventType:    event.EventOrderStatusChanged,
			OccurredAt:   time.Now(),
			OrderID:      o.ID,
			OrderType:    o.Type,
			CustomerName: o.CustomerName,
			TableNumber:  o.TableNumber,
		},
		NewStatus:      o.Status,
		PreviousStatus: previous,
		Reason:         reason,
		Source:         s.source,
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		s.logger.Error("cannot marshal order.status_changed event", "error", err)
		return
	}

	if err := s.publisher.Publish(ctx, event.OrdersTopic, payload); err != nil {
		s.logger.Error("cannot publish order.status_changed event", "order_id", o.ID, "error", err)
	}
}

// revert restores one order from the server after a rejected mutation.
func (s *Synchronizer) revert(ctx context.Context, id string) {
	fresh, err := s.api.Get(ctx, id)
	if err != nil {
		s.logger.Error("cannot revert order after rejected mutation", "order_id", id, "error", err)
		return
	}
	if fresh == nil {
		s.cache.Remove(id)
		return
	}
	s.cache.Set(fresh)
}
