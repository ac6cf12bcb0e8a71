package sync

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/adrian08041/cardapio/pkg/event"
)

func TestRefreshReplacesCache(t *testing.T) {
	now := time.Now()
	api := newFakeAPI(
		testOrder("o1", "pending", now),
		testOrder("o2", "preparing", now),
	)
	cache := NewOrderStateCache(nil)
	s := NewSynchronizer(api, cache, 0, nil)

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cache.Count(); got != 2 {
		t.Fatalf("expected 2 cached orders, got %d", got)
	}
}

func TestRefreshConvergesAfterRemoteChange(t *testing.T) {
	now := time.Now()
	api := newFakeAPI(testOrder("o1", "pending", now))
	cache := NewOrderStateCache(nil)
	s := NewSynchronizer(api, cache, 0, nil)
	ctx := context.Background()

	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Another surface advances the order on the server.
	api.setStatus("o1", "preparing")

	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cache.Get("o1").Status; got != "preparing" {
		t.Errorf("expected cache to converge to preparing, got %q", got)
	}
}

func TestAdvanceOptimisticThenConfirmed(t *testing.T) {
	now := time.Now()
	api := newFakeAPI(testOrder("o1", "pending", now))
	cache := NewOrderStateCache(nil)
	s := NewSynchronizer(api, cache, 0, nil)
	ctx := context.Background()

	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var optimistic string
	cache.Subscribe(func() {
		if optimistic == "" {
			optimistic = cache.Get("o1").Status
		}
	})

	updated, err := s.Advance(ctx, "o1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if optimistic != "preparing" {
		t.Errorf("expected optimistic transition before server reply, got %q", optimistic)
	}
	if updated.Status != "preparing" {
		t.Errorf("expected confirmed preparing, got %q", updated.Status)
	}
	if len(api.advanceCalls) != 1 || api.advanceCalls[0] != "o1:prepare" {
		t.Errorf("expected one prepare call, got %v", api.advanceCalls)
	}
}

func TestAdvanceRevertsOnServerRejection(t *testing.T) {
	now := time.Now()
	api := newFakeAPI(testOrder("o1", "pending", now))
	api.advanceErr = errors.New("conflict")
	cache := NewOrderStateCache(nil)
	s := NewSynchronizer(api, cache, 0, nil)
	ctx := context.Background()

	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := s.Advance(ctx, "o1"); err == nil {
		t.Fatal("expected error from rejected advance")
	}

	// The cache must be restored from the server, not left optimistic.
	if got := cache.Get("o1").Status; got != "pending" {
		t.Errorf("expected revert to pending, got %q", got)
	}
}

func TestAdvanceTerminalOrderFailsLocally(t *testing.T) {
	now := time.Now()
	api := newFakeAPI(testOrder("o1", "delivered", now))
	cache := NewOrderStateCache(nil)
	s := NewSynchronizer(api, cache, 0, nil)
	ctx := context.Background()

	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := s.Advance(ctx, "o1"); err == nil {
		t.Fatal("expected error advancing delivered order")
	}
	if len(api.advanceCalls) != 0 {
		t.Errorf("terminal order must not reach the server, got %v", api.advanceCalls)
	}
}

func TestDoubleAdvanceSecondCallRejected(t *testing.T) {
	now := time.Now()
	api := newFakeAPI(testOrder("o1", "ready", now))
	cache := NewOrderStateCache(nil)
	s := NewSynchronizer(api, cache, 0, nil)
	ctx := context.Background()

	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := s.Advance(ctx, "o1"); err != nil {
		t.Fatalf("first advance failed: %v", err)
	}
	if _, err := s.Advance(ctx, "o1"); err == nil {
		t.Fatal("expected second advance on delivered order to fail")
	}

	if got := cache.Get("o1").Status; got != "delivered" {
		t.Errorf("expected delivered after double advance, got %q", got)
	}
}

func TestCancelSendsReason(t *testing.T) {
	now := time.Now()
	api := newFakeAPI(testOrder("o1", "preparing", now))
	cache := NewOrderStateCache(nil)
	s := NewSynchronizer(api, cache, 0, nil)
	ctx := context.Background()

	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := s.Cancel(ctx, "o1", "Cancelado pelo Admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != "cancelled" {
		t.Errorf("expected cancelled, got %q", updated.Status)
	}
	if len(api.cancelCalls) != 1 || api.cancelCalls[0] != "o1:Cancelado pelo Admin" {
		t.Errorf("expected reason forwarded, got %v", api.cancelCalls)
	}
}

func TestCancelDeliveredOrderFails(t *testing.T) {
	now := time.Now()
	api := newFakeAPI(testOrder("o1", "delivered", now))
	cache := NewOrderStateCache(nil)
	s := NewSynchronizer(api, cache, 0, nil)
	ctx := context.Background()

	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := s.Cancel(ctx, "o1", "late"); err == nil {
		t.Fatal("expected error cancelling delivered order")
	}
	if len(api.cancelCalls) != 0 {
		t.Errorf("terminal order must not reach the server, got %v", api.cancelCalls)
	}
}

func TestStartAndStop(t *testing.T) {
	now := time.Now()
	api := newFakeAPI(testOrder("o1", "pending", now))
	cache := NewOrderStateCache(nil)
	s := NewSynchronizer(api, cache, 20*time.Millisecond, nil)
	ctx := context.Background()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cache.Count(); got != 1 {
		t.Fatalf("expected initial fetch on start, count %d", got)
	}

	api.setStatus("o1", "preparing")

	deadline := time.After(2 * time.Second)
	for cache.Get("o1").Status != "preparing" {
		select {
		case <-deadline:
			t.Fatal("poll loop never picked up remote change")
		case <-time.After(10 * time.Millisecond):
		}
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("unexpected stop error: %v", err)
	}
}

func TestAdvanceAnnouncesStatusChange(t *testing.T) {
	now := time.Now()
	api := newFakeAPI(testOrder("o1", "pending", now))
	cache := NewOrderStateCache(nil)
	s := NewSynchronizer(api, cache, 0, nil)
	pub := &fakePublisher{}
	s.AttachPublisher(pub, "backoffice")
	ctx := context.Background()

	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Advance(ctx, "o1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payloads := pub.published()
	if len(payloads) != 1 {
		t.Fatalf("expected one published event, got %d", len(payloads))
	}

	var evt event.OrderStatusChangedEvent
	if err := json.Unmarshal(payloads[0], &evt); err != nil {
		t.Fatalf("cannot decode event: %v", err)
	}
	if evt.EventType != event.EventOrderStatusChanged {
		t.Errorf("expected %s, got %s", event.EventOrderStatusChanged, evt.EventType)
	}
	if evt.NewStatus != "preparing" || evt.PreviousStatus != "pending" {
		t.Errorf("unexpected transition %s -> %s", evt.PreviousStatus, evt.NewStatus)
	}
	if evt.Source != "backoffice" {
		t.Errorf("expected backoffice source, got %q", evt.Source)
	}
}

func TestRejectedAdvancePublishesNothing(t *testing.T) {
	now := time.Now()
	api := newFakeAPI(testOrder("o1", "pending", now))
	api.advanceErr = errors.New("boom")
	cache := NewOrderStateCache(nil)
	s := NewSynchronizer(api, cache, 0, nil)
	pub := &fakePublisher{}
	s.AttachPublisher(pub, "backoffice")
	ctx := context.Background()

	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Advance(ctx, "o1"); err == nil {
		t.Fatal("expected error")
	}

	if got := len(pub.published()); got != 0 {
		t.Errorf("expected no published events, got %d", got)
	}
}
