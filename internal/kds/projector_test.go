package kds

import (
	"testing"
	"time"

	"github.com/adrian08041/cardapio/internal/order"
	"github.com/adrian08041/cardapio/internal/sync"
)

func seedCache(orders ...*order.Order) *sync.OrderStateCache {
	cache := sync.NewOrderStateCache(nil)
	cache.Replace(orders)
	return cache
}

func TestProjectorSplitsOrderAcrossLanes(t *testing.T) {
	now := time.Now()
	cache := seedCache(&order.Order{
		ID:     "o1",
		Status: "preparing",
		Type:   order.TypeDineIn,
		Items: []order.OrderItem{
			{ProductID: "p1", Name: "Burger", Quantity: 1, Station: "kitchen"},
			{ProductID: "p2", Name: "Caipirinha", Quantity: 2, Station: "bar"},
			{ProductID: "p3", Name: "Fries", Quantity: 1, Station: "kitchen"},
		},
		CreatedAt: now,
	})

	view := NewProjector(cache).Build(now)

	lanes := map[string]Lane{}
	for _, lane := range view.Lanes {
		lanes[lane.Station] = lane
	}

	kitchen := lanes["kitchen"]
	if len(kitchen.Tickets) != 1 {
		t.Fatalf("expected 1 kitchen ticket, got %d", len(kitchen.Tickets))
	}
	if got := len(kitchen.Tickets[0].Items); got != 2 {
		t.Errorf("kitchen ticket must carry only kitchen items, got %d", got)
	}

	bar := lanes["bar"]
	if len(bar.Tickets) != 1 {
		t.Fatalf("expected 1 bar ticket, got %d", len(bar.Tickets))
	}
	if got := bar.Tickets[0].Items[0].Name; got != "Caipirinha" {
		t.Errorf("expected bar item, got %q", got)
	}

	if got := len(lanes["dessert"].Tickets); got != 0 {
		t.Errorf("expected empty dessert lane, got %d", got)
	}
}

func TestProjectorSharedStatusAcrossLanes(t *testing.T) {
	now := time.Now()
	cache := seedCache(&order.Order{
		ID:     "o1",
		Status: "pending",
		Items: []order.OrderItem{
			{ProductID: "p1", Quantity: 1, Station: "kitchen"},
			{ProductID: "p2", Quantity: 1, Station: "bar"},
		},
		CreatedAt: now,
	})

	view := NewProjector(cache).Build(now)
	for _, lane := range view.Lanes {
		for _, ticket := range lane.Tickets {
			if ticket.Status != "pending" {
				t.Errorf("lane %s: expected shared status pending, got %q", lane.Station, ticket.Status)
			}
			if ticket.NextAction != "prepare" {
				t.Errorf("lane %s: expected prepare action, got %q", lane.Station, ticket.NextAction)
			}
		}
	}
}

func TestProjectorHidesFinishedOrders(t *testing.T) {
	now := time.Now()
	items := []order.OrderItem{{ProductID: "p1", Quantity: 1, Station: "kitchen"}}
	cache := seedCache(
		&order.Order{ID: "active", Status: "preparing", Items: items, CreatedAt: now},
		&order.Order{ID: "plated", Status: "ready", Items: items, CreatedAt: now},
		&order.Order{ID: "done", Status: "delivered", Items: items, CreatedAt: now},
		&order.Order{ID: "dead", Status: "cancelled", Items: items, CreatedAt: now},
	)

	lane := NewProjector(cache).BuildLane("kitchen", now)
	if len(lane.Tickets) != 1 || lane.Tickets[0].OrderID != "active" {
		t.Errorf("expected only the preparing order on display, got %+v", lane.Tickets)
	}
}

func TestProjectorDefaultStationRouting(t *testing.T) {
	now := time.Now()
	cache := seedCache(&order.Order{
		ID:        "o1",
		Status:    "pending",
		Items:     []order.OrderItem{{ProductID: "p1", Quantity: 1}},
		CreatedAt: now,
	})

	lane := NewProjector(cache).BuildLane("kitchen", now)
	if len(lane.Tickets) != 1 {
		t.Fatalf("stationless items must route to kitchen, got %d tickets", len(lane.Tickets))
	}
}

func TestBuildLaneUnknownStationFallsBackToKitchen(t *testing.T) {
	now := time.Now()
	cache := seedCache(&order.Order{
		ID:        "o1",
		Status:    "pending",
		Items:     []order.OrderItem{{ProductID: "p1", Quantity: 1, Station: "kitchen"}},
		CreatedAt: now,
	})

	lane := NewProjector(cache).BuildLane("sushi", now)
	if lane.Station != "kitchen" {
		t.Errorf("expected kitchen fallback, got %q", lane.Station)
	}
}

func TestProjectorUrgencyBands(t *testing.T) {
	now := time.Now()
	items := []order.OrderItem{{ProductID: "p1", Quantity: 1, Station: "kitchen"}}
	cache := seedCache(
		&order.Order{ID: "fresh", Status: "preparing", Items: items, CreatedAt: now.Add(-2 * time.Minute)},
		&order.Order{ID: "late", Status: "preparing", Items: items, CreatedAt: now.Add(-15 * time.Minute)},
		&order.Order{ID: "stale", Status: "preparing", Items: items, CreatedAt: now.Add(-25 * time.Minute)},
	)

	lane := NewProjector(cache).BuildLane("kitchen", now)
	want := map[string]string{"fresh": "normal", "late": "warning", "stale": "critical"}
	for _, ticket := range lane.Tickets {
		if got := ticket.Urgency; got != want[ticket.OrderID] {
			t.Errorf("order %s: expected urgency %q, got %q", ticket.OrderID, want[ticket.OrderID], got)
		}
	}
}

func TestBuildReadyPickupColumn(t *testing.T) {
	now := time.Now()
	cache := seedCache(
		&order.Order{
			ID:     "o1",
			Status: "ready",
			Type:   order.TypePickup,
			Items: []order.OrderItem{
				{ProductID: "p1", Name: "Burger", Quantity: 1, Station: "kitchen"},
				{ProductID: "p2", Name: "Caipirinha", Quantity: 1, Station: "bar"},
			},
			CreatedAt: now,
		},
		&order.Order{
			ID:        "o2",
			Status:    "preparing",
			Type:      order.TypeDineIn,
			Items:     []order.OrderItem{{ProductID: "p3", Name: "Fries", Quantity: 1, Station: "kitchen"}},
			CreatedAt: now,
		},
	)

	ready := NewProjector(cache).BuildReady(now)

	if len(ready.Tickets) != 1 {
		t.Fatalf("expected 1 ready ticket, got %d", len(ready.Tickets))
	}
	ticket := ready.Tickets[0]
	if ticket.OrderID != "o1" {
		t.Errorf("expected o1 in pickup column, got %s", ticket.OrderID)
	}
	if len(ticket.Items) != 2 {
		t.Errorf("pickup ticket must carry every item, got %d", len(ticket.Items))
	}
	if ticket.NextAction != "deliver" {
		t.Errorf("expected deliver action, got %q", ticket.NextAction)
	}
}

func TestReadyOrdersStayOffStationLanes(t *testing.T) {
	now := time.Now()
	cache := seedCache(&order.Order{
		ID:        "o1",
		Status:    "ready",
		Type:      order.TypePickup,
		Items:     []order.OrderItem{{ProductID: "p1", Name: "Burger", Quantity: 1, Station: "kitchen"}},
		CreatedAt: now,
	})

	view := NewProjector(cache).Build(now)

	for _, lane := range view.Lanes {
		if len(lane.Tickets) != 0 {
			t.Errorf("expected empty %s lane, got %d tickets", lane.Station, len(lane.Tickets))
		}
	}
	if view.Ready != nil {
		t.Error("expected no pickup column unless requested")
	}
}
