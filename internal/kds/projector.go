package kds

import (
	"time"

	"github.com/adrian08041/cardapio/internal/order"
	"github.com/adrian08041/cardapio/internal/sync"
	"github.com/adrian08041/cardapio/pkg/enums/station"
)

// TicketItem is the slice of an order line a station needs to cook it.
type TicketItem struct {
	ProductID string   `json:"product_id"`
	Name      string   `json:"name"`
	Quantity  int      `json:"quantity"`
	Notes     string   `json:"notes,omitempty"`
	Addons    []string `json:"addons,omitempty"`
}

// Ticket is one order as seen from a single station lane. Items are the
// subset routed to that station; Status stays the whole order's status
// because the lifecycle is shared, not per station.
type Ticket struct {
	OrderID        string       `json:"order_id"`
	Status         string       `json:"status"`
	Type           string       `json:"type"`
	TableNumber    string       `json:"table_number,omitempty"`
	CustomerName   string       `json:"customer_name"`
	Items          []TicketItem `json:"items"`
	Notes          string       `json:"notes,omitempty"`
	ElapsedMinutes int          `json:"elapsed_minutes"`
	Urgency        string       `json:"urgency"`
	NextAction     string       `json:"next_action,omitempty"`
}

// Lane is one station's queue, oldest first.
type Lane struct {
	Station string   `json:"station"`
	Label   string   `json:"label"`
	Tickets []Ticket `json:"tickets"`
}

// View is the full kitchen display projection. Ready is the shared
// pickup column, present only when the display enables it.
type View struct {
	Lanes       []Lane    `json:"lanes"`
	Ready       *Lane     `json:"ready,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Projector derives station lanes from the order cache. An order with
// items across several stations yields a ticket in each matching lane.
type Projector struct {
	cache *sync.OrderStateCache
}

func NewProjector(cache *sync.OrderStateCache) *Projector {
	return &Projector{cache: cache}
}

// Build assembles all station lanes as observed at now. Only orders
// still being worked appear: ready and terminal orders leave the
// display.
func (p *Projector) Build(now time.Time) View {
	view := View{GeneratedAt: now}

	for _, st := range station.All {
		view.Lanes = append(view.Lanes, p.buildLane(st, now))
	}

	return view
}

// BuildLane assembles a single station's queue, for displays dedicated
// to one station.
func (p *Projector) BuildLane(stationName string, now time.Time) Lane {
	return p.buildLane(station.Normalize(stationName), now)
}

func (p *Projector) buildLane(st station.Station, now time.Time) Lane {
	orders := p.cache.GetByStation(st.Name)
	lane := Lane{
		Station: st.Name,
		Label:   st.Label(),
		Tickets: make([]Ticket, 0, len(orders)),
	}

	for _, o := range orders {
		if !onDisplay(o) {
			continue
		}
		lane.Tickets = append(lane.Tickets, buildTicket(o, st, now))
	}

	return lane
}

// BuildReady assembles the pickup column: orders plated and waiting for
// a runner or the customer. It is shared across stations, so tickets
// carry every item of the order.
func (p *Projector) BuildReady(now time.Time) Lane {
	orders := p.cache.GetByStatus("ready")
	lane := Lane{
		Station: "ready",
		Label:   "Prontos / Retirada",
		Tickets: make([]Ticket, 0, len(orders)),
	}

	for _, o := range orders {
		ticket := newTicket(o, now)
		for _, item := range o.Items {
			ticket.Items = append(ticket.Items, newTicketItem(item))
		}
		lane.Tickets = append(lane.Tickets, ticket)
	}

	return lane
}

// onDisplay keeps only orders a station still has work on.
func onDisplay(o *order.Order) bool {
	switch o.Status {
	case "pending", "preparing":
		return true
	default:
		return false
	}
}

func buildTicket(o *order.Order, st station.Station, now time.Time) Ticket {
	ticket := newTicket(o, now)

	for _, item := range order.ItemsForStation(o.Items, st) {
		ticket.Items = append(ticket.Items, newTicketItem(item))
	}

	return ticket
}

func newTicket(o *order.Order, now time.Time) Ticket {
	ticket := Ticket{
		OrderID:        o.ID,
		Status:         o.Status,
		Type:           o.Type,
		TableNumber:    o.TableNumber,
		CustomerName:   o.CustomerName,
		Notes:          o.Notes,
		ElapsedMinutes: o.ElapsedMinutes(now),
		Urgency:        o.Urgency(now).Code(),
	}

	if action, ok := o.StatusEnum().AdvanceAction(); ok {
		ticket.NextAction = action
	}

	return ticket
}

func newTicketItem(item order.OrderItem) TicketItem {
	return TicketItem{
		ProductID: item.ProductID,
		Name:      item.Name,
		Quantity:  item.Quantity,
		Notes:     item.Notes,
		Addons:    item.Addons,
	}
}
