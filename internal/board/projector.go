package board

import (
	"time"

	"github.com/adrian08041/cardapio/internal/order"
	"github.com/adrian08041/cardapio/internal/sync"
	"github.com/adrian08041/cardapio/pkg/enums/orderstatus"
)

// Card is the board view of one order.
type Card struct {
	ID             string  `json:"id"`
	Status         string  `json:"status"`
	StatusLabel    string  `json:"status_label"`
	Type           string  `json:"type"`
	CustomerName   string  `json:"customer_name"`
	TableNumber    string  `json:"table_number,omitempty"`
	ItemCount      int     `json:"item_count"`
	Total          float64 `json:"total"`
	ElapsedMinutes int     `json:"elapsed_minutes"`
	Urgency        string  `json:"urgency"`
	NextAction     string  `json:"next_action,omitempty"`
	CanCancel      bool    `json:"can_cancel"`
}

// Column is one status lane of the board.
type Column struct {
	Status string `json:"status"`
	Label  string `json:"label"`
	Cards  []Card `json:"cards"`
}

// View is the full board projection.
type View struct {
	Columns     []Column  `json:"columns"`
	GeneratedAt time.Time `json:"generated_at"`
}

// columns lists the lanes in board order. Terminal orders never appear.
var columns = []orderstatus.Status{
	orderstatus.Statuses.Pending,
	orderstatus.Statuses.Preparing,
	orderstatus.Statuses.Ready,
}

// Projector derives board views from the order cache. It holds no state
// of its own, so every build reflects the latest poll.
type Projector struct {
	cache *sync.OrderStateCache
}

func NewProjector(cache *sync.OrderStateCache) *Projector {
	return &Projector{cache: cache}
}

// Build assembles the board as observed at now.
func (p *Projector) Build(now time.Time) View {
	view := View{GeneratedAt: now}

	for _, status := range columns {
		orders := p.cache.GetByStatus(status.Code())
		col := Column{
			Status: status.Code(),
			Label:  status.Label(),
			Cards:  make([]Card, 0, len(orders)),
		}
		for _, o := range orders {
			col.Cards = append(col.Cards, buildCard(o, now))
		}
		view.Columns = append(view.Columns, col)
	}

	return view
}

func buildCard(o *order.Order, now time.Time) Card {
	display := o.DisplayStatus()

	card := Card{
		ID:             o.ID,
		Status:         display.Code(),
		StatusLabel:    display.Label(),
		Type:           o.Type,
		CustomerName:   o.CustomerName,
		TableNumber:    o.TableNumber,
		ItemCount:      o.ItemCount(),
		Total:          o.Total,
		ElapsedMinutes: o.ElapsedMinutes(now),
		Urgency:        o.Urgency(now).Code(),
		CanCancel:      o.StatusEnum().CanCancel(),
	}

	if action, ok := o.StatusEnum().AdvanceAction(); ok {
		card.NextAction = action
	}

	return card
}
