package event

import "time"

const (
	OrdersTopic             = "orders.lifecycle"
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

type OrderEventMetadata struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	OrderID    string    `json:"order_id"`
	OrderType  string    `json:"order_type,omitempty"`

	// Denormalized data for board/KDS display
	CustomerName string `json:"customer_name,omitempty"`
	TableNumber  string `json:"table_number,omitempty"`
}

// OrderCreatedEvent is published after the external Order API confirms a
// submission. Boards pick the full order up on their next poll; this event
// only lets them refresh sooner.
type OrderCreatedEvent struct {
	OrderEventMetadata
	Status    string  `json:"status"`
	Total     float64 `json:"total"`
	ItemCount int     `json:"item_count"`
}

// OrderStatusChangedEvent is published after a status-advance call
// succeeds against the external Order API. The API remains the source of
// truth; subscribers treat this as a hint, never as an override of a
// fresher poll result.
type OrderStatusChangedEvent struct {
	OrderEventMetadata
	NewStatus      string `json:"new_status"`
	PreviousStatus string `json:"previous_status"`
	Reason         string `json:"reason,omitempty"`
	Source         string `json:"source,omitempty"`
}
