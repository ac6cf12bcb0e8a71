package order

import (
	"time"

	"github.com/adrian08041/cardapio/pkg/enums/orderstatus"
)

// Order type codes, fixed at creation.
const (
	TypeDelivery = "delivery"
	TypePickup   = "pickup"
	TypeDineIn   = "dine_in"
)

// Payment method codes accepted by the Order API.
const (
	PaymentCreditCard = "CREDIT_CARD"
	PaymentDebitCard  = "DEBIT_CARD"
	PaymentCash       = "CASH"
	PaymentPix        = "PIX"
)

// Order is the read-replica view of a server-owned order. The external
// Order API is the source of truth; surfaces reconcile this struct by
// polling and mutate it only through guarded status transitions.
type Order struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	Type          string `json:"type"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	TableNumber   string `json:"table_number,omitempty"`

	DeliveryAddress      string `json:"delivery_address,omitempty"`
	DeliveryComplement   string `json:"delivery_complement,omitempty"`
	DeliveryNeighborhood string `json:"delivery_neighborhood,omitempty"`

	PaymentMethod string      `json:"payment_method,omitempty"`
	Items         []OrderItem `json:"items"`

	Subtotal    float64 `json:"subtotal"`
	DeliveryFee float64 `json:"delivery_fee"`
	Discount    float64 `json:"discount"`
	Total       float64 `json:"total"`
	CouponCode  string  `json:"coupon_code,omitempty"`

	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusEnum resolves the raw status code against the lifecycle enum.
// Unknown codes resolve to Pending so a malformed payload can never put
// an order past the start of the lifecycle.
func (o *Order) StatusEnum() orderstatus.Status {
	if s := orderstatus.ByName(o.Status); s != nil {
		return *s
	}
	return orderstatus.Statuses.Pending
}

// IsActive reports whether the order still belongs on an in-flight board.
func (o *Order) IsActive() bool {
	return !o.StatusEnum().IsTerminal()
}

// DisplayStatus returns the customer-facing status. A delivery order that
// is ready is shown as delivering; every other combination passes through.
func (o *Order) DisplayStatus() orderstatus.Status {
	s := o.StatusEnum()
	if s == orderstatus.Statuses.Ready && o.Type == TypeDelivery {
		return orderstatus.Statuses.Delivering
	}
	return s
}

// MarkAsPreparing moves a pending order into preparation.
func (o *Order) MarkAsPreparing() error {
	return o.apply("prepare")
}

// MarkAsReady moves a preparing order to ready.
func (o *Order) MarkAsReady() error {
	return o.apply("ready")
}

// MarkAsDelivered completes a ready order.
func (o *Order) MarkAsDelivered() error {
	return o.apply("deliver")
}

// Cancel aborts the order from any non-terminal status.
func (o *Order) Cancel() error {
	return o.apply("cancel")
}

// Advance moves the order one step forward along the lifecycle and
// returns the API action that produced the move.
func (o *Order) Advance() (string, error) {
	action, ok := o.StatusEnum().AdvanceAction()
	if !ok {
		return "", orderstatus.ErrInvalidTransition
	}
	return action, o.apply(action)
}

func (o *Order) apply(action string) error {
	next, err := orderstatus.Apply(o.StatusEnum(), action)
	if err != nil {
		return err
	}
	o.Status = next.Code()
	o.UpdatedAt = time.Now()
	return nil
}

// ItemCount returns the total quantity across all lines.
func (o *Order) ItemCount() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}
