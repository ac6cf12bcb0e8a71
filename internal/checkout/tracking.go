package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"

	"github.com/adrian08041/cardapio/internal/order"
	"github.com/adrian08041/cardapio/pkg/enums/orderstatus"
)

// DefaultTrackingInterval is the gap between tracking polls.
const DefaultTrackingInterval = 15 * time.Second

// TimelineStep is one stage of the customer-facing progress view.
type TimelineStep struct {
	Status  string `json:"status"`
	Label   string `json:"label"`
	Reached bool   `json:"reached"`
	Current bool   `json:"current"`
}

// TrackingView is what the tracking page renders for one order.
type TrackingView struct {
	OrderID   string         `json:"order_id"`
	Status    string         `json:"status"`
	Cancelled bool           `json:"cancelled"`
	Timeline  []TimelineStep `json:"timeline"`
	Total     float64        `json:"total"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// BuildTimeline projects an order onto its progress timeline. Delivery
// orders get a delivering stage in place of ready; a cancelled order
// keeps the steps it reached and flags the whole view.
func BuildTimeline(o *order.Order) TrackingView {
	display := o.DisplayStatus()
	cancelled := o.StatusEnum() == orderstatus.Statuses.Cancelled

	stages := []orderstatus.Status{
		orderstatus.Statuses.Pending,
		orderstatus.Statuses.Preparing,
		orderstatus.Statuses.Ready,
		orderstatus.Statuses.Delivered,
	}
	if o.Type == order.TypeDelivery {
		stages[2] = orderstatus.Statuses.Delivering
	}

	position := -1
	if !cancelled {
		for i, stage := range stages {
			if stage == display {
				position = i
				break
			}
		}
	}

	view := TrackingView{
		OrderID:   o.ID,
		Status:    display.Code(),
		Cancelled: cancelled,
		Total:     o.Total,
		UpdatedAt: o.UpdatedAt,
	}

	for i, stage := range stages {
		view.Timeline = append(view.Timeline, TimelineStep{
			Status:  stage.Code(),
			Label:   stage.Label(),
			Reached: position >= i,
			Current: position == i,
		})
	}

	return view
}

// Getter fetches one order from the server.
type Getter interface {
	Get(ctx context.Context, id string) (*order.Order, error)
}

// Tracker polls a single order and pushes fresh timeline views to its
// observer. It stops itself once the order reaches a terminal status.
type Tracker struct {
	api      Getter
	orderID  string
	interval time.Duration
	logger   apt.Logger
	observer func(TrackingView)

	cancel context.CancelFunc
	done   chan struct{}
}

func NewTracker(api Getter, orderID string, interval time.Duration, observer func(TrackingView), logger apt.Logger) *Tracker {
	if interval <= 0 {
		interval = DefaultTrackingInterval
	}
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Tracker{
		api:      api,
		orderID:  orderID,
		interval: interval,
		observer: observer,
		logger:   logger,
	}
}

// Start fetches the order immediately and then keeps polling.
func (t *Tracker) Start(ctx context.Context) error {
	if t.observer == nil {
		return fmt.Errorf("tracker needs an observer")
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.done = make(chan struct{})

	terminal := t.poll(ctx)

	go func() {
		defer close(t.done)

		if terminal {
			return
		}

		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				if t.poll(loopCtx) {
					return
				}
			}
		}
	}()

	return nil
}

// Stop halts polling and waits for the loop to finish.
func (t *Tracker) Stop(ctx context.Context) error {
	if t.cancel == nil {
		return nil
	}
	t.cancel()

	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// poll fetches the order once and reports whether tracking is over.
func (t *Tracker) poll(ctx context.Context) bool {
	o, err := t.api.Get(ctx, t.orderID)
	if err != nil {
		t.logger.Error("tracking poll failed", "order_id", t.orderID, "error", err)
		return false
	}
	if o == nil {
		t.logger.Error("tracked order vanished", "order_id", t.orderID)
		return true
	}

	t.observer(BuildTimeline(o))
	return o.StatusEnum().IsTerminal()
}
