package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"

	"github.com/adrian08041/cardapio/internal/cart"
	"github.com/adrian08041/cardapio/internal/order"
	"github.com/adrian08041/cardapio/internal/orderapi"
	"github.com/adrian08041/cardapio/pkg/event"
)

// ErrEmptyCart rejects a submission with nothing in it.
var ErrEmptyCart = errors.New("cart is empty")

// API is the slice of the Order API the submitter needs.
type API interface {
	Create(ctx context.Context, req orderapi.CreateOrderRequest) (*order.Order, error)
}

// Submitter turns a cart plus checkout form into an order on the
// server. The cart is cleared only after the server confirms, so a
// failed submission keeps everything for retry.
type Submitter struct {
	api       API
	cart      *cart.Store
	pricer    *cart.Pricer
	publisher events.Publisher
	logger    apt.Logger
}

func NewSubmitter(api API, cartStore *cart.Store, pricer *cart.Pricer, publisher events.Publisher, logger apt.Logger) *Submitter {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Submitter{
		api:       api,
		cart:      cartStore,
		pricer:    pricer,
		publisher: publisher,
		logger:    logger,
	}
}

// Submit validates the form and sends the order. Field errors come back
// separately from transport errors so the UI can highlight inputs. The
// server call survives the caller navigating away: once fired it runs
// to completion on a detached context.
func (s *Submitter) Submit(ctx context.Context, form Form) (*order.Order, FieldErrors, error) {
	if errs := Validate(form); errs.HasErrors() {
		return nil, errs, nil
	}

	snap := s.cart.Snapshot()
	if len(snap.Lines) == 0 {
		return nil, nil, ErrEmptyCart
	}

	quote := s.pricer.Quote(snap, form.OrderType, form.PaymentMethod)
	req := buildRequest(form, snap, quote)

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	created, err := s.api.Create(sendCtx, req)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot submit order: %w", err)
	}

	s.cart.Clear(sendCtx)
	s.publishCreated(sendCtx, created)

	return created, nil, nil
}

func buildRequest(form Form, snap cart.Snapshot, quote cart.Quote) orderapi.CreateOrderRequest {
	req := orderapi.CreateOrderRequest{
		CustomerName:  form.CustomerName,
		CustomerPhone: form.CustomerPhone,
		CustomerEmail: form.CustomerEmail,

		DeliveryAddress:      form.DeliveryAddress,
		DeliveryComplement:   form.DeliveryComplement,
		DeliveryNeighborhood: form.DeliveryNeighborhood,

		OrderType:     form.OrderType,
		PaymentMethod: form.PaymentMethod,
		ChangeFor:     form.ChangeFor,
		DeliveryFee:   quote.DeliveryFee,

		CouponCode: snap.CouponCode,
		Discount:   quote.CouponDiscount + quote.PaymentDiscount,

		Notes: form.Notes,
	}

	for _, line := range snap.Lines {
		item := orderapi.CreateOrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Notes:     line.Notes,
		}
		for _, addonID := range line.Addons {
			item.Addons = append(item.Addons, orderapi.CreateOrderAddon{
				AddonID:  addonID,
				Quantity: 1,
			})
		}
		req.Items = append(req.Items, item)
	}

	return req
}

// publishCreated emits the lifecycle event best-effort. Boards converge
// by polling either way, so a publish failure is only logged.
func (s *Submitter) publishCreated(ctx context.Context, o *order.Order) {
	if s.publisher == nil || o == nil {
		return
	}

	evt := event.OrderCreatedEvent{
		OrderEventMetadata: event.OrderEventMetadata{
			EventType:    event.EventOrderCreated,
			OccurredAt:   time.Now(),
			OrderID:      o.ID,
			OrderType:    o.Type,
			CustomerName: o.CustomerName,
			TableNumber:  o.TableNumber,
		},
		Status:    o.Status,
		Total:     o.Total,
		ItemCount: o.ItemCount(),
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		s.logger.Error("cannot marshal order.created event", "error", err)
		return
	}

	if err := s.publisher.Publish(ctx, event.OrdersTopic, payload); err != nil {
		s.logger.Error("cannot publish order.created event", "order_id", o.ID, "error", err)
	}
}
