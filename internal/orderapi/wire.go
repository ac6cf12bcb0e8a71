package orderapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/adrian08041/cardapio/internal/order"
	"github.com/adrian08041/cardapio/pkg/enums/orderstatus"
)

// orderWire mirrors the shape the Order API sends. Field aliases carried
// by older API versions (productName/unitPrice vs name/price) are
// resolved here so internal code never touches raw wire shapes.
type orderWire struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	OrderType     string `json:"orderType"`
	CustomerName  string `json:"customerName"`
	CustomerPhone string `json:"customerPhone"`
	TableNumber   string `json:"tableNumber,omitempty"`

	DeliveryAddress      string `json:"deliveryAddress,omitempty"`
	DeliveryComplement   string `json:"deliveryComplement,omitempty"`
	DeliveryNeighborhood string `json:"deliveryNeighborhood,omitempty"`

	PaymentMethod string `json:"paymentMethod,omitempty"`

	Items []orderItemWire `json:"items"`

	Subtotal    float64 `json:"subtotal"`
	DeliveryFee float64 `json:"deliveryFee"`
	Discount    float64 `json:"discount"`
	Total       float64 `json:"total"`
	CouponCode  string  `json:"couponCode,omitempty"`

	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

type orderItemWire struct {
	ProductID   string   `json:"productId"`
	Name        string   `json:"name,omitempty"`
	ProductName string   `json:"productName,omitempty"`
	Quantity    int      `json:"quantity"`
	Price       float64  `json:"price,omitempty"`
	UnitPrice   float64  `json:"unitPrice,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	Station     string   `json:"station,omitempty"`
	Addons      []string `json:"addons,omitempty"`
}

// normalizeOrder validates and converts a wire order into the internal
// model. Payloads with an unknown status or an empty id are rejected at
// the boundary rather than leaking inward.
func normalizeOrder(w *orderWire) (*order.Order, error) {
	if w == nil {
		return nil, fmt.Errorf("nil order payload")
	}
	if w.ID == "" {
		return nil, fmt.Errorf("order payload missing id")
	}
	if orderstatus.ByName(w.Status) == nil {
		return nil, fmt.Errorf("order %s carries unknown status %q", w.ID, w.Status)
	}

	o := &order.Order{
		ID:            w.ID,
		Status:        w.Status,
		Type:          normalizeOrderType(w.OrderType),
		CustomerName:  w.CustomerName,
		CustomerPhone: w.CustomerPhone,
		TableNumber:   w.TableNumber,

		DeliveryAddress:      w.DeliveryAddress,
		DeliveryComplement:   w.DeliveryComplement,
		DeliveryNeighborhood: w.DeliveryNeighborhood,

		PaymentMethod: w.PaymentMethod,

		Subtotal:    w.Subtotal,
		DeliveryFee: w.DeliveryFee,
		Discount:    w.Discount,
		Total:       w.Total,
		CouponCode:  w.CouponCode,

		Notes:     w.Notes,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}

	o.Items = make([]order.OrderItem, 0, len(w.Items))
	for i, iw := range w.Items {
		item, err := normalizeItem(iw)
		if err != nil {
			return nil, fmt.Errorf("order %s item %d: %w", w.ID, i, err)
		}
		o.Items = append(o.Items, item)
	}

	return o, nil
}

func normalizeItem(w orderItemWire) (order.OrderItem, error) {
	name := w.Name
	if name == "" {
		name = w.ProductName
	}
	price := w.UnitPrice
	if price == 0 {
		price = w.Price
	}
	if w.Quantity < 1 {
		return order.OrderItem{}, fmt.Errorf("quantity %d below 1", w.Quantity)
	}

	return order.OrderItem{
		ProductID: w.ProductID,
		Name:      name,
		Quantity:  w.Quantity,
		UnitPrice: price,
		Notes:     w.Notes,
		Station:   w.Station,
		Addons:    w.Addons,
	}, nil
}

// normalizeOrderType maps the API's upper-case codes onto the internal
// lower-case ones. Unknown codes pass through lowered so a new API type
// degrades to display-only text instead of breaking decoding.
func normalizeOrderType(wire string) string {
	switch wire {
	case "DELIVERY":
		return order.TypeDelivery
	case "PICKUP", "TAKEAWAY":
		return order.TypePickup
	case "DINE_IN":
		return order.TypeDineIn
	default:
		return strings.ToLower(wire)
	}
}

// wireOrderType is the inverse mapping used on requests.
func wireOrderType(internal string) string {
	switch internal {
	case order.TypeDelivery:
		return "DELIVERY"
	case order.TypePickup:
		return "PICKUP"
	case order.TypeDineIn:
		return "DINE_IN"
	default:
		return strings.ToUpper(internal)
	}
}
