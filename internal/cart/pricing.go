package cart

import "github.com/adrian08041/cardapio/internal/order"

const (
	// DefaultDeliveryFee is the flat fee charged on delivery orders.
	DefaultDeliveryFee = 5.00
	// DefaultPixRate is the percentage discount for PIX payments.
	DefaultPixRate = 5.0
)

// Quote is a fully derived price breakdown. It is recomputed from cart
// state on every change, never stored.
type Quote struct {
	Subtotal        float64 `json:"subtotal"`
	DeliveryFee     float64 `json:"delivery_fee"`
	CouponDiscount  float64 `json:"coupon_discount"`
	PaymentDiscount float64 `json:"payment_discount"`
	Total           float64 `json:"total"`
}

// Pricer derives quotes from cart snapshots. Fee and rate come from
// configuration so environments can tune them without a rebuild.
type Pricer struct {
	DeliveryFee float64
	PixRate     float64
}

// NewPricer builds a pricer, falling back to defaults for zero values.
func NewPricer(deliveryFee, pixRate float64) *Pricer {
	if deliveryFee <= 0 {
		deliveryFee = DefaultDeliveryFee
	}
	if pixRate <= 0 {
		pixRate = DefaultPixRate
	}
	return &Pricer{DeliveryFee: deliveryFee, PixRate: pixRate}
}

// Quote prices a cart snapshot for the given order type and payment
// method. The delivery fee applies only to delivery orders, the PIX
// discount is a percentage of subtotal plus fee minus coupon, and the
// total never goes below zero.
func (p *Pricer) Quote(snap Snapshot, orderType, paymentMethod string) Quote {
	q := Quote{
		Subtotal:       snap.Subtotal(),
		CouponDiscount: snap.DiscountAmount,
	}

	if orderType == order.TypeDelivery {
		q.DeliveryFee = p.DeliveryFee
	}

	base := q.Subtotal + q.DeliveryFee - q.CouponDiscount
	if base < 0 {
		base = 0
	}

	if paymentMethod == order.PaymentPix {
		q.PaymentDiscount = base * p.PixRate / 100
	}

	q.Total = base - q.PaymentDiscount
	if q.Total < 0 {
		q.Total = 0
	}
	return q
}
