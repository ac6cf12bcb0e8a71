package cart

import (
	"errors"
	"strings"

	"github.com/adrian08041/cardapio/internal/order"
)

var (
	// ErrInvalidCoupon marks a code outside the known rule set.
	ErrInvalidCoupon = errors.New("invalid coupon code")
	// ErrCouponDeliveryOnly marks a free shipping coupon applied to an
	// order type without a delivery fee.
	ErrCouponDeliveryOnly = errors.New("coupon valid for delivery orders only")
)

type couponKind string

const (
	couponPercentage   couponKind = "percentage"
	couponFixed        couponKind = "fixed"
	couponFreeShipping couponKind = "free_shipping"
)

type couponRule struct {
	Kind  couponKind
	Value float64
}

// coupons is the fixed rule set. Free shipping is worth the flat
// delivery fee and only applies when a fee would be charged.
var coupons = map[string]couponRule{
	"BEMVINDO10":  {Kind: couponPercentage, Value: 10},
	"DESC15":      {Kind: couponFixed, Value: 15},
	"FRETEGRATIS": {Kind: couponFreeShipping, Value: DefaultDeliveryFee},
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCoupon resolves code against the rule set and returns the
// discount amount for the given order type and subtotal.
func ValidateCoupon(code, orderType string, subtotal float64) (float64, error) {
	rule, ok := coupons[normalizeCode(code)]
	if !ok {
		return 0, ErrInvalidCoupon
	}

	switch rule.Kind {
	case couponPercentage:
		return subtotal * rule.Value / 100, nil
	case couponFixed:
		return rule.Value, nil
	case couponFreeShipping:
		if orderType != order.TypeDelivery {
			return 0, ErrCouponDeliveryOnly
		}
		return rule.Value, nil
	default:
		return 0, ErrInvalidCoupon
	}
}
