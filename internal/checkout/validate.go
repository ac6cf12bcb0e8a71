package checkout

import (
	"strings"

	"github.com/adrian08041/cardapio/internal/order"
)

// Form carries what the customer filled in at checkout. Cart contents
// and prices come from the cart store, never from the form.
type Form struct {
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	CustomerEmail string `json:"customer_email,omitempty"`

	OrderType     string `json:"order_type"`
	PaymentMethod string `json:"payment_method"`
	TableNumber   string `json:"table_number,omitempty"`

	DeliveryAddress      string `json:"delivery_address,omitempty"`
	DeliveryComplement   string `json:"delivery_complement,omitempty"`
	DeliveryNeighborhood string `json:"delivery_neighborhood,omitempty"`

	ChangeFor *float64 `json:"change_for,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

// FieldErrors maps a form field to its user-visible rejection reason.
type FieldErrors map[string]string

func (e FieldErrors) HasErrors() bool {
	return len(e) > 0
}

var validOrderTypes = map[string]bool{
	order.TypeDelivery: true,
	order.TypePickup:   true,
	order.TypeDineIn:   true,
}

var validPaymentMethods = map[string]bool{
	order.PaymentCreditCard: true,
	order.PaymentDebitCard:  true,
	order.PaymentCash:       true,
	order.PaymentPix:        true,
}

// Validate checks the form field by field so the caller can surface
// every problem at once instead of one per submit attempt. Delivery
// address fields are required only for delivery orders.
func Validate(f Form) FieldErrors {
	errs := FieldErrors{}

	if len(strings.TrimSpace(f.CustomerName)) < 3 {
		errs["customer_name"] = "Name must have at least 3 characters"
	}

	if digits := countDigits(f.CustomerPhone); digits < 10 {
		errs["customer_phone"] = "Phone must have at least 10 digits"
	}

	if !validOrderTypes[f.OrderType] {
		errs["order_type"] = "Choose delivery, pickup or dine in"
	}

	if !validPaymentMethods[f.PaymentMethod] {
		errs["payment_method"] = "Choose a payment method"
	}

	if f.OrderType == order.TypeDelivery {
		if strings.TrimSpace(f.DeliveryAddress) == "" {
			errs["delivery_address"] = "Street and number are required for delivery"
		}
		if strings.TrimSpace(f.DeliveryNeighborhood) == "" {
			errs["delivery_neighborhood"] = "Neighborhood is required for delivery"
		}
	}

	if f.OrderType == order.TypeDineIn && strings.TrimSpace(f.TableNumber) == "" {
		errs["table_number"] = "Table number is required for dine in"
	}

	if f.PaymentMethod == order.PaymentCash && f.ChangeFor != nil && *f.ChangeFor <= 0 {
		errs["change_for"] = "Change amount must be positive"
	}

	return errs
}

func countDigits(s string) int {
	count := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			count++
		}
	}
	return count
}
