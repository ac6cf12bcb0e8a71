package order

import (
	"github.com/adrian08041/cardapio/pkg/enums/station"
)

// OrderItem is a single line of an order. Items are fixed at creation;
// this system does not support post-creation item edits.
type OrderItem struct {
	ProductID string   `json:"product_id"`
	Name      string   `json:"name"`
	Quantity  int      `json:"quantity"`
	UnitPrice float64  `json:"unit_price"`
	Notes     string   `json:"notes,omitempty"`
	Station   string   `json:"station,omitempty"`
	Addons    []string `json:"addons,omitempty"`
}

// StationEnum resolves the item's production station, routing unset or
// unknown codes to the kitchen.
func (oi OrderItem) StationEnum() station.Station {
	return station.Normalize(oi.Station)
}

// LineTotal returns quantity times unit price.
func (oi OrderItem) LineTotal() float64 {
	return float64(oi.Quantity) * oi.UnitPrice
}

// ItemsForStation derives the display-only subset of items routed to st.
// The canonical list is never mutated; callers get a fresh slice.
func ItemsForStation(items []OrderItem, st station.Station) []OrderItem {
	var result []OrderItem
	for _, item := range items {
		if item.StationEnum() == st {
			result = append(result, item)
		}
	}
	return result
}
