package orderhistory

import (
	"time"

	"github.com/shopspring/decimal"
)

// GroceryShippingOptions are the shipping options Amazon uses for scheduled
// grocery deliveries.
var GroceryShippingOptions = map[string]bool{
	"scheduled-houdini":     true,
	"scheduled-one-houdini": true,
}

// OrderItem is one product line of an order.
type OrderItem struct {
	Name           string
	UnitPrice      decimal.Decimal
	Quantity       int
	TotalOwed      decimal.Decimal
	ShippingOption string
	IsGrocery      bool
}

// Shipment groups the items of an order that shipped on the same date.
type Shipment struct {
	ShipDate  time.Time // zero when the date is unknown
	Total     decimal.Decimal
	Items     []OrderItem
	IsGrocery bool
}

// HasDate reports whether the shipment has a known ship date.
func (s Shipment) HasDate() bool {
	return !s.ShipDate.IsZero()
}

// Key returns the shipment's grouping key: the ISO date, or "unknown".
func (s Shipment) Key() string {
	if !s.HasDate() {
		return unknownShipmentKey
	}
	return s.ShipDate.Format("2006-01-02")
}

// Order is the indexed view of a single Amazon order.
type Order struct {
	ID        string
	Shipments []Shipment
	Items     []OrderItem
	IsGrocery bool
}

// ItemNames returns the product names of every item in the order.
func (o *Order) ItemNames() []string {
	names := make([]string, len(o.Items))
	for i, item := range o.Items {
		names[i] = item.Name
	}
	return names
}
