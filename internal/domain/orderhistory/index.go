// Package orderhistory indexes Amazon order-history exports by order id.
//
// Rows are grouped per order into shipments by ship date. Items without a
// usable ship date share one "unknown" shipment, which always sorts last:
//
//	idx := orderhistory.Load(rows, orderhistory.DefaultAliases)
//	order, ok := idx.Lookup("112-1234567-1234567")
//	if !ok {
//		// not in history: the charge needs manual itemization
//	}
package orderhistory

import (
	"sort"

	"github.com/shopspring/decimal"
)

const unknownShipmentKey = "unknown"

// Index is an immutable order-id keyed view of the order history.
type Index struct {
	orders  map[string]*Order
	dropped int
}

// Lookup returns the order with the given id. The boolean is false when the
// order is not in the history at all, which callers must treat differently
// from an order that was found but has nothing to match.
func (idx *Index) Lookup(orderID string) (*Order, bool) {
	order, ok := idx.orders[orderID]
	return order, ok
}

// Len returns the number of indexed orders.
func (idx *Index) Len() int {
	return len(idx.orders)
}

// Dropped returns how many rows were discarded for a missing order id or price.
func (idx *Index) Dropped() int {
	return idx.dropped
}

type orderBuilder struct {
	items     []OrderItem
	shipments map[string]*Shipment
	order     []string
}

// Load builds an Index from raw rows keyed by header name.
func Load(rows []map[string]string, aliases AliasTable) *Index {
	if aliases == nil {
		aliases = DefaultAliases
	}

	builders := make(map[string]*orderBuilder)
	var orderIDs []string
	dropped := 0

	for _, row := range rows {
		orderID, ok := aliases.Lookup(row, FieldOrderID)
		if !ok {
			dropped++
			continue
		}
		total, err := ParseAmount(aliases.Value(row, FieldTotalOwed))
		if err != nil || total.IsZero() {
			dropped++
			continue
		}

		item := newItem(row, aliases, total)

		b, exists := builders[orderID]
		if !exists {
			b = &orderBuilder{shipments: make(map[string]*Shipment)}
			builders[orderID] = b
			orderIDs = append(orderIDs, orderID)
		}
		b.add(item, aliases.Value(row, FieldShipDate))
	}

	orders := make(map[string]*Order, len(builders))
	for _, id := range orderIDs {
		orders[id] = builders[id].build(id)
	}

	return &Index{orders: orders, dropped: dropped}
}

func newItem(row map[string]string, aliases AliasTable, total decimal.Decimal) OrderItem {
	name, ok := aliases.Lookup(row, FieldProductName)
	if !ok {
		name = "Unknown Item"
	}
	qty := parseQuantity(aliases.Value(row, FieldQuantity))

	unit, err := ParseAmount(aliases.Value(row, FieldUnitPrice))
	if err != nil {
		unit = total.Div(decimal.NewFromInt(int64(qty))).Round(2)
	}

	option := aliases.Value(row, FieldShippingOption)
	return OrderItem{
		Name:           name,
		UnitPrice:      unit,
		Quantity:       qty,
		TotalOwed:      total,
		ShippingOption: option,
		IsGrocery:      GroceryShippingOptions[option],
	}
}

func (b *orderBuilder) add(item OrderItem, rawShipDate string) {
	b.items = append(b.items, item)

	key := unknownShipmentKey
	shipDate, err := ParseShipDate(rawShipDate)
	if err == nil {
		key = shipDate.Format("2006-01-02")
	}

	s, ok := b.shipments[key]
	if !ok {
		s = &Shipment{ShipDate: shipDate, Total: decimal.Zero}
		b.shipments[key] = s
		b.order = append(b.order, key)
	}
	s.Items = append(s.Items, item)
	s.Total = s.Total.Add(item.TotalOwed)
}

func (b *orderBuilder) build(id string) *Order {
	shipments := make([]Shipment, 0, len(b.order))
	for _, key := range b.order {
		s := b.shipments[key]
		s.IsGrocery = allGrocery(s.Items)
		shipments = append(shipments, *s)
	}

	sort.SliceStable(shipments, func(i, j int) bool {
		a, c := shipments[i], shipments[j]
		if a.HasDate() != c.HasDate() {
			return a.HasDate()
		}
		return a.ShipDate.Before(c.ShipDate)
	})

	isGrocery := len(shipments) > 0
	for _, s := range shipments {
		if !s.IsGrocery {
			isGrocery = false
			break
		}
	}

	return &Order{
		ID:        id,
		Shipments: shipments,
		Items:     b.items,
		IsGrocery: isGrocery,
	}
}

func allGrocery(items []OrderItem) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if !item.IsGrocery {
			return false
		}
	}
	return true
}
