// Package allocator provides cost allocation logic for shipment items.
//
// The pro-rata allocator distributes a bank charge across the items of the
// matched shipment proportionally to their totals. This absorbs tax,
// discounts and partial charges in one ratio:
//
//	ratio = charge / shipment_total
//	item_i = round(item_total_i * ratio, 2)   for every item but the last
//	item_last = charge - sum(item_0 .. item_n-2)
//
// The last item absorbs the rounding residual, so allocations always sum
// exactly to the charge.
package allocator

import (
	"fmt"

	"github.com/charliesneath/ynab-toolkit/internal/domain/orderhistory"
	"github.com/shopspring/decimal"
)

// AllocatedItem is one item's share of a charge.
type AllocatedItem struct {
	DisplayName   string // "N x Name" when quantity > 1
	BaseName      string // unprefixed product name, used for categorization
	Allocated     decimal.Decimal
	OriginalTotal decimal.Decimal
	Quantity      int
}

// Allocate distributes the unsigned charge amount across the shipment's items.
// A zero-total shipment has nothing to scale against; each item keeps its raw total.
func Allocate(chargeAmount decimal.Decimal, shipment orderhistory.Shipment) []AllocatedItem {
	items := shipment.Items
	if len(items) == 0 {
		return nil
	}

	amount := chargeAmount.Abs()
	allocations := make([]AllocatedItem, len(items))

	if shipment.Total.IsZero() {
		for i, item := range items {
			allocations[i] = newAllocation(item, item.TotalOwed)
		}
		return allocations
	}

	allocated := decimal.Zero
	last := len(items) - 1
	for i, item := range items[:last] {
		share := item.TotalOwed.Mul(amount).Div(shipment.Total).Round(2)
		allocations[i] = newAllocation(item, share)
		allocated = allocated.Add(share)
	}
	allocations[last] = newAllocation(items[last], amount.Sub(allocated))

	return allocations
}

// AllocateSingle assigns the full charge to one item, for single-item matches.
func AllocateSingle(chargeAmount decimal.Decimal, item orderhistory.OrderItem) []AllocatedItem {
	return []AllocatedItem{newAllocation(item, chargeAmount.Abs())}
}

// Sum totals the allocated amounts.
func Sum(items []AllocatedItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Allocated)
	}
	return total
}

// DisplayName prefixes the quantity for multi-unit items.
func DisplayName(name string, quantity int) string {
	if quantity > 1 {
		return fmt.Sprintf("%d x %s", quantity, name)
	}
	return name
}

func newAllocation(item orderhistory.OrderItem, amount decimal.Decimal) AllocatedItem {
	return AllocatedItem{
		DisplayName:   DisplayName(item.Name, item.Quantity),
		BaseName:      item.Name,
		Allocated:     amount,
		OriginalTotal: item.TotalOwed,
		Quantity:      item.Quantity,
	}
}
