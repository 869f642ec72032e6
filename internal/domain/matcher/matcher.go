// Package matcher decides which shipment of an order a bank charge pays for.
//
// Amazon charges each shipment separately, so one order can produce several
// charges. Strategies are tried in strict precedence:
//   - Date: shipped 0-7 days before the charge, closest wins
//   - Amount: shipment total within $1.00 of the charge
//   - Single item: one item's total within $1.00 of the charge
//   - Best fit: smallest amount difference, flagged low confidence
//
// Example usage:
//
//	m := matcher.NewMatcher(matcher.DefaultConfig())
//	result := m.Match(charge, order.Shipments, order.Items)
//	if result.Kind == matcher.KindSingleItem {
//		// the whole charge belongs to result.Item
//	}
package matcher

import (
	"time"

	"github.com/charliesneath/ynab-toolkit/internal/domain/charge"
	"github.com/charliesneath/ynab-toolkit/internal/domain/orderhistory"
)

// Matcher matches charges with order shipments
type Matcher struct {
	config Config
}

// NewMatcher creates a new matcher with the given config
func NewMatcher(config Config) *Matcher {
	return &Matcher{
		config: config,
	}
}

// Match finds the shipment (or item) a charge pays for. It is deterministic
// for identical input; ties resolve to the earliest element in slice order.
func (m *Matcher) Match(c charge.BankCharge, shipments []orderhistory.Shipment, items []orderhistory.OrderItem) Result {
	if r, ok := m.byDate(c, shipments); ok {
		return r
	}
	if r, ok := m.byAmount(c, shipments); ok {
		return r
	}
	if r, ok := m.bySingleItem(c, items); ok {
		return r
	}
	if r, ok := m.bestFit(c, shipments); ok {
		return r
	}
	return Result{Kind: KindNone}
}

func (m *Matcher) byDate(c charge.BankCharge, shipments []orderhistory.Shipment) (Result, bool) {
	if c.Date.IsZero() {
		return Result{}, false
	}

	best := -1
	bestDays := 0
	for i, s := range shipments {
		if !s.HasDate() {
			continue
		}
		days := daysBetween(s.ShipDate, c.Date)
		if days < 0 || days > m.config.MaxDaysAfterShip {
			continue
		}
		if best == -1 || days < bestDays {
			best = i
			bestDays = days
		}
	}
	if best == -1 {
		return Result{}, false
	}

	s := &shipments[best]
	return Result{
		Kind:          KindDate,
		Shipment:      s,
		DaysAfterShip: bestDays,
		AmountDiff:    s.Total.Sub(c.AbsAmount()).Abs(),
	}, true
}

func (m *Matcher) byAmount(c charge.BankCharge, shipments []orderhistory.Shipment) (Result, bool) {
	amount := c.AbsAmount()
	for i := range shipments {
		diff := shipments[i].Total.Sub(amount).Abs()
		if diff.LessThan(m.config.AmountTolerance) {
			return Result{Kind: KindAmount, Shipment: &shipments[i], AmountDiff: diff}, true
		}
	}
	return Result{}, false
}

func (m *Matcher) bySingleItem(c charge.BankCharge, items []orderhistory.OrderItem) (Result, bool) {
	amount := c.AbsAmount()
	for i := range items {
		diff := items[i].TotalOwed.Sub(amount).Abs()
		if diff.LessThan(m.config.AmountTolerance) {
			return Result{Kind: KindSingleItem, Item: &items[i], AmountDiff: diff}, true
		}
	}
	return Result{}, false
}

func (m *Matcher) bestFit(c charge.BankCharge, shipments []orderhistory.Shipment) (Result, bool) {
	if len(shipments) == 0 {
		return Result{}, false
	}

	amount := c.AbsAmount()
	best := 0
	bestDiff := shipments[0].Total.Sub(amount).Abs()
	for i := 1; i < len(shipments); i++ {
		diff := shipments[i].Total.Sub(amount).Abs()
		if diff.LessThan(bestDiff) {
			best = i
			bestDiff = diff
		}
	}

	return Result{
		Kind:          KindBestFit,
		Shipment:      &shipments[best],
		AmountDiff:    bestDiff,
		LowConfidence: true,
	}, true
}

// daysBetween returns whole calendar days from a to b.
func daysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
