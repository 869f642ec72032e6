package matcher

import (
	"testing"
	"time"

	"github.com/charliesneath/ynab-toolkit/internal/domain/charge"
	"github.com/charliesneath/ynab-toolkit/internal/domain/orderhistory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Helper to create test shipment
func makeShipment(date time.Time, totals ...string) orderhistory.Shipment {
	s := orderhistory.Shipment{ShipDate: date, Total: decimal.Zero}
	for i, total := range totals {
		amount := decimal.RequireFromString(total)
		s.Items = append(s.Items, orderhistory.OrderItem{
			Name:      "item" + string(rune('A'+i)),
			Quantity:  1,
			TotalOwed: amount,
		})
		s.Total = s.Total.Add(amount)
	}
	return s
}

func makeCharge(date time.Time, amount string) charge.BankCharge {
	return charge.BankCharge{Date: date, Amount: decimal.RequireFromString(amount), OrderID: "112-0000000-0000000"}
}

func itemsOf(shipments []orderhistory.Shipment) []orderhistory.OrderItem {
	var items []orderhistory.OrderItem
	for _, s := range shipments {
		items = append(items, s.Items...)
	}
	return items
}

func TestMatcher_DateProximityPicksClosestShipment(t *testing.T) {
	// Arrange
	m := NewMatcher(DefaultConfig())
	shipments := []orderhistory.Shipment{
		makeShipment(day(2025, 1, 2), "50.00"),
		makeShipment(day(2025, 1, 4), "30.00"),
	}
	c := makeCharge(day(2025, 1, 5), "-84.00")

	// Act
	result := m.Match(c, shipments, itemsOf(shipments))

	// Assert
	assert.Equal(t, KindDate, result.Kind)
	require.NotNil(t, result.Shipment)
	assert.Equal(t, "2025-01-04", result.Shipment.Key())
	assert.Equal(t, 1, result.DaysAfterShip)
	assert.False(t, result.LowConfidence)
}

func TestMatcher_DateTieResolvesToFirstShipment(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	first := makeShipment(day(2025, 1, 3), "10.00")
	second := makeShipment(day(2025, 1, 3), "20.00")
	c := makeCharge(day(2025, 1, 4), "-20.00")

	result := m.Match(c, []orderhistory.Shipment{first, second}, nil)

	assert.Equal(t, KindDate, result.Kind)
	assert.True(t, result.Shipment.Total.Equal(decimal.NewFromInt(10)))
}

func TestMatcher_DateWindowBounds(t *testing.T) {
	tests := []struct {
		name       string
		chargeDate time.Time
		wantKind   Kind
	}{
		{name: "same day", chargeDate: day(2025, 1, 10), wantKind: KindDate},
		{name: "seven days after", chargeDate: day(2025, 1, 17), wantKind: KindDate},
		{name: "eight days after", chargeDate: day(2025, 1, 18), wantKind: KindBestFit},
		{name: "charged before shipping", chargeDate: day(2025, 1, 9), wantKind: KindBestFit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatcher(DefaultConfig())
			shipments := []orderhistory.Shipment{makeShipment(day(2025, 1, 10), "40.00")}

			result := m.Match(makeCharge(tt.chargeDate, "-99.00"), shipments, itemsOf(shipments))

			assert.Equal(t, tt.wantKind, result.Kind)
		})
	}
}

func TestMatcher_AmountMatchWhenNoDateQualifies(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	shipments := []orderhistory.Shipment{
		makeShipment(time.Time{}, "25.00"),
		makeShipment(time.Time{}, "60.00", "14.50"),
	}
	c := makeCharge(day(2025, 2, 1), "-74.99")

	result := m.Match(c, shipments, itemsOf(shipments))

	assert.Equal(t, KindAmount, result.Kind)
	assert.True(t, result.Shipment.Total.Equal(decimal.RequireFromString("74.50")))
	assert.True(t, result.AmountDiff.Equal(decimal.RequireFromString("0.49")))
}

func TestMatcher_AmountToleranceIsExclusive(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	shipments := []orderhistory.Shipment{makeShipment(time.Time{}, "10.00", "10.00")}

	result := m.Match(makeCharge(time.Time{}, "-21.00"), shipments, itemsOf(shipments))

	assert.Equal(t, KindBestFit, result.Kind)
}

func TestMatcher_SingleItemMatch(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	shipments := []orderhistory.Shipment{makeShipment(time.Time{}, "12.00", "45.25", "3.00")}

	result := m.Match(makeCharge(day(2025, 3, 1), "-45.00"), shipments, itemsOf(shipments))

	assert.Equal(t, KindSingleItem, result.Kind)
	require.NotNil(t, result.Item)
	assert.Equal(t, "itemB", result.Item.Name)
	assert.Nil(t, result.Shipment)
}

func TestMatcher_BestFitIsLowConfidence(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	shipments := []orderhistory.Shipment{
		makeShipment(time.Time{}, "100.00"),
		makeShipment(time.Time{}, "40.00", "20.00"),
	}

	result := m.Match(makeCharge(day(2025, 3, 1), "-70.00"), shipments, itemsOf(shipments))

	assert.Equal(t, KindBestFit, result.Kind)
	assert.True(t, result.LowConfidence)
	assert.True(t, result.Shipment.Total.Equal(decimal.NewFromInt(60)))
	assert.True(t, result.AmountDiff.Equal(decimal.NewFromInt(10)))
}

func TestMatcher_NoShipmentsIsNoMatch(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	result := m.Match(makeCharge(day(2025, 3, 1), "-10.00"), nil, nil)

	assert.Equal(t, KindNone, result.Kind)
	assert.False(t, result.Matched())
}

func TestMatcher_RefundsMatchOnAbsoluteAmount(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	shipments := []orderhistory.Shipment{makeShipment(time.Time{}, "19.99")}

	result := m.Match(makeCharge(day(2025, 3, 1), "19.99"), shipments, itemsOf(shipments))

	assert.Equal(t, KindAmount, result.Kind)
}

func TestMatcher_Deterministic(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	shipments := []orderhistory.Shipment{
		makeShipment(day(2025, 1, 2), "50.00"),
		makeShipment(day(2025, 1, 4), "30.00"),
		makeShipment(time.Time{}, "5.00"),
	}
	c := makeCharge(day(2025, 1, 20), "-33.00")

	first := m.Match(c, shipments, itemsOf(shipments))
	for i := 0; i < 10; i++ {
		again := m.Match(c, shipments, itemsOf(shipments))
		assert.Equal(t, first.Kind, again.Kind)
		assert.Same(t, first.Shipment, again.Shipment)
	}
}
