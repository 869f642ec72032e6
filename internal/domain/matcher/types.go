package matcher

import (
	"github.com/charliesneath/ynab-toolkit/internal/domain/orderhistory"
	"github.com/shopspring/decimal"
)

// Kind identifies which strategy produced a match.
type Kind string

// Match strategies, in precedence order.
const (
	KindDate       Kind = "date"
	KindAmount     Kind = "amount"
	KindSingleItem Kind = "single_item"
	KindBestFit    Kind = "best_fit"
	KindNone       Kind = "none"
)

// Config holds matcher configuration
type Config struct {
	MaxDaysAfterShip int             // Default: 7
	AmountTolerance  decimal.Decimal // Default: 1.00, exclusive
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		MaxDaysAfterShip: 7,
		AmountTolerance:  decimal.NewFromInt(1),
	}
}

// Result contains match information
type Result struct {
	Kind     Kind
	Shipment *orderhistory.Shipment  // set for date, amount and best-fit matches
	Item     *orderhistory.OrderItem // set for single-item matches

	DaysAfterShip int             // date matches only
	AmountDiff    decimal.Decimal // |candidate total - |charge||

	// LowConfidence marks best-fit matches, which have no amount bound.
	LowConfidence bool
}

// Matched reports whether any strategy produced a match.
func (r Result) Matched() bool {
	return r.Kind != KindNone
}
