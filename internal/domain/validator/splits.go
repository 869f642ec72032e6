// Package validator checks the exact-sum invariant of itemized transactions.
//
// Splits written to the ledger must add up to the parent amount to the cent.
// Allocation and split building are constructed to guarantee this; the
// validator is the last gate before a record is stored or synced.
package validator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SplitValidation contains the result of validating split amounts.
type SplitValidation struct {
	// Valid is true if the splits sum exactly to the expected amount
	Valid bool

	// SplitsSum is the sum of all split amounts
	SplitsSum decimal.Decimal

	// Expected is the parent transaction amount
	Expected decimal.Decimal

	// Difference is SplitsSum - Expected
	Difference decimal.Decimal

	// Reason explains why validation failed (empty if valid)
	Reason string
}

// ValidateSplits checks that amounts sum exactly to expected. An empty
// list sums to zero.
func ValidateSplits(amounts []decimal.Decimal, expected decimal.Decimal) *SplitValidation {
	sum := decimal.Zero
	for _, amount := range amounts {
		sum = sum.Add(amount)
	}
	diff := sum.Sub(expected)

	v := &SplitValidation{
		Valid:      diff.IsZero(),
		SplitsSum:  sum,
		Expected:   expected,
		Difference: diff,
	}
	if !v.Valid {
		v.Reason = fmt.Sprintf("splits sum to %s, expected %s (off by %s)",
			sum.StringFixed(2), expected.StringFixed(2), diff.StringFixed(2))
	}
	return v
}

// ToMilliunits converts a currency amount to ledger milliunits.
func ToMilliunits(amount decimal.Decimal) int64 {
	return amount.Shift(3).Round(0).IntPart()
}

// MilliunitParts converts split amounts to milliunits, moving any rounding
// difference onto the last part so the parts sum to the parent exactly.
func MilliunitParts(parent decimal.Decimal, amounts []decimal.Decimal) (int64, []int64) {
	total := ToMilliunits(parent)
	if len(amounts) == 0 {
		return total, nil
	}

	parts := make([]int64, len(amounts))
	var sum int64
	for i, amount := range amounts {
		parts[i] = ToMilliunits(amount)
		sum += parts[i]
	}
	parts[len(parts)-1] += total - sum
	return total, parts
}
