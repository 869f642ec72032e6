package validator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func amounts(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.RequireFromString(v)
	}
	return out
}

func TestValidateSplits(t *testing.T) {
	tests := []struct {
		name      string
		splits    []decimal.Decimal
		expected  string
		wantValid bool
		wantDiff  string
	}{
		{name: "exact", splits: amounts("-84.00", "-56.00"), expected: "-140.00", wantValid: true, wantDiff: "0"},
		{name: "one cent over", splits: amounts("-84.01", "-56.00"), expected: "-140.00", wantValid: false, wantDiff: "-0.01"},
		{name: "refund", splits: amounts("3.33", "3.33", "3.34"), expected: "10.00", wantValid: true, wantDiff: "0"},
		{name: "no splits", splits: nil, expected: "-12.00", wantValid: false, wantDiff: "12.00"},
		{name: "no splits for zero charge", splits: nil, expected: "0", wantValid: true, wantDiff: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			v := ValidateSplits(tt.splits, decimal.RequireFromString(tt.expected))

			// Assert
			assert.Equal(t, tt.wantValid, v.Valid)
			assert.True(t, v.Difference.Equal(decimal.RequireFromString(tt.wantDiff)), "diff %s", v.Difference)
			if tt.wantValid {
				assert.Empty(t, v.Reason)
			} else {
				assert.Contains(t, v.Reason, "off by")
			}
		})
	}
}

func TestToMilliunits(t *testing.T) {
	assert.Equal(t, int64(-84000), ToMilliunits(decimal.RequireFromString("-84.00")))
	assert.Equal(t, int64(12345), ToMilliunits(decimal.RequireFromString("12.345")))
	assert.Equal(t, int64(10), ToMilliunits(decimal.RequireFromString("0.0099")))
}

func TestMilliunitParts_LastPartAbsorbsDifference(t *testing.T) {
	total, parts := MilliunitParts(decimal.RequireFromString("-10.00"), amounts("-3.3333", "-3.3333", "-3.3333"))

	assert.Equal(t, int64(-10000), total)
	assert.Equal(t, []int64{-3333, -3333, -3334}, parts)
}

func TestMilliunitParts_NoSplits(t *testing.T) {
	total, parts := MilliunitParts(decimal.RequireFromString("5.50"), nil)

	assert.Equal(t, int64(5500), total)
	assert.Nil(t, parts)
}
