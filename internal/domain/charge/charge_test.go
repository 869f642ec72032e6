package charge

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestIdempotencyKey(t *testing.T) {
	tests := []struct {
		name      string
		reference string
		amount    string
		want      string
	}{
		{name: "purchase", reference: "112-1234567-1234567", amount: "-84.00", want: "AMZ2:112-1234567-1234567:8400:P"},
		{name: "refund", reference: "112-1234567-1234567", amount: "12.34", want: "AMZ2:112-1234567-1234567:1234:R"},
		{name: "sub-cent rounds", reference: "111-0000000-0000000", amount: "-0.005", want: "AMZ2:111-0000000-0000000:1:P"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IdempotencyKey(tt.reference, decimal.RequireFromString(tt.amount))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBankCharge_IdempotencyKeyIsStable(t *testing.T) {
	c := BankCharge{OrderID: "113-7654321-7654321", Amount: decimal.RequireFromString("-19.99")}

	assert.Equal(t, c.IdempotencyKey(), c.IdempotencyKey())
	assert.Equal(t, "AMZ2:113-7654321-7654321:1999:P", c.IdempotencyKey())
}

func TestBankCharge_ReferenceFallsBackToTxCode(t *testing.T) {
	c := BankCharge{TxCode: "TX99", Amount: decimal.RequireFromString("-5")}

	assert.Equal(t, "AMZ2:TX99:500:P", c.IdempotencyKey())
}

func TestBankCharge_UnreferencedChargeIsKeyedByDate(t *testing.T) {
	c := BankCharge{Date: time.Date(2025, time.January, 7, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("-12")}

	assert.Equal(t, "AMZ2:20250107:1200:P", c.IdempotencyKey())
}

func TestLegacyKeys_ContainsCurrentKey(t *testing.T) {
	amount := decimal.RequireFromString("-10.50")

	keys := LegacyKeys("112-1111111-2222222", amount)

	assert.Contains(t, keys, IdempotencyKey("112-1111111-2222222", amount))
	assert.Contains(t, keys, "AMZ:112-1111111-2222222:1050")
}

func TestExtractOrderID(t *testing.T) {
	assert.Equal(t, "112-1234567-7654321", ExtractOrderID("AMZN Mktp US Order: 112-1234567-7654321"))
	assert.Equal(t, "", ExtractOrderID("no order here"))
	assert.Equal(t, "", ExtractOrderID("112-1234567-7654321"))
	assert.Equal(t, "112-1234567-7654321", ExtractBareOrderID("ref 112-1234567-7654321 x"))
}

func TestPayeeClassification(t *testing.T) {
	assert.True(t, IsAmazonPayee("AMZN Mktp US*2K3"))
	assert.True(t, IsAmazonPayee("Amazon.com"))
	assert.False(t, IsAmazonPayee("Target"))

	assert.True(t, IsTipPayee("Amazon Tips*XYZ"))
	assert.False(t, IsTipPayee("Amazon.com"))

	assert.True(t, IsGroceryPayee("WHOLE FOODS MARKET"))
	assert.True(t, IsGroceryPayee("Amazon Grocery"))
	assert.False(t, IsGroceryPayee("Amazon.com"))
}

func TestDisplayPayee(t *testing.T) {
	assert.Equal(t, "Whole Foods", DisplayPayee("WHOLE FOODS #123"))
	assert.Equal(t, "Amazon Fresh", DisplayPayee("Amazon Fresh*AB"))
	assert.Equal(t, "Amazon.com", DisplayPayee("AMZN Mktp"))
}

func TestIsRefund(t *testing.T) {
	assert.True(t, BankCharge{Amount: decimal.NewFromInt(5)}.IsRefund())
	assert.False(t, BankCharge{Amount: decimal.NewFromInt(-5)}.IsRefund())
}
