// Package charge models a single bank or credit-card charge and the
// helpers used to recognize Amazon charges on a statement.
//
// A BankCharge carries a signed amount: negative for purchases (outflow),
// positive for refunds (inflow). Its idempotency key is stable across runs
// and is used as the ledger import id:
//
//	AMZ2:{order_id}:{abs(amount) in cents}:{P|R}
package charge

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// KeyPrefix is the version prefix of idempotency keys.
const KeyPrefix = "AMZ2"

var orderIDPattern = regexp.MustCompile(`Order:\s*(\d{3}-\d{7}-\d{7})`)

// bareOrderIDPattern matches an order id without the "Order:" label.
var bareOrderIDPattern = regexp.MustCompile(`\b(\d{3}-\d{7}-\d{7})\b`)

var groceryPayeeMarkers = []string{"amazon fresh", "whole foods", "amazon groce"}

// BankCharge is one statement row attributed to an Amazon order.
type BankCharge struct {
	Date    time.Time
	Amount  decimal.Decimal
	OrderID string
	TxCode  string
	Payee   string
	Memo    string
}

// IsRefund reports whether the charge is an inflow.
func (c BankCharge) IsRefund() bool {
	return c.Amount.IsPositive()
}

// AbsAmount returns the unsigned charge amount.
func (c BankCharge) AbsAmount() decimal.Decimal {
	return c.Amount.Abs()
}

// Reference returns the order id, or the transaction code when the order id is unknown.
func (c BankCharge) Reference() string {
	if c.OrderID != "" {
		return c.OrderID
	}
	return c.TxCode
}

// IdempotencyKey returns the stable import id for the charge. Charges with
// neither an order id nor a transaction code are keyed by date.
func (c BankCharge) IdempotencyKey() string {
	ref := c.Reference()
	if ref == "" {
		ref = c.Date.Format("20060102")
	}
	return IdempotencyKey(ref, c.Amount)
}

// IdempotencyKey builds an import id from an order reference and a signed amount.
func IdempotencyKey(reference string, amount decimal.Decimal) string {
	direction := "P"
	if amount.IsPositive() {
		direction = "R"
	}
	cents := amount.Abs().Shift(2).Round(0).IntPart()
	return fmt.Sprintf("%s:%s:%d:%s", KeyPrefix, reference, cents, direction)
}

// LegacyKeys returns the import ids older versions of the toolkit produced for
// the same order and amount. Used to recognize records synced before AMZ2.
func LegacyKeys(reference string, amount decimal.Decimal) []string {
	direction := "P"
	if amount.IsPositive() {
		direction = "R"
	}
	cents := amount.Abs().Shift(2).Round(0).IntPart()
	return []string{
		fmt.Sprintf("AMZ:%s:%d", reference, cents),
		fmt.Sprintf("%s:%s:%d:%s", KeyPrefix, reference, cents, direction),
		fmt.Sprintf("AMZ3:%s:%d:%s", reference, cents, direction),
	}
}

// ExtractOrderID finds an Amazon order id in free text such as a statement memo.
func ExtractOrderID(text string) string {
	if m := orderIDPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// ExtractBareOrderID is like ExtractOrderID but also accepts ids without the "Order:" label.
func ExtractBareOrderID(text string) string {
	if id := ExtractOrderID(text); id != "" {
		return id
	}
	if m := bareOrderIDPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// IsAmazonPayee reports whether a payee belongs to Amazon.
func IsAmazonPayee(payee string) bool {
	p := strings.ToLower(payee)
	return strings.Contains(p, "amazon") || strings.Contains(p, "amzn")
}

// IsTipPayee reports whether the payee is an Amazon delivery tip.
func IsTipPayee(payee string) bool {
	return strings.Contains(strings.ToLower(payee), "amazon tips")
}

// IsGroceryPayee reports whether the payee text indicates a grocery order.
func IsGroceryPayee(payee string) bool {
	p := strings.ToLower(payee)
	for _, marker := range groceryPayeeMarkers {
		if strings.Contains(p, marker) {
			return true
		}
	}
	return false
}

// DisplayPayee maps a raw statement payee to the name written to the ledger.
func DisplayPayee(payee string) string {
	p := strings.ToLower(payee)
	switch {
	case strings.Contains(p, "whole foods"):
		return "Whole Foods"
	case strings.Contains(p, "amazon fresh"):
		return "Amazon Fresh"
	default:
		return "Amazon.com"
	}
}
