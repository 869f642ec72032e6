// Package splitter turns a matched and allocated charge into a ledger record.
//
// Records are built with a fixed precedence:
//   - Delivery tips become a single "Delivery Fee" split
//   - Grocery orders become a single "Groceries" split
//   - Charges with no order id, orders not in history and orders with no
//     matching shipment are flagged blue with one uncategorized split
//   - Everything else gets one split per allocated item. Items the
//     classifier never answered for stay uncategorized and the record is
//     flagged blue until a later run fills them in
//
// Split amounts always sum exactly to the charge.
package splitter

import (
	"errors"
	"fmt"
	"time"

	"github.com/charliesneath/ynab-toolkit/internal/domain/allocator"
	"github.com/charliesneath/ynab-toolkit/internal/domain/charge"
	"github.com/charliesneath/ynab-toolkit/internal/domain/matcher"
	"github.com/charliesneath/ynab-toolkit/internal/domain/orderhistory"
	"github.com/charliesneath/ynab-toolkit/internal/domain/validator"
	"github.com/shopspring/decimal"
)

// ErrPrecisionInvariant means splits did not sum to the charge.
var ErrPrecisionInvariant = errors.New("split amounts do not sum to charge")

// Config holds builder configuration
type Config struct {
	FallbackCategory string
	TipCategory      string
	GroceryCategory  string
	MemoMaxRunes     int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		FallbackCategory: "Household Supplies",
		TipCategory:      "Delivery Fee",
		GroceryCategory:  "Groceries",
		MemoMaxRunes:     50,
	}
}

// Input is everything known about one charge.
type Input struct {
	Charge charge.BankCharge

	// Order is nil when the order is not in the history.
	Order *orderhistory.Order

	Match matcher.Result
	Items []allocator.AllocatedItem

	// Categories maps item base names to categories.
	Categories map[string]string

	// Uncategorized holds base names the classifier gave no answer for.
	// Their splits get no category instead of the fallback.
	Uncategorized map[string]bool
}

// Builder creates ledger records from matched charges
type Builder struct {
	config Config
	now    func() time.Time
}

// NewBuilder creates a new builder
func NewBuilder(config Config) *Builder {
	defaults := DefaultConfig()
	if config.FallbackCategory == "" {
		config.FallbackCategory = defaults.FallbackCategory
	}
	if config.TipCategory == "" {
		config.TipCategory = defaults.TipCategory
	}
	if config.GroceryCategory == "" {
		config.GroceryCategory = defaults.GroceryCategory
	}
	if config.MemoMaxRunes <= 0 {
		config.MemoMaxRunes = defaults.MemoMaxRunes
	}
	return &Builder{config: config, now: time.Now}
}

// IsGrocery reports whether the input is a grocery purchase, either from
// the order history or from the payee text.
func IsGrocery(in Input) bool {
	if charge.IsGroceryPayee(in.Charge.Payee) {
		return true
	}
	if in.Order == nil {
		return false
	}
	if in.Match.Shipment != nil && in.Match.Shipment.IsGrocery {
		return true
	}
	return in.Order.IsGrocery
}

// Build creates the record for one charge.
func (b *Builder) Build(in Input) (*Record, error) {
	c := in.Charge
	ref := c.Reference()
	if ref == "" {
		ref = "unknown"
	}
	record := &Record{
		ImportID:      c.IdempotencyKey(),
		Date:          c.Date,
		OrderID:       c.OrderID,
		Amount:        c.Amount,
		Payee:         charge.DisplayPayee(c.Payee),
		Memo:          "Order " + ref,
		Flag:          FlagYellow,
		IsRefund:      c.IsRefund(),
		MatchStrategy: string(in.Match.Kind),
		UpdatedAt:     b.now().UTC(),
	}

	switch {
	case charge.IsTipPayee(c.Payee):
		record.Status = StatusTip
		record.MatchStrategy = ""
		record.Splits = []CategorySplit{{Category: b.config.TipCategory, Amount: c.Amount, Memo: "Delivery Tip"}}

	case IsGrocery(in):
		record.Status = StatusGrocery
		record.GroceryItems = in.Items
		record.Splits = []CategorySplit{{Category: b.config.GroceryCategory, Amount: c.Amount, Memo: "Groceries"}}

	case in.Order == nil:
		record.Status = StatusNeedsItemization
		record.Flag = FlagBlue
		record.Memo = fmt.Sprintf("Order %s - NEEDS ITEMIZATION", ref)
		record.Splits = []CategorySplit{{Amount: c.Amount, Memo: "Needs itemization"}}

	case !in.Match.Matched() || len(in.Items) == 0:
		record.Status = StatusNoShipmentMatch
		record.Flag = FlagBlue
		record.Memo = fmt.Sprintf("Order %s - NO SHIPMENT MATCH", ref)
		record.AllItems = in.Order.ItemNames()
		record.Splits = []CategorySplit{{Amount: c.Amount, Memo: "No shipment match", ItemNames: record.AllItems}}

	default:
		record.Status = StatusItemized
		record.Splits = b.itemSplits(c, in.Items, in.Categories, in.Uncategorized)
		for _, item := range in.Items {
			record.Items = append(record.Items, item.DisplayName)
		}
		if in.Match.LowConfidence {
			record.LowConfidence = true
			record.Flag = FlagOrange
			record.Memo += " - LOW CONFIDENCE MATCH"
		}
		for _, split := range record.Splits {
			if split.Category == "" {
				record.Status = StatusPendingCategories
				record.Flag = FlagBlue
				break
			}
		}
	}

	if v := validator.ValidateSplits(record.SplitAmounts(), c.Amount); !v.Valid {
		return nil, fmt.Errorf("%w: order %s: %s", ErrPrecisionInvariant, ref, v.Reason)
	}
	return record, nil
}

func (b *Builder) itemSplits(c charge.BankCharge, items []allocator.AllocatedItem, categories map[string]string, uncategorized map[string]bool) []CategorySplit {
	splits := make([]CategorySplit, len(items))
	sum := decimal.Zero
	for i, item := range items {
		category, ok := categories[item.BaseName]
		switch {
		case uncategorized[item.BaseName]:
			category = ""
		case !ok || category == "":
			category = b.config.FallbackCategory
		}

		// Match sign to the charge: negative for purchases, positive for refunds
		amount := item.Allocated.Abs()
		if c.Amount.IsNegative() {
			amount = amount.Neg()
		}

		splits[i] = CategorySplit{
			Category:  category,
			Amount:    amount,
			Memo:      truncate(item.DisplayName, b.config.MemoMaxRunes),
			ItemNames: []string{item.DisplayName},
		}
		sum = sum.Add(amount)
	}

	// Adjust the last split so splits sum to the charge exactly
	if diff := c.Amount.Sub(sum); !diff.IsZero() && len(splits) > 0 {
		last := len(splits) - 1
		splits[last].Amount = splits[last].Amount.Add(diff)
	}
	return splits
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n])
	}
	return s
}
