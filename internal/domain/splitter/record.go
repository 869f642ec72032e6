package splitter

import (
	"time"

	"github.com/charliesneath/ynab-toolkit/internal/domain/allocator"
	"github.com/shopspring/decimal"
)

// Flag is the ledger flag color of a record.
type Flag string

const (
	FlagYellow Flag = "yellow" // itemized with confidence
	FlagOrange Flag = "orange" // itemized from a best-fit match
	FlagBlue   Flag = "blue"   // needs manual itemization
)

// Status describes how a record was built.
type Status string

const (
	StatusItemized         Status = "itemized"
	StatusTip              Status = "tip"
	StatusGrocery          Status = "grocery"
	StatusNeedsItemization Status = "needs_itemization"
	StatusNoShipmentMatch  Status = "no_shipment_match"

	// StatusPendingCategories has items the classifier did not answer for.
	// The charge is rebuilt on the next run.
	StatusPendingCategories Status = "pending_categories"
)

// CategorySplit is one line of an itemized transaction.
type CategorySplit struct {
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"` // signed like the parent
	Memo      string          `json:"memo"`
	ItemNames []string        `json:"item_names,omitempty"`
}

// Record is an itemized (or flagged) transaction ready for the ledger.
type Record struct {
	ImportID      string                    `json:"import_id"`
	Date          time.Time                 `json:"date"`
	OrderID       string                    `json:"order_id"`
	Amount        decimal.Decimal           `json:"amount"`
	Payee         string                    `json:"payee"`
	Memo          string                    `json:"memo"`
	Flag          Flag                      `json:"flag"`
	Status        Status                    `json:"status"`
	IsRefund      bool                      `json:"is_refund"`
	LowConfidence bool                      `json:"low_confidence"`
	MatchStrategy string                    `json:"match_strategy,omitempty"`
	Splits        []CategorySplit           `json:"splits"`
	Items         []string                  `json:"items,omitempty"`
	GroceryItems  []allocator.AllocatedItem `json:"grocery_items,omitempty"`
	AllItems      []string                  `json:"all_items,omitempty"`
	UpdatedAt     time.Time                 `json:"updated_at"`
}

// NeedsAttention reports whether a person should review the record.
func (r *Record) NeedsAttention() bool {
	return r.Flag != FlagYellow
}

// Settled reports whether the record is final until forced.
func (r *Record) Settled() bool {
	return r.Status != StatusPendingCategories
}

// SplitAmounts returns the split amounts in order.
func (r *Record) SplitAmounts() []decimal.Decimal {
	out := make([]decimal.Decimal, len(r.Splits))
	for i, s := range r.Splits {
		out[i] = s.Amount
	}
	return out
}

// CategoryNames returns the distinct split categories in order.
func (r *Record) CategoryNames() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range r.Splits {
		if s.Category != "" && !seen[s.Category] {
			seen[s.Category] = true
			out = append(out, s.Category)
		}
	}
	return out
}
