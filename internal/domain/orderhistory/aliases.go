package orderhistory

import "strings"

// Field is a logical column of an order-history or statement export.
type Field string

// Logical order-history fields.
const (
	FieldOrderID        Field = "order_id"
	FieldProductName    Field = "product_name"
	FieldTotalOwed      Field = "total_owed"
	FieldUnitPrice      Field = "unit_price"
	FieldQuantity       Field = "quantity"
	FieldShipDate       Field = "ship_date"
	FieldShippingOption Field = "shipping_option"
)

// Logical statement fields.
const (
	FieldDate    Field = "date"
	FieldPayee   Field = "payee"
	FieldMemo    Field = "memo"
	FieldOutflow Field = "outflow"
	FieldInflow  Field = "inflow"
	FieldAmount  Field = "amount"
	FieldTxCode  Field = "tx_code"
)

// AliasTable maps each logical field to the header names that may carry it,
// in priority order. Exports from different tools and years disagree on
// header names; the table is the single place that knows about it.
type AliasTable map[Field][]string

// DefaultAliases covers Amazon's "Your Orders" export and common synonyms.
var DefaultAliases = AliasTable{
	FieldOrderID:        {"Order ID", "order_id", "OrderID", "Order Number"},
	FieldProductName:    {"Product Name", "Title", "Item", "product_name"},
	FieldTotalOwed:      {"Total Owed", "Item Total", "Total", "total_owed"},
	FieldUnitPrice:      {"Unit Price", "Purchase Price Per Unit", "unit_price"},
	FieldQuantity:       {"Quantity", "Qty", "quantity"},
	FieldShipDate:       {"Ship Date", "Shipment Date", "ship_date"},
	FieldShippingOption: {"Shipping Option", "shipping_option"},
}

// StatementAliases covers the YNAB register export and typical bank CSVs.
var StatementAliases = AliasTable{
	FieldDate:    {"Date", "Transaction Date", "Posted Date", "date"},
	FieldPayee:   {"Payee", "Description", "Merchant", "payee"},
	FieldMemo:    {"Memo", "Notes", "memo"},
	FieldOutflow: {"Outflow", "Debit", "outflow"},
	FieldInflow:  {"Inflow", "Credit", "inflow"},
	FieldAmount:  {"Amount", "amount"},
	FieldTxCode:  {"Reference", "Transaction Code", "Transaction ID", "tx_code"},
}

// Lookup returns the first non-empty value among the field's aliases.
func (t AliasTable) Lookup(row map[string]string, field Field) (string, bool) {
	for _, key := range t[field] {
		if v, ok := row[key]; ok {
			if v = strings.TrimSpace(v); v != "" {
				return v, true
			}
		}
	}
	return "", false
}

// Value is Lookup without the presence flag.
func (t AliasTable) Value(row map[string]string, field Field) string {
	v, _ := t.Lookup(row, field)
	return v
}
