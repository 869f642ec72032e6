// Package statements reads bank and credit-card statements into charges.
//
// Two formats are supported: a header-keyed CSV register (the YNAB register
// export and most bank CSVs) and OFX/QFX downloads. Readers return every row;
// callers decide which rows are Amazon charges.
package statements

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charliesneath/ynab-toolkit/internal/domain/charge"
	"github.com/charliesneath/ynab-toolkit/internal/domain/orderhistory"
	"github.com/shopspring/decimal"
)

var registerDateLayouts = []string{
	"01/02/2006",
	"2006-01-02",
	"01/02/06",
}

// ParseRegisterDate parses a register date in any supported layout.
func ParseRegisterDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range registerDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date %q", s)
}

// ReadRegister reads a CSV register. Rows without a parsable date or amount
// are logged and skipped.
func ReadRegister(r io.Reader, aliases orderhistory.AliasTable, logger *slog.Logger) ([]charge.BankCharge, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if aliases == nil {
		aliases = orderhistory.StatementAliases
	}

	rows, err := orderhistory.ReadCSV(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read register: %w", err)
	}

	charges := make([]charge.BankCharge, 0, len(rows))
	for i, row := range rows {
		c, err := registerCharge(row, aliases)
		if err != nil {
			logger.Debug("skipping register row", "row", i+2, "error", err)
			continue
		}
		charges = append(charges, c)
	}
	return charges, nil
}

func registerCharge(row map[string]string, aliases orderhistory.AliasTable) (charge.BankCharge, error) {
	date, err := ParseRegisterDate(aliases.Value(row, orderhistory.FieldDate))
	if err != nil {
		return charge.BankCharge{}, err
	}
	amount, err := registerAmount(row, aliases)
	if err != nil {
		return charge.BankCharge{}, err
	}

	payee := aliases.Value(row, orderhistory.FieldPayee)
	memo := aliases.Value(row, orderhistory.FieldMemo)
	return charge.BankCharge{
		Date:    date,
		Amount:  amount,
		OrderID: charge.ExtractOrderID(memo),
		TxCode:  aliases.Value(row, orderhistory.FieldTxCode),
		Payee:   payee,
		Memo:    memo,
	}, nil
}

// registerAmount returns inflow minus outflow, or the signed Amount column
// when the register has no inflow/outflow columns.
func registerAmount(row map[string]string, aliases orderhistory.AliasTable) (decimal.Decimal, error) {
	outflow, hasOut := aliases.Lookup(row, orderhistory.FieldOutflow)
	inflow, hasIn := aliases.Lookup(row, orderhistory.FieldInflow)
	if !hasOut && !hasIn {
		raw, ok := aliases.Lookup(row, orderhistory.FieldAmount)
		if !ok {
			return decimal.Zero, fmt.Errorf("no amount column")
		}
		return orderhistory.ParseAmount(raw)
	}

	amount := decimal.Zero
	if hasIn {
		in, err := orderhistory.ParseAmount(inflow)
		if err != nil {
			return decimal.Zero, err
		}
		amount = amount.Add(in)
	}
	if hasOut {
		out, err := orderhistory.ParseAmount(outflow)
		if err != nil {
			return decimal.Zero, err
		}
		amount = amount.Sub(out)
	}
	return amount, nil
}
