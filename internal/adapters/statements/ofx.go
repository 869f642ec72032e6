package statements

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/charliesneath/ynab-toolkit/internal/domain/charge"
	"github.com/shopspring/decimal"
)

var (
	severityPattern = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)`)
	openTagPattern  = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// preprocessOFX fixes formatting issues some banks ship in SGML OFX files.
func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityPattern.ReplaceAllStringFunc(content, strings.ToUpper)
	return openTagPattern.ReplaceAllString(content, "$1>")
}

// ReadOFX reads bank and credit-card statements from an OFX or QFX file.
func ReadOFX(r io.Reader, logger *slog.Logger) ([]charge.BankCharge, error) {
	if logger == nil {
		logger = slog.Default()
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}
	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var charges []charge.BankCharge
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			charges = append(charges, convertTransactions(stmt.BankTranList.Transactions, logger)...)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			charges = append(charges, convertTransactions(stmt.BankTranList.Transactions, logger)...)
		}
	}

	logger.Info("parsed OFX statement", "charges", len(charges))
	return charges, nil
}

func convertTransactions(txns []ofxgo.Transaction, logger *slog.Logger) []charge.BankCharge {
	charges := make([]charge.BankCharge, 0, len(txns))
	for _, tx := range txns {
		amount, err := decimal.NewFromString(tx.TrnAmt.FloatString(2))
		if err != nil {
			logger.Warn("skipping OFX transaction with bad amount", "fitid", tx.FiTID, "error", err)
			continue
		}

		payee := string(tx.Name)
		if tx.Payee != nil && tx.Payee.Name != "" {
			payee = string(tx.Payee.Name)
		}
		memo := string(tx.Memo)
		posted := tx.DtPosted.Time.UTC()

		charges = append(charges, charge.BankCharge{
			Date:    posted,
			Amount:  amount,
			OrderID: charge.ExtractBareOrderID(memo),
			TxCode:  string(tx.FiTID),
			Payee:   strings.TrimSpace(payee),
			Memo:    memo,
		})
	}
	return charges
}
