package sync

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/charliesneath/ynab-toolkit/internal/adapters/ynab"
	"github.com/charliesneath/ynab-toolkit/internal/domain/charge"
	"github.com/charliesneath/ynab-toolkit/internal/domain/splitter"
	"github.com/charliesneath/ynab-toolkit/internal/domain/validator"
	"github.com/shopspring/decimal"
)

// memoCompareRunes is how much of a split memo decides whether it changed.
const memoCompareRunes = 50

// indexRemote maps import ids to live remote transactions. Transactions
// created before import ids were stable are also indexed under every key an
// "Order <id>" memo could have produced.
func indexRemote(txns []ynab.Transaction) map[string]*ynab.Transaction {
	idx := make(map[string]*ynab.Transaction, len(txns))
	for i := range txns {
		tx := &txns[i]
		if !tx.Deleted && tx.ImportID != "" {
			idx[tx.ImportID] = tx
		}
	}
	for i := range txns {
		tx := &txns[i]
		if tx.Deleted {
			continue
		}
		orderID := charge.ExtractBareOrderID(tx.Memo)
		if orderID == "" {
			continue
		}
		for _, key := range charge.LegacyKeys(orderID, decimal.New(tx.Amount, -3)) {
			if _, taken := idx[key]; !taken {
				idx[key] = tx
			}
		}
	}
	return idx
}

// toSaveTransaction converts a record to the ledger's create payload. A
// single split becomes the parent's category; several become subtransactions.
func toSaveTransaction(record *splitter.Record, accountID string, categories *ynab.CategoryIndex) (ynab.SaveTransaction, []string) {
	total, parts := validator.MilliunitParts(record.Amount, record.SplitAmounts())
	tx := ynab.SaveTransaction{
		AccountID: accountID,
		Date:      record.Date.Format("2006-01-02"),
		Amount:    total,
		PayeeName: record.Payee,
		Memo:      record.Memo,
		FlagColor: string(record.Flag),
		ImportID:  record.ImportID,
	}

	var missing []string
	categoryID := func(name string) string {
		if name == "" {
			return ""
		}
		id, ok := categories.Find(name)
		if !ok {
			missing = append(missing, name)
		}
		return id
	}

	switch len(record.Splits) {
	case 0:
	case 1:
		tx.CategoryID = categoryID(record.Splits[0].Category)
	default:
		tx.Subtransactions = make([]ynab.SaveSubtransaction, len(record.Splits))
		for i, split := range record.Splits {
			tx.Subtransactions[i] = ynab.SaveSubtransaction{
				Amount:     parts[i],
				Memo:       split.Memo,
				CategoryID: categoryID(split.Category),
			}
		}
	}
	return tx, missing
}

// needsUpdate reports whether the remote transaction differs from the
// desired one. Unsplit transactions compare the resolved category. Split
// ones compare count, memo prefix and resolved category per split. An
// uncategorized desired line never overwrites a remote category.
func needsUpdate(existing *ynab.Transaction, tx ynab.SaveTransaction) bool {
	var live []ynab.Subtransaction
	for _, sub := range existing.Subtransactions {
		if !sub.Deleted {
			live = append(live, sub)
		}
	}

	desired := tx.Subtransactions
	if len(desired) == 0 {
		return len(live) == 0 && tx.CategoryID != "" && existing.CategoryID != tx.CategoryID
	}
	if len(live) != len(desired) {
		return true
	}
	for i := range desired {
		if prefix(live[i].Memo, memoCompareRunes) != prefix(desired[i].Memo, memoCompareRunes) {
			return true
		}
		if desired[i].CategoryID != "" && live[i].CategoryID != desired[i].CategoryID {
			return true
		}
	}
	return false
}

// toUpdate is the update payload that brings a remote transaction in line with tx.
func toUpdate(tx ynab.SaveTransaction) ynab.TransactionUpdate {
	if len(tx.Subtransactions) > 0 {
		return ynab.TransactionUpdate{Subtransactions: tx.Subtransactions}
	}
	return ynab.TransactionUpdate{CategoryID: tx.CategoryID}
}

// contentHash fingerprints what would be written for a record.
func contentHash(tx ynab.SaveTransaction) string {
	data, err := json.Marshal(tx)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n])
	}
	return s
}
