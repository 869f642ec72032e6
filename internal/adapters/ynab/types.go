package ynab

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrRateLimited matches any 429 response from the API.
var ErrRateLimited = errors.New("ynab rate limit exceeded")

// APIError is an error response from the API.
type APIError struct {
	StatusCode int
	ID         string `json:"id"`
	Name       string `json:"name"`
	Detail     string `json:"detail"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("ynab api error %d (%s): %s", e.StatusCode, e.Name, e.Detail)
	}
	return fmt.Sprintf("ynab api error %d", e.StatusCode)
}

// Is lets errors.Is(err, ErrRateLimited) match rate-limit responses.
func (e *APIError) Is(target error) bool {
	return target == ErrRateLimited && e.StatusCode == http.StatusTooManyRequests
}

// IsRateLimited reports whether err is a rate-limit response.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

type Budget struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Account struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Closed  bool   `json:"closed"`
	Deleted bool   `json:"deleted"`
}

type Category struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	CategoryGroupID string `json:"category_group_id"`
	Note            string `json:"note"`
	Hidden          bool   `json:"hidden"`
	Deleted         bool   `json:"deleted"`
}

type CategoryGroup struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Hidden     bool       `json:"hidden"`
	Deleted    bool       `json:"deleted"`
	Categories []Category `json:"categories"`
}

// Transaction is a transaction as returned by the API. Amounts are milliunits.
type Transaction struct {
	ID              string           `json:"id"`
	Date            string           `json:"date"`
	Amount          int64            `json:"amount"`
	Memo            string           `json:"memo"`
	PayeeName       string           `json:"payee_name"`
	CategoryID      string           `json:"category_id"`
	AccountID       string           `json:"account_id"`
	FlagColor       string           `json:"flag_color"`
	ImportID        string           `json:"import_id"`
	Approved        bool             `json:"approved"`
	Deleted         bool             `json:"deleted"`
	Subtransactions []Subtransaction `json:"subtransactions"`
}

type Subtransaction struct {
	ID         string `json:"id"`
	Amount     int64  `json:"amount"`
	Memo       string `json:"memo"`
	CategoryID string `json:"category_id"`
	Deleted    bool   `json:"deleted"`
}

// SaveTransaction is a new transaction.
type SaveTransaction struct {
	AccountID       string               `json:"account_id"`
	Date            string               `json:"date"`
	Amount          int64                `json:"amount"`
	PayeeName       string               `json:"payee_name,omitempty"`
	Memo            string               `json:"memo,omitempty"`
	CategoryID      string               `json:"category_id,omitempty"`
	Approved        bool                 `json:"approved"`
	FlagColor       string               `json:"flag_color,omitempty"`
	ImportID        string               `json:"import_id,omitempty"`
	Subtransactions []SaveSubtransaction `json:"subtransactions,omitempty"`
}

type SaveSubtransaction struct {
	Amount     int64  `json:"amount"`
	Memo       string `json:"memo,omitempty"`
	CategoryID string `json:"category_id,omitempty"`
}

// TransactionUpdate replaces the category of an unsplit transaction or the
// splits of a split one.
type TransactionUpdate struct {
	CategoryID      string               `json:"category_id,omitempty"`
	Subtransactions []SaveSubtransaction `json:"subtransactions,omitempty"`
}

// SaveResult is the response to a bulk create.
type SaveResult struct {
	TransactionIDs     []string      `json:"transaction_ids"`
	DuplicateImportIDs []string      `json:"duplicate_import_ids"`
	Transactions       []Transaction `json:"transactions"`
}
