// Package ynab is a small client for the YNAB REST API.
//
// Only the endpoints the sync needs are covered. GET requests that hit the
// rate limit are retried with a linear backoff (30s, 60s, ...); writes are
// not retried here because the sync engine decides how to handle them.
//
// Example usage:
//
//	client := ynab.NewClient(ynab.Config{Token: token}, logger)
//	if err := client.ResolveBudget(ctx, "My Budget"); err != nil {
//		return err
//	}
//	groups, err := client.CategoryGroups(ctx)
package ynab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	DefaultBaseURL       = "https://api.ynab.com/v1"
	DefaultRateLimitWait = 30 * time.Second
	DefaultMaxRetries    = 4
)

// Config holds client configuration
type Config struct {
	Token         string
	BaseURL       string
	BudgetID      string
	AccountID     string
	RateLimitWait time.Duration
	MaxRetries    int
}

// Client talks to one budget and account.
type Client struct {
	http      *retryablehttp.Client
	baseURL   string
	token     string
	budgetID  string
	accountID string
	logger    *slog.Logger
}

// NewClient creates a new client
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RateLimitWait <= 0 {
		cfg.RateLimitWait = DefaultRateLimitWait
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxRetries
	rc.Logger = logger
	rc.CheckRetry = retryRateLimitedReads
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	wait := cfg.RateLimitWait
	rc.Backoff = func(_, _ time.Duration, attempt int, _ *http.Response) time.Duration {
		return wait * time.Duration(attempt+1)
	}

	return &Client{
		http:      rc,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		token:     cfg.Token,
		budgetID:  cfg.BudgetID,
		accountID: cfg.AccountID,
		logger:    logger,
	}
}

// retryRateLimitedReads retries GET requests that were rate limited.
func retryRateLimitedReads(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil || resp == nil {
		return false, err
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		return false, nil
	}
	return resp.Request != nil && resp.Request.Method == http.MethodGet, nil
}

// BudgetID returns the resolved budget id.
func (c *Client) BudgetID() string { return c.budgetID }

// AccountID returns the resolved account id.
func (c *Client) AccountID() string { return c.accountID }

// Budgets lists budgets.
func (c *Client) Budgets(ctx context.Context) ([]Budget, error) {
	var data struct {
		Budgets []Budget `json:"budgets"`
	}
	if err := c.do(ctx, http.MethodGet, "/budgets", nil, &data); err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	return data.Budgets, nil
}

// ResolveBudget selects the budget with the given name, or the first budget
// when name is empty. An id already set in Config wins.
func (c *Client) ResolveBudget(ctx context.Context, name string) error {
	if c.budgetID != "" {
		return nil
	}
	budgets, err := c.Budgets(ctx)
	if err != nil {
		return err
	}
	for _, b := range budgets {
		if name == "" || strings.EqualFold(b.Name, name) {
			c.budgetID = b.ID
			return nil
		}
	}
	return fmt.Errorf("budget %q not found", name)
}

// Accounts lists open accounts of the budget.
func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	var data struct {
		Accounts []Account `json:"accounts"`
	}
	if err := c.do(ctx, http.MethodGet, c.budgetPath("/accounts"), nil, &data); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	open := data.Accounts[:0]
	for _, a := range data.Accounts {
		if !a.Closed && !a.Deleted {
			open = append(open, a)
		}
	}
	return open, nil
}

// ResolveAccount selects the account whose name contains name.
func (c *Client) ResolveAccount(ctx context.Context, name string) error {
	if c.accountID != "" {
		return nil
	}
	accounts, err := c.Accounts(ctx)
	if err != nil {
		return err
	}
	for _, a := range accounts {
		if strings.Contains(strings.ToLower(a.Name), strings.ToLower(name)) {
			c.accountID = a.ID
			return nil
		}
	}
	return fmt.Errorf("account %q not found", name)
}

// CategoryGroups lists category groups with their categories.
func (c *Client) CategoryGroups(ctx context.Context) ([]CategoryGroup, error) {
	var data struct {
		CategoryGroups []CategoryGroup `json:"category_groups"`
	}
	if err := c.do(ctx, http.MethodGet, c.budgetPath("/categories"), nil, &data); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return data.CategoryGroups, nil
}

// Transactions lists the account's transactions on or after since.
func (c *Client) Transactions(ctx context.Context, since time.Time) ([]Transaction, error) {
	path := c.budgetPath("/accounts/" + url.PathEscape(c.accountID) + "/transactions")
	if !since.IsZero() {
		path += "?since_date=" + since.Format("2006-01-02")
	}

	var data struct {
		Transactions []Transaction `json:"transactions"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return data.Transactions, nil
}

// CreateTransactions creates transactions in one request. Import ids the
// budget already has are reported in DuplicateImportIDs, not as errors.
func (c *Client) CreateTransactions(ctx context.Context, txns []SaveTransaction) (*SaveResult, error) {
	body := map[string]any{"transactions": txns}
	var result SaveResult
	if err := c.do(ctx, http.MethodPost, c.budgetPath("/transactions"), body, &result); err != nil {
		return nil, fmt.Errorf("failed to create %d transactions: %w", len(txns), err)
	}
	return &result, nil
}

// UpdateTransaction changes the category or subtransactions of an existing transaction.
func (c *Client) UpdateTransaction(ctx context.Context, id string, update TransactionUpdate) error {
	body := map[string]any{"transaction": update}
	if err := c.do(ctx, http.MethodPut, c.budgetPath("/transactions/"+url.PathEscape(id)), body, nil); err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", id, err)
	}
	return nil
}

func (c *Client) budgetPath(suffix string) string {
	return "/budgets/" + url.PathEscape(c.budgetID) + suffix
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Error *APIError `json:"error"`
		}
		if json.Unmarshal(data, &envelope) == nil && envelope.Error != nil {
			apiErr.ID = envelope.Error.ID
			apiErr.Name = envelope.Error.Name
			apiErr.Detail = envelope.Error.Detail
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	envelope := struct {
		Data any `json:"data"`
	}{Data: out}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
