package ynab

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		Token:         "secret",
		BaseURL:       srv.URL,
		BudgetID:      "b1",
		AccountID:     "a1",
		RateLimitWait: time.Millisecond,
	}, nil)
}

func TestClient_TransactionsSendsSinceDateAndAuth(t *testing.T) {
	// Arrange
	var gotPath, gotQuery, gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery, gotAuth = r.URL.Path, r.URL.RawQuery, r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"data":{"transactions":[
			{"id":"t1","date":"2025-01-05","amount":-84000,"memo":"Order 112-1","import_id":"AMZ2:112-1:8400:P",
			 "subtransactions":[{"id":"s1","amount":-84000,"memo":"Lamp","category_id":"c1"}]}
		]}}`))
	})

	// Act
	txns, err := client.Transactions(context.Background(), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "/budgets/b1/accounts/a1/transactions", gotPath)
	assert.Equal(t, "since_date=2024-01-01", gotQuery)
	assert.Equal(t, "Bearer secret", gotAuth)
	require.Len(t, txns, 1)
	assert.Equal(t, "AMZ2:112-1:8400:P", txns[0].ImportID)
	assert.Equal(t, int64(-84000), txns[0].Subtransactions[0].Amount)
}

func TestClient_RetriesRateLimitedReads(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"id":"429","name":"too_many_requests","detail":"Too many requests"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":{"budgets":[{"id":"b9","name":"Home"}]}}`))
	})

	budgets, err := client.Budgets(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "Home", budgets[0].Name)
}

func TestClient_DoesNotRetryRateLimitedWrites(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"id":"429","name":"too_many_requests","detail":"Too many requests"}}`))
	})

	_, err := client.CreateTransactions(context.Background(), []SaveTransaction{{AccountID: "a1"}})

	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
	assert.Equal(t, int32(1), calls.Load())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "too_many_requests", apiErr.Name)
}

func TestClient_CreateTransactionsReportsDuplicates(t *testing.T) {
	var body map[string][]SaveTransaction
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/budgets/b1/transactions", r.URL.Path)
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &body))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"transaction_ids":["t1"],"duplicate_import_ids":["AMZ2:x:1:P"]}}`))
	})

	result, err := client.CreateTransactions(context.Background(), []SaveTransaction{
		{AccountID: "a1", Date: "2025-01-05", Amount: -1000, ImportID: "AMZ2:y:1000:P",
			Subtransactions: []SaveSubtransaction{{Amount: -1000, Memo: "Lamp", CategoryID: "c1"}}},
		{AccountID: "a1", Date: "2025-01-05", Amount: -10, ImportID: "AMZ2:x:1:P"},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, result.TransactionIDs)
	assert.Equal(t, []string{"AMZ2:x:1:P"}, result.DuplicateImportIDs)
	require.Len(t, body["transactions"], 2)
	assert.Equal(t, "Lamp", body["transactions"][0].Subtransactions[0].Memo)
	assert.False(t, body["transactions"][0].Approved)
}

func TestClient_UpdateTransaction(t *testing.T) {
	var got map[string]TransactionUpdate
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/budgets/b1/transactions/t1", r.URL.Path)
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &got))
		_, _ = w.Write([]byte(`{"data":{"transaction":{"id":"t1"}}}`))
	})

	err := client.UpdateTransaction(context.Background(), "t1", TransactionUpdate{
		Subtransactions: []SaveSubtransaction{{Amount: -500, Memo: "Soap"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "Soap", got["transaction"].Subtransactions[0].Memo)
}

func TestClient_UpdateTransactionCategoryOnly(t *testing.T) {
	var raw map[string]map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &raw))
		_, _ = w.Write([]byte(`{"data":{"transaction":{"id":"t1"}}}`))
	})

	err := client.UpdateTransaction(context.Background(), "t1", TransactionUpdate{CategoryID: "c2"})

	require.NoError(t, err)
	assert.Equal(t, "c2", raw["transaction"]["category_id"])
	assert.NotContains(t, raw["transaction"], "subtransactions")
}

func TestClient_NotFoundIsAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"id":"404.2","name":"resource_not_found","detail":"Resource not found"}}`))
	})

	_, err := client.CategoryGroups(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.False(t, IsRateLimited(err))
}

func TestClient_ResolveBudgetAndAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/budgets":
			_, _ = w.Write([]byte(`{"data":{"budgets":[{"id":"b1","name":"Other"},{"id":"b2","name":"Family"}]}}`))
		case "/budgets/b2/accounts":
			_, _ = w.Write([]byte(`{"data":{"accounts":[
				{"id":"a0","name":"Old Amazon Card","closed":true},
				{"id":"a1","name":"Amazon Prime Visa"}]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	client := NewClient(Config{Token: "t", BaseURL: srv.URL}, nil)

	require.NoError(t, client.ResolveBudget(context.Background(), "family"))
	require.NoError(t, client.ResolveAccount(context.Background(), "amazon"))

	assert.Equal(t, "b2", client.BudgetID())
	assert.Equal(t, "a1", client.AccountID())
	assert.Error(t, NewClient(Config{Token: "t", BaseURL: srv.URL}, nil).ResolveBudget(context.Background(), "missing"))
}

func TestCategoryIndex(t *testing.T) {
	groups := []CategoryGroup{
		{Name: "Internal Master Category", Categories: []Category{{ID: "i1", Name: "Inflow: Ready to Assign"}}},
		{Name: "Credit Card Payments", Categories: []Category{{ID: "cc", Name: "Prime Visa"}}},
		{Name: "Hidden", Hidden: true, Categories: []Category{{ID: "h1", Name: "Old"}}},
		{Name: "Everyday", Categories: []Category{
			{ID: "c1", Name: "Groceries", Note: "food for home"},
			{ID: "c2", Name: "🎒 Gear"},
			{ID: "c3", Name: "Retired", Hidden: true},
		}},
		{Name: "Bills", Categories: []Category{{ID: "c4", Name: "Rent"}}},
	}

	idx := NewCategoryIndex(groups, []string{"Bills"})

	assert.Equal(t, []string{"Groceries", "🎒 Gear"}, idx.Names())
	id, ok := idx.Find("groceries")
	assert.True(t, ok)
	assert.Equal(t, "c1", id)
	id, ok = idx.Find("Gear")
	assert.True(t, ok)
	assert.Equal(t, "c2", id)
	_, ok = idx.Find("Rent")
	assert.False(t, ok)
	assert.Equal(t, "Everyday", idx.Group("Groceries"))

	catalog := Catalog(groups, []string{"Bills"})
	assert.Equal(t, []string{"Groceries", "🎒 Gear"}, catalog.Names())
	assert.Contains(t, catalog.Listing(), "- Groceries (food for home)")
	assert.Contains(t, catalog.Listing(), "- 🎒 Gear (Everyday group)")
}
