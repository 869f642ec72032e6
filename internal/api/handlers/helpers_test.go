package handlers_test

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/charliesneath/ynab-toolkit/internal/domain/splitter"
)

func setChiURLParam(ctx context.Context, key, value string) context.Context {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return context.WithValue(ctx, chi.RouteCtxKey, rctx)
}

func testRecord(importID, orderID string, status splitter.Status, day int) *splitter.Record {
	return &splitter.Record{
		ImportID: importID,
		Date:     time.Date(2025, time.March, day, 0, 0, 0, 0, time.UTC),
		OrderID:  orderID,
		Amount:   decimal.RequireFromString("-25.00"),
		Payee:    "Amazon.com",
		Memo:     "Order " + orderID,
		Flag:     splitter.FlagYellow,
		Status:   status,
		Splits: []splitter.CategorySplit{
			{Category: "Electronics", Amount: decimal.RequireFromString("-15.00"), Memo: "Cable"},
			{Category: "Household Supplies", Amount: decimal.RequireFromString("-10.00"), Memo: "Sponges"},
		},
	}
}
