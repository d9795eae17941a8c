package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSalesSummaryTotals(t *testing.T) {
	s := SalesSummary{Daily: []DailySales{
		{Date: "2024-03-01", Orders: 2, Revenue: decimal.RequireFromString("1000")},
		{Date: "2024-03-02", Orders: 1, Revenue: decimal.RequireFromString("500.50")},
	}}
	s.Totals()

	if s.Orders != 3 {
		t.Fatalf("expected 3 orders, got %d", s.Orders)
	}
	if !s.Revenue.Equal(decimal.RequireFromString("1500.5")) {
		t.Fatalf("unexpected revenue %s", s.Revenue)
	}
	if !s.AverageOrder.Equal(decimal.RequireFromString("500.17")) {
		t.Fatalf("unexpected average %s", s.AverageOrder)
	}

	empty := SalesSummary{}
	empty.Totals()
	if !empty.AverageOrder.IsZero() || empty.Orders != 0 {
		t.Fatalf("expected zero summary, got %+v", empty)
	}
}
