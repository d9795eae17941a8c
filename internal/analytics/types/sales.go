package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesRange bounds a sales summary query. Both ends are inclusive.
type SalesRange struct {
	Start time.Time
	End   time.Time
}

// DailySales is one day of the order_created stream.
type DailySales struct {
	Date    string          `json:"date"`
	Orders  int64           `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

// SalesSummary aggregates order_sales over a range.
type SalesSummary struct {
	Start        time.Time       `json:"start"`
	End          time.Time       `json:"end"`
	Orders       int64           `json:"orders"`
	Revenue      decimal.Decimal `json:"revenue"`
	AverageOrder decimal.Decimal `json:"averageOrder"`
	Daily        []DailySales    `json:"daily"`
}

// Totals fills the range-wide figures from the daily series.
func (s *SalesSummary) Totals() {
	s.Orders = 0
	s.Revenue = decimal.Zero
	for _, day := range s.Daily {
		s.Orders += day.Orders
		s.Revenue = s.Revenue.Add(day.Revenue)
	}
	s.AverageOrder = decimal.Zero
	if s.Orders > 0 {
		s.AverageOrder = s.Revenue.Div(decimal.NewFromInt(s.Orders)).Round(2)
	}
}
