// Package report defines the read-only sales reporting contract: time-windowed
// rollups over the lines of closed transactions. The transaction engine does
// not compute these; it only guarantees accurate closed_at and total values
// for the aggregator to consume.
package report

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidRange is returned when the requested window is empty or inverted.
var ErrInvalidRange = errors.New("end date must be after start date")

// ItemSales is the per-item aggregate over a window.
type ItemSales struct {
	ItemID           string
	ItemName         string
	CategoryName     string
	QuantitySold     int64
	TotalRevenue     decimal.Decimal
	AveragePrice     decimal.Decimal
	TransactionCount int64
}

// Summary is the window-level rollup. Top items break ties by the first row
// encountered in the aggregator's result ordering (revenue DESC).
type Summary struct {
	TotalRevenue            decimal.Decimal
	TotalItemsSold          int64
	TotalTransactions       int64
	AverageTransactionValue decimal.Decimal
	TopSellingItem          string
	TopRevenueItem          string
}

// SalesReport is the full report for a half-open window [Start, End).
type SalesReport struct {
	Start   time.Time
	End     time.Time
	Items   []ItemSales
	Summary Summary
}

// Aggregator produces sales rollups over closed transactions whose closed_at
// falls in [start, end).
type Aggregator interface {
	SalesReport(ctx context.Context, start, end time.Time) (*SalesReport, error)
}

// Generate validates the window, runs the aggregator, and derives the summary
// fields that are cheaper to compute from the per-item rows than in SQL.
func Generate(ctx context.Context, agg Aggregator, start, end time.Time) (*SalesReport, error) {
	if !end.After(start) {
		return nil, ErrInvalidRange
	}
	return agg.SalesReport(ctx, start, end)
}

// Summarize computes the window summary from per-item rows and the distinct
// closed-transaction count. Rows are expected in the aggregator's ordering;
// ties for the top items go to the first row encountered.
func Summarize(items []ItemSales, transactionCount int64) Summary {
	s := Summary{
		TotalRevenue:      decimal.Zero,
		TotalTransactions: transactionCount,
	}

	var topQty int64
	topRevenue := decimal.Zero
	for _, it := range items {
		s.TotalRevenue = s.TotalRevenue.Add(it.TotalRevenue)
		s.TotalItemsSold += it.QuantitySold

		if it.QuantitySold > topQty {
			topQty = it.QuantitySold
			s.TopSellingItem = it.ItemName
		}
		if it.TotalRevenue.GreaterThan(topRevenue) {
			topRevenue = it.TotalRevenue
			s.TopRevenueItem = it.ItemName
		}
	}

	s.AverageTransactionValue = decimal.Zero
	if transactionCount > 0 {
		s.AverageTransactionValue = s.TotalRevenue.DivRound(decimal.NewFromInt(transactionCount), 2)
	}
	return s
}
