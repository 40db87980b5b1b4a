package report

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(name, revenue string, qty, txs int64) ItemSales {
	return ItemSales{
		ItemName:         name,
		QuantitySold:     qty,
		TotalRevenue:     decimal.RequireFromString(revenue),
		TransactionCount: txs,
	}
}

func TestSummarize(t *testing.T) {
	items := []ItemSales{
		row("Espresso", "90.00", 30, 12),
		row("Croissant", "45.00", 45, 9),
		row("Tea", "45.00", 15, 5),
	}

	s := Summarize(items, 20)

	assert.True(t, decimal.RequireFromString("180.00").Equal(s.TotalRevenue))
	assert.EqualValues(t, 90, s.TotalItemsSold)
	assert.EqualValues(t, 20, s.TotalTransactions)
	assert.True(t, decimal.RequireFromString("9.00").Equal(s.AverageTransactionValue))
	assert.Equal(t, "Croissant", s.TopSellingItem)
	// Revenue tie between Espresso and Tea: the first row encountered wins.
	assert.Equal(t, "Espresso", s.TopRevenueItem)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, 0)

	assert.True(t, s.TotalRevenue.IsZero())
	assert.Zero(t, s.TotalItemsSold)
	assert.True(t, s.AverageTransactionValue.IsZero())
	assert.Empty(t, s.TopSellingItem)
	assert.Empty(t, s.TopRevenueItem)
}

type stubAggregator struct {
	got  [2]time.Time
	resp *SalesReport
}

func (s *stubAggregator) SalesReport(_ context.Context, start, end time.Time) (*SalesReport, error) {
	s.got = [2]time.Time{start, end}
	return s.resp, nil
}

func TestGenerate_RejectsInvalidRange(t *testing.T) {
	now := time.Now()

	_, err := Generate(context.Background(), &stubAggregator{}, now, now)
	require.ErrorIs(t, err, ErrInvalidRange)

	_, err = Generate(context.Background(), &stubAggregator{}, now, now.Add(-time.Hour))
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestGenerate_PassesWindowThrough(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	agg := &stubAggregator{resp: &SalesReport{Start: start, End: end}}

	rep, err := Generate(context.Background(), agg, start, end)
	require.NoError(t, err)
	assert.Equal(t, start, agg.got[0])
	assert.Equal(t, end, agg.got[1])
	assert.Equal(t, start, rep.Start)
}
