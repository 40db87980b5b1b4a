package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/pos-backend/internal/domain/report"
)

const (
	// Per-item rollup over the lines of transactions closed inside the
	// half-open window [start, end). Ordered by revenue so the summary's
	// tie-breaking ("first encountered") is deterministic.
	itemSalesSQL = `SELECT
			i.id, i.name, COALESCE(c.name, ''),
			SUM(ti.quantity)::bigint,
			SUM(ti.total_price),
			AVG(ti.unit_price),
			COUNT(DISTINCT ti.transaction_id)::bigint
		FROM transaction_items ti
		JOIN items i ON ti.item_id = i.id
		LEFT JOIN categories c ON i.category_id = c.id
		JOIN transactions t ON ti.transaction_id = t.id
		WHERE t.status = 'closed' AND t.closed_at >= $1 AND t.closed_at < $2
		GROUP BY i.id, i.name, c.name
		ORDER BY SUM(ti.total_price) DESC`

	closedTransactionCountSQL = `SELECT COUNT(*) FROM transactions
		WHERE status = 'closed' AND closed_at >= $1 AND closed_at < $2`
)

var _ report.Aggregator = (*ReportAggregator)(nil)

// ReportAggregator implements report.Aggregator with read-only SQL rollups.
type ReportAggregator struct {
	pool *pgxpool.Pool
}

// NewReportAggregator returns a ReportAggregator that uses the given pool.
func NewReportAggregator(pool *pgxpool.Pool) *ReportAggregator {
	return &ReportAggregator{pool: pool}
}

// SalesReport aggregates per-item sales and the window summary over closed
// transactions whose closed_at falls in [start, end).
func (r *ReportAggregator) SalesReport(ctx context.Context, start, end time.Time) (*report.SalesReport, error) {
	rows, err := r.pool.Query(ctx, itemSalesSQL, start, end)
	if err != nil {
		return nil, fmt.Errorf("aggregating item sales: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (report.ItemSales, error) {
		var it report.ItemSales
		err := row.Scan(
			&it.ItemID, &it.ItemName, &it.CategoryName,
			&it.QuantitySold, &it.TotalRevenue, &it.AveragePrice, &it.TransactionCount,
		)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning item sales: %w", err)
	}

	var txCount int64
	if err := r.pool.QueryRow(ctx, closedTransactionCountSQL, start, end).Scan(&txCount); err != nil {
		return nil, fmt.Errorf("counting closed transactions: %w", err)
	}

	return &report.SalesReport{
		Start:   start,
		End:     end,
		Items:   items,
		Summary: report.Summarize(items, txCount),
	}, nil
}
