package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-backend/internal/domain/transaction"
)

const (
	txColumns = `id, customer_name, status, total, paid_amount, change_amount, created_at, updated_at, closed_at`

	createTransactionSQL = `INSERT INTO transactions (id, customer_name, status, total, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), 'open', 0, $3, $4)`

	getTransactionSQL = `SELECT ` + txColumns + ` FROM transactions WHERE id = $1`

	listTransactionsSQL = `SELECT ` + txColumns + ` FROM transactions ORDER BY created_at DESC`

	listOpenTransactionsSQL = `SELECT ` + txColumns + ` FROM transactions
		WHERE status = 'open' ORDER BY created_at DESC`

	getStatusSQL = `SELECT status FROM transactions WHERE id = $1`

	// The status = 'open' predicate is the optimistic concurrency guard: a
	// racing close or cancel makes the update affect zero rows instead of
	// silently mutating a terminal record.
	renameSQL = `UPDATE transactions SET customer_name = NULLIF($2, ''), updated_at = $3
		WHERE id = $1 AND status = 'open'
		RETURNING ` + txColumns

	guardOpenSQL = `UPDATE transactions SET updated_at = $2
		WHERE id = $1 AND status = 'open'`

	insertLineSQL = `INSERT INTO transaction_items (id, transaction_id, item_id, quantity, unit_price, total_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	updateLineSQL = `UPDATE transaction_items
		SET quantity = $3, unit_price = $4, total_price = $5
		WHERE transaction_id = $1 AND item_id = $2
		RETURNING id, transaction_id, item_id, quantity, unit_price, total_price, created_at`

	deleteLineSQL = `DELETE FROM transaction_items WHERE transaction_id = $1 AND item_id = $2`

	// Totals are recomputed from source, never adjusted incrementally, which
	// keeps the derived-total invariant trivially checkable and self-healing.
	recomputeTotalSQL = `UPDATE transactions
		SET total = (SELECT COALESCE(SUM(total_price), 0) FROM transaction_items WHERE transaction_id = $1),
		    updated_at = $2
		WHERE id = $1
		RETURNING ` + txColumns

	listLinesSQL = `SELECT ti.id, ti.item_id, i.name, ti.quantity, ti.unit_price, ti.total_price
		FROM transaction_items ti
		JOIN items i ON ti.item_id = i.id
		WHERE ti.transaction_id = $1
		ORDER BY ti.created_at`

	// Settlement is a single conditional update. The total <= paid predicate
	// re-validates the payment against the committed total, so a line added
	// between the service's read and this write cannot let an underpayment
	// through.
	closeTransactionSQL = `UPDATE transactions
		SET status = 'closed', paid_amount = $2, change_amount = $2 - total,
		    closed_at = $3, updated_at = $3
		WHERE id = $1 AND status = 'open' AND total <= $2
		RETURNING ` + txColumns

	cancelTransactionSQL = `UPDATE transactions SET status = 'cancelled', updated_at = $2
		WHERE id = $1 AND status = 'open'
		RETURNING ` + txColumns
)

var _ transaction.Repository = (*TransactionRepository)(nil)

// TransactionRepository implements transaction.Repository backed by PostgreSQL.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository returns a TransactionRepository that uses the given
// pool.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create persists a new open transaction with a zero total.
func (r *TransactionRepository) Create(ctx context.Context, t *transaction.Transaction) error {
	_, err := r.pool.Exec(ctx, createTransactionSQL,
		t.ID, t.CustomerName, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating transaction %q: %w", t.ID, err)
	}
	return nil
}

// GetByID returns a single transaction by its identifier.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*transaction.Transaction, error) {
	return r.one(ctx, r.pool, getTransactionSQL, id)
}

// List returns all transactions, newest first.
func (r *TransactionRepository) List(ctx context.Context) ([]transaction.Transaction, error) {
	rows, err := r.pool.Query(ctx, listTransactionsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	return pgx.CollectRows(rows, scanTransaction)
}

// ListOpen returns all open transactions, newest first.
func (r *TransactionRepository) ListOpen(ctx context.Context) ([]transaction.Transaction, error) {
	rows, err := r.pool.Query(ctx, listOpenTransactionsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing open transactions: %w", err)
	}
	return pgx.CollectRows(rows, scanTransaction)
}

// ListLines returns the transaction's lines joined with catalog item names,
// in insertion order.
func (r *TransactionRepository) ListLines(ctx context.Context, transactionID string) ([]transaction.LineDetail, error) {
	rows, err := r.pool.Query(ctx, listLinesSQL, transactionID)
	if err != nil {
		return nil, fmt.Errorf("listing lines for transaction %q: %w", transactionID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (transaction.LineDetail, error) {
		var d transaction.LineDetail
		err := row.Scan(&d.ID, &d.ItemID, &d.ItemName, &d.Quantity, &d.UnitPrice, &d.TotalPrice)
		return d, err
	})
}

// Rename updates the customer name, guarded on status = 'open'.
func (r *TransactionRepository) Rename(ctx context.Context, id, customerName string) (*transaction.Transaction, error) {
	t, err := r.one(ctx, r.pool, renameSQL, id, customerName, time.Now().UTC())
	if errors.Is(err, transaction.ErrNotFound) {
		return nil, r.classifyMiss(ctx, id, transaction.ErrInvalidState)
	}
	return t, err
}

// AddLine inserts a line and recomputes the owning transaction's total, all
// inside one database transaction. The leading status-guarded update both
// enforces the open state and takes the row lock, so the recompute cannot
// interleave with another mutation on the same transaction id.
func (r *TransactionRepository) AddLine(ctx context.Context, l *transaction.Line) (*transaction.Transaction, error) {
	var updated *transaction.Transaction
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := r.guardOpen(ctx, tx, l.TransactionID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, insertLineSQL,
			l.ID, l.TransactionID, l.ItemID, l.Quantity, l.UnitPrice, l.TotalPrice, l.CreatedAt,
		); err != nil {
			return fmt.Errorf("inserting line %q: %w", l.ID, err)
		}

		t, err := r.recomputeTotal(ctx, tx, l.TransactionID)
		if err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateLine replaces the quantity, unit price snapshot, and total price of
// the line matching (transaction, item), then recomputes the total.
func (r *TransactionRepository) UpdateLine(ctx context.Context, transactionID, itemID string, quantity int, unitPrice decimal.Decimal) (*transaction.Line, *transaction.Transaction, error) {
	var (
		line    transaction.Line
		updated *transaction.Transaction
	)
	totalPrice := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := r.guardOpen(ctx, tx, transactionID); err != nil {
			return err
		}

		rows, err := tx.Query(ctx, updateLineSQL, transactionID, itemID, quantity, unitPrice, totalPrice)
		if err != nil {
			return fmt.Errorf("updating line for item %q: %w", itemID, err)
		}
		line, err = pgx.CollectExactlyOneRow(rows, scanLine)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return transaction.ErrNotFound
			}
			return fmt.Errorf("updating line for item %q: %w", itemID, err)
		}

		t, err := r.recomputeTotal(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &line, updated, nil
}

// RemoveLine deletes the line matching (transaction, item) and recomputes the
// total. Returns transaction.ErrNotFound when no line matched.
func (r *TransactionRepository) RemoveLine(ctx context.Context, transactionID, itemID string) (*transaction.Transaction, error) {
	var updated *transaction.Transaction
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := r.guardOpen(ctx, tx, transactionID); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, deleteLineSQL, transactionID, itemID)
		if err != nil {
			return fmt.Errorf("deleting line for item %q: %w", itemID, err)
		}
		if tag.RowsAffected() == 0 {
			return transaction.ErrNotFound
		}

		t, err := r.recomputeTotal(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Close settles the transaction as closed with payment fields, in one
// conditional update. A miss is classified into ErrNotFound, ErrInvalidState,
// or ErrInsufficientPayment by re-reading the row.
func (r *TransactionRepository) Close(ctx context.Context, id string, paid decimal.Decimal, at time.Time) (*transaction.Transaction, error) {
	t, err := r.one(ctx, r.pool, closeTransactionSQL, id, paid, at)
	if errors.Is(err, transaction.ErrNotFound) {
		return nil, r.classifyMiss(ctx, id, transaction.ErrInsufficientPayment)
	}
	return t, err
}

// Cancel voids an open transaction without touching payment fields.
func (r *TransactionRepository) Cancel(ctx context.Context, id string) (*transaction.Transaction, error) {
	t, err := r.one(ctx, r.pool, cancelTransactionSQL, id, time.Now().UTC())
	if errors.Is(err, transaction.ErrNotFound) {
		return nil, r.classifyMiss(ctx, id, transaction.ErrInvalidState)
	}
	return t, err
}

// guardOpen runs the status-guarded update that opens every line mutation.
// Zero rows affected means another actor already transitioned the record; the
// miss is classified so the caller reports a deterministic error.
func (r *TransactionRepository) guardOpen(ctx context.Context, tx pgx.Tx, id string) error {
	tag, err := tx.Exec(ctx, guardOpenSQL, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("guarding transaction %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return r.classifyMiss(ctx, id, transaction.ErrInvalidState)
	}
	return nil
}

// classifyMiss distinguishes why a conditional update affected zero rows:
// the row is missing (ErrNotFound), terminal (ErrInvalidState), or still open,
// in which case the guard failed for the statement-specific reason (fallback).
func (r *TransactionRepository) classifyMiss(ctx context.Context, id string, fallback error) error {
	var status string
	err := r.pool.QueryRow(ctx, getStatusSQL, id).Scan(&status)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return transaction.ErrNotFound
	case err != nil:
		return fmt.Errorf("reading status of transaction %q: %w", id, err)
	case transaction.Status(status) != transaction.StatusOpen:
		return transaction.ErrInvalidState
	default:
		return fallback
	}
}

// recomputeTotal rewrites the transaction total as the sum of its current
// lines and returns the refreshed row.
func (r *TransactionRepository) recomputeTotal(ctx context.Context, q querier, id string) (*transaction.Transaction, error) {
	return r.one(ctx, q, recomputeTotalSQL, id, time.Now().UTC())
}

// one runs a query expected to return exactly one transaction row. ErrNoRows
// is mapped to transaction.ErrNotFound; callers reclassify when the miss may
// have another cause.
func (r *TransactionRepository) one(ctx context.Context, q querier, sql string, args ...any) (*transaction.Transaction, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying transaction: %w", err)
	}
	t, err := pgx.CollectExactlyOneRow(rows, scanTransaction)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}
		return nil, fmt.Errorf("scanning transaction: %w", err)
	}
	return &t, nil
}

func scanTransaction(row pgx.CollectableRow) (transaction.Transaction, error) {
	var (
		t      transaction.Transaction
		name   *string
		status string
	)
	err := row.Scan(
		&t.ID, &name, &status, &t.Total,
		&t.PaidAmount, &t.ChangeAmount,
		&t.CreatedAt, &t.UpdatedAt, &t.ClosedAt,
	)
	if name != nil {
		t.CustomerName = *name
	}
	t.Status = transaction.Status(status)
	return t, err
}

func scanLine(row pgx.CollectableRow) (transaction.Line, error) {
	var l transaction.Line
	err := row.Scan(
		&l.ID, &l.TransactionID, &l.ItemID,
		&l.Quantity, &l.UnitPrice, &l.TotalPrice, &l.CreatedAt,
	)
	return l, err
}
