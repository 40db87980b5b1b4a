package transaction

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a transaction. Open transactions accept
// mutations; closed and cancelled are terminal.
type Status string

const (
	StatusOpen      Status = "open"
	StatusClosed    Status = "closed"
	StatusCancelled Status = "cancelled"
)

// Sentinel errors for the transaction engine. The storage layer maps
// conditional-update misses onto the same values, so a lost race reports
// exactly like a failed guard.
var (
	// ErrNotFound: the transaction, line, or referenced item does not exist.
	ErrNotFound = errors.New("transaction not found")
	// ErrInvalidState: a mutation was attempted on a non-open transaction.
	ErrInvalidState = errors.New("transaction is not open")
	// ErrItemUnavailable: the referenced catalog item is not in stock.
	ErrItemUnavailable = errors.New("item is out of stock")
	// ErrInsufficientPayment: paid amount is below the transaction total.
	ErrInsufficientPayment = errors.New("insufficient payment amount")
	// ErrInvalidQuantity: a line quantity must be greater than zero.
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
)

// Transaction is one customer sale. Total is derived from the lines and is
// never written directly by callers; PaidAmount, ChangeAmount and ClosedAt
// are set if and only if Status is StatusClosed.
type Transaction struct {
	ID           string
	CustomerName string
	Status       Status
	Total        decimal.Decimal
	PaidAmount   *decimal.Decimal
	ChangeAmount *decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ClosedAt     *time.Time
}

// Line is one catalog item attached to a transaction. UnitPrice is a snapshot
// of the item's price at the moment the line was added or last updated; later
// catalog price changes do not touch it.
type Line struct {
	ID            string
	TransactionID string
	ItemID        string
	Quantity      int
	UnitPrice     decimal.Decimal
	TotalPrice    decimal.Decimal
	CreatedAt     time.Time
}

// LineDetail is a line joined with the catalog item name, used for the
// transaction details view and for receipts.
type LineDetail struct {
	ID         string
	ItemID     string
	ItemName   string
	Quantity   int
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
}

// Details bundles a transaction with its line details.
type Details struct {
	Transaction Transaction
	Lines       []LineDetail
}

// Repository defines the persistence operations the engine relies on.
//
// Every mutating operation re-checks status = 'open' inside the store as a
// conditional update. When the guard misses, implementations return
// ErrNotFound (no such row) or ErrInvalidState (row exists but is terminal),
// never a silent success. Line mutations recompute the owning transaction's
// total from its current lines before returning.
type Repository interface {
	Create(ctx context.Context, t *Transaction) error
	GetByID(ctx context.Context, id string) (*Transaction, error)
	List(ctx context.Context) ([]Transaction, error)
	ListOpen(ctx context.Context) ([]Transaction, error)
	ListLines(ctx context.Context, transactionID string) ([]LineDetail, error)

	Rename(ctx context.Context, id, customerName string) (*Transaction, error)
	AddLine(ctx context.Context, l *Line) (*Transaction, error)
	UpdateLine(ctx context.Context, transactionID, itemID string, quantity int, unitPrice decimal.Decimal) (*Line, *Transaction, error)
	RemoveLine(ctx context.Context, transactionID, itemID string) (*Transaction, error)

	Close(ctx context.Context, id string, paid decimal.Decimal, at time.Time) (*Transaction, error)
	Cancel(ctx context.Context, id string) (*Transaction, error)
}
