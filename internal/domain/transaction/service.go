package transaction

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-backend/internal/domain/catalog"
)

// ItemGetter is the slice of the catalog the engine needs: price and
// availability lookups by item ID.
type ItemGetter interface {
	GetByID(ctx context.Context, id string) (*catalog.Item, error)
}

// ReceiptLine is one printed line: item name, quantity, snapshot unit price.
type ReceiptLine struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Receipt is the data handed to the receipt dispatcher after a close commits.
type Receipt struct {
	TransactionID string
	Lines         []ReceiptLine
	Paid          decimal.Decimal
	Change        decimal.Decimal
}

// ReceiptDispatcher accepts a receipt for best-effort emission. Dispatch must
// not block on printer I/O; the engine never inspects the emission outcome.
type ReceiptDispatcher interface {
	Dispatch(r Receipt)
}

// CloseResult is the outcome of a successful close: the settled transaction
// and the change owed to the customer.
type CloseResult struct {
	Transaction *Transaction
	Change      decimal.Decimal
}

// Service is the transaction lifecycle engine. It enforces the open →
// closed|cancelled state machine, snapshots catalog prices onto lines, keeps
// the derived total consistent, and triggers receipt emission on close.
type Service struct {
	items    ItemGetter
	store    Repository
	receipts ReceiptDispatcher
}

// NewService creates the engine with its catalog, storage, and receipt
// dependencies. receipts may be nil when no printer integration is wanted.
func NewService(items ItemGetter, store Repository, receipts ReceiptDispatcher) *Service {
	return &Service{
		items:    items,
		store:    store,
		receipts: receipts,
	}
}

// Create opens a new transaction with a zero total and no lines.
func (s *Service) Create(ctx context.Context, customerName string) (*Transaction, error) {
	now := time.Now().UTC()
	t := &Transaction{
		ID:           uuid.New().String(),
		CustomerName: customerName,
		Status:       StatusOpen,
		Total:        decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, errors.Wrap(err, "create transaction")
	}
	return t, nil
}

// Get returns a transaction with its line details.
func (s *Service) Get(ctx context.Context, id string) (*Details, error) {
	t, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	lines, err := s.store.ListLines(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "list lines")
	}
	return &Details{Transaction: *t, Lines: lines}, nil
}

// List returns all transactions, newest first.
func (s *Service) List(ctx context.Context) ([]Transaction, error) {
	return s.store.List(ctx)
}

// ListOpen returns all currently open transactions, newest first.
func (s *Service) ListOpen(ctx context.Context) ([]Transaction, error) {
	return s.store.ListOpen(ctx)
}

// Rename updates the customer name. Permitted only while the transaction is
// open.
func (s *Service) Rename(ctx context.Context, id, customerName string) (*Transaction, error) {
	return s.store.Rename(ctx, id, customerName)
}

// AddItem attaches a catalog item to an open transaction, snapshotting the
// item's current price. The transaction total is recomputed from all lines
// before the updated transaction is returned.
func (s *Service) AddItem(ctx context.Context, transactionID, itemID string, quantity int) (*Line, *Transaction, error) {
	item, err := s.lookupItem(ctx, itemID, quantity)
	if err != nil {
		return nil, nil, err
	}

	qty := decimal.NewFromInt(int64(quantity))
	l := &Line{
		ID:            uuid.New().String(),
		TransactionID: transactionID,
		ItemID:        itemID,
		Quantity:      quantity,
		UnitPrice:     item.Price,
		TotalPrice:    item.Price.Mul(qty),
		CreatedAt:     time.Now().UTC(),
	}

	t, err := s.store.AddLine(ctx, l)
	if err != nil {
		return nil, nil, err
	}
	return l, t, nil
}

// UpdateItem replaces the quantity of an existing line and re-snapshots the
// item's current price. The same open and availability guards apply as for
// AddItem; ErrNotFound is returned when no line matches (transaction, item).
func (s *Service) UpdateItem(ctx context.Context, transactionID, itemID string, quantity int) (*Line, *Transaction, error) {
	item, err := s.lookupItem(ctx, itemID, quantity)
	if err != nil {
		return nil, nil, err
	}
	return s.store.UpdateLine(ctx, transactionID, itemID, quantity, item.Price)
}

// RemoveItem deletes the line matching (transaction, item) and recomputes the
// total. Permitted only while the transaction is open.
func (s *Service) RemoveItem(ctx context.Context, transactionID, itemID string) (*Transaction, error) {
	return s.store.RemoveLine(ctx, transactionID, itemID)
}

// Close settles an open transaction: validates the payment covers the total,
// atomically flips the status, and records paid amount, change, and close
// time. After the settlement commits, a receipt is dispatched for best-effort
// printing; emission outcome never alters the returned result, and callers
// must not assume a receipt was printed by the time Close returns.
func (s *Service) Close(ctx context.Context, id string, paid decimal.Decimal) (*CloseResult, error) {
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusOpen {
		return nil, ErrInvalidState
	}
	if paid.LessThan(current.Total) {
		return nil, ErrInsufficientPayment
	}

	// The store re-checks both the status and the payment guard inside a
	// single conditional update, so a racing line addition cannot let an
	// underpayment through.
	t, err := s.store.Close(ctx, id, paid, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	change := decimal.Zero
	if t.ChangeAmount != nil {
		change = *t.ChangeAmount
	}

	s.dispatchReceipt(ctx, t, paid, change)

	return &CloseResult{Transaction: t, Change: change}, nil
}

// Cancel voids an open transaction. No payment fields are touched.
func (s *Service) Cancel(ctx context.Context, id string) (*Transaction, error) {
	return s.store.Cancel(ctx, id)
}

// lookupItem validates the quantity and resolves the catalog item, mapping
// catalog errors onto the engine's taxonomy.
func (s *Service) lookupItem(ctx context.Context, itemID string, quantity int) (*catalog.Item, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, catalog.ErrItemNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "get item %s", itemID)
	}
	if !item.InStock {
		return nil, ErrItemUnavailable
	}
	return item, nil
}

// dispatchReceipt hands the closed transaction's lines to the receipt
// dispatcher. It is best-effort all the way down: a failure to even read the
// lines is dropped, because printing must never affect the settlement result.
func (s *Service) dispatchReceipt(ctx context.Context, t *Transaction, paid, change decimal.Decimal) {
	if s.receipts == nil {
		return
	}
	details, err := s.store.ListLines(ctx, t.ID)
	if err != nil {
		return
	}
	lines := make([]ReceiptLine, len(details))
	for i, d := range details {
		lines[i] = ReceiptLine{
			Name:      d.ItemName,
			Quantity:  d.Quantity,
			UnitPrice: d.UnitPrice,
		}
	}
	s.receipts.Dispatch(Receipt{
		TransactionID: t.ID,
		Lines:         lines,
		Paid:          paid,
		Change:        change,
	})
}
