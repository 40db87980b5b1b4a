package catalog

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Item is a sellable catalog entry. The transaction engine reads Price to
// snapshot it onto a line and InStock to gate availability; it never writes
// items.
type Item struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	CategoryID  string
	SKU         string
	InStock     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ItemUpdate carries the fields of a partial item update.
// Nil pointers mean "leave unchanged".
type ItemUpdate struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	CategoryID  *string
	SKU         *string
	InStock     *bool
}

// ItemRepository defines persistence operations for catalog items.
type ItemRepository interface {
	List(ctx context.Context) ([]Item, error)
	ListByCategory(ctx context.Context, categoryID string) ([]Item, error)
	GetByID(ctx context.Context, id string) (*Item, error)
	Create(ctx context.Context, it *Item) error
	Update(ctx context.Context, id string, upd ItemUpdate) (*Item, error)
	Delete(ctx context.Context, id string) error
}
