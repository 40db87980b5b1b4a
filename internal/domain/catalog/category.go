package catalog

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Sentinel errors for catalog lookups.
var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrItemNotFound     = errors.New("item not found")
)

// Category groups items in the catalog. Plain record storage, no derived state.
type Category struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CategoryUpdate carries the fields of a partial category update.
// Nil pointers mean "leave unchanged".
type CategoryUpdate struct {
	Name        *string
	Description *string
}

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]Category, error)
	GetByID(ctx context.Context, id string) (*Category, error)
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, id string, upd CategoryUpdate) (*Category, error)
	Delete(ctx context.Context, id string) error
}
