package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/pos-backend/internal/domain/catalog"
)

const (
	itemColumns = `id, name, description, price, category_id, sku, in_stock, created_at, updated_at`

	listItemsSQL = `SELECT ` + itemColumns + ` FROM items ORDER BY name`

	listItemsByCategorySQL = `SELECT ` + itemColumns + ` FROM items
		WHERE category_id = $1 ORDER BY name`

	getItemByIDSQL = `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	createItemSQL = `INSERT INTO items (id, name, description, price, category_id, sku, in_stock, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, '')::uuid, NULLIF($6, ''), $7, $8, $9)`

	updateItemSQL = `UPDATE items
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    price = COALESCE($4, price),
		    category_id = COALESCE(NULLIF($5, '')::uuid, category_id),
		    sku = COALESCE($6, sku),
		    in_stock = COALESCE($7, in_stock),
		    updated_at = $8
		WHERE id = $1
		RETURNING ` + itemColumns

	deleteItemSQL = `DELETE FROM items WHERE id = $1`

	upsertItemSQL = `INSERT INTO items (id, name, description, price, category_id, sku, in_stock, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, '')::uuid, NULLIF($6, ''), $7, $8, $8)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    description = EXCLUDED.description,
		    price = EXCLUDED.price,
		    category_id = EXCLUDED.category_id,
		    sku = EXCLUDED.sku,
		    in_stock = EXCLUDED.in_stock,
		    updated_at = EXCLUDED.updated_at`
)

var _ catalog.ItemRepository = (*ItemRepository)(nil)

// ItemRepository implements catalog.ItemRepository backed by PostgreSQL.
type ItemRepository struct {
	pool *pgxpool.Pool
}

// NewItemRepository returns an ItemRepository that uses the given pool.
func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

// List returns all items ordered by name.
func (r *ItemRepository) List(ctx context.Context) ([]catalog.Item, error) {
	rows, err := r.pool.Query(ctx, listItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return pgx.CollectRows(rows, scanItem)
}

// ListByCategory returns all items belonging to a category, ordered by name.
func (r *ItemRepository) ListByCategory(ctx context.Context, categoryID string) ([]catalog.Item, error) {
	rows, err := r.pool.Query(ctx, listItemsByCategorySQL, categoryID)
	if err != nil {
		return nil, fmt.Errorf("listing items for category %q: %w", categoryID, err)
	}
	return pgx.CollectRows(rows, scanItem)
}

// GetByID returns a single item by its identifier.
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*catalog.Item, error) {
	rows, err := r.pool.Query(ctx, getItemByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting item %q: %w", id, err)
	}

	it, err := pgx.CollectExactlyOneRow(rows, scanItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrItemNotFound
		}
		return nil, fmt.Errorf("getting item %q: %w", id, err)
	}
	return &it, nil
}

// Create persists a new item.
func (r *ItemRepository) Create(ctx context.Context, it *catalog.Item) error {
	_, err := r.pool.Exec(ctx, createItemSQL,
		it.ID, it.Name, it.Description, it.Price, it.CategoryID, it.SKU, it.InStock,
		it.CreatedAt, it.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating item %q: %w", it.ID, err)
	}
	return nil
}

// Update applies a partial update and returns the updated item.
func (r *ItemRepository) Update(ctx context.Context, id string, upd catalog.ItemUpdate) (*catalog.Item, error) {
	rows, err := r.pool.Query(ctx, updateItemSQL,
		id, upd.Name, upd.Description, upd.Price, upd.CategoryID, upd.SKU, upd.InStock,
		time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("updating item %q: %w", id, err)
	}

	it, err := pgx.CollectExactlyOneRow(rows, scanItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrItemNotFound
		}
		return nil, fmt.Errorf("updating item %q: %w", id, err)
	}
	return &it, nil
}

// Delete removes an item. Returns catalog.ErrItemNotFound when no row was
// affected.
func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteItemSQL, id)
	if err != nil {
		return fmt.Errorf("deleting item %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrItemNotFound
	}
	return nil
}

// Upsert inserts or replaces an item by id. Used by the bulk import CLI.
func (r *ItemRepository) Upsert(ctx context.Context, it *catalog.Item) error {
	_, err := r.pool.Exec(ctx, upsertItemSQL,
		it.ID, it.Name, it.Description, it.Price, it.CategoryID, it.SKU, it.InStock,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting item %q: %w", it.ID, err)
	}
	return nil
}

func scanItem(row pgx.CollectableRow) (catalog.Item, error) {
	var (
		it       catalog.Item
		desc     *string
		category *string
		sku      *string
	)
	err := row.Scan(
		&it.ID, &it.Name, &desc, &it.Price, &category, &sku, &it.InStock,
		&it.CreatedAt, &it.UpdatedAt,
	)
	if desc != nil {
		it.Description = *desc
	}
	if category != nil {
		it.CategoryID = *category
	}
	if sku != nil {
		it.SKU = *sku
	}
	return it, err
}
