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
	listCategoriesSQL = `SELECT id, name, description, created_at, updated_at
		FROM categories ORDER BY name`

	getCategoryByIDSQL = `SELECT id, name, description, created_at, updated_at
		FROM categories WHERE id = $1`

	createCategorySQL = `INSERT INTO categories (id, name, description, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)`

	updateCategorySQL = `UPDATE categories
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    updated_at = $4
		WHERE id = $1
		RETURNING id, name, description, created_at, updated_at`

	deleteCategorySQL = `DELETE FROM categories WHERE id = $1`

	upsertCategorySQL = `INSERT INTO categories (id, name, description, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    description = EXCLUDED.description,
		    updated_at = EXCLUDED.updated_at`
)

var _ catalog.CategoryRepository = (*CategoryRepository)(nil)

// CategoryRepository implements catalog.CategoryRepository backed by PostgreSQL.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository returns a CategoryRepository that uses the given pool.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// List returns all categories ordered by name.
func (r *CategoryRepository) List(ctx context.Context) ([]catalog.Category, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return pgx.CollectRows(rows, scanCategory)
}

// GetByID returns a single category by its identifier.
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*catalog.Category, error) {
	rows, err := r.pool.Query(ctx, getCategoryByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting category %q: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCategory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("getting category %q: %w", id, err)
	}
	return &c, nil
}

// Create persists a new category.
func (r *CategoryRepository) Create(ctx context.Context, c *catalog.Category) error {
	_, err := r.pool.Exec(ctx, createCategorySQL,
		c.ID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating category %q: %w", c.ID, err)
	}
	return nil
}

// Update applies a partial update and returns the updated category.
func (r *CategoryRepository) Update(ctx context.Context, id string, upd catalog.CategoryUpdate) (*catalog.Category, error) {
	rows, err := r.pool.Query(ctx, updateCategorySQL,
		id, upd.Name, upd.Description, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("updating category %q: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCategory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("updating category %q: %w", id, err)
	}
	return &c, nil
}

// Upsert inserts the category or replaces an existing row with the same id.
// Used by the seed tooling.
func (r *CategoryRepository) Upsert(ctx context.Context, c *catalog.Category) error {
	_, err := r.pool.Exec(ctx, upsertCategorySQL,
		c.ID, c.Name, c.Description, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting category %q: %w", c.ID, err)
	}
	return nil
}

// Delete removes a category. Returns catalog.ErrCategoryNotFound when no row
// was affected.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteCategorySQL, id)
	if err != nil {
		return fmt.Errorf("deleting category %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrCategoryNotFound
	}
	return nil
}

func scanCategory(row pgx.CollectableRow) (catalog.Category, error) {
	var (
		c    catalog.Category
		desc *string
	)
	err := row.Scan(&c.ID, &c.Name, &desc, &c.CreatedAt, &c.UpdatedAt)
	if desc != nil {
		c.Description = *desc
	}
	return c, err
}
