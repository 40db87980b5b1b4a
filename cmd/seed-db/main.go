// Command seed-db runs migrations and loads an initial catalog (categories
// and items) from a JSON file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-backend/internal/domain/catalog"
	"github.com/xenking/pos-backend/internal/storage/postgres"
)

type categoryJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type itemJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  string          `json:"category_id"`
	SKU         string          `json:"sku"`
	InStock     *bool           `json:"in_stock"`
}

type seedFile struct {
	Categories []categoryJSON `json:"categories"`
	Items      []itemJSON     `json:"items"`
}

func main() {
	var (
		databaseURL string
		catalogFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to catalog JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	slog.Info("reading catalog file", slog.String("path", catalogFile))

	data, err := os.ReadFile(catalogFile)
	if err != nil {
		return errors.Wrap(err, "read catalog file")
	}

	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return errors.Wrap(err, "parse catalog JSON")
	}

	now := time.Now().UTC()

	categories := postgres.NewCategoryRepository(pool)
	slog.Info("upserting categories", slog.Int("count", len(seed.Categories)))
	for _, c := range seed.Categories {
		id := c.ID
		if id == "" {
			id = uuid.New().String()
		}
		if err := categories.Upsert(ctx, &catalog.Category{
			ID:          id,
			Name:        c.Name,
			Description: c.Description,
		}); err != nil {
			return errors.Wrapf(err, "upsert category %s", c.Name)
		}
		slog.Info("upserted category", slog.String("id", id), slog.String("name", c.Name))
	}

	items := postgres.NewItemRepository(pool)
	slog.Info("upserting items", slog.Int("count", len(seed.Items)))
	for _, it := range seed.Items {
		id := it.ID
		if id == "" {
			id = uuid.New().String()
		}
		inStock := true
		if it.InStock != nil {
			inStock = *it.InStock
		}
		if err := items.Upsert(ctx, &catalog.Item{
			ID:          id,
			Name:        it.Name,
			Description: it.Description,
			Price:       it.Price,
			CategoryID:  it.CategoryID,
			SKU:         it.SKU,
			InStock:     inStock,
			CreatedAt:   now,
			UpdatedAt:   now,
		}); err != nil {
			return errors.Wrapf(err, "upsert item %s", it.Name)
		}
		slog.Info("upserted item", slog.String("id", id), slog.String("name", it.Name))
	}

	return nil
}
