// Command catalog-import bulk-loads items from gzipped line-delimited JSON
// feeds, typically exports from a supplier or another store.
//
// The items table enforces SKU uniqueness, so feeds that overlap would make
// the import order-dependent: whichever file is processed last wins. To make
// collisions visible (and the outcome deterministic) the import runs in two
// scan passes before writing anything:
//
//  1. Build one bloom filter of SKUs per feed, concurrently.
//  2. Re-scan each feed against the other feeds' filters to find SKUs that
//     appear in two or more files.
//
// During the final import pass the first occurrence of a cross-feed SKU wins
// and later ones are skipped with a warning.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"math/bits"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/pos-backend/internal/domain/catalog"
	"github.com/xenking/pos-backend/internal/storage/postgres"
)

const (
	bloomCapacity = 1_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
)

type itemRecord struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  string          `json:"category_id"`
	SKU         string          `json:"sku"`
	InStock     *bool           `json:"in_stock"`
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.jsonl.gz item feeds")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
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

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("catalog import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog import completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.jsonl.gz"))
	if err != nil {
		return errors.Wrap(err, "glob feeds")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.jsonl.gz feeds in %s", dataDir)
	}
	sort.Strings(files)

	slog.Info("pass 1: building SKU filters", slog.Int("files", len(files)))

	filters, err := buildSKUFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build SKU filters")
	}

	slog.Info("pass 2: finding cross-feed SKUs")

	duplicates, err := findCrossFeedSKUs(ctx, files, filters)
	if err != nil {
		return errors.Wrap(err, "find cross-feed SKUs")
	}

	slog.Info("cross-feed SKUs found", slog.Int("count", len(duplicates)))

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	return importFeeds(ctx, postgres.NewItemRepository(pool), files, duplicates)
}

// buildSKUFilters creates one bloom filter per feed, concurrently.
func buildSKUFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(buildFilterForFeed(ctx, i, f, filters))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

func buildFilterForFeed(ctx context.Context, idx int, path string, filters []*bloom.BloomFilter) func() error {
	return func() error {
		filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		var count uint64

		if err := streamFeed(ctx, path, func(rec itemRecord) {
			if rec.SKU == "" {
				return
			}
			filter.AddString(rec.SKU)
			count++
			if count%progressEvery == 0 {
				slog.Info("pass 1 progress", slog.String("file", path), slog.Uint64("records", count))
			}
		}); err != nil {
			return errors.Wrapf(err, "build filter for %s", path)
		}

		slog.Info("pass 1 complete", slog.String("file", path), slog.Uint64("records", count))
		filters[idx] = filter
		return nil
	}
}

// findCrossFeedSKUs re-streams each feed against the other feeds' filters and
// returns the SKUs that appear in two or more files.
func findCrossFeedSKUs(ctx context.Context, files []string, filters []*bloom.BloomFilter) (map[string]struct{}, error) {
	results := make([]map[string]uint, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(findCandidatesInFeed(ctx, i, f, filters, results))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[string]uint)
	for _, r := range results {
		for sku, mask := range r {
			merged[sku] |= mask
		}
	}

	duplicates := make(map[string]struct{})
	for sku, mask := range merged {
		if bits.OnesCount(mask) >= 2 {
			duplicates[sku] = struct{}{}
		}
	}
	return duplicates, nil
}

func findCandidatesInFeed(
	ctx context.Context,
	idx int,
	path string,
	filters []*bloom.BloomFilter,
	results []map[string]uint,
) func() error {
	return func() error {
		candidates := make(map[string]uint)
		feedBit := uint(1) << uint(idx)

		if err := streamFeed(ctx, path, func(rec itemRecord) {
			if rec.SKU == "" {
				return
			}
			for j, f := range filters {
				if j == idx {
					continue
				}
				if f.TestString(rec.SKU) {
					candidates[rec.SKU] |= feedBit
					break
				}
			}
		}); err != nil {
			return errors.Wrapf(err, "scan %s for candidates", path)
		}

		results[idx] = candidates
		return nil
	}
}

// importFeeds streams the feeds in order and upserts every record. SKUs are
// unique in the items table, so only the first occurrence of each SKU is
// imported; later ones, from the same feed or a cross-feed collision, are
// skipped with a warning.
func importFeeds(ctx context.Context, items *postgres.ItemRepository, files []string, duplicates map[string]struct{}) error {
	imported := make(map[string]struct{}, len(duplicates))
	now := time.Now().UTC()
	var total, skipped uint64

	for _, path := range files {
		slog.Info("importing feed", slog.String("file", path))

		if err := streamFeedErr(ctx, path, func(rec itemRecord) error {
			if rec.SKU != "" {
				if _, seen := imported[rec.SKU]; seen {
					skipped++
					_, crossFeed := duplicates[rec.SKU]
					slog.Warn("skipping duplicate SKU",
						slog.String("sku", rec.SKU),
						slog.String("file", path),
						slog.Bool("cross_feed", crossFeed),
					)
					return nil
				}
				imported[rec.SKU] = struct{}{}
			}

			id := rec.ID
			if id == "" {
				id = uuid.New().String()
			}
			inStock := true
			if rec.InStock != nil {
				inStock = *rec.InStock
			}
			if err := items.Upsert(ctx, &catalog.Item{
				ID:          id,
				Name:        rec.Name,
				Description: rec.Description,
				Price:       rec.Price,
				CategoryID:  rec.CategoryID,
				SKU:         rec.SKU,
				InStock:     inStock,
				CreatedAt:   now,
				UpdatedAt:   now,
			}); err != nil {
				return errors.Wrapf(err, "upsert item %s", rec.Name)
			}
			total++
			return nil
		}); err != nil {
			return errors.Wrapf(err, "import %s", path)
		}
	}

	slog.Info("import summary", slog.Uint64("imported", total), slog.Uint64("skipped", skipped))
	return nil
}

// streamFeed opens a gzipped feed and calls fn for every decodable record.
// Undecodable lines are logged and skipped.
func streamFeed(ctx context.Context, path string, fn func(rec itemRecord)) error {
	return streamFeedErr(ctx, path, func(rec itemRecord) error {
		fn(rec)
		return nil
	})
}

func streamFeedErr(ctx context.Context, path string, fn func(rec itemRecord) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "gzip reader %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)

	var line uint64
	for scanner.Scan() {
		line++
		if line%progressEvery == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var rec itemRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			slog.Warn("skipping malformed record",
				slog.String("file", path),
				slog.Uint64("line", line),
				slog.String("error", err.Error()),
			)
			continue
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return errors.Wrapf(scanner.Err(), "scan %s", path)
}
