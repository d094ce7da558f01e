package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Sternrassler/space-catalog/pkg/catalog"
)

// Config holds batch fetcher configuration.
type Config struct {
	// MaxConcurrency is the maximum number of parallel page requests.
	MaxConcurrency int

	// Timeout bounds each page request.
	Timeout time.Duration

	// PageSize is the number of items per page.
	PageSize int

	// MaxPages stops a listing that never returns a short page.
	MaxPages int
}

// DefaultConfig returns the batch configuration used by the CLI.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
		PageSize:       PageSize,
		MaxPages:       10000,
	}
}

// BatchFetcher loads every page of the collection.
type BatchFetcher struct {
	loader Loader
	config Config
}

// NewBatchFetcher creates a batch fetcher. Zero config fields take defaults.
func NewBatchFetcher(loader Loader, config Config) *BatchFetcher {
	def := DefaultConfig()
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = def.MaxConcurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.PageSize <= 0 {
		config.PageSize = def.PageSize
	}
	if config.MaxPages <= 0 {
		config.MaxPages = def.MaxPages
	}
	return &BatchFetcher{loader: loader, config: config}
}

// FetchAll loads all pages and returns their merged view.
func (bf *BatchFetcher) FetchAll(ctx context.Context) ([]catalog.SpaceObject, error) {
	pages, err := bf.FetchAllPages(ctx)
	if err != nil {
		return nil, err
	}
	return Merge(pages), nil
}

// FetchAllPages loads page 1, then the remaining pages. With a reported total
// count the pages it implies are fetched in parallel; without one, or when the
// collection grew past it, pages are fetched one by one until a short page.
func (bf *BatchFetcher) FetchAllPages(ctx context.Context) ([]Page, error) {
	if bf.loader == nil {
		return nil, ErrNoLoader
	}
	start := time.Now()

	first, err := bf.load(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch first page: %w", err)
	}
	if !first.HasMore {
		log.Info().Int("pages", 1).Dur("duration", time.Since(start)).Msg("Fetch complete (single page)")
		return []Page{first}, nil
	}

	pages := []Page{first}
	if total := PageCount(first.TotalCount, bf.config.PageSize); total > 1 {
		if total > bf.config.MaxPages {
			return nil, fmt.Errorf("collection reports %d pages, limit is %d", total, bf.config.MaxPages)
		}
		log.Info().Int("total_pages", total).Msg("Starting parallel page fetch")

		rest, err := bf.fetchParallel(ctx, 2, total)
		if err != nil {
			return nil, err
		}
		pages = append(pages, rest...)
	}

	for pages[len(pages)-1].HasMore {
		next := len(pages) + 1
		if next > bf.config.MaxPages {
			return nil, fmt.Errorf("listing did not end within %d pages", bf.config.MaxPages)
		}
		page, err := bf.load(ctx, next)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", next, err)
		}
		pages = append(pages, page)
	}

	log.Info().
		Int("pages", len(pages)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")
	return pages, nil
}

// fetchParallel loads pages from..to with bounded concurrency. The first
// failure cancels the remaining requests.
func (bf *BatchFetcher) fetchParallel(ctx context.Context, from, to int) ([]Page, error) {
	pages := make([]Page, to-from+1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bf.config.MaxConcurrency)
	for n := from; n <= to; n++ {
		n := n
		g.Go(func() error {
			page, err := bf.load(gctx, n)
			if err != nil {
				log.Warn().Err(err).Int("page", n).Msg("Page fetch failed")
				return fmt.Errorf("fetch page %d: %w", n, err)
			}
			pages[n-from] = page
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}

func (bf *BatchFetcher) load(ctx context.Context, number int) (Page, error) {
	pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
	defer cancel()

	page, err := bf.loader.LoadPage(pageCtx, number, bf.config.PageSize)
	if err != nil {
		return Page{}, err
	}
	page.Number = number
	page.HasMore = len(page.Items) == bf.config.PageSize
	return page, nil
}
