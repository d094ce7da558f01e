package pagination

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/space-catalog/pkg/catalog"
)

// State is a snapshot of a Fetcher.
type State struct {
	// Pages is the number of retained pages.
	Pages int

	// Items is the length of the merged view.
	Items int

	// HasMore is true when nothing is retained yet or the last page was full.
	HasMore bool

	// TotalCount is the last reported collection size, 0 if unknown.
	TotalCount int

	// Loading is set while the first page is in flight.
	Loading bool

	// FetchingNext is set while a later page is in flight.
	FetchingNext bool

	// Err is the error of the most recent failed load, nil after a success
	// or an invalidation.
	Err error

	// Generation is the query's current invalidation generation.
	Generation uint64
}

// Fetcher loads the pages of one query into a QueryCache. At most one page
// request is in flight at a time; calls made while one is outstanding return
// without touching the network.
type Fetcher struct {
	key    QueryKey
	loader Loader
	cache  *QueryCache
	size   int
	logger zerolog.Logger

	mu           sync.Mutex
	generation   uint64
	loading      bool
	fetchingNext bool
	err          error
}

// NewFetcher creates a fetcher for key. A nil cache gets a private one.
func NewFetcher(key QueryKey, loader Loader, cache *QueryCache) *Fetcher {
	if cache == nil {
		cache = NewQueryCache()
	}
	return &Fetcher{
		key:        key,
		loader:     loader,
		cache:      cache,
		size:       PageSize,
		logger:     log.With().Str("component", "fetcher").Str("query", string(key)).Logger(),
		generation: cache.Generation(key),
	}
}

// Key returns the query key.
func (f *Fetcher) Key() QueryKey {
	return f.key
}

// Cache returns the query cache the fetcher writes to.
func (f *Fetcher) Cache() *QueryCache {
	return f.cache
}

// Load fetches page 1 unless pages are already retained or a request is in
// flight.
func (f *Fetcher) Load(ctx context.Context) error {
	f.mu.Lock()
	if f.loader == nil {
		f.mu.Unlock()
		return ErrNoLoader
	}
	f.syncLocked()

	if len(f.cache.Pages(f.key)) > 0 {
		f.mu.Unlock()
		fetchSkippedTotal.WithLabelValues("loaded").Inc()
		return nil
	}
	if f.loading || f.fetchingNext {
		f.mu.Unlock()
		fetchSkippedTotal.WithLabelValues("in_flight").Inc()
		return nil
	}
	f.loading = true
	gen := f.generation
	f.mu.Unlock()

	_, err := f.fetch(ctx, 1, gen, false)
	return err
}

// FetchNext loads the page after the last retained one. It reports whether a
// page was appended. It returns false without a request when the last page
// was short or a request is already in flight.
func (f *Fetcher) FetchNext(ctx context.Context) (bool, error) {
	f.mu.Lock()
	if f.loader == nil {
		f.mu.Unlock()
		return false, ErrNoLoader
	}
	f.syncLocked()

	pages := f.cache.Pages(f.key)
	if n := len(pages); n > 0 && !pages[n-1].HasMore {
		f.mu.Unlock()
		fetchSkippedTotal.WithLabelValues("exhausted").Inc()
		return false, nil
	}
	if f.loading || f.fetchingNext {
		f.mu.Unlock()
		fetchSkippedTotal.WithLabelValues("in_flight").Inc()
		return false, nil
	}

	next := len(pages) + 1
	if next == 1 {
		f.loading = true
	} else {
		f.fetchingNext = true
	}
	gen := f.generation
	f.mu.Unlock()

	return f.fetch(ctx, next, gen, next > 1)
}

// Invalidate drops the retained pages, the in-flight flags and the error.
// Responses to requests issued before the call are discarded on arrival.
func (f *Fetcher) Invalidate() {
	f.mu.Lock()
	defer f.mu.Unlock()

	gen := f.cache.Invalidate(f.key)
	f.syncLocked()
	f.logger.Debug().Uint64("generation", gen).Msg("Query invalidated")
}

// State returns a snapshot of the fetcher.
func (f *Fetcher) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncLocked()

	pages := f.cache.Pages(f.key)
	st := State{
		Pages:        len(pages),
		Items:        len(Merge(pages)),
		HasMore:      true,
		Loading:      f.loading,
		FetchingNext: f.fetchingNext,
		Err:          f.err,
		Generation:   f.generation,
	}
	if n := len(pages); n > 0 {
		st.HasMore = pages[n-1].HasMore
		st.TotalCount = pages[n-1].TotalCount
	}
	return st
}

// View returns the merged view of the retained pages.
func (f *Fetcher) View() []catalog.SpaceObject {
	return Merge(f.cache.Pages(f.key))
}

// syncLocked resets per-generation state when the cache entry was
// invalidated, including by someone else holding the same cache.
func (f *Fetcher) syncLocked() {
	if g := f.cache.Generation(f.key); g != f.generation {
		f.generation = g
		f.loading = false
		f.fetchingNext = false
		f.err = nil
	}
}

// fetch loads page number under generation gen and clears the matching
// in-flight flag, unless the query was invalidated in the meantime.
func (f *Fetcher) fetch(ctx context.Context, number int, gen uint64, next bool) (bool, error) {
	f.logger.Debug().Int("page", number).Uint64("generation", gen).Msg("Loading page")
	page, loadErr := f.loader.LoadPage(ctx, number, f.size)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncLocked()

	if gen != f.generation {
		stalePagesDiscardedTotal.Inc()
		f.logger.Debug().
			Int("page", number).
			Uint64("generation", gen).
			Uint64("current_generation", f.generation).
			Msg("Discarding page from invalidated query")
		return false, nil
	}

	if next {
		f.fetchingNext = false
	} else {
		f.loading = false
	}

	if loadErr != nil {
		f.err = loadErr
		pageErrorsTotal.WithLabelValues(string(f.key)).Inc()
		f.logger.Warn().Err(loadErr).Int("page", number).Msg("Page load failed")
		return false, fmt.Errorf("load page %d: %w", number, loadErr)
	}

	page.Number = number
	page.HasMore = len(page.Items) == f.size
	if !f.cache.Append(f.key, gen, page) {
		f.logger.Debug().Int("page", number).Msg("Page rejected by query cache")
		return false, nil
	}

	f.err = nil
	pagesFetchedTotal.WithLabelValues(string(f.key)).Inc()
	f.logger.Debug().
		Int("page", number).
		Int("items", len(page.Items)).
		Bool("has_more", page.HasMore).
		Msg("Page appended")
	return true, nil
}
