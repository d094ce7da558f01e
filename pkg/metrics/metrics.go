// Package metrics exposes the Prometheus registry used by the catalog.
// All metrics are defined in the packages that own them (client, cache,
// ratelimit, pagination, mutation) and registered through promauto.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Registry is the registerer every catalog metric is registered with.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer served by Handler.
var Gatherer = prometheus.DefaultGatherer

// Path is where Serve exposes the metrics.
const Path = "/metrics"

// Handler returns the HTTP handler for the metrics endpoint.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Serve exposes Handler on addr until ctx is done.
func Serve(ctx context.Context, addr string, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle(Path, Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("Serving metrics")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - catalog_requests_total{endpoint, status} (Counter): Requests by endpoint template and HTTP status
//   - catalog_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - catalog_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Retry Metrics (pkg/client):
//   - catalog_retries_total{error_class} (Counter): Retry attempts by error class
//   - catalog_retry_backoff_seconds{error_class} (Histogram): Backoff before a retry
//   - catalog_retry_exhausted_total{error_class} (Counter): Requests that failed after the last retry
//
// Cache Metrics (pkg/cache):
//   - catalog_cache_hits_total{layer="redis"} (Counter): Response cache hits
//   - catalog_cache_misses_total (Counter): Response cache misses
//   - catalog_cache_errors_total{operation} (Counter): Redis errors by operation
//   - catalog_cache_invalidations_total (Counter): Keys dropped after writes
//   - catalog_304_responses_total (Counter): 304 Not Modified responses
//   - catalog_conditional_requests_total (Counter): Requests sent with If-None-Match or If-Modified-Since
//
// Rate Limit Metrics (pkg/ratelimit):
//   - catalog_rate_limit_remaining (Gauge): Request budget reported by the server
//   - catalog_rate_limit_blocks_total (Counter): Requests refused locally
//   - catalog_rate_limit_throttles_total (Counter): Requests delayed locally
//
// Listing Metrics (pkg/pagination):
//   - catalog_pages_fetched_total{query} (Counter): Pages appended to the query cache
//   - catalog_page_errors_total{query} (Counter): Failed page loads
//   - catalog_fetch_skipped_total{reason} (Counter): Fetches answered without a request (in_flight, exhausted, loaded)
//   - catalog_stale_pages_discarded_total (Counter): Pages dropped after an invalidation
//
// Mutation Metrics (pkg/mutation):
//   - catalog_mutations_total{op, result} (Counter): Creates and deletes by result (success, failure, invalid)
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(catalog_cache_hits_total[5m])) /
//   (sum(rate(catalog_cache_hits_total[5m])) + sum(rate(catalog_cache_misses_total[5m])))
//
//   # Failed Deletes
//   rate(catalog_mutations_total{op="delete",result="failure"}[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(catalog_request_duration_seconds_bucket[5m]))
