// Package cache stores catalog list responses in Redis so repeated page
// loads can be revalidated with conditional requests instead of
// re-downloading the page body.
//
// The client consults the cache before every GET:
//
//	key := cache.Key{Resource: "space-objects", Query: req.URL.Query()}
//	entry, err := manager.Get(ctx, key)
//	if err == nil && cache.ShouldMakeConditionalRequest(entry) {
//		cache.AddConditionalHeaders(req, entry)
//	}
//
// A 304 response is answered from the stored entry; a 200 response replaces
// it. Successful creates and deletes call InvalidateResource so no page of
// the collection survives a mutation.
//
// Entry lifetime comes from Cache-Control max-age, then Expires, then
// DefaultTTL. Responses marked no-store are never stored.
//
// # Metrics
//
//   - catalog_cache_hits_total{layer="redis"}
//   - catalog_cache_misses_total
//   - catalog_cache_errors_total{operation}
//   - catalog_cache_invalidations_total
//   - catalog_304_responses_total
//   - catalog_conditional_requests_total
package cache
