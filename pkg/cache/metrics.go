package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts entries served from a cache layer.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_hits_total",
		Help: "Total number of catalog response cache hits",
	}, []string{"layer"})

	// CacheMisses counts lookups that found nothing usable.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cache_misses_total",
		Help: "Total number of catalog response cache misses",
	})

	// CacheErrors counts failed cache operations by operation.
	CacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_errors_total",
		Help: "Total number of catalog response cache errors",
	}, []string{"operation"})

	// CacheInvalidations counts keys removed by resource invalidation.
	CacheInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cache_invalidations_total",
		Help: "Total number of cache keys removed by resource invalidation",
	})

	// NotModifiedResponses counts 304 answers served from the cache.
	NotModifiedResponses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_304_responses_total",
		Help: "Total number of 304 Not Modified responses",
	})

	// ConditionalRequestsSent counts requests sent with validators.
	ConditionalRequestsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_conditional_requests_total",
		Help: "Total number of conditional requests sent",
	})
)
