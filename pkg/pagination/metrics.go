package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_pages_fetched_total",
		Help: "Total pages appended to the query cache by query",
	}, []string{"query"})

	pageErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_page_errors_total",
		Help: "Total failed page loads by query",
	}, []string{"query"})

	fetchSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_fetch_skipped_total",
		Help: "Fetch requests answered without a network call by reason",
	}, []string{"reason"})

	stalePagesDiscardedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_stale_pages_discarded_total",
		Help: "Pages dropped because their query was invalidated while they loaded",
	})
)
