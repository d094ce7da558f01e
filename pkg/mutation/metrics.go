package mutation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "catalog_mutations_total",
	Help: "Total create and delete mutations by operation and result",
}, []string{"op", "result"})
