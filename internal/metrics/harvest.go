package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Harvest Prometheus metrics.
var (
	HarvestRecordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "oaihealth",
			Name:      "harvest_records_total",
			Help:      "Total number of records consumed by completed harvests",
		},
	)

	HarvestFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "oaihealth",
			Name:      "harvest_failures_total",
			Help:      "Total number of harvests discarded after a transport failure",
		},
	)

	HarvestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "oaihealth",
			Name:      "harvest_duration_seconds",
			Help:      "Wall time of a harvest",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	OAIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oaihealth",
			Name:      "oai_requests_total",
			Help:      "OAI-PMH requests by verb and outcome",
		},
		[]string{"verb", "status"},
	)

	HarvestCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oaihealth",
			Name:      "harvest_cache_total",
			Help:      "Harvest cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var registerOnce sync.Once

// Register registers every collector with reg. Safe to call more than once.
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(
			HarvestRecordsTotal,
			HarvestFailuresTotal,
			HarvestDuration,
			OAIRequestsTotal,
			HarvestCacheTotal,
			httpRequestDuration,
			httpRequestsTotal,
		)
	})
}
