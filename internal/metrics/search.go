package metrics

import "github.com/prometheus/client_golang/prometheus"

// Query outcomes used as the "outcome" label.
const (
	OutcomeOK      = "ok"
	OutcomeEmpty   = "empty"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Registry Prometheus metrics.
var (
	SearchQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "search_queries_total",
			Help:      "Total number of knowledge queries by outcome",
		},
		[]string{"outcome"},
	)

	SearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "search_results",
			Help:      "Number of sources returned per query",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 15},
		},
	)

	CatalogCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "catalog_cache_total",
			Help:      "Candidate cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	KnowledgeGapsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "knowledge_gaps_total",
			Help:      "Queries answered with fewer sources than the coverage threshold",
		},
	)

	IngestSourcesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ingest_sources_total",
			Help:      "Sources processed by ingestion",
		},
		[]string{"status"}, // "ok" / "rejected" / "failed"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers the registry metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchQueriesTotal)
	prometheus.MustRegister(SearchResults)
	prometheus.MustRegister(CatalogCacheTotal)
	prometheus.MustRegister(KnowledgeGapsTotal)
	prometheus.MustRegister(IngestSourcesTotal)
	searchMetricsRegistered = true
}
