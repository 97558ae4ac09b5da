// Package metrics holds the Prometheus collectors for the bookmark service
// and the chi middleware that records HTTP traffic.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bookmarks"

// Catalog metrics.
var (
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Catalog search duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"kind"}, // "query" / "match_all" / "tags"
	)

	SearchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_errors_total",
			Help:      "Catalog searches that failed, by error code",
		},
		[]string{"code"},
	)

	ImportRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_records_total",
			Help:      "Records submitted for import, by outcome",
		},
		[]string{"outcome"}, // "ok" / "ambiguous" / "error"
	)

	ExportRecordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_records_total",
			Help:      "Records streamed out by exports",
		},
	)

	FetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Ingestion page fetches, by result",
		},
		[]string{"result"}, // "ok" / "error"
	)

	FetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Ingestion page fetch duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

var registerOnce sync.Once

// Register registers every collector with the default registry. Safe to
// call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestDuration,
			httpRequestsTotal,
			SearchDuration,
			SearchErrorsTotal,
			ImportRecordsTotal,
			ExportRecordsTotal,
			FetchTotal,
			FetchDuration,
		)
	})
}
