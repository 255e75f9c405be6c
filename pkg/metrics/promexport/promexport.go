// Package promexport mirrors MetricsSink activity onto Prometheus
// instruments, for environments that scrape rather than query the sqlite
// sink directly.
//
// There is no package-level registry gate: a single Exporter is
// constructed explicitly by the caller and mounted via Handler(), so
// "not constructed" already means "disabled".
package promexport

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AccessDevops/S3Explorer/pkg/events"
)

// Exporter holds the Prometheus instruments that mirror request and cache
// activity recorded through pkg/metrics.Sink.
type Exporter struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	bytesTransferred *prometheus.CounterVec
	objectsAffected  *prometheus.CounterVec

	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	cacheEvictions *prometheus.CounterVec
	cacheInsertions *prometheus.CounterVec

	activeUploads   prometheus.Gauge
	activeDownloads prometheus.Gauge
	activeIndexing  prometheus.Gauge
}

// New builds an Exporter registered against its own prometheus.Registry,
// so a caller not using metrics can simply not construct one.
func New() *Exporter {
	reg := prometheus.NewRegistry()

	return &Exporter{
		registry: reg,

		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "s3explorer_requests_total",
				Help: "Total number of S3 operations by operation, category, and outcome.",
			},
			[]string{"operation", "category", "success"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "s3explorer_request_duration_milliseconds",
				Help: "Duration of S3 operations in milliseconds.",
				Buckets: []float64{
					1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000,
				},
			},
			[]string{"operation", "category"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "s3explorer_bytes_transferred_total",
				Help: "Total bytes transferred to or from S3 by category.",
			},
			[]string{"category"},
		),
		objectsAffected: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "s3explorer_objects_affected_total",
				Help: "Total objects affected by S3 operations (e.g. batch delete) by operation.",
			},
			[]string{"operation"},
		),

		cacheHits: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "s3explorer_cache_hits_total",
				Help: "Total cache hits by cache name.",
			},
			[]string{"cache_name"},
		),
		cacheMisses: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "s3explorer_cache_misses_total",
				Help: "Total cache misses by cache name.",
			},
			[]string{"cache_name"},
		),
		cacheEvictions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "s3explorer_cache_evictions_total",
				Help: "Total cache evictions by cache name.",
			},
			[]string{"cache_name"},
		),
		cacheInsertions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "s3explorer_cache_insertions_total",
				Help: "Total cache insertions by cache name.",
			},
			[]string{"cache_name"},
		),

		activeUploads: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "s3explorer_active_uploads",
			Help: "Number of uploads currently in progress.",
		}),
		activeDownloads: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "s3explorer_active_downloads",
			Help: "Number of downloads currently in progress.",
		}),
		activeIndexing: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "s3explorer_active_indexing",
			Help: "Number of bucket indexing operations currently in progress.",
		}),
	}
}

// Handler returns the http.Handler to mount at a scrape endpoint (e.g.
// /metrics in pkg/httpapi's router).
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one S3RequestMetric as Prometheus counters and a
// duration histogram. Intended to be called alongside Sink.RecordRequest,
// not as a replacement for it — the sqlite sink remains the source of
// truth for historical queries, this is the live scrape surface.
func (e *Exporter) ObserveRequest(m events.S3RequestMetric) {
	success := "true"
	if !m.Success {
		success = "false"
	}
	e.requestsTotal.WithLabelValues(m.Operation, string(m.Category), success).Inc()
	e.requestDuration.WithLabelValues(m.Operation, string(m.Category)).Observe(float64(m.DurationMs))
	if m.BytesTransferred > 0 {
		e.bytesTransferred.WithLabelValues(string(m.Category)).Add(float64(m.BytesTransferred))
	}
	if m.ObjectsAffected > 0 {
		e.objectsAffected.WithLabelValues(m.Operation).Add(float64(m.ObjectsAffected))
	}
}

// ObserveCacheEvent increments the counter matching event ("hit", "miss",
// "eviction", "insertion") for cacheName. Unknown event names are ignored.
func (e *Exporter) ObserveCacheEvent(cacheName, event string) {
	switch event {
	case "hit":
		e.cacheHits.WithLabelValues(cacheName).Inc()
	case "miss":
		e.cacheMisses.WithLabelValues(cacheName).Inc()
	case "eviction":
		e.cacheEvictions.WithLabelValues(cacheName).Inc()
	case "insertion":
		e.cacheInsertions.WithLabelValues(cacheName).Inc()
	}
}

// SetActiveUploads reports the current count of in-flight uploads.
func (e *Exporter) SetActiveUploads(n int) { e.activeUploads.Set(float64(n)) }

// SetActiveDownloads reports the current count of in-flight downloads.
func (e *Exporter) SetActiveDownloads(n int) { e.activeDownloads.Set(float64(n)) }

// SetActiveIndexing reports the current count of in-flight indexing runs.
func (e *Exporter) SetActiveIndexing(n int) { e.activeIndexing.Set(float64(n)) }
