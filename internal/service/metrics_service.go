package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface, the synthesis engine and the catalog pipeline.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	synthesisDuration  prometheus.Histogram
	synthesisTotal     *prometheus.CounterVec
	combosExamined     prometheus.Histogram
	routinesAccepted   prometheus.Histogram
	searchBoundedTotal prometheus.Counter

	catalogFetchTotal  *prometheus.CounterVec
	snapshotSections   prometheus.Gauge
	snapshotAgeSeconds prometheus.GaugeFunc

	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
}

// SnapshotAgeFunc reports the live snapshot age for the gauge; nil
// disables the collector.
type SnapshotAgeFunc func() time.Duration

// NewMetricsService registers the service's Prometheus collectors.
func NewMetricsService(snapshotAge SnapshotAgeFunc) *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	synthesisDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "routine_synthesis_duration_seconds",
		Help:    "Wall time of routine synthesis runs",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	})

	synthesisTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "routine_synthesis_total",
		Help: "Synthesis runs by outcome",
	}, []string{"outcome"})

	combosExamined := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "routine_combinations_examined",
		Help:    "Combinations examined per synthesis run",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	routinesAccepted := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "routine_candidates_accepted",
		Help:    "Conflict-free routines found per synthesis run",
		Buckets: prometheus.ExponentialBuckets(1, 4, 6),
	})

	searchBoundedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "routine_search_bounded_total",
		Help: "Synthesis runs stopped by a search budget",
	})

	catalogFetchTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_fetch_total",
		Help: "Catalog refresh attempts by result",
	}, []string{"result"})

	snapshotSections := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_snapshot_sections",
		Help: "Sections in the live catalog snapshot",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal,
		synthesisDuration, synthesisTotal, combosExamined, routinesAccepted, searchBoundedTotal,
		catalogFetchTotal, snapshotSections, cacheHits, cacheMisses, goroutines)

	var snapshotAgeSeconds prometheus.GaugeFunc
	if snapshotAge != nil {
		snapshotAgeSeconds = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "catalog_snapshot_age_seconds",
			Help: "Age of the live catalog snapshot",
		}, func() float64 {
			return snapshotAge().Seconds()
		})
		registry.MustRegister(snapshotAgeSeconds)
	}

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		synthesisDuration:  synthesisDuration,
		synthesisTotal:     synthesisTotal,
		combosExamined:     combosExamined,
		routinesAccepted:   routinesAccepted,
		searchBoundedTotal: searchBoundedTotal,
		catalogFetchTotal:  catalogFetchTotal,
		snapshotSections:   snapshotSections,
		snapshotAgeSeconds: snapshotAgeSeconds,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := []string{method, path, strconv.Itoa(status)}
	m.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveSynthesis records one synthesis run.
func (m *MetricsService) ObserveSynthesis(outcome string, examined, accepted int, bounded bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.synthesisTotal.WithLabelValues(outcome).Inc()
	m.synthesisDuration.Observe(duration.Seconds())
	m.combosExamined.Observe(float64(examined))
	m.routinesAccepted.Observe(float64(accepted))
	if bounded {
		m.searchBoundedTotal.Inc()
	}
}

// ObserveCatalogFetch records a catalog refresh attempt.
func (m *MetricsService) ObserveCatalogFetch(success bool, sections int) {
	if m == nil {
		return
	}
	if success {
		m.catalogFetchTotal.WithLabelValues("success").Inc()
		m.snapshotSections.Set(float64(sections))
		return
	}
	m.catalogFetchTotal.WithLabelValues("failure").Inc()
}

// ObserveCacheHit records a cache lookup result.
func (m *MetricsService) ObserveCacheHit(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		return
	}
	m.cacheMisses.Inc()
}
