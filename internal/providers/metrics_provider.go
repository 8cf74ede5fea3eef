package providers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/imi6/dandan/internal/structures"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	AddCommentsConverted(format string, count int)
	AddCommentsDropped(format string, count int)
	IncUploads(bytes int64)
	IncRemoteCalls(endpoint string, outcome string)
	SetActiveClients(count int)
}

type MetricsProvider struct {
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	commentsConverted *prometheus.CounterVec
	commentsDropped   *prometheus.CounterVec
	uploadsTotal      prometheus.Counter
	uploadBytes       prometheus.Counter
	remoteCalls       *prometheus.CounterVec
	activeClients     prometheus.Gauge
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) AddCommentsConverted(format string, count int) {
	m.commentsConverted.WithLabelValues(format).Add(float64(count))
}

func (m *MetricsProvider) AddCommentsDropped(format string, count int) {
	m.commentsDropped.WithLabelValues(format).Add(float64(count))
}

func (m *MetricsProvider) IncUploads(bytes int64) {
	m.uploadsTotal.Inc()
	m.uploadBytes.Add(float64(bytes))
}

func (m *MetricsProvider) IncRemoteCalls(endpoint string, outcome string) {
	m.remoteCalls.WithLabelValues(endpoint, outcome).Inc()
}

func (m *MetricsProvider) SetActiveClients(count int) {
	m.activeClients.Set(float64(count))
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dandan_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dandan_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dandan_cache_hits_total",
			Help: "Total number of response cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dandan_cache_misses_total",
			Help: "Total number of response cache misses",
		}),

		commentsConverted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dandan_comments_converted_total",
			Help: "Comments converted per target format",
		}, []string{"format"}),

		commentsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dandan_comments_dropped_total",
			Help: "Malformed comments skipped during batch conversion",
		}, []string{"format"}),

		uploadsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dandan_uploads_total",
			Help: "Total number of accepted video uploads",
		}),

		uploadBytes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dandan_upload_bytes_total",
			Help: "Total bytes written by video uploads",
		}),

		remoteCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dandan_remote_calls_total",
			Help: "Outbound DanDanPlay API calls by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),

		activeClients: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "dandan_ws_clients",
			Help: "Currently connected realtime clients",
		}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) AddCommentsConverted(_ string, _ int)             {}
func (n *noopMetrics) AddCommentsDropped(_ string, _ int)               {}
func (n *noopMetrics) IncUploads(_ int64)                               {}
func (n *noopMetrics) IncRemoteCalls(_ string, _ string)                {}
func (n *noopMetrics) SetActiveClients(_ int)                           {}
