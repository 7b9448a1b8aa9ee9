package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the capture service
type Metrics struct {
	// Session metrics
	SessionsStarted   prometheus.Counter
	SessionsCompleted prometheus.Counter
	SessionsFailed    *prometheus.CounterVec
	ActiveSessions    prometheus.Gauge
	SessionDuration   prometheus.Histogram

	// Encoder metrics
	ChunksEncoded prometheus.Counter
	ChunkBytes    prometheus.Counter
	ArtifactBytes prometheus.Histogram

	// Silence detection metrics
	EnergyWindowsEvaluated prometheus.Counter
	SilenceStops           prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mic_sessions_started_total",
			Help: "Total number of capture sessions started",
		}),
		SessionsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mic_sessions_completed_total",
			Help: "Total number of capture sessions that produced an artifact",
		}),
		SessionsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mic_sessions_failed_total",
			Help: "Total number of capture sessions that ended in error",
		}, []string{"reason"}),
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "mic_active_sessions",
			Help: "Current number of live capture sessions",
		}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "mic_session_duration_seconds",
			Help:    "Duration of completed capture sessions in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~4 minutes
		}),

		ChunksEncoded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mic_chunks_encoded_total",
			Help: "Total number of encoded chunks produced",
		}),
		ChunkBytes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mic_chunk_bytes_total",
			Help: "Total bytes of encoded chunk data produced",
		}),
		ArtifactBytes: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "mic_artifact_bytes",
			Help:    "Size of finalized artifacts in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10), // 1KiB to ~256MiB
		}),

		EnergyWindowsEvaluated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mic_energy_windows_evaluated_total",
			Help: "Total number of energy windows evaluated for silence detection",
		}),
		SilenceStops: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mic_silence_stops_total",
			Help: "Total number of recordings stopped by the silence detector",
		}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mic_http_requests_total",
			Help: "Total number of HTTP API requests",
		}, []string{"method", "endpoint", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mic_http_request_duration_seconds",
			Help:    "HTTP API request duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mic_http_errors_total",
			Help: "Total number of HTTP API error responses",
		}, []string{"method", "endpoint", "type"}),
	}
}

// RecordHTTPRequest records an HTTP API request with its outcome
func (m *Metrics) RecordHTTPRequest(method, endpoint, status string, duration float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordHTTPError records an HTTP API error response
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
