package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the audio streaming server
type Metrics struct {
	// Session metrics
	SessionsActive   prometheus.Gauge
	SessionsAccepted prometheus.Counter
	SessionsClosed   prometheus.Counter
	SessionDuration  prometheus.Histogram

	// Streaming metrics
	BytesSent          prometheus.Counter
	ChunksSent         prometheus.Counter
	SilenceBuffersSent prometheus.Counter
	SourcesStreamed    prometheus.Counter
	SourcesSkipped     prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		// Session metrics
		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "audio_sessions_active",
			Help: "Current number of connected streaming sessions",
		}),
		SessionsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "audio_sessions_accepted_total",
			Help: "Total number of accepted client connections",
		}),
		SessionsClosed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "audio_sessions_closed_total",
			Help: "Total number of closed client connections",
		}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "audio_session_duration_seconds",
			Help:    "Duration of streaming sessions in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~68 minutes
		}),

		// Streaming metrics
		BytesSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "audio_bytes_sent_total",
			Help: "Total number of PCM bytes written to clients",
		}),
		ChunksSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "audio_chunks_sent_total",
			Help: "Total number of audio chunks written to clients",
		}),
		SilenceBuffersSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "audio_silence_buffers_sent_total",
			Help: "Total number of inter-file silence buffers written",
		}),
		SourcesStreamed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "audio_sources_streamed_total",
			Help: "Total number of WAV sources streamed to completion",
		}),
		SourcesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "audio_sources_skipped_total",
			Help: "Total number of WAV sources skipped due to load or format errors",
		}),

		// HTTP API metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "audio_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "audio_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "audio_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// SetSessionsActive sets the current number of connected sessions
func (m *Metrics) SetSessionsActive(count int) {
	m.SessionsActive.Set(float64(count))
}

// RecordSessionAccepted increments the accepted sessions counter
func (m *Metrics) RecordSessionAccepted() {
	m.SessionsAccepted.Inc()
}

// RecordSessionClosed increments the closed sessions counter and records duration
func (m *Metrics) RecordSessionClosed(durationSeconds float64) {
	m.SessionsClosed.Inc()
	m.SessionDuration.Observe(durationSeconds)
}

// RecordChunkSent records a chunk written to a client
func (m *Metrics) RecordChunkSent(sizeBytes int) {
	m.ChunksSent.Inc()
	m.BytesSent.Add(float64(sizeBytes))
}

// RecordSilenceSent records an inter-file silence buffer written to a client
func (m *Metrics) RecordSilenceSent(sizeBytes int) {
	m.SilenceBuffersSent.Inc()
	m.BytesSent.Add(float64(sizeBytes))
}

// RecordSourceStreamed increments the sources streamed counter
func (m *Metrics) RecordSourceStreamed() {
	m.SourcesStreamed.Inc()
}

// RecordSourceSkipped increments the skipped sources counter
func (m *Metrics) RecordSourceSkipped() {
	m.SourcesSkipped.Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
