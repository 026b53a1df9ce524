package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures server metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "writdesk").
	Namespace string

	// Subsystem is the metrics subsystem (default: "server").
	Subsystem string

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer

	// FlushBuckets are the histogram buckets for body sizes in bytes.
	// Default: exponential from 256 bytes to 1MB.
	FlushBuckets []float64
}

// Metrics holds session counters. A nil *Metrics records nothing.
type Metrics struct {
	activeSessions prometheus.Gauge
	sessions       prometheus.Counter
	received       *prometheus.CounterVec
	sent           *prometheus.CounterVec
	dropped        *prometheus.CounterVec
	bodyBytes      prometheus.Histogram
}

// NewMetrics registers the server metrics.
//
// Metrics collected:
//   - writdesk_server_active_sessions: Gauge of open sessions
//   - writdesk_server_sessions_total: Counter of sessions opened
//   - writdesk_server_frames_received_total: Counter of client frames by type
//   - writdesk_server_frames_sent_total: Counter of server frames by type
//   - writdesk_server_frames_dropped_total: Counter of dropped frames by reason
//   - writdesk_server_body_bytes: Histogram of flushed body sizes
func NewMetrics(config MetricsConfig) *Metrics {
	if config.Namespace == "" {
		config.Namespace = "writdesk"
	}
	if config.Subsystem == "" {
		config.Subsystem = "server"
	}
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}
	if config.FlushBuckets == nil {
		config.FlushBuckets = prometheus.ExponentialBuckets(256, 4, 8)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "active_sessions",
			Help:      "Number of open sessions",
		}),

		sessions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "sessions_total",
			Help:      "Total number of sessions opened",
		}),

		received: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "frames_received_total",
			Help:      "Total number of client frames by type",
		}, []string{"type"}),

		sent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "frames_sent_total",
			Help:      "Total number of server frames by type",
		}, []string{"type"}),

		dropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "frames_dropped_total",
			Help:      "Total number of dropped frames by reason",
		}, []string{"reason"}),

		bodyBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "body_bytes",
			Help:      "Size of flushed document bodies",
			Buckets:   config.FlushBuckets,
		}),
	}
}

func (m *Metrics) sessionOpened() {
	if m != nil {
		m.sessions.Inc()
		m.activeSessions.Inc()
	}
}

func (m *Metrics) sessionClosed() {
	if m != nil {
		m.activeSessions.Dec()
	}
}

func (m *Metrics) frameReceived(kind string) {
	if m != nil {
		m.received.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) frameSent(kind string) {
	if m != nil {
		m.sent.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) frameDropped(reason string) {
	if m != nil {
		m.dropped.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) bodyFlushed(size int) {
	if m != nil {
		m.bodyBytes.Observe(float64(size))
	}
}
