package hashroute

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures router metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "writdesk").
	Namespace string

	// Subsystem is the metrics subsystem (default: "router").
	Subsystem string

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Metrics holds router counters. One Metrics is shared by every router of a
// process; a nil *Metrics records nothing.
type Metrics struct {
	activations   *prometheus.CounterVec
	deactivations *prometheus.CounterVec
	registrations *prometheus.CounterVec
	revocations   prometheus.Counter
	binds         *prometheus.GaugeVec
}

// NewMetrics registers the router metrics.
//
// Metrics collected:
//   - writdesk_router_activations_total: Counter of activations by route
//   - writdesk_router_deactivations_total: Counter of deactivations by route
//   - writdesk_router_registrations_total: Counter of registrations by kind (view, handler)
//   - writdesk_router_revocations_total: Counter of revoked routes
//   - writdesk_router_view_binds: Gauge of live view binds by kind (named, anonymous)
func NewMetrics(config MetricsConfig) *Metrics {
	if config.Namespace == "" {
		config.Namespace = "writdesk"
	}
	if config.Subsystem == "" {
		config.Subsystem = "router"
	}
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		activations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "activations_total",
			Help:      "Total number of route activations",
		}, []string{"route"}),

		deactivations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "deactivations_total",
			Help:      "Total number of route deactivations",
		}, []string{"route"}),

		registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "registrations_total",
			Help:      "Total number of route registrations by kind",
		}, []string{"kind"}),

		revocations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "revocations_total",
			Help:      "Total number of revoked routes",
		}),

		binds: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "view_binds",
			Help:      "Number of live view binds by kind",
		}, []string{"kind"}),
	}
}

func (m *Metrics) activated(route string) {
	if m != nil {
		m.activations.WithLabelValues(route).Inc()
	}
}

func (m *Metrics) deactivated(route string) {
	if m != nil {
		m.deactivations.WithLabelValues(route).Inc()
	}
}

func (m *Metrics) registered(kind string) {
	if m != nil {
		m.registrations.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) revoked() {
	if m != nil {
		m.revocations.Inc()
	}
}

func (m *Metrics) bound(kind string) {
	if m != nil {
		m.binds.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) unbound(kind string) {
	if m != nil {
		m.binds.WithLabelValues(kind).Dec()
	}
}
