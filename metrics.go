package rendezvous

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "rendezvous"

// Request results.
const (
	resultDelivered = "delivered"
	resultOffline   = "offline"
	resultDropped   = "dropped"
	resultIgnored   = "ignored"
	resultAccepted  = "accepted"
)

// Metrics collects counters of the hub.
type Metrics struct {
	sessions          *prometheus.GaugeVec
	identities        prometheus.Gauge
	events            *prometheus.CounterVec
	requests          *prometheus.CounterVec
	relayed           *prometheus.CounterVec
	outboundDropped   *prometheus.CounterVec
	identityOverwrite prometheus.Counter
}

// NewMetrics creates metrics and registers them in the registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sessions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "sessions",
			Help:      "Number of connected sessions.",
		}, []string{"transport"}),
		identities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "identities",
			Help:      "Number of registered peer identifiers.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_total",
			Help:      "Number of inbound session events.",
		}, []string{"type", "result"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "connection_requests_total",
			Help:      "Number of routed connection requests.",
		}, []string{"result"}),
		relayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "relayed_messages_total",
			Help:      "Number of payloads delivered to room members.",
		}, []string{"channel"}),
		outboundDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "outbound_dropped_total",
			Help:      "Number of messages dropped because the outbound queue of the session was full.",
		}, []string{"type"}),
		identityOverwrite: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "identity_overwrites_total",
			Help:      "Number of registrations replacing the session of an already registered identifier.",
		}),
	}

	reg.MustRegister(m.sessions, m.identities, m.events, m.requests, m.relayed, m.outboundDropped,
		m.identityOverwrite)

	return m
}
