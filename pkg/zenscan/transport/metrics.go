package transport

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the session's prometheus collectors. A nil *Metrics records
// nothing.
type Metrics struct {
	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	inflight       prometheus.Gauge
	received       *prometheus.CounterVec
	protocolErrors *prometheus.CounterVec
	changes        *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "zenscan_requests_total",
			Help: "requests by topic and final state",
		}, []string{"topic", "state"}),
		requestLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "zenscan_request_seconds",
			Buckets: prometheus.ExponentialBucketsRange(0.001, 30.0, 16),
			Help:    "time from send to response by topic",
		}, []string{"topic"}),
		inflight: f.NewGauge(prometheus.GaugeOpts{
			Name: "zenscan_requests_inflight",
			Help: "requests awaiting a response",
		}),
		received: f.NewCounterVec(prometheus.CounterOpts{
			Name: "zenscan_envelopes_received_total",
			Help: "inbound envelopes by routing outcome: response, event or unrouted",
		}, []string{"route"}),
		protocolErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "zenscan_protocol_errors_total",
			Help: "inbound envelopes rejected, by offending field",
		}, []string{"field"}),
		changes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "zenscan_scan_changes_total",
			Help: "scan list changes applied, by operation",
		}, []string{"op"}),
	}
}

func (m *Metrics) request(topic string, state RequestState, took time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(topic, state.String()).Inc()
	if state == StateParsed {
		m.requestLatency.WithLabelValues(topic).Observe(took.Seconds())
	}
}

func (m *Metrics) inflightAdd(d float64) {
	if m == nil {
		return
	}
	m.inflight.Add(d)
}

func (m *Metrics) receivedRoute(route string) {
	if m == nil {
		return
	}
	m.received.WithLabelValues(route).Inc()
}

// ProtocolError counts a rejected envelope.
func (m *Metrics) ProtocolError(field string) {
	if m == nil {
		return
	}
	if field == "" {
		field = "envelope"
	}
	m.protocolErrors.WithLabelValues(field).Inc()
}

// ChangesApplied counts applied changes by operation.
func (m *Metrics) ChangesApplied(added, updated, removed, cleared int) {
	if m == nil {
		return
	}
	m.changes.WithLabelValues("Add").Add(float64(added))
	m.changes.WithLabelValues("Update").Add(float64(updated))
	m.changes.WithLabelValues("Remove").Add(float64(removed))
	m.changes.WithLabelValues("Clear").Add(float64(cleared))
}
