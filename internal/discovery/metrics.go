package discovery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "nsd"

// Metrics are the engine's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	AnnouncementsSent prometheus.Counter
	SendErrors        prometheus.Counter
	DatagramsReceived prometheus.Counter
	MalformedPayloads prometheus.Counter
	Services          prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AnnouncementsSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "announcements_sent_total",
			Help:      "Announcement datagrams sent to broadcast addresses.",
		}),
		SendErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "send_errors_total",
			Help:      "Announcement datagrams that failed to send.",
		}),
		DatagramsReceived: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "datagrams_received_total",
			Help:      "Datagrams received on the discovery port.",
		}),
		MalformedPayloads: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "malformed_payloads_total",
			Help:      "Received datagrams dropped as malformed.",
		}),
		Services: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "discovered_services",
			Help:      "Services currently held in the registry.",
		}),
	}
}

func (m *Metrics) sent() {
	if m != nil {
		m.AnnouncementsSent.Inc()
	}
}

func (m *Metrics) sendFailed() {
	if m != nil {
		m.SendErrors.Inc()
	}
}

func (m *Metrics) received() {
	if m != nil {
		m.DatagramsReceived.Inc()
	}
}

func (m *Metrics) malformed() {
	if m != nil {
		m.MalformedPayloads.Inc()
	}
}

func (m *Metrics) registrySize(n int) {
	if m != nil {
		m.Services.Set(float64(n))
	}
}
