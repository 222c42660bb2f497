package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all dispatch and tracking metrics. Collectors are created
// unregistered so tests can build independent instances; call Register to
// attach them to a registry.
type Metrics struct {
	AlertsSubmitted      *prometheus.CounterVec
	AlertsPresented      prometheus.Counter
	AlertsSuppressed     prometheus.Counter
	AlertsDismissed      *prometheus.CounterVec
	DeliveryFailures     prometheus.Counter
	QueueDepth           prometheus.Gauge
	InteractionsRecorded *prometheus.CounterVec
	InteractionsEvicted  prometheus.Counter
}

// New creates all alert-engine metrics under the given namespace.
func New(namespace string) *Metrics {
	return &Metrics{
		AlertsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_submitted_total",
			Help:      "Total number of alerts submitted to the dispatch queue",
		}, []string{"kind", "priority"}),
		AlertsPresented: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_presented_total",
			Help:      "Total number of alerts that reached the presented slot",
		}),
		AlertsSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_suppressed_total",
			Help:      "Total number of alerts suppressed by quiet hours",
		}),
		AlertsDismissed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_dismissed_total",
			Help:      "Total number of dismissals by source",
		}, []string{"source"}),
		DeliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_failures_total",
			Help:      "Total number of failed calls to the delivery capability",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Current number of alerts waiting in the backlog",
		}),
		InteractionsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interactions_recorded_total",
			Help:      "Total number of interaction records appended",
		}, []string{"kind"}),
		InteractionsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interactions_evicted_total",
			Help:      "Total number of interaction records evicted by retention",
		}),
	}
}

// Register attaches all collectors to the registry.
func (m *Metrics) Register(reg prometheus.Registerer) {
	reg.MustRegister(
		m.AlertsSubmitted,
		m.AlertsPresented,
		m.AlertsSuppressed,
		m.AlertsDismissed,
		m.DeliveryFailures,
		m.QueueDepth,
		m.InteractionsRecorded,
		m.InteractionsEvicted,
	)
}
