// Package metrics defines the Prometheus collectors for the FreshDeal server.
// It is the single source of truth for metric names, labels and help strings.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "freshdeal"

// Metrics holds the server's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// RequestsTotal counts handled requests.
	// Labels:
	//   - action: the request action, or "invalid" when the envelope was rejected
	//   - status: the response status (SUCCESS, FAILED, ...)
	RequestsTotal *prometheus.CounterVec

	// RequestDuration measures dispatch time per action.
	RequestDuration *prometheus.HistogramVec

	// ActiveConnections is the number of connections being served.
	ActiveConnections prometheus.Gauge

	// ConnectionsTotal counts accepted connections.
	ConnectionsTotal prometheus.Counter

	// PurchasesTotal counts purchase attempts.
	// Label:
	//   - result: "success", "rejected" or "error"
	PurchasesTotal *prometheus.CounterVec

	// UnitsSoldTotal counts product units sold.
	UnitsSoldTotal prometheus.Counter
}

// Purchase results.
const (
	PurchaseSuccess  = "success"
	PurchaseRejected = "rejected"
	PurchaseError    = "error"
)

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of requests, labelled by action and response status.",
			},
			[]string{"action", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Time from parsed request to built response.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"action"},
		),
		ActiveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Number of client connections currently being served.",
		}),
		ConnectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total number of accepted client connections.",
		}),
		PurchasesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "purchases_total",
				Help:      "Total number of purchase attempts, labelled by result.",
			},
			[]string{"result"},
		),
		UnitsSoldTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_sold_total",
			Help:      "Total number of product units sold.",
		}),
	}
}

// ObserveRequest records one dispatched request.
func (m *Metrics) ObserveRequest(action, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(action, status).Inc()
	m.RequestDuration.WithLabelValues(action).Observe(elapsed.Seconds())
}

// ConnectionOpened records an accepted connection.
func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.ConnectionsTotal.Inc()
	m.ActiveConnections.Inc()
}

// ConnectionClosed records a finished connection.
func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.ActiveConnections.Dec()
}

// ObservePurchase records a purchase attempt. units is only counted on success.
func (m *Metrics) ObservePurchase(result string, units int) {
	if m == nil {
		return
	}
	m.PurchasesTotal.WithLabelValues(result).Inc()
	if result == PurchaseSuccess {
		m.UnitsSoldTotal.Add(float64(units))
	}
}
