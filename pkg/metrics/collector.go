// Package metrics exports store operations to Prometheus.
package metrics

import (
	"github.com/goliatone/go-statebox"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "statebox"

	outcomeOK       = "ok"
	outcomeRejected = "rejected"
)

// Collector implements statebox.OperationObserver.
type Collector struct {
	operations    *prometheus.CounterVec
	notifications *prometheus.CounterVec
	historyDepth  prometheus.Gauge
	duration      *prometheus.HistogramVec
}

var _ statebox.OperationObserver = (*Collector)(nil)

// NewCollector registers the store metrics with reg. A nil reg uses the
// default registerer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Store operations by name and outcome",
			},
			[]string{"op", "outcome"},
		),
		notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Subscriber deliveries triggered by store operations",
			},
			[]string{"op"},
		),
		historyDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "history_depth",
				Help:      "Undo entries held after the last operation",
			},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Time spent in store operations, including subscriber callbacks",
				Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
			},
			[]string{"op"},
		),
	}
}

// ObserveOperation records event.
func (c *Collector) ObserveOperation(event statebox.OperationEvent) {
	if c == nil {
		return
	}
	outcome := outcomeOK
	if !event.OK {
		outcome = outcomeRejected
	}
	c.operations.WithLabelValues(event.Op, outcome).Inc()
	if event.Notifications > 0 {
		c.notifications.WithLabelValues(event.Op).Add(float64(event.Notifications))
	}
	c.historyDepth.Set(float64(event.HistoryLen))
	c.duration.WithLabelValues(event.Op).Observe(event.Duration.Seconds())
}
