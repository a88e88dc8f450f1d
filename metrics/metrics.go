package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stjordanis/lager/core"
)

const namespace = "lager"

// Collector exposes the dispatch pipeline's counters through a
// dedicated Prometheus registry. A nil *Collector is valid and records
// nothing, so callers never have to branch on whether metrics are
// enabled.
type Collector struct {
	registry *prometheus.Registry

	dispatched     *prometheus.CounterVec
	suppressed     prometheus.Counter
	handlerCrashes *prometheus.CounterVec
	bridgeRestarts prometheus.Counter
	handlersAlive  prometheus.Gauge
}

// NewCollector builds a collector backed by its own registry, keeping
// the process default registry untouched.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dispatched_total",
			Help:      "Log events that passed the aggregate threshold and were delivered to handlers.",
		}, []string{"level"}),
		suppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_suppressed_total",
			Help:      "Log events dropped by the aggregate threshold before formatting.",
		}),
		handlerCrashes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_crashes_total",
			Help:      "Handlers removed after panicking during delivery.",
		}, []string{"handler"}),
		bridgeRestarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bridge_restarts_total",
			Help:      "Times the error bridge was reinstalled after a crash.",
		}),
		handlersAlive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "handlers_alive",
			Help:      "Handlers currently installed.",
		}),
	}
	c.registry.MustRegister(c.dispatched, c.suppressed, c.handlerCrashes, c.bridgeRestarts, c.handlersAlive)
	return c
}

// Registry returns the underlying registry for use with HTTP handlers.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler exposes the registry via an http.Handler.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// EventDispatched records a delivered event at the given severity.
func (c *Collector) EventDispatched(l core.Level) {
	if c == nil {
		return
	}
	c.dispatched.WithLabelValues(l.String()).Inc()
}

// EventSuppressed records an event dropped by the aggregate threshold.
func (c *Collector) EventSuppressed() {
	if c == nil {
		return
	}
	c.suppressed.Inc()
}

// HandlerCrashed records the removal of a panicked handler.
func (c *Collector) HandlerCrashed(id string) {
	if c == nil {
		return
	}
	c.handlerCrashes.WithLabelValues(id).Inc()
}

// BridgeRestarted records a bridge reinstall.
func (c *Collector) BridgeRestarted() {
	if c == nil {
		return
	}
	c.bridgeRestarts.Inc()
}

// SetHandlersAlive records the current number of installed handlers.
func (c *Collector) SetHandlersAlive(n int) {
	if c == nil {
		return
	}
	c.handlersAlive.Set(float64(n))
}
