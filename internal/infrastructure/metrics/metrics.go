// Package metrics exposes the climate node's Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "climatenode"

// Metrics holds the node's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	ReadingsPublished prometheus.Counter
	SensorFailures    prometheus.Counter
	Commands          *prometheus.CounterVec
	ConnectAttempts   *prometheus.CounterVec
	Active            prometheus.Gauge
	LinkUp            prometheus.Gauge
	BusConnected      prometheus.Gauge
	BuildInfo         *prometheus.GaugeVec
}

// New creates and registers all collectors, plus the Go runtime and
// process collectors.
func New(version string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		ReadingsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "readings",
			Name:      "published_total",
			Help:      "Total number of readings published on the bus",
		}),
		SensorFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sensor",
			Name:      "failures_total",
			Help:      "Total number of invalid or failed sensor reads",
		}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "commands",
			Name:      "dispatched_total",
			Help:      "Total number of commands dispatched",
		}, []string{"source", "verb"}),
		ConnectAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "connect_attempts_total",
			Help:      "Total number of completed bus connection attempts",
		}, []string{"result"}),
		Active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active",
			Help:      "Whether sampling and publishing are enabled (1) or stopped (0)",
		}),
		LinkUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "network",
			Name:      "link_up",
			Help:      "Whether the network link is up",
		}),
		BusConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "connected",
			Help:      "Whether the bus connection is live",
		}),
		BuildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information",
		}, []string{"version"}),
	}

	m.registry.MustRegister(
		m.ReadingsPublished,
		m.SensorFailures,
		m.Commands,
		m.ConnectAttempts,
		m.Active,
		m.LinkUp,
		m.BusConnected,
		m.BuildInfo,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.BuildInfo.WithLabelValues(version).Set(1)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ReadingPublished counts one published reading.
func (m *Metrics) ReadingPublished() { m.ReadingsPublished.Inc() }

// SensorFailure counts one failed sample.
func (m *Metrics) SensorFailure() { m.SensorFailures.Inc() }

// CommandDispatched counts one dispatched command.
func (m *Metrics) CommandDispatched(source, verb string) {
	m.Commands.WithLabelValues(source, verb).Inc()
}

// ConnectAttempt counts one completed connection attempt.
func (m *Metrics) ConnectAttempt(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	m.ConnectAttempts.WithLabelValues(result).Inc()
}

// SetActive records the control toggle.
func (m *Metrics) SetActive(active bool) { m.Active.Set(boolValue(active)) }

// SetLinkUp records the link state.
func (m *Metrics) SetLinkUp(up bool) { m.LinkUp.Set(boolValue(up)) }

// SetBusConnected records the bus state.
func (m *Metrics) SetBusConnected(connected bool) { m.BusConnected.Set(boolValue(connected)) }

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
