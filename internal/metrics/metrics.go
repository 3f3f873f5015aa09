// Package metrics provides Prometheus metrics for the api and dashboard processes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ecobin"

// Registry is the process-wide registry; the default one is left alone so
// tests can build servers repeatedly.
var Registry = prometheus.NewRegistry()

var (
	MQTTMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mqtt",
			Name:      "messages_total",
			Help:      "Inbound MQTT messages by topic kind and outcome",
		},
		[]string{"kind", "status"},
	)
	EventsStored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "events_total",
			Help:      "Events appended to the event store",
		},
		[]string{"event", "status"},
	)
	StoreFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "count_fallbacks_total",
			Help:      "Range count queries that fell back to a client-side scan",
		},
	)
	AssistantRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assistant",
			Name:      "requests_total",
			Help:      "Assistant requests by outcome (ok, fallback)",
		},
		[]string{"outcome"},
	)
	FillLevel = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bin",
			Name:      "fill_level_percent",
			Help:      "Last reported fill level",
		},
		[]string{"bin"},
	)
	WebsocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "websocket_clients",
			Help:      "Connected dashboard websocket clients",
		},
	)
)

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	Registry.MustRegister(MQTTMessages, EventsStored, StoreFallbacks, AssistantRequests, FillLevel, WebsocketClients)
}

// Handler returns an HTTP handler exposing the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
