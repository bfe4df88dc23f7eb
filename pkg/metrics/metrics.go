package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ActiveRooms is the number of rooms currently held in the registry.
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codesense_active_rooms",
		Help: "Live collaboration rooms in the registry.",
	})

	// ConnectedClients is the number of open websocket connections.
	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codesense_connected_clients",
		Help: "Open websocket connections.",
	})

	// EventsTotal counts inbound collaboration events by type.
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codesense_events_total",
		Help: "Inbound collaboration events processed by the broker.",
	}, []string{"type"})

	// ActivityLogFailures counts dropped activity-log writes.
	ActivityLogFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codesense_activity_log_failures_total",
		Help: "Activity log writes that failed and were dropped.",
	})
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
