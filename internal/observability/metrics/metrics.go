package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentalhub_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rentalhub_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	chatMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentalhub_chat_messages_total",
		Help: "Count of chat messages by transport and result",
	}, []string{"transport", "result"})

	websocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rentalhub_websocket_connections",
		Help: "Number of live websocket connections",
	})

	activeRentals = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rentalhub_active_rentals",
		Help: "Approved listings currently available",
	})

	registeredUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rentalhub_registered_users",
		Help: "Total registered accounts",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveChatMessage counts a message send attempt by transport and result
func ObserveChatMessage(transport, result string) {
	chatMessagesTotal.WithLabelValues(transport, result).Inc()
}

// IncrementConnections increments the websocket connection gauge
func IncrementConnections() {
	websocketConnections.Inc()
}

// DecrementConnections decrements the websocket connection gauge
func DecrementConnections() {
	websocketConnections.Dec()
}

// SetActiveRentals sets the active listing gauge from the stats snapshot
func SetActiveRentals(n int64) {
	activeRentals.Set(float64(n))
}

// SetRegisteredUsers sets the account gauge from the stats snapshot
func SetRegisteredUsers(n int64) {
	registeredUsers.Set(float64(n))
}
