// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// StoreOperations counts post store calls by operation and envelope status.
	StoreOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postserver_store_operations_total",
		Help: "Total number of post store operations by operation and status",
	}, []string{"operation", "status"})

	// LockFailures counts calls that never reached the store because the lock could not be taken.
	LockFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postserver_store_lock_failures_total",
		Help: "Total number of post store lock acquisition failures",
	}, []string{"operation"})

	// Posts is the number of live posts after the last mutation.
	Posts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "postserver_posts",
		Help: "Number of live posts",
	})

	// WebSocketClients is the number of connected realtime clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "postserver_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// EventsDropped counts events not delivered to a client because its buffer was full.
	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postserver_websocket_events_dropped_total",
		Help: "Total number of post events dropped due to backpressure",
	})
)

// RecordOperation increments the operation counter.
func RecordOperation(operation, status string) {
	StoreOperations.WithLabelValues(operation, status).Inc()
}

// RecordLockFailure increments the lock failure counter.
func RecordLockFailure(operation string) {
	LockFailures.WithLabelValues(operation).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
