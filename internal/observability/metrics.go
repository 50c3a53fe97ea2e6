package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wayfarer_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// InboxRefreshes counts inbox loads by outcome (ok, failed, stale).
	InboxRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wayfarer_inbox_refreshes_total",
		Help: "Total inbox refreshes by outcome",
	}, []string{"outcome"})

	// LifecycleActions counts archive/delete/leave actions by kind and outcome.
	LifecycleActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wayfarer_lifecycle_actions_total",
		Help: "Total conversation lifecycle actions",
	}, []string{"kind", "action", "outcome"})

	// InviteTransitions counts invite state changes.
	InviteTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wayfarer_invite_transitions_total",
		Help: "Total invite transitions by kind and transition",
	}, []string{"kind", "transition"})

	// InviteReminderJobs counts reminder tasks processed by the worker.
	InviteReminderJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wayfarer_invite_reminder_jobs_total",
		Help: "Total invite reminder jobs by outcome",
	}, []string{"outcome"})

	// CircleCreations counts wizard submissions by kind and outcome.
	CircleCreations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wayfarer_circle_creations_total",
		Help: "Total group and community creations",
	}, []string{"kind", "outcome"})

	// WebSocketConnectionsTotal is the gauge of active inbox stream connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wayfarer_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketEventsTotal counts WebSocket events by type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wayfarer_websocket_events_total",
		Help: "Total WebSocket events by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wayfarer_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
