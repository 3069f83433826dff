package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twitt_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "twitt_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// WebSocketConnectionsTotal is the gauge of live notification connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "twitt_ws_connections",
		Help: "Number of open notification WebSocket connections",
	})

	// WebSocketEventsTotal counts WebSocket lifecycle events by type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twitt_websocket_events_total",
		Help: "Total WebSocket events by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped because a client queue was full.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twitt_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// NotificationsSent counts fan-out deliveries by event kind.
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twitt_notifications_sent_total",
		Help: "Total notifications handed to live connections or the pub/sub bus",
	}, []string{"kind"})

	// NotificationsDropped counts notifications that could not be delivered.
	NotificationsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twitt_notifications_dropped_total",
		Help: "Total notifications dropped by reason",
	}, []string{"reason"})

	// LikesTotal counts like attempts by result (created, duplicate, removed, missing).
	LikesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twitt_likes_total",
		Help: "Like and dislike operations by result",
	}, []string{"result"})

	// MediaUploadBytes records the size of stored post images.
	MediaUploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "twitt_media_upload_bytes",
		Help:    "Size of normalized post images written to storage",
		Buckets: prometheus.ExponentialBuckets(16*1024, 2, 10),
	})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
