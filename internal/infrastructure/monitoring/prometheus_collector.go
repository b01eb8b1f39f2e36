package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector exposes the chat relay's Prometheus metrics. A nil *Collector is
// a no-op so wiring can skip metrics entirely.
type Collector struct {
	sessionsActive   prometheus.Gauge
	connectionsTotal prometheus.Counter

	messagesStoredTotal prometheus.Counter
	broadcastsTotal     *prometheus.CounterVec
	droppedFramesTotal  prometheus.Counter

	httpRequestDuration *prometheus.HistogramVec
}

func NewCollector() *Collector {
	return &Collector{
		sessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "xiaolive_sessions_active",
			Help: "Number of live WebSocket sessions",
		}),

		connectionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "xiaolive_connections_total",
			Help: "Total number of WebSocket connections accepted",
		}),

		messagesStoredTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "xiaolive_messages_stored_total",
			Help: "Total number of messages persisted",
		}),

		broadcastsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "xiaolive_broadcasts_total",
			Help: "Total number of events broadcast to all sessions",
		}, []string{"event"}),

		droppedFramesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "xiaolive_dropped_frames_total",
			Help: "Broadcast frames dropped because a session buffer was full",
		}),

		httpRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "xiaolive_http_request_duration_seconds",
			Help:    "Duration of HTTP API requests",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"method", "path"}),
	}
}

func (c *Collector) SessionOpened() {
	if c == nil {
		return
	}
	c.sessionsActive.Inc()
	c.connectionsTotal.Inc()
}

func (c *Collector) SessionClosed() {
	if c == nil {
		return
	}
	c.sessionsActive.Dec()
}

func (c *Collector) MessageStored() {
	if c == nil {
		return
	}
	c.messagesStoredTotal.Inc()
}

func (c *Collector) BroadcastSent(event string) {
	if c == nil {
		return
	}
	c.broadcastsTotal.WithLabelValues(event).Inc()
}

func (c *Collector) FrameDropped() {
	if c == nil {
		return
	}
	c.droppedFramesTotal.Inc()
}

func (c *Collector) ObserveHTTPRequest(method, path string, duration time.Duration) {
	if c == nil {
		return
	}
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
