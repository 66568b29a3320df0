package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workforce_http_requests_total",
			Help: "Total number of HTTP requests processed by the workforce service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "workforce_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	wsActiveConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "workforce_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
		[]string{"kind"},
	)
	wsEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workforce_ws_events_total",
			Help: "Total number of websocket events.",
		},
		[]string{"kind", "event"},
	)
	notificationsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workforce_notifications_created_total",
			Help: "Notifications persisted, by type.",
		},
		[]string{"type"},
	)
	notificationsPushedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workforce_notifications_pushed_total",
			Help: "Live pushes attempted, by whether any connection accepted them.",
		},
		[]string{"delivered"},
	)
	messagesSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workforce_messages_sent_total",
			Help: "Chat messages stored, by chat type.",
		},
		[]string{"chat_type"},
	)
	amqpPublishErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "workforce_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

// HTTPMetricsMiddleware counts requests and observes latency per matched route.
func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// unmatched paths share one label to keep cardinality bounded
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// IncWSActive and DecWSActive track open sockets by kind (chat or notification).
func IncWSActive(kind string) {
	wsActiveConnections.WithLabelValues(kind).Inc()
}

func DecWSActive(kind string) {
	wsActiveConnections.WithLabelValues(kind).Dec()
}

func IncWSEvent(kind, event string) {
	wsEventsTotal.WithLabelValues(kind, event).Inc()
}

func IncNotificationCreated(notificationType string) {
	notificationsCreatedTotal.WithLabelValues(notificationType).Inc()
}

func IncNotificationPushed(delivered bool) {
	notificationsPushedTotal.WithLabelValues(strconv.FormatBool(delivered)).Inc()
}

func IncMessageSent(chatType string) {
	messagesSentTotal.WithLabelValues(chatType).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
