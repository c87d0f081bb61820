package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_http_requests_total",
			Help: "Total number of HTTP requests processed by the messaging core.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "messaging_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	messagesAppendedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_messages_appended_total",
			Help: "Total number of messages accepted by the message log.",
		},
		[]string{"kind"},
	)
	syncBatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_sync_batches_total",
			Help: "Total number of since-cursor batches served.",
		},
		[]string{"outcome"},
	)
	syncBatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "messaging_sync_batch_messages",
			Help:    "Number of messages per since-cursor batch.",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)
	unreadCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_unread_cache_total",
			Help: "Unread-count cache lookups by outcome.",
		},
		[]string{"outcome"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "messaging_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		messagesAppendedTotal,
		syncBatchesTotal,
		syncBatchSize,
		unreadCacheTotal,
		amqpPublishErrorsTotal,
	)
}

// HTTPMetricsMiddleware records request counts and latencies per route.
func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// IncMessageAppended counts an accepted append, labeled by conversation kind.
func IncMessageAppended(kind string) {
	messagesAppendedTotal.WithLabelValues(kind).Inc()
}

// ObserveSyncBatch records a served since-cursor batch.
func ObserveSyncBatch(size int) {
	outcome := "empty"
	if size > 0 {
		outcome = "messages"
	}
	syncBatchesTotal.WithLabelValues(outcome).Inc()
	syncBatchSize.Observe(float64(size))
}

// IncSyncError counts a failed sync read.
func IncSyncError() {
	syncBatchesTotal.WithLabelValues("error").Inc()
}

// IncUnreadCache records an unread-count cache lookup.
func IncUnreadCache(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	unreadCacheTotal.WithLabelValues(outcome).Inc()
}

// IncAMQPPublishError counts a failed event publish.
func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
