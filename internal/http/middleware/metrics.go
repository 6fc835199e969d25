// Prometheus instrumentation for HTTP traffic and webhook processing.
//
// The Metrics() middleware measures request counts, latencies, in-flight
// concurrency, and response sizes. Label cardinality stays bounded: the
// path label always uses the registered Gin route, so the bot token path
// parameter never leaks into metric labels.
//
// Webhook-level counters (updates dispatched per bot, relay events per
// outcome) are incremented by the handlers through the exported helpers.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// Status is omitted to keep histogram cardinality low.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_response_size_bytes",
			Help: "Size of HTTP responses in bytes.",
			Buckets: []float64{
				200, 500, 1 << 10, 5 << 10, 25 << 10, 100 << 10, 1 << 20,
			},
		},
		[]string{"method", "path"},
	)

	telegramUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_updates_total",
			Help: "Telegram webhook updates by bot and kind.",
		},
		[]string{"bot", "kind"},
	)

	zammadEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zammad_events_total",
			Help: "Zammad webhook events by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpRespSize,
		telegramUpdates, zammadEvents)
}

// Metrics returns a Gin middleware that instruments requests:
//
//   - increments http_requests_total(method, path, status)
//   - observes http_request_duration_seconds(method, path)
//   - tracks the http_requests_inflight gauge
//   - observes http_response_size_bytes(method, path)
//
// The path label uses c.FullPath() to avoid unbounded cardinality from raw
// URLs; unmatched requests (404) are labeled "unmatched".
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		dur := time.Since(start).Seconds()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())
		size := c.Writer.Size()

		httpReqs.WithLabelValues(method, path, status).Inc()
		httpLat.WithLabelValues(method, path).Observe(dur)
		if size >= 0 {
			httpRespSize.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}

// CountTelegramUpdate records a dispatched chat update. Kind is one of
// "message", "callback", "ignored", or "unknown_bot".
func CountTelegramUpdate(bot, kind string) {
	telegramUpdates.WithLabelValues(bot, kind).Inc()
}

// CountZammadEvent records a processed helpdesk event. Outcome is one of
// "handled", "ignored", or "malformed".
func CountZammadEvent(outcome string) {
	zammadEvents.WithLabelValues(outcome).Inc()
}
