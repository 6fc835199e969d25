// Package httpapi wires the HTTP transport (Gin) to the bridge services,
// middleware, and webhook handlers. It centralizes cross-cutting concerns:
// tracing, correlation IDs, structured logging with token redaction, panic
// recovery, and metrics.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs (token path params redacted)
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-helpdesk-bridge/internal/config"
	"github.com/tbourn/go-helpdesk-bridge/internal/http/handlers"
	"github.com/tbourn/go-helpdesk-bridge/internal/http/middleware"
	"github.com/tbourn/go-helpdesk-bridge/internal/services"
	"github.com/tbourn/go-helpdesk-bridge/internal/telegram"
)

// RegisterRoutes attaches all middleware and endpoints to the given Gin
// engine: health and metrics, the per-bot Telegram webhook, and the
// Zammad trigger webhook.
func RegisterRoutes(r *gin.Engine, conv *services.Conversation, relay *services.Relay, reg *telegram.Registry, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	if cfg.OTEL.Enabled {
		r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	}
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(limitBody(4 << 20))
	r.Use(middleware.Metrics())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "bots": reg.Len()})
	})

	h := handlers.New(conv, relay, reg)
	r.POST("/webhook/telegram/:token", h.TelegramWebhook)
	r.POST("/webhook/zammad", h.ZammadWebhook)
}

// limitBody caps the request body size using http.MaxBytesReader. Reads
// beyond the cap fail downstream.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
