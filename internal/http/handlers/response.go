// Package handlers implements the webhook endpoints of the bridge.
//
// Both webhook sources retry aggressively on non-2xx responses, and a
// retried delivery is never more processable than the first one. Every
// handler therefore acknowledges with HTTP 200 no matter what happened
// inside; failures are logged and counted, never surfaced to the caller.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-helpdesk-bridge/internal/http/middleware"
)

// ackBody is the fixed 200 response of every webhook endpoint.
var ackBody = gin.H{"result": "ok"}

// ack acknowledges a webhook delivery. Always 200.
func ack(c *gin.Context) {
	c.JSON(http.StatusOK, ackBody)
}

// ackWithError acknowledges the delivery and records the processing
// failure in the request log. The sender must not retry, so the status
// stays 200.
func ackWithError(c *gin.Context, err error, msg string) {
	middleware.LoggerFrom(c).Error().Err(err).Msg(msg)
	ack(c)
}

// guard converts a handler panic into the standard acknowledgment, so
// even an unexpected fault cannot trigger an upstream retry storm.
// Deferred at the top of every webhook handler.
func guard(c *gin.Context) {
	if rec := recover(); rec != nil {
		middleware.LoggerFrom(c).Error().Interface("panic", rec).Msg("webhook handler panic")
		if !c.Writer.Written() {
			ack(c)
		}
	}
}
