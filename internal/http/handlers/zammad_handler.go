// Zammad webhook endpoint.
package handlers

import (
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-helpdesk-bridge/internal/http/middleware"
	"github.com/tbourn/go-helpdesk-bridge/internal/zammad"
)

// ZammadWebhook handles POST /webhook/zammad.
//
// The payload shape depends on how the trigger is configured on the
// helpdesk side: structured JSON or a flattened form encoding. Both are
// normalized before dispatch. Malformed payloads are acknowledged and
// counted; a 4xx would only make the helpdesk requeue them forever.
func (h *Handler) ZammadWebhook(c *gin.Context) {
	defer guard(c)

	ev, err := h.parseEvent(c)
	if err != nil {
		middleware.CountZammadEvent("malformed")
		ackWithError(c, err, "malformed zammad event")
		return
	}
	if ev.Article.ID == 0 && ev.Ticket.State != "closed" {
		// Nothing actionable: no article to relay, no closure to announce.
		middleware.CountZammadEvent("ignored")
		ack(c)
		return
	}

	middleware.CountZammadEvent("handled")
	h.Relay.HandleEvent(c.Request.Context(), *ev)
	ack(c)
}

// parseEvent normalizes the delivery by content type, with a JSON fallback
// for senders that omit the header.
func (h *Handler) parseEvent(c *gin.Context) (*zammad.Event, error) {
	switch ct := c.ContentType(); {
	case strings.HasPrefix(ct, "multipart/form-data"):
		if err := c.Request.ParseMultipartForm(1 << 20); err != nil {
			return nil, err
		}
		return zammad.ParseEventForm(c.Request.PostForm)
	case strings.HasPrefix(ct, "application/x-www-form-urlencoded"):
		if err := c.Request.ParseForm(); err != nil {
			return nil, err
		}
		return zammad.ParseEventForm(c.Request.PostForm)
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, err
	}
	return zammad.ParseEventJSON(body)
}
