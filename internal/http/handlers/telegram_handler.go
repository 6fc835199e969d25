// Telegram webhook endpoint.
//
// One route serves every registered bot; the bot token in the URL path
// both authenticates the delivery and selects the bot. Unknown tokens are
// acknowledged without processing so probing the endpoint reveals nothing
// about which tokens exist.
package handlers

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tbourn/go-helpdesk-bridge/internal/http/middleware"
	"github.com/tbourn/go-helpdesk-bridge/internal/services"
	"github.com/tbourn/go-helpdesk-bridge/internal/telegram"
)

// Handler bundles the webhook endpoints with their dependencies.
type Handler struct {
	Conversation *services.Conversation
	Relay        *services.Relay
	Registry     *telegram.Registry
}

// New constructs the webhook handler set.
func New(conv *services.Conversation, relay *services.Relay, reg *telegram.Registry) *Handler {
	return &Handler{Conversation: conv, Relay: relay, Registry: reg}
}

// TelegramWebhook handles POST /webhook/telegram/:token.
//
// The update is dispatched to the conversation service when it carries a
// message or a callback query; everything else (edits, channel posts,
// inline queries) is acknowledged and dropped.
func (h *Handler) TelegramWebhook(c *gin.Context) {
	defer guard(c)

	entry, ok := h.Registry.ByToken(c.Param("token"))
	if !ok {
		middleware.LoggerFrom(c).Warn().Err(services.ErrBotNotFound).Msg("telegram update for unregistered token")
		middleware.CountTelegramUpdate("unknown", "unknown_bot")
		ack(c)
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(c.Request.Body).Decode(&update); err != nil {
		ackWithError(c, err, "malformed telegram update")
		return
	}

	ctx := c.Request.Context()
	switch {
	case update.Message != nil:
		middleware.CountTelegramUpdate(entry.Bot.Name, "message")
		h.Conversation.HandleMessage(ctx, entry.Bot, entry.Sender, update.Message)
	case update.CallbackQuery != nil:
		middleware.CountTelegramUpdate(entry.Bot.Name, "callback")
		h.Conversation.HandleCallback(ctx, entry.Bot, entry.Sender, update.CallbackQuery)
	default:
		middleware.CountTelegramUpdate(entry.Bot.Name, "ignored")
	}
	ack(c)
}
