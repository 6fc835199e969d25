// Outbound relay.
//
// Helpdesk webhook events flow through here back into the chat. Only
// agent-authored, public articles on public channels are forwarded; a
// closed state additionally produces a closure notice and releases the
// local tracking record. Events for untracked tickets are dropped
// silently, so the helpdesk can notify about its whole ticket population
// without spamming the bridge's logs.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-helpdesk-bridge/internal/repo"
	"github.com/tbourn/go-helpdesk-bridge/internal/telegram"
	"github.com/tbourn/go-helpdesk-bridge/internal/zammad"
)

// BotDirectory resolves the chat connection of a bot id. *telegram.Registry
// is the production implementation.
type BotDirectory interface {
	ByBotID(id uint) (*telegram.Entry, bool)
}

// Channels whose articles are relayed to the chat. Telegram-originated
// articles carry their own channel and are excluded to avoid echo.
var relayChannels = map[string]bool{
	"web":   true,
	"email": true,
	"phone": true,
	"note":  true,
}

// Relay forwards helpdesk-side events to the chat side.
type Relay struct {
	DB     *gorm.DB
	Zammad TicketAPI
	Bots   BotDirectory
	Log    zerolog.Logger
}

// HandleEvent processes one normalized helpdesk event. Errors are logged
// and swallowed; the webhook is always acknowledged by the caller.
func (r *Relay) HandleEvent(ctx context.Context, ev zammad.Event) {
	ticket, err := repo.GetOpenTicketByZammadID(ctx, r.DB, ev.Ticket.ID)
	if errors.Is(err, repo.ErrNotFound) {
		return
	}
	if err != nil {
		r.Log.Error().Err(err).Int("ticket_id", ev.Ticket.ID).Msg("tracked ticket lookup")
		return
	}

	entry, ok := r.Bots.ByBotID(ticket.BotID)
	if !ok {
		r.Log.Warn().Uint("bot_id", ticket.BotID).Msg("tracked ticket references unregistered bot")
		return
	}
	cat := catalogFor(entry.Bot.Language)

	if r.shouldForward(ev.Article) {
		r.forwardArticle(ctx, entry, ticket.TelegramID, ev.Article, cat)
	}

	if ev.Ticket.State == "closed" {
		r.notifyClosed(ctx, entry, ticket.TelegramID, ticket.Number, ev.Ticket.ID, cat)
	}
}

// shouldForward reports whether an article is an agent-authored public
// reply worth relaying.
func (r *Relay) shouldForward(a zammad.ArticleInfo) bool {
	if a.ID == 0 || a.Internal {
		return false
	}
	if strings.EqualFold(a.Sender, "Customer") {
		return false
	}
	return relayChannels[a.Channel]
}

// forwardArticle delivers an agent reply, then any attachments the article
// carries. Attachment failures degrade to the text already sent.
func (r *Relay) forwardArticle(ctx context.Context, entry *telegram.Entry, chatID int64, a zammad.ArticleInfo, cat catalog) {
	text := StripHTML(a.Body)
	if text != "" {
		if err := entry.Sender.SendText(chatID, fmt.Sprintf(cat.agentReply, text)); err != nil {
			r.Log.Warn().Err(err).Int64("chat_id", chatID).Msg("forward agent reply")
		}
	}

	metas, err := r.Zammad.ListAttachments(ctx, a.ID)
	if err != nil {
		r.Log.Warn().Err(err).Int("article_id", a.ID).Msg("list attachments")
		return
	}
	for _, meta := range metas {
		data, err := r.Zammad.DownloadAttachment(ctx, a.ID, meta.ID)
		if err != nil {
			r.Log.Warn().Err(err).Int("attachment_id", meta.ID).Msg("download attachment")
			continue
		}
		if strings.HasPrefix(meta.ContentType(), "image/") {
			if err := entry.Sender.SendPhoto(chatID, data, meta.Filename, ""); err == nil {
				continue
			}
			// Some image formats are rejected as photos; retry as a file.
		}
		if err := entry.Sender.SendDocument(chatID, data, meta.Filename, ""); err != nil {
			r.Log.Warn().Err(err).Str("filename", meta.Filename).Msg("forward attachment")
		}
	}
}

// notifyClosed tells the user the ticket is done and drops the tracking
// record. The delete keys on the helpdesk ticket id, so replayed closure
// events are no-ops.
func (r *Relay) notifyClosed(ctx context.Context, entry *telegram.Entry, chatID int64, number string, zammadID int, cat catalog) {
	n, err := repo.DeleteOpenTicketByZammadID(ctx, r.DB, zammadID)
	if err != nil {
		r.Log.Error().Err(err).Int("ticket_id", zammadID).Msg("release closed ticket")
		return
	}
	if n == 0 {
		return
	}
	if err := entry.Sender.SendText(chatID, fmt.Sprintf(cat.closedNotice, number)); err != nil {
		r.Log.Warn().Err(err).Int64("chat_id", chatID).Msg("send closure notice")
	}
}
