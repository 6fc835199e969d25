// Bot registry.
//
// Handlers resolve the bot a webhook delivery targets through an explicit
// registry built once at startup, instead of process-wide singletons. Each
// entry pairs the stored bot configuration with an authorized chat sender.
package telegram

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/tbourn/go-helpdesk-bridge/internal/domain"
	"github.com/tbourn/go-helpdesk-bridge/internal/repo"
)

// Entry is one registered bot with its chat connection.
type Entry struct {
	Bot    domain.Bot
	Sender ChatSender
}

// SenderFactory builds a ChatSender for a bot. The default factory dials
// the Bot API; tests inject fakes.
type SenderFactory func(bot domain.Bot) (ChatSender, error)

// Registry maps webhook tokens and bot ids to entries. It is built once at
// startup and read-only afterwards, so no locking is needed.
type Registry struct {
	byToken map[string]*Entry
	byBotID map[uint]*Entry
}

// NewRegistry loads all registered bots and connects a sender for each.
func NewRegistry(ctx context.Context, db *gorm.DB, factory SenderFactory) (*Registry, error) {
	bots, err := repo.ListBots(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("telegram: load bots: %w", err)
	}
	r := &Registry{
		byToken: make(map[string]*Entry, len(bots)),
		byBotID: make(map[uint]*Entry, len(bots)),
	}
	for _, b := range bots {
		sender, err := factory(b)
		if err != nil {
			return nil, fmt.Errorf("telegram: connect bot %q: %w", b.Name, err)
		}
		e := &Entry{Bot: b, Sender: sender}
		r.byToken[b.Token] = e
		r.byBotID[b.ID] = e
	}
	return r, nil
}

// DefaultSenderFactory dials the Bot API at the given endpoint (empty for
// the public one).
func DefaultSenderFactory(endpoint string) SenderFactory {
	return func(bot domain.Bot) (ChatSender, error) {
		return NewSender(bot.Token, endpoint)
	}
}

// ByToken resolves the bot a webhook path token addresses.
func (r *Registry) ByToken(token string) (*Entry, bool) {
	e, ok := r.byToken[token]
	return e, ok
}

// ByBotID resolves a bot by its database id. Used by the outbound relay to
// find the chat connection of a tracked ticket.
func (r *Registry) ByBotID(id uint) (*Entry, bool) {
	e, ok := r.byBotID[id]
	return e, ok
}

// Len reports how many bots are registered.
func (r *Registry) Len() int { return len(r.byToken) }
