// Package services – Conversation
//
// This file implements the per-message state machine of the chat side.
// The state of a user-bot pair is never stored explicitly; it is inferred
// from the union of the open-ticket table and the pending-action cache by
// one resolution function, and every incoming message is evaluated in a
// fixed priority order:
//
//  1. staleness reconciliation of a tracked ticket against remote state
//  2. ticket-update short-circuit (free text and photos become articles)
//  3. pending customer-number continuation
//  4. command dispatch (/start, /status)
//  5. contact-share intake
//  6. fallback
//
// Remote failures degrade to user-visible acknowledgments; they never
// abort the webhook handler.
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-helpdesk-bridge/internal/cache"
	"github.com/tbourn/go-helpdesk-bridge/internal/domain"
	"github.com/tbourn/go-helpdesk-bridge/internal/repo"
	"github.com/tbourn/go-helpdesk-bridge/internal/telegram"
	"github.com/tbourn/go-helpdesk-bridge/internal/zammad"
)

// TicketAPI is the helpdesk surface the services depend on.
// *zammad.Client is the production implementation; tests substitute fakes.
type TicketAPI interface {
	CreateTicket(ctx context.Context, req zammad.TicketRequest) (*zammad.Ticket, error)
	GetTicket(ctx context.Context, id int) (*zammad.TicketDetails, error)
	CloseTicket(ctx context.Context, id int, actorName string) error
	AddNote(ctx context.Context, id int, actorName, text string) error
	AddAttachment(ctx context.Context, id int, actorName string, data []byte, filename, caption string) error
	ListAttachments(ctx context.Context, articleID int) ([]zammad.AttachmentMeta, error)
	DownloadAttachment(ctx context.Context, articleID, attachmentID int) ([]byte, error)
}

// convState tags the inferred conversation state of a user-bot pair.
type convState int

const (
	stateNoTicket convState = iota
	stateAwaitingNumber
	stateTicketOpen
)

// Conversation drives the chat-side message and button handling for all
// bots. Safe for concurrent use; all state lives in the store and cache.
type Conversation struct {
	DB      *gorm.DB
	Zammad  TicketAPI
	Pending *cache.PendingStore
	Log     zerolog.Logger
}

// resolveState infers the conversation state. A tracked ticket whose
// remote counterpart cannot be confirmed open is stale: the local record
// is deleted before anything else runs, and processing continues as if no
// ticket existed.
func (c *Conversation) resolveState(ctx context.Context, bot domain.Bot, telegramID int64) (convState, *domain.OpenTicket) {
	t, err := repo.GetOpenTicket(ctx, c.DB, telegramID, bot.ID)
	if err == nil {
		details, rerr := c.Zammad.GetTicket(ctx, t.ZammadID)
		if rerr == nil && zammad.IsOpenState(details.State) {
			return stateTicketOpen, t
		}
		if rerr != nil && !errors.Is(rerr, zammad.ErrTicketNotFound) {
			c.Log.Warn().Err(rerr).Int("ticket_id", t.ZammadID).Msg("remote state query failed, dropping stale record")
		}
		if derr := repo.DeleteOpenTicket(ctx, c.DB, telegramID, bot.ID); derr != nil {
			c.Log.Error().Err(derr).Msg("delete stale open ticket")
		}
	} else if !errors.Is(err, repo.ErrNotFound) {
		c.Log.Error().Err(err).Msg("open ticket lookup")
	}

	if _, ok := c.Pending.Get(telegramID, bot.ID); ok {
		return stateAwaitingNumber, nil
	}
	return stateNoTicket, nil
}

// HandleMessage evaluates one incoming chat message for the given bot.
// Send failures are logged; the caller always acknowledges the webhook.
func (c *Conversation) HandleMessage(ctx context.Context, bot domain.Bot, sender telegram.ChatSender, m *tgbotapi.Message) {
	if m == nil || m.From == nil {
		return
	}
	userID := m.From.ID
	chatID := m.Chat.ID
	cat := catalogFor(bot.Language)

	state, ticket := c.resolveState(ctx, bot, userID)

	// 2. Ticket-update short-circuit. Commands fall through.
	if state == stateTicketOpen {
		if len(m.Photo) > 0 {
			c.forwardPhoto(ctx, bot, sender, m, ticket, cat)
			return
		}
		if m.Text != "" && !strings.HasPrefix(m.Text, "/") {
			c.forwardNote(ctx, sender, m, ticket, cat)
			return
		}
	}

	// 3. Pending customer-number continuation.
	if state == stateAwaitingNumber && m.Text != "" && !strings.HasPrefix(m.Text, "/") {
		c.continuePending(ctx, bot, sender, m, cat)
		return
	}

	// 4. Command dispatch.
	switch m.Command() {
	case "start":
		c.send(sender.SendContactRequest(chatID, cat.welcome, cat.shareContactButton))
		return
	case "status":
		if state == stateTicketOpen {
			c.send(sender.SendText(chatID, fmt.Sprintf(cat.statusOpen, ticket.Number)))
		} else {
			c.send(sender.SendText(chatID, cat.statusNone))
		}
		return
	}

	// 5. Contact-share intake.
	if m.Contact != nil {
		if state == stateTicketOpen {
			c.send(sender.SendText(chatID, fmt.Sprintf(cat.alreadyOpen, ticket.Number)))
			return
		}
		c.startPending(ctx, bot, sender, m, cat)
		return
	}

	// 6. Fallback.
	c.send(sender.SendText(chatID, cat.dontUnderstand))
}

// startPending captures a shared contact and prompts for the customer
// number, or reports a configuration error when the bot has no customers.
func (c *Conversation) startPending(ctx context.Context, bot domain.Bot, sender telegram.ChatSender, m *tgbotapi.Message, cat catalog) {
	customers, err := repo.ListCustomers(ctx, c.DB, bot.ID)
	if err != nil {
		c.Log.Error().Err(err).Uint("bot_id", bot.ID).Msg("list customers")
		c.send(sender.SendText(m.Chat.ID, cat.ticketCreateFailed))
		return
	}
	if len(customers) == 0 {
		c.Log.Warn().Err(ErrNoCustomers).Uint("bot_id", bot.ID).Msg("contact share rejected")
		c.send(sender.SendText(m.Chat.ID, cat.noCustomers))
		return
	}

	c.Pending.Put(m.From.ID, bot.ID, cache.PendingTicket{
		Phone:  m.Contact.PhoneNumber,
		ChatID: m.Chat.ID,
	})
	c.send(sender.SendText(m.Chat.ID, fmt.Sprintf(cat.askCustomerNumber, customerNumbers(customers))))
}

// continuePending parses the customer-number reply and creates the remote
// ticket. On a bad number the pending entry survives for another attempt.
func (c *Conversation) continuePending(ctx context.Context, bot domain.Bot, sender telegram.ChatSender, m *tgbotapi.Message, cat catalog) {
	pending, ok := c.Pending.Get(m.From.ID, bot.ID)
	if !ok {
		// Entry expired between state resolution and now.
		c.send(sender.SendText(m.Chat.ID, cat.dontUnderstand))
		return
	}

	number, err := strconv.Atoi(strings.TrimSpace(m.Text))
	var customer *domain.Customer
	if err == nil {
		customer, err = repo.GetCustomerByNumber(ctx, c.DB, bot.ID, number)
	}
	if err != nil {
		customers, lerr := repo.ListCustomers(ctx, c.DB, bot.ID)
		if lerr != nil {
			c.Log.Error().Err(lerr).Uint("bot_id", bot.ID).Msg("list customers")
		}
		c.send(sender.SendText(m.Chat.ID, fmt.Sprintf(cat.badCustomerNumber, customerNumbers(customers))))
		return
	}

	c.createTicket(ctx, bot, sender, m, pending, customer, cat)
}

// createTicket files the remote ticket for a resolved customer, records it
// locally, and clears the pending state. The local record is written only
// after the remote ticket exists.
func (c *Conversation) createTicket(ctx context.Context, bot domain.Bot, sender telegram.ChatSender, m *tgbotapi.Message, pending cache.PendingTicket, customer *domain.Customer, cat catalog) {
	user := m.From
	lastName := customer.LastName
	if lastName == "" {
		lastName = bot.DefaultLastName
	}
	prefix := bot.CustomerPrefix
	if prefix == "" {
		prefix = "customer-"
	}

	title := fmt.Sprintf("New ticket from %s", displayName(user))
	body := fmt.Sprintf(
		"A new ticket was requested via Telegram.\nName: %s\nUsername: @%s\nUser ID: %d\nPhone: %s\nCustomer: %s %s (#%d)",
		displayName(user), user.UserName, user.ID, pending.Phone,
		customer.FirstName, lastName, customer.Number,
	)

	created, err := c.Zammad.CreateTicket(ctx, zammad.TicketRequest{
		Title: title,
		Body:  body,
		Group: bot.ZammadGroup,
		Customer: &zammad.CustomerRef{
			Login:     fmt.Sprintf("%s%d", prefix, customer.Number),
			FirstName: customer.FirstName,
			LastName:  lastName,
			Phone:     pending.Phone,
		},
	})
	if err != nil {
		c.Log.Error().Err(err).Uint("bot_id", bot.ID).Msg("create zammad ticket")
		c.send(sender.SendText(m.Chat.ID, cat.ticketCreateFailed))
		return
	}

	_, err = repo.CreateOpenTicket(ctx, c.DB, domain.OpenTicket{
		TelegramID: user.ID,
		BotID:      bot.ID,
		CustomerID: customer.ID,
		ZammadID:   created.ID,
		Number:     created.Number,
		Priority:   created.Priority,
	})
	if errors.Is(err, repo.ErrDuplicate) {
		// A concurrent flow won the race. The remote ticket this flow just
		// opened is untracked, so it must be released, and the reply names
		// the surviving ticket, not the released one.
		c.Log.Warn().Err(ErrTicketExists).Int64("telegram_id", user.ID).Uint("bot_id", bot.ID).Msg("lost ticket creation race")
		if cerr := c.Zammad.CloseTicket(ctx, created.ID, displayName(user)); cerr != nil {
			c.Log.Error().Err(cerr).Int("ticket_id", created.ID).Msg("close duplicate ticket")
		}
		c.Pending.Delete(user.ID, bot.ID)
		number := created.Number
		if winner, lerr := repo.GetOpenTicket(ctx, c.DB, user.ID, bot.ID); lerr == nil {
			number = winner.Number
		}
		c.send(sender.SendText(m.Chat.ID, fmt.Sprintf(cat.alreadyOpen, number)))
		return
	}
	if err != nil {
		c.Log.Error().Err(err).Int("ticket_id", created.ID).Msg("record open ticket")
		c.send(sender.SendText(m.Chat.ID, cat.ticketCreateFailed))
		return
	}

	c.Pending.Delete(user.ID, bot.ID)
	c.send(sender.SendTextWithCancel(m.Chat.ID, fmt.Sprintf(cat.ticketCreated, created.Number), cat.cancelButton))
}

// forwardNote relays free text into the open ticket as a public note.
func (c *Conversation) forwardNote(ctx context.Context, sender telegram.ChatSender, m *tgbotapi.Message, ticket *domain.OpenTicket, cat catalog) {
	if err := c.Zammad.AddNote(ctx, ticket.ZammadID, displayName(m.From), m.Text); err != nil {
		c.Log.Error().Err(err).Int("ticket_id", ticket.ZammadID).Msg("add note")
		c.send(sender.SendText(m.Chat.ID, cat.noteFailed))
		return
	}
	c.send(sender.SendText(m.Chat.ID, cat.noteAdded))
}

// forwardPhoto relays the largest resolution of an incoming photo into the
// open ticket as an inline attachment.
func (c *Conversation) forwardPhoto(ctx context.Context, bot domain.Bot, sender telegram.ChatSender, m *tgbotapi.Message, ticket *domain.OpenTicket, cat catalog) {
	photo := m.Photo[len(m.Photo)-1]
	data, filename, err := sender.DownloadFile(photo.FileID)
	if err != nil {
		c.Log.Error().Err(err).Uint("bot_id", bot.ID).Msg("download photo")
		c.send(sender.SendText(m.Chat.ID, cat.attachmentFailed))
		return
	}
	if err := c.Zammad.AddAttachment(ctx, ticket.ZammadID, displayName(m.From), data, filename, m.Caption); err != nil {
		c.Log.Error().Err(err).Int("ticket_id", ticket.ZammadID).Msg("add attachment")
		c.send(sender.SendText(m.Chat.ID, cat.attachmentFailed))
		return
	}
	c.send(sender.SendText(m.Chat.ID, cat.attachmentAdded))
}

// HandleCallback evaluates an inline button press. Cancellation closes the
// remote ticket first; the local record is deleted only on remote
// confirmation so a failed close never orphans the remote ticket.
func (c *Conversation) HandleCallback(ctx context.Context, bot domain.Bot, sender telegram.ChatSender, q *tgbotapi.CallbackQuery) {
	if q == nil || q.From == nil || q.Data != telegram.CallbackCancelTicket {
		return
	}
	cat := catalogFor(bot.Language)

	ticket, err := repo.GetOpenTicket(ctx, c.DB, q.From.ID, bot.ID)
	if errors.Is(err, repo.ErrNotFound) {
		c.send(sender.AnswerCallback(q.ID, cat.cancelNothing))
		return
	}
	if err != nil {
		c.Log.Error().Err(err).Msg("open ticket lookup")
		c.send(sender.AnswerCallback(q.ID, cat.cancelFailed))
		return
	}

	if err := c.Zammad.CloseTicket(ctx, ticket.ZammadID, displayName(q.From)); err != nil {
		// A ticket deleted on the helpdesk side counts as closed; anything
		// else keeps the record so the user can retry.
		if !errors.Is(err, zammad.ErrTicketNotFound) {
			c.Log.Error().Err(err).Int("ticket_id", ticket.ZammadID).Msg("close ticket")
			c.send(sender.AnswerCallback(q.ID, cat.cancelFailed))
			return
		}
		c.Log.Warn().Int("ticket_id", ticket.ZammadID).Msg("cancel of a remotely deleted ticket")
	}
	if err := repo.DeleteOpenTicket(ctx, c.DB, q.From.ID, bot.ID); err != nil {
		c.Log.Error().Err(err).Int("ticket_id", ticket.ZammadID).Msg("delete open ticket")
	}
	c.send(sender.AnswerCallback(q.ID, ""))
	if q.Message != nil {
		c.send(sender.SendText(q.Message.Chat.ID, fmt.Sprintf(cat.cancelDone, ticket.Number)))
	}
}

// send logs chat delivery failures; they are not surfaced to the webhook.
func (c *Conversation) send(err error) {
	if err != nil {
		c.Log.Warn().Err(err).Msg("telegram send failed")
	}
}

// displayName renders a user's first and optional last name.
func displayName(u *tgbotapi.User) string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// customerNumbers renders the valid customer numbers of a bot for prompts.
func customerNumbers(customers []domain.Customer) string {
	nums := make([]string, 0, len(customers))
	for _, c := range customers {
		nums = append(nums, strconv.Itoa(c.Number))
	}
	return strings.Join(nums, ", ")
}
