package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-helpdesk-bridge/internal/domain"
	"github.com/tbourn/go-helpdesk-bridge/internal/repo"
	"github.com/tbourn/go-helpdesk-bridge/internal/telegram"
	"github.com/tbourn/go-helpdesk-bridge/internal/zammad"
)

type fakeDirectory struct {
	entries map[uint]*telegram.Entry
}

func (d *fakeDirectory) ByBotID(id uint) (*telegram.Entry, bool) {
	e, ok := d.entries[id]
	return e, ok
}

type relayFixture struct {
	relay  *Relay
	db     *gorm.DB
	zd     *fakeZammad
	sender *fakeSender
	bot    domain.Bot
}

func newRelayFixture(t *testing.T) *relayFixture {
	t.Helper()
	db := newServiceDB(t)
	bot := domain.Bot{Name: "support", Token: "support:token"}
	if err := db.Create(&bot).Error; err != nil {
		t.Fatalf("seed bot: %v", err)
	}
	sender := &fakeSender{}
	zd := newFakeZammad()
	return &relayFixture{
		relay: &Relay{
			DB:     db,
			Zammad: zd,
			Bots: &fakeDirectory{entries: map[uint]*telegram.Entry{
				bot.ID: {Bot: bot, Sender: sender},
			}},
			Log: zerolog.Nop(),
		},
		db:     db,
		zd:     zd,
		sender: sender,
		bot:    bot,
	}
}

func (fx *relayFixture) track(t *testing.T, zammadID int, number string) {
	t.Helper()
	if _, err := repo.CreateOpenTicket(context.Background(), fx.db, domain.OpenTicket{
		TelegramID: 42, BotID: fx.bot.ID, ZammadID: zammadID, Number: number,
	}); err != nil {
		t.Fatalf("track ticket: %v", err)
	}
}

func agentEvent(ticketID int, state, body string) zammad.Event {
	return zammad.Event{
		Ticket: zammad.TicketInfo{ID: ticketID, Number: "31500", State: state},
		Article: zammad.ArticleInfo{
			ID: 7, Body: body, Sender: "Agent", Channel: "web",
		},
	}
}

func TestHandleEvent_AgentReplyForwardedPlainText(t *testing.T) {
	fx := newRelayFixture(t)
	fx.track(t, 500, "31500")

	fx.relay.HandleEvent(context.Background(), agentEvent(500, "open", "<p>We are on it.</p><p>Hang tight.</p>"))

	got := fx.sender.lastText()
	if !strings.Contains(got, "We are on it.") || strings.Contains(got, "<p>") {
		t.Fatalf("forwarded text: %q", got)
	}
	if !strings.Contains(got, "Hang tight.") {
		t.Fatalf("block break lost: %q", got)
	}
}

func TestHandleEvent_UntrackedTicketIgnored(t *testing.T) {
	fx := newRelayFixture(t)

	fx.relay.HandleEvent(context.Background(), agentEvent(999, "open", "hello"))

	if len(fx.sender.sent) != 0 {
		t.Fatalf("nothing may be sent for untracked tickets: %+v", fx.sender.sent)
	}
}

func TestHandleEvent_CustomerEchoNotForwarded(t *testing.T) {
	fx := newRelayFixture(t)
	fx.track(t, 500, "31500")

	ev := agentEvent(500, "open", "my own message")
	ev.Article.Sender = "Customer"
	fx.relay.HandleEvent(context.Background(), ev)

	if len(fx.sender.sent) != 0 {
		t.Fatalf("customer articles must not echo back: %+v", fx.sender.sent)
	}
}

func TestHandleEvent_InternalAndTelegramChannelFiltered(t *testing.T) {
	fx := newRelayFixture(t)
	fx.track(t, 500, "31500")

	internal := agentEvent(500, "open", "internal remark")
	internal.Article.Internal = true
	fx.relay.HandleEvent(context.Background(), internal)

	chat := agentEvent(500, "open", "bridge-originated")
	chat.Article.Channel = "telegram personal-message"
	fx.relay.HandleEvent(context.Background(), chat)

	if len(fx.sender.sent) != 0 {
		t.Fatalf("filtered articles leaked: %+v", fx.sender.sent)
	}
}

func TestHandleEvent_AttachmentsForwardedByKind(t *testing.T) {
	fx := newRelayFixture(t)
	fx.track(t, 500, "31500")
	fx.zd.listMetas = []zammad.AttachmentMeta{
		{ID: 1, Filename: "shot.png", Preferences: map[string]string{"Content-Type": "image/png"}},
		{ID: 2, Filename: "log.txt", Preferences: map[string]string{"Content-Type": "text/plain"}},
	}
	fx.zd.downloads[1] = []byte("png")
	fx.zd.downloads[2] = []byte("txt")

	fx.relay.HandleEvent(context.Background(), agentEvent(500, "open", "see files"))

	var kinds []string
	for _, s := range fx.sender.sent {
		kinds = append(kinds, s.kind)
	}
	want := []string{"text", "photo", "document"}
	if len(kinds) != len(want) {
		t.Fatalf("sent kinds: %v", kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("kind %d: got %s want %s", i, kinds[i], want[i])
		}
	}
}

func TestHandleEvent_PhotoRejectionFallsBackToDocument(t *testing.T) {
	fx := newRelayFixture(t)
	fx.track(t, 500, "31500")
	fx.zd.listMetas = []zammad.AttachmentMeta{
		{ID: 1, Filename: "huge.bmp", Preferences: map[string]string{"Content-Type": "image/bmp"}},
	}
	fx.zd.downloads[1] = []byte("bmp")
	fx.sender.photoErr = errors.New("PHOTO_INVALID_DIMENSIONS")

	fx.relay.HandleEvent(context.Background(), agentEvent(500, "open", "see file"))

	last := fx.sender.sent[len(fx.sender.sent)-1]
	if last.kind != "document" || last.text != "huge.bmp" {
		t.Fatalf("expected document fallback, got %+v", last)
	}
}

func TestHandleEvent_ClosureNotifiesAndReleases(t *testing.T) {
	fx := newRelayFixture(t)
	fx.track(t, 500, "31500")

	ev := agentEvent(500, "closed", "resolved, closing")
	fx.relay.HandleEvent(context.Background(), ev)

	texts := make([]string, 0, len(fx.sender.sent))
	for _, s := range fx.sender.sent {
		if s.kind == "text" {
			texts = append(texts, s.text)
		}
	}
	// Reply first, then the closure notice.
	if len(texts) != 2 || !strings.Contains(texts[0], "resolved, closing") || !strings.Contains(texts[1], "31500") {
		t.Fatalf("texts: %v", texts)
	}
	if _, err := repo.GetOpenTicketByZammadID(context.Background(), fx.db, 500); !errors.Is(err, repo.ErrNotFound) {
		t.Fatal("tracking record must be released on closure")
	}
}

func TestHandleEvent_ReplayedClosureIsSilent(t *testing.T) {
	fx := newRelayFixture(t)
	fx.track(t, 500, "31500")

	ev := zammad.Event{Ticket: zammad.TicketInfo{ID: 500, Number: "31500", State: "closed"}}
	fx.relay.HandleEvent(context.Background(), ev)
	first := len(fx.sender.sent)

	fx.relay.HandleEvent(context.Background(), ev)
	if len(fx.sender.sent) != first {
		t.Fatalf("replayed closure must not notify again: %+v", fx.sender.sent)
	}
}
