package zammad

import (
	"net/url"
	"testing"
)

func TestParseEventJSON_NestedPayload(t *testing.T) {
	raw := []byte(`{
		"ticket": {"id": 12, "number": "31012", "state": "Closed"},
		"article": {"id": 7, "body": "<p>Hi</p>", "sender": "Agent", "type": "Email", "internal": false}
	}`)

	ev, err := ParseEventJSON(raw)
	if err != nil {
		t.Fatalf("ParseEventJSON: %v", err)
	}
	if ev.Ticket.ID != 12 || ev.Ticket.Number != "31012" || ev.Ticket.State != "closed" {
		t.Fatalf("ticket: %+v", ev.Ticket)
	}
	if ev.Article.ID != 7 || ev.Article.Channel != "email" || ev.Article.Internal {
		t.Fatalf("article: %+v", ev.Article)
	}
}

func TestParseEventJSON_MissingTicketID(t *testing.T) {
	if _, err := ParseEventJSON([]byte(`{"article":{"id":1}}`)); err == nil {
		t.Fatal("expected error for missing ticket id")
	}
	if _, err := ParseEventJSON([]byte(`not json`)); err == nil {
		t.Fatal("expected error for invalid json")
	}
}

func TestParseEventForm_FlattenedPayload(t *testing.T) {
	v := url.Values{}
	v.Set("ticket_id", "12")
	v.Set("ticket_number", "31012")
	v.Set("ticket_state", "Open")
	v.Set("article_id", "7")
	v.Set("article_body", "reply text")
	v.Set("article_sender", "Agent")
	v.Set("article_type", "web")
	v.Set("article_internal", "false")

	ev, err := ParseEventForm(v)
	if err != nil {
		t.Fatalf("ParseEventForm: %v", err)
	}
	if ev.Ticket.ID != 12 || ev.Ticket.State != "open" {
		t.Fatalf("ticket: %+v", ev.Ticket)
	}
	if ev.Article.ID != 7 || ev.Article.Body != "reply text" || ev.Article.Channel != "web" {
		t.Fatalf("article: %+v", ev.Article)
	}
}

func TestParseEventForm_ClosureWithoutArticle(t *testing.T) {
	v := url.Values{}
	v.Set("ticket_id", "12")
	v.Set("ticket_state", "closed")

	ev, err := ParseEventForm(v)
	if err != nil {
		t.Fatalf("ParseEventForm: %v", err)
	}
	if ev.Article.ID != 0 || ev.Ticket.State != "closed" {
		t.Fatalf("event: %+v", ev)
	}
}

func TestParseEventForm_BadTicketID(t *testing.T) {
	v := url.Values{}
	v.Set("ticket_id", "abc")
	if _, err := ParseEventForm(v); err == nil {
		t.Fatal("expected error for non-numeric ticket_id")
	}
}
