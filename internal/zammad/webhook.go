// Inbound webhook payload normalization.
//
// Zammad delivers events in two shapes depending on how the trigger is
// configured: a nested JSON document carrying ticket and article objects,
// or a flattened form-encoded key-value payload. Both are parsed into the
// same canonical Event before any business logic runs, so the relay never
// branches on payload shape.
package zammad

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// TicketInfo is the canonical ticket part of an inbound helpdesk event.
type TicketInfo struct {
	ID     int
	Number string
	State  string
}

// ArticleInfo is the canonical article part of an inbound helpdesk event.
// Channel carries the article type name ("web", "email", "phone", "note").
type ArticleInfo struct {
	ID       int
	Body     string
	Sender   string
	Channel  string
	Internal bool
}

// Event is the normalized form of one helpdesk webhook delivery.
type Event struct {
	Ticket  TicketInfo
	Article ArticleInfo
}

// nestedPayload mirrors the structured webhook body.
type nestedPayload struct {
	Ticket struct {
		ID     int    `json:"id"`
		Number string `json:"number"`
		State  string `json:"state"`
	} `json:"ticket"`
	Article struct {
		ID       int    `json:"id"`
		Body     string `json:"body"`
		Sender   string `json:"sender"`
		Type     string `json:"type"`
		Internal bool   `json:"internal"`
	} `json:"article"`
}

// ParseEventJSON normalizes a nested application/json payload.
func ParseEventJSON(data []byte) (*Event, error) {
	var p nestedPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode webhook json: %w", err)
	}
	if p.Ticket.ID == 0 {
		return nil, fmt.Errorf("webhook json: missing ticket id")
	}
	return &Event{
		Ticket: TicketInfo{
			ID:     p.Ticket.ID,
			Number: p.Ticket.Number,
			State:  strings.ToLower(strings.TrimSpace(p.Ticket.State)),
		},
		Article: ArticleInfo{
			ID:       p.Article.ID,
			Body:     p.Article.Body,
			Sender:   p.Article.Sender,
			Channel:  strings.ToLower(strings.TrimSpace(p.Article.Type)),
			Internal: p.Article.Internal,
		},
	}, nil
}

// ParseEventForm normalizes a flattened trigger-style form payload
// (ticket_id=…&article_body=…).
func ParseEventForm(values url.Values) (*Event, error) {
	ticketID, err := strconv.Atoi(strings.TrimSpace(values.Get("ticket_id")))
	if err != nil {
		return nil, fmt.Errorf("webhook form: bad ticket_id %q", values.Get("ticket_id"))
	}
	// article_id is optional on closure-only triggers.
	articleID, _ := strconv.Atoi(strings.TrimSpace(values.Get("article_id")))
	internal, _ := strconv.ParseBool(strings.TrimSpace(values.Get("article_internal")))

	return &Event{
		Ticket: TicketInfo{
			ID:     ticketID,
			Number: values.Get("ticket_number"),
			State:  strings.ToLower(strings.TrimSpace(values.Get("ticket_state"))),
		},
		Article: ArticleInfo{
			ID:       articleID,
			Body:     values.Get("article_body"),
			Sender:   values.Get("article_sender"),
			Channel:  strings.ToLower(strings.TrimSpace(values.Get("article_type"))),
			Internal: internal,
		},
	}, nil
}
