// Package zammad implements a typed client for the Zammad REST API:
// ticket creation and state queries, article notes, inline attachments,
// and customer account resolution. Failures never propagate as panics;
// every operation returns a result value or a typed error for the caller
// to degrade on.
package zammad

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel outcomes. A missing remote ticket is a distinguished branch,
// not a generic failure: it signals the remote record no longer exists.
var (
	ErrTicketNotFound        = errors.New("zammad: ticket not found")
	ErrAttachmentUnavailable = errors.New("zammad: attachment unavailable")
)

// APIError captures a non-2xx response: status code plus the raw body for
// server-side logs.
type APIError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("zammad: unexpected status %d: %s", e.Status, e.Body)
}

// Ticket is the subset of a ticket-creation response the bridge records.
type Ticket struct {
	ID       int    `json:"id"`
	Number   string `json:"number"`
	Title    string `json:"title"`
	State    string `json:"state"`
	Priority string `json:"priority"`
}

// TicketDetails is the subset of a ticket read used for state
// reconciliation.
type TicketDetails struct {
	ID     int    `json:"id"`
	Number string `json:"number"`
	State  string `json:"state"`
	Title  string `json:"title"`
}

// AttachmentMeta describes one attachment of an article.
type AttachmentMeta struct {
	ID          int               `json:"id"`
	Filename    string            `json:"filename"`
	Size        int               `json:"size,string"`
	Preferences map[string]string `json:"preferences"`
}

// ContentType returns the MIME type recorded for the attachment, or an
// empty string when Zammad did not store one.
func (m AttachmentMeta) ContentType() string {
	if m.Preferences == nil {
		return ""
	}
	if ct, ok := m.Preferences["Content-Type"]; ok {
		return ct
	}
	return m.Preferences["Mime-Type"]
}

// openStates is the exact set of remote states considered active. Anything
// else, including states this bridge has never heard of, counts as closed.
var openStates = map[string]struct{}{
	"new":              {},
	"open":             {},
	"pending reminder": {},
	"pending close":    {},
}

// IsOpenState reports whether a remote ticket state counts as open.
// The comparison is case-insensitive.
func IsOpenState(state string) bool {
	_, ok := openStates[strings.ToLower(strings.TrimSpace(state))]
	return ok
}
