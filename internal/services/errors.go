// Package services implements the conversation state machine on the chat
// side and the outbound relay on the helpdesk side. This file centralizes
// common service-level error values so that they can be consistently
// returned by service methods and checked by callers.
package services

import "errors"

var (
	// ErrTicketExists indicates the user already has an open ticket on
	// this bot. Surfaced instead of silently overwriting the record.
	ErrTicketExists = errors.New("open ticket already exists")

	// ErrNoCustomers is returned when the contact-share flow starts on a
	// bot without any provisioned customer records.
	ErrNoCustomers = errors.New("no customers configured for bot")

	// ErrBotNotFound indicates a webhook delivery addressed a token no
	// registered bot carries.
	ErrBotNotFound = errors.New("bot not found")
)
