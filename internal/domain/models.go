// Package domain defines the persistence models for registered bots,
// pre-provisioned customers, and currently open helpdesk tickets. These
// types are mapped with GORM and form the core data layer of the bridge.
package domain

import "time"

// Bot represents one registered Telegram bot and its helpdesk routing
// configuration. Rows are created by the administrative setup-bots command
// and are read-only at runtime.
//
// Fields:
//   - ID: auto-increment primary key.
//   - Name: unique human-readable bot name.
//   - Token: unique Telegram bot token; webhook requests are matched
//     against it.
//   - ZammadGroup: target queue for tickets created through this bot
//     (falls back to the global default when empty).
//   - CustomerPrefix: prefix for the synthetic Zammad login of customers
//     belonging to this bot (e.g. "acme-" + customer number).
//   - DefaultLastName: last name applied to auto-created Zammad accounts
//     when the customer record carries none.
//   - Language: BCP 47 tag selecting the reply catalog (e.g. "de", "ru").
type Bot struct {
	ID              uint      `json:"id"               gorm:"primaryKey"`
	Name            string    `json:"name"             gorm:"type:varchar(64);not null;uniqueIndex"`
	Token           string    `json:"-"                gorm:"type:varchar(128);not null;uniqueIndex"`
	ZammadGroup     string    `json:"zammad_group"     gorm:"type:varchar(128)"`
	CustomerPrefix  string    `json:"customer_prefix"  gorm:"type:varchar(32)"`
	DefaultLastName string    `json:"default_last_name" gorm:"type:varchar(100)"`
	Language        string    `json:"language"         gorm:"type:varchar(16)"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName returns the database table name for Bot.
func (Bot) TableName() string { return "bots" }

// Customer is a per-bot enumerated reference record. An administrator
// assigns each customer a small number, unique within the bot; ticket
// creation references the record and never mutates it.
type Customer struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	BotID     uint      `json:"bot_id"     gorm:"not null;index;uniqueIndex:ux_customer_bot_number,priority:1"`
	Number    int       `json:"number"     gorm:"not null;uniqueIndex:ux_customer_bot_number,priority:2"`
	FirstName string    `json:"first_name" gorm:"type:varchar(100);not null"`
	LastName  string    `json:"last_name"  gorm:"type:varchar(100)"`
	CreatedAt time.Time `json:"created_at"`

	// Bot is the owning bot. Customers are cascade-deleted with it.
	Bot Bot `json:"-" gorm:"foreignKey:BotID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Customer.
func (Customer) TableName() string { return "customers" }

// OpenTicket tracks the single currently-open helpdesk ticket of one
// Telegram user on one bot. The unique index on (telegram_id, bot_id) is
// the enforcement point for the at-most-one-open-ticket invariant; a
// violated insert is a data-integrity fault, not a retryable error.
//
// Rows are created after the remote ticket exists and deleted when the
// remote ticket closes, either through a user cancellation confirmed by
// Zammad or through a closure webhook.
type OpenTicket struct {
	ID         uint   `json:"id"          gorm:"primaryKey"`
	TelegramID int64  `json:"telegram_id" gorm:"not null;uniqueIndex:ux_ticket_user_bot,priority:1"`
	BotID      uint   `json:"bot_id"      gorm:"not null;uniqueIndex:ux_ticket_user_bot,priority:2"`
	CustomerID uint   `json:"customer_id" gorm:"index"`
	ZammadID   int    `json:"zammad_id"   gorm:"not null;uniqueIndex"`
	Number     string `json:"number"      gorm:"type:varchar(50);not null"`
	Priority   string `json:"priority"    gorm:"type:varchar(32)"`

	CreatedAt time.Time `json:"created_at"`

	Bot      Bot      `json:"-" gorm:"foreignKey:BotID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Customer Customer `json:"-" gorm:"foreignKey:CustomerID;references:ID"`
}

// TableName returns the database table name for OpenTicket.
func (OpenTicket) TableName() string { return "open_tickets" }
