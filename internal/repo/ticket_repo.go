// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the OpenTicket
// model, the single mutable entity of the bridge.
//
// Error semantics:
//   - CreateOpenTicket maps UNIQUE violations on (telegram_id, bot_id) to
//     ErrDuplicate so the service layer can surface "ticket already exists"
//     instead of silently overwriting.
//   - Lookups return ErrNotFound (gorm.ErrRecordNotFound) when no row
//     matches; callers treat that as a normal control-flow branch.
//   - Deletions by Zammad id report the affected row count so repeated
//     closure webhooks stay idempotent.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-helpdesk-bridge/internal/domain"
)

// CreateOpenTicket records a freshly created remote ticket for the
// (telegram user, bot) pair. CreatedAt is set to UTC. A second open ticket
// for the same pair violates the unique index and yields ErrDuplicate.
func CreateOpenTicket(ctx context.Context, db *gorm.DB, t domain.OpenTicket) (*domain.OpenTicket, error) {
	t.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(&t).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &t, nil
}

// GetOpenTicket fetches the open ticket of a telegram user on a bot,
// or ErrNotFound.
func GetOpenTicket(ctx context.Context, db *gorm.DB, telegramID int64, botID uint) (*domain.OpenTicket, error) {
	var t domain.OpenTicket
	err := db.WithContext(ctx).
		Where("telegram_id = ? AND bot_id = ?", telegramID, botID).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetOpenTicketByZammadID fetches the tracked ticket with the given remote
// id, or ErrNotFound. Zammad ids are unique per helpdesk instance, so the
// lookup is deliberately not scoped by bot.
func GetOpenTicketByZammadID(ctx context.Context, db *gorm.DB, zammadID int) (*domain.OpenTicket, error) {
	var t domain.OpenTicket
	err := db.WithContext(ctx).
		Where("zammad_id = ?", zammadID).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteOpenTicket removes the tracked ticket of a (telegram user, bot)
// pair. Deleting an absent row is not an error.
func DeleteOpenTicket(ctx context.Context, db *gorm.DB, telegramID int64, botID uint) error {
	return db.WithContext(ctx).
		Where("telegram_id = ? AND bot_id = ?", telegramID, botID).
		Delete(&domain.OpenTicket{}).Error
}

// DeleteOpenTicketByZammadID removes the tracked ticket with the given
// remote id and reports how many rows were removed (0 when the ticket was
// never tracked or already cleaned up).
func DeleteOpenTicketByZammadID(ctx context.Context, db *gorm.DB, zammadID int) (int64, error) {
	res := db.WithContext(ctx).
		Where("zammad_id = ?", zammadID).
		Delete(&domain.OpenTicket{})
	return res.RowsAffected, res.Error
}
