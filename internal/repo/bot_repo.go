// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Bot model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a bot is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-helpdesk-bridge/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates that an insert collided with a uniqueness
// constraint (duplicate bot name/token, customer number, or open ticket).
var ErrDuplicate = errors.New("duplicate")

// isUniqueViolation reports whether err stems from a UNIQUE constraint.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations,
// so the check falls back to string matching.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}

// GetBotByToken fetches the bot registered under the given Telegram token.
// Returns ErrNotFound when no such bot exists.
func GetBotByToken(ctx context.Context, db *gorm.DB, token string) (*domain.Bot, error) {
	var b domain.Bot
	err := db.WithContext(ctx).Where("token = ?", token).First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBotByName fetches a bot by its unique name, or ErrNotFound.
func GetBotByName(ctx context.Context, db *gorm.DB, name string) (*domain.Bot, error) {
	var b domain.Bot
	err := db.WithContext(ctx).Where("name = ?", name).First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBots returns all registered bots ordered by name.
func ListBots(ctx context.Context, db *gorm.DB) ([]domain.Bot, error) {
	var out []domain.Bot
	err := db.WithContext(ctx).Order("name asc").Find(&out).Error
	return out, err
}

// UpsertBot creates the bot when its token is unknown, otherwise updates
// the mutable configuration fields of the existing row. Returns the stored
// bot and whether a new row was created. Mirrors the administrative
// provisioning step; not used on the webhook path.
func UpsertBot(ctx context.Context, db *gorm.DB, bot domain.Bot) (*domain.Bot, bool, error) {
	existing, err := GetBotByToken(ctx, db, bot.Token)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if cerr := db.WithContext(ctx).Create(&bot).Error; cerr != nil {
			if isUniqueViolation(cerr) {
				return nil, false, ErrDuplicate
			}
			return nil, false, cerr
		}
		return &bot, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	existing.Name = bot.Name
	existing.ZammadGroup = bot.ZammadGroup
	existing.CustomerPrefix = bot.CustomerPrefix
	existing.DefaultLastName = bot.DefaultLastName
	existing.Language = bot.Language
	if uerr := db.WithContext(ctx).Save(existing).Error; uerr != nil {
		return nil, false, uerr
	}
	return existing, false, nil
}
