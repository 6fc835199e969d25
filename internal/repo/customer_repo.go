// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Customer
// model: administrator-provisioned reference records that ticket creation
// resolves by their per-bot number.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-helpdesk-bridge/internal/domain"
)

// CreateCustomer inserts a customer record for the given bot. A colliding
// (bot, number) pair yields ErrDuplicate.
func CreateCustomer(ctx context.Context, db *gorm.DB, botID uint, number int, firstName, lastName string) (*domain.Customer, error) {
	c := &domain.Customer{
		BotID:     botID,
		Number:    number,
		FirstName: firstName,
		LastName:  lastName,
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return c, nil
}

// ListCustomers returns all customers of a bot ordered by number ascending.
// An empty slice means the bot has no customers provisioned.
func ListCustomers(ctx context.Context, db *gorm.DB, botID uint) ([]domain.Customer, error) {
	var out []domain.Customer
	err := db.WithContext(ctx).
		Where("bot_id = ?", botID).
		Order("number asc").
		Find(&out).Error
	return out, err
}

// GetCustomerByNumber fetches the customer with the given number within a
// bot, or ErrNotFound.
func GetCustomerByNumber(ctx context.Context, db *gorm.DB, botID uint, number int) (*domain.Customer, error) {
	var c domain.Customer
	err := db.WithContext(ctx).
		Where("bot_id = ? AND number = ?", botID, number).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}
