package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-helpdesk-bridge/internal/domain"
)

func newRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Release the file handle before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedBot(t *testing.T, db *gorm.DB, name string) domain.Bot {
	t.Helper()
	b := domain.Bot{Name: name, Token: name + ":token", ZammadGroup: "Users"}
	if err := db.Create(&b).Error; err != nil {
		t.Fatalf("seed bot %s: %v", name, err)
	}
	return b
}

func TestCreateOpenTicket_SetsCreatedAtAndPersists(t *testing.T) {
	db := newRepoDB(t)
	bot := seedBot(t, db, "support")

	start := time.Now().UTC().Add(-time.Minute)
	got, err := CreateOpenTicket(context.Background(), db, domain.OpenTicket{
		TelegramID: 42,
		BotID:      bot.ID,
		ZammadID:   777,
		Number:     "31001",
	})
	if err != nil {
		t.Fatalf("CreateOpenTicket: %v", err)
	}
	if got.ID == 0 || got.Number != "31001" {
		t.Fatalf("unexpected fields: %+v", got)
	}
	if got.CreatedAt.Before(start) {
		t.Fatalf("CreatedAt seems unset: %v", got.CreatedAt)
	}
}

func TestCreateOpenTicket_SecondTicketSameUserIsDuplicate(t *testing.T) {
	db := newRepoDB(t)
	bot := seedBot(t, db, "support")

	if _, err := CreateOpenTicket(context.Background(), db, domain.OpenTicket{
		TelegramID: 42, BotID: bot.ID, ZammadID: 1, Number: "1",
	}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := CreateOpenTicket(context.Background(), db, domain.OpenTicket{
		TelegramID: 42, BotID: bot.ID, ZammadID: 2, Number: "2",
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestCreateOpenTicket_SameUserDifferentBotAllowed(t *testing.T) {
	db := newRepoDB(t)
	b1 := seedBot(t, db, "support")
	b2 := seedBot(t, db, "billing")

	if _, err := CreateOpenTicket(context.Background(), db, domain.OpenTicket{
		TelegramID: 42, BotID: b1.ID, ZammadID: 1, Number: "1",
	}); err != nil {
		t.Fatalf("create on bot1: %v", err)
	}
	if _, err := CreateOpenTicket(context.Background(), db, domain.OpenTicket{
		TelegramID: 42, BotID: b2.ID, ZammadID: 2, Number: "2",
	}); err != nil {
		t.Fatalf("create on bot2: %v", err)
	}
}

func TestGetOpenTicket_NotFound(t *testing.T) {
	db := newRepoDB(t)
	bot := seedBot(t, db, "support")

	_, err := GetOpenTicket(context.Background(), db, 999, bot.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetOpenTicketByZammadID_IgnoresBotScope(t *testing.T) {
	db := newRepoDB(t)
	bot := seedBot(t, db, "support")

	created, err := CreateOpenTicket(context.Background(), db, domain.OpenTicket{
		TelegramID: 42, BotID: bot.ID, ZammadID: 555, Number: "555",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := GetOpenTicketByZammadID(context.Background(), db, 555)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.ID != created.ID || got.TelegramID != 42 {
		t.Fatalf("wrong ticket: %+v", got)
	}
}

func TestDeleteOpenTicket_AbsentRowIsNoError(t *testing.T) {
	db := newRepoDB(t)
	bot := seedBot(t, db, "support")

	if err := DeleteOpenTicket(context.Background(), db, 1, bot.ID); err != nil {
		t.Fatalf("delete absent: %v", err)
	}
}

func TestDeleteOpenTicketByZammadID_ReportsRowsAffected(t *testing.T) {
	db := newRepoDB(t)
	bot := seedBot(t, db, "support")

	if _, err := CreateOpenTicket(context.Background(), db, domain.OpenTicket{
		TelegramID: 42, BotID: bot.ID, ZammadID: 9, Number: "9",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	n, err := DeleteOpenTicketByZammadID(context.Background(), db, 9)
	if err != nil || n != 1 {
		t.Fatalf("first delete: n=%d err=%v", n, err)
	}
	// A replayed closure must be a silent no-op.
	n, err = DeleteOpenTicketByZammadID(context.Background(), db, 9)
	if err != nil || n != 0 {
		t.Fatalf("second delete: n=%d err=%v", n, err)
	}
}
