package telegram

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

type noopSender struct{}

func (noopSender) SendText(chatID int64, text string) error                        { return nil }
func (noopSender) SendContactRequest(chatID int64, text, buttonLabel string) error { return nil }
func (noopSender) SendTextWithCancel(chatID int64, text, buttonLabel string) error { return nil }
func (noopSender) SendPhoto(chatID int64, data []byte, filename, caption string) error {
	return nil
}
func (noopSender) SendDocument(chatID int64, data []byte, filename, caption string) error {
	return nil
}
func (noopSender) AnswerCallback(callbackID, text string) error       { return nil }
func (noopSender) DownloadFile(fileID string) ([]byte, string, error) { return nil, "", nil }

func newRegistryDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("registry_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&domain.Bot{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestNewRegistry_ResolvesByTokenAndID(t *testing.T) {
	db := newRegistryDB(t)
	for _, b := range []domain.Bot{
		{Name: "support", Token: "s:1"},
		{Name: "billing", Token: "b:2"},
	} {
		if err := db.Create(&b).Error; err != nil {
			t.Fatalf("seed %s: %v", b.Name, err)
		}
	}

	var connected int
	reg, err := NewRegistry(context.Background(), db, func(domain.Bot) (ChatSender, error) {
		connected++
		return noopSender{}, nil
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if reg.Len() != 2 || connected != 2 {
		t.Fatalf("expected 2 connected bots, got len=%d connected=%d", reg.Len(), connected)
	}

	e, ok := reg.ByToken("s:1")
	if !ok || e.Bot.Name != "support" {
		t.Fatalf("ByToken: %+v ok=%v", e, ok)
	}
	if _, ok := reg.ByToken("missing"); ok {
		t.Fatal("unknown token must not resolve")
	}
	if e2, ok := reg.ByBotID(e.Bot.ID); !ok || e2.Bot.Token != "s:1" {
		t.Fatalf("ByBotID: %+v ok=%v", e2, ok)
	}
}

func TestNewRegistry_FactoryFailureAborts(t *testing.T) {
	db := newRegistryDB(t)
	if err := db.Create(&domain.Bot{Name: "support", Token: "s:1"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	boom := errors.New("unauthorized")
	_, err := NewRegistry(context.Background(), db, func(domain.Bot) (ChatSender, error) {
		return nil, boom
	})
	if err == nil || !errors.Is(err, boom) {
		t.Fatalf("expected factory error to propagate, got %v", err)
	}
}

func TestNewRegistry_EmptyDatabase(t *testing.T) {
	db := newRegistryDB(t)
	reg, err := NewRegistry(context.Background(), db, DefaultSenderFactory(""))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if reg.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", reg.Len())
	}
}
