package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/go-helpdesk-bridge/internal/domain"
)

func TestGetBotByToken_FoundAndNotFound(t *testing.T) {
	db := newRepoDB(t)
	seedBot(t, db, "support")

	got, err := GetBotByToken(context.Background(), db, "support:token")
	if err != nil {
		t.Fatalf("GetBotByToken: %v", err)
	}
	if got.Name != "support" {
		t.Fatalf("unexpected bot: %+v", got)
	}

	if _, err := GetBotByToken(context.Background(), db, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListBots_OrderedByName(t *testing.T) {
	db := newRepoDB(t)
	seedBot(t, db, "zulu")
	seedBot(t, db, "alpha")

	bots, err := ListBots(context.Background(), db)
	if err != nil {
		t.Fatalf("ListBots: %v", err)
	}
	if len(bots) != 2 || bots[0].Name != "alpha" || bots[1].Name != "zulu" {
		t.Fatalf("unexpected order: %+v", bots)
	}
}

func TestUpsertBot_CreatesThenUpdates(t *testing.T) {
	db := newRepoDB(t)

	b, created, err := UpsertBot(context.Background(), db, domain.Bot{
		Name: "support", Token: "tok:1", ZammadGroup: "Users",
	})
	if err != nil || !created {
		t.Fatalf("create: created=%v err=%v", created, err)
	}

	b2, created, err := UpsertBot(context.Background(), db, domain.Bot{
		Name: "support-renamed", Token: "tok:1", ZammadGroup: "VIP", Language: "de",
	})
	if err != nil || created {
		t.Fatalf("update: created=%v err=%v", created, err)
	}
	if b2.ID != b.ID {
		t.Fatalf("update must keep the row, got id %d want %d", b2.ID, b.ID)
	}
	if b2.Name != "support-renamed" || b2.ZammadGroup != "VIP" || b2.Language != "de" {
		t.Fatalf("fields not updated: %+v", b2)
	}
}

func TestUpsertBot_DuplicateNameRejected(t *testing.T) {
	db := newRepoDB(t)
	seedBot(t, db, "support")

	// Different token, same unique name.
	_, _, err := UpsertBot(context.Background(), db, domain.Bot{
		Name: "support", Token: "other:token",
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestCreateCustomer_DuplicateNumberPerBot(t *testing.T) {
	db := newRepoDB(t)
	bot := seedBot(t, db, "support")

	if _, err := CreateCustomer(context.Background(), db, bot.ID, 7, "Ada", "Lovelace"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := CreateCustomer(context.Background(), db, bot.ID, 7, "Grace", "Hopper"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// The same number under another bot is fine.
	other := seedBot(t, db, "billing")
	if _, err := CreateCustomer(context.Background(), db, other.ID, 7, "Grace", "Hopper"); err != nil {
		t.Fatalf("create under other bot: %v", err)
	}
}

func TestListCustomers_ScopedAndOrdered(t *testing.T) {
	db := newRepoDB(t)
	bot := seedBot(t, db, "support")
	other := seedBot(t, db, "billing")

	for _, n := range []int{3, 1, 2} {
		if _, err := CreateCustomer(context.Background(), db, bot.ID, n, "C", ""); err != nil {
			t.Fatalf("seed %d: %v", n, err)
		}
	}
	if _, err := CreateCustomer(context.Background(), db, other.ID, 9, "X", ""); err != nil {
		t.Fatalf("seed other: %v", err)
	}

	list, err := ListCustomers(context.Background(), db, bot.ID)
	if err != nil {
		t.Fatalf("ListCustomers: %v", err)
	}
	if len(list) != 3 || list[0].Number != 1 || list[2].Number != 3 {
		t.Fatalf("unexpected listing: %+v", list)
	}
}

func TestGetCustomerByNumber_NotFound(t *testing.T) {
	db := newRepoDB(t)
	bot := seedBot(t, db, "support")

	if _, err := GetCustomerByNumber(context.Background(), db, bot.ID, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
