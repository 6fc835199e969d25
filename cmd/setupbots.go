package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tbourn/go-helpdesk-bridge/internal/config"
	"github.com/tbourn/go-helpdesk-bridge/internal/domain"
	"github.com/tbourn/go-helpdesk-bridge/internal/repo"
	"github.com/tbourn/go-helpdesk-bridge/internal/sysutil"
	"github.com/tbourn/go-helpdesk-bridge/internal/telegram"
)

var setupBotsCmd = &cobra.Command{
	Use:   "setup-bots",
	Short: "Register configured bots and install their webhooks",
	Long: `Reads TELEGRAM_BOT_TOKENS ("name:token" pairs, comma-separated),
creates or updates the bot records, and prints the webhook path each bot
should be registered under. SEED_CUSTOMERS ("bot:number:first:last"
entries, semicolon-separated) optionally provisions customer records.`,
	RunE: runSetupBots,
}

func runSetupBots(cmd *cobra.Command, args []string) error {
	loadDotenv()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if len(cfg.Telegram.BotTokens) == 0 {
		return fmt.Errorf("TELEGRAM_BOT_TOKENS is empty, nothing to set up")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	ctx := cmd.Context()
	for name, token := range cfg.Telegram.BotTokens {
		// Verify the token against the Bot API before persisting it.
		sender, err := telegram.NewSender(token, cfg.Telegram.APIEndpoint)
		if err != nil {
			return fmt.Errorf("bot %q: token rejected: %w", name, err)
		}

		bot, created, err := repo.UpsertBot(ctx, db, domain.Bot{
			Name:        name,
			Token:       token,
			ZammadGroup: sysutil.FirstNonEmpty(cfg.Zammad.Group, "Users"),
		})
		if err != nil {
			return fmt.Errorf("bot %q: %w", name, err)
		}

		action := "updated"
		if created {
			action = "created"
		}
		log.Info().
			Str("bot", bot.Name).
			Str("username", sender.Username()).
			Str("webhook_path", "/webhook/telegram/"+bot.Token).
			Msgf("bot %s", action)
	}

	return seedCustomers(ctx, db, cfg.SeedCustomers)
}

// seedCustomers provisions the SEED_CUSTOMERS records. Re-running the
// command is safe: existing (bot, number) pairs are kept as they are.
func seedCustomers(ctx context.Context, db *gorm.DB, seeds []config.SeedCustomer) error {
	for _, s := range seeds {
		bot, err := repo.GetBotByName(ctx, db, s.Bot)
		if err != nil {
			return fmt.Errorf("seed customer %d: bot %q: %w", s.Number, s.Bot, err)
		}
		_, err = repo.CreateCustomer(ctx, db, bot.ID, s.Number, s.FirstName, s.LastName)
		switch {
		case errors.Is(err, repo.ErrDuplicate):
			log.Debug().Str("bot", s.Bot).Int("number", s.Number).Msg("customer already exists")
		case err != nil:
			return fmt.Errorf("seed customer %d for %q: %w", s.Number, s.Bot, err)
		default:
			log.Info().Str("bot", s.Bot).Int("number", s.Number).Msg("customer created")
		}
	}
	return nil
}
