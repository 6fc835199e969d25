package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-helpdesk-bridge/internal/cache"
	"github.com/tbourn/go-helpdesk-bridge/internal/config"
	httpapi "github.com/tbourn/go-helpdesk-bridge/internal/http"
	"github.com/tbourn/go-helpdesk-bridge/internal/observability"
	"github.com/tbourn/go-helpdesk-bridge/internal/repo"
	"github.com/tbourn/go-helpdesk-bridge/internal/services"
	"github.com/tbourn/go-helpdesk-bridge/internal/sysutil"
	"github.com/tbourn/go-helpdesk-bridge/internal/telegram"
	"github.com/tbourn/go-helpdesk-bridge/internal/zammad"
)

// version is stamped at build time via -ldflags.
var version = "dev"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	loadDotenv()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	setupLogging(cfg)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	registry, err := telegram.NewRegistry(ctx, db, telegram.DefaultSenderFactory(cfg.Telegram.APIEndpoint))
	if err != nil {
		return fmt.Errorf("bot registry: %w", err)
	}
	if registry.Len() == 0 {
		log.Warn().Msg("no bots registered, run setup-bots first")
	}

	zclient := zammad.New(cfg.Zammad, log.With().Str("component", "zammad").Logger())
	conv := &services.Conversation{
		DB:      db,
		Zammad:  zclient,
		Pending: cache.NewPendingStore(cfg.PendingTTL),
		Log:     log.With().Str("component", "conversation").Logger(),
	}
	relay := &services.Relay{
		DB:     db,
		Zammad: zclient,
		Bots:   registry,
		Log:    log.With().Str("component", "relay").Logger(),
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, conv, relay, registry, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Int("bots", registry.Len()).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// setupLogging applies the global log level and output format.
func setupLogging(cfg config.Config) {
	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
