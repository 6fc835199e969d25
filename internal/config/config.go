// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, the SQLite path, Zammad API access, and Telegram bot provisioning.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// ZammadConfig defines access to the Zammad REST API.
type ZammadConfig struct {
	BaseURL string // ZAMMAD_URL, e.g. "https://helpdesk.example.com"
	Token   string // ZAMMAD_TOKEN (HTTP token access)

	// Group is the default queue new tickets land in when a bot has no
	// group of its own.
	Group string // ZAMMAD_GROUP

	// CustomerEmailDomain forms the synthetic email for auto-created
	// customer accounts (login@domain).
	CustomerEmailDomain string // ZAMMAD_CUSTOMER_EMAIL_DOMAIN

	// APITimeout bounds plain JSON calls; AttachmentTimeout bounds
	// attachment upload/download, which carry base64 bodies.
	APITimeout        time.Duration // ZAMMAD_API_TIMEOUT
	AttachmentTimeout time.Duration // ZAMMAD_ATTACHMENT_TIMEOUT

	// AttachmentURLTemplates is the ordered list of download paths tried
	// per attachment. Zammad deployments differ on the attachment route,
	// so the list is configurable rather than hard-coded. Templates may
	// reference {article} and {attachment}.
	AttachmentURLTemplates []string // ZAMMAD_ATTACHMENT_URLS (comma-separated)

	// Outbound throttle towards the helpdesk API.
	RateRPS   float64 // ZAMMAD_RATE_RPS (tokens per second, >= 0)
	RateBurst int     // ZAMMAD_RATE_BURST (bucket size, >= 1)
}

// TelegramConfig defines Telegram-side settings.
type TelegramConfig struct {
	// BotTokens maps bot name to token, parsed from a comma-separated
	// "name:token" list. Consumed by the setup-bots command; at runtime
	// bots are read from the database.
	BotTokens map[string]string // TELEGRAM_BOT_TOKENS

	// APIEndpoint overrides the Telegram Bot API endpoint (tests, proxies).
	// Empty means the public endpoint.
	APIEndpoint string // TELEGRAM_API_ENDPOINT
}

// SeedCustomer is a customer record provisioned by the setup-bots command,
// parsed from a "bot:number:first:last" entry.
type SeedCustomer struct {
	Bot       string
	Number    int
	FirstName string
	LastName  string
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// App
	DBPath     string        // SQLite path
	PendingTTL time.Duration // lifetime of an awaiting-customer-number entry

	// SeedCustomers are customer records created by setup-bots, parsed
	// from a semicolon-separated "bot:number:first:last" list. Optional.
	SeedCustomers []SeedCustomer // SEED_CUSTOMERS

	Zammad   ZammadConfig
	Telegram TelegramConfig

	// Observability
	OTEL OTELConfig
}

// DefaultAttachmentURLTemplates covers the attachment route shapes seen
// across Zammad versions. First match wins at download time.
var DefaultAttachmentURLTemplates = []string{
	"/api/v1/ticket_attachment/{article}/{attachment}",
	"/api/v1/attachments/{attachment}",
	"/api/v1/ticket_article_plain/{article}/attachments/{attachment}",
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		// App
		DBPath:        getenv("DB_PATH", "bridge.db"),
		PendingTTL:    getdur("PENDING_TTL", 5*time.Minute),
		SeedCustomers: parseSeedCustomers(getenv("SEED_CUSTOMERS", "")),

		Zammad: ZammadConfig{
			BaseURL:                strings.TrimRight(getenv("ZAMMAD_URL", ""), "/"),
			Token:                  getenv("ZAMMAD_TOKEN", ""),
			Group:                  getenv("ZAMMAD_GROUP", "Users"),
			CustomerEmailDomain:    getenv("ZAMMAD_CUSTOMER_EMAIL_DOMAIN", "telegram.bot.local"),
			APITimeout:             getdur("ZAMMAD_API_TIMEOUT", 10*time.Second),
			AttachmentTimeout:      getdur("ZAMMAD_ATTACHMENT_TIMEOUT", 45*time.Second),
			AttachmentURLTemplates: splitCSV(getenv("ZAMMAD_ATTACHMENT_URLS", "")),
			RateRPS:                getfloat("ZAMMAD_RATE_RPS", 10.0),
			RateBurst:              getint("ZAMMAD_RATE_BURST", 20),
		},

		Telegram: TelegramConfig{
			BotTokens:   parseBotTokens(getenv("TELEGRAM_BOT_TOKENS", "")),
			APIEndpoint: getenv("TELEGRAM_API_ENDPOINT", ""),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-helpdesk-bridge"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if len(cfg.Zammad.AttachmentURLTemplates) == 0 {
		cfg.Zammad.AttachmentURLTemplates = DefaultAttachmentURLTemplates
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.PendingTTL <= 0 {
		return cfg, errors.New("PENDING_TTL must be > 0")
	}
	if cfg.Zammad.APITimeout <= 0 || cfg.Zammad.AttachmentTimeout <= 0 {
		return cfg, errors.New("ZAMMAD timeouts must be positive durations")
	}
	if cfg.Zammad.RateRPS < 0 {
		return cfg, errors.New("ZAMMAD_RATE_RPS must be >= 0")
	}
	if cfg.Zammad.RateBurst < 1 {
		return cfg, errors.New("ZAMMAD_RATE_BURST must be >= 1")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// parseSeedCustomers parses "support:1:Grace:Hopper;support:7:Ada:Lovelace"
// into seed records. Entries are semicolon-separated so names may contain
// commas; the last name is optional. Unparseable entries are skipped.
func parseSeedCustomers(s string) []SeedCustomer {
	var out []SeedCustomer
	for _, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		fields := strings.SplitN(entry, ":", 4)
		if len(fields) < 3 {
			continue
		}
		number, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			continue
		}
		sc := SeedCustomer{
			Bot:       strings.TrimSpace(fields[0]),
			Number:    number,
			FirstName: strings.TrimSpace(fields[2]),
		}
		if len(fields) == 4 {
			sc.LastName = strings.TrimSpace(fields[3])
		}
		if sc.Bot == "" || sc.FirstName == "" {
			continue
		}
		out = append(out, sc)
	}
	return out
}

// parseBotTokens parses "support:123:AA,billing:456:BB" into a name→token
// map. Telegram tokens themselves contain a colon, so only the first colon
// separates the name.
func parseBotTokens(s string) map[string]string {
	out := make(map[string]string)
	for _, entry := range splitCSV(s) {
		name, token, ok := strings.Cut(entry, ":")
		name = strings.TrimSpace(name)
		token = strings.TrimSpace(token)
		if !ok || name == "" || token == "" {
			continue
		}
		out[name] = token
	}
	return out
}
