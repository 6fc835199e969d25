package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port default: %q", cfg.Port)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("GinMode default: %q", cfg.GinMode)
	}
	if cfg.PendingTTL != 5*time.Minute {
		t.Fatalf("PendingTTL default: %v", cfg.PendingTTL)
	}
	if cfg.Zammad.Group != "Users" {
		t.Fatalf("Zammad group default: %q", cfg.Zammad.Group)
	}
	if len(cfg.Zammad.AttachmentURLTemplates) != len(DefaultAttachmentURLTemplates) {
		t.Fatalf("attachment templates default: %v", cfg.Zammad.AttachmentURLTemplates)
	}
}

func TestLoad_TrimsZammadURLAndNormalizesLevel(t *testing.T) {
	t.Setenv("ZAMMAD_URL", "https://helpdesk.example.com/")
	t.Setenv("LOG_LEVEL", "WARNING")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Zammad.BaseURL != "https://helpdesk.example.com" {
		t.Fatalf("BaseURL not trimmed: %q", cfg.Zammad.BaseURL)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("LogLevel not normalized: %q", cfg.LogLevel)
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"LOG_LEVEL":               "verbose",
		"PENDING_TTL":             "-1m",
		"ZAMMAD_RATE_BURST":       "0",
		"OTEL_TRACES_SAMPLER_ARG": "1.5",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", key, val)
			}
		})
	}
}

func TestLoad_AttachmentURLOverride(t *testing.T) {
	t.Setenv("ZAMMAD_ATTACHMENT_URLS", "/a/{article}/{attachment}, /b/{attachment}")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"/a/{article}/{attachment}", "/b/{attachment}"}
	if len(cfg.Zammad.AttachmentURLTemplates) != 2 {
		t.Fatalf("templates: %v", cfg.Zammad.AttachmentURLTemplates)
	}
	for i, w := range want {
		if cfg.Zammad.AttachmentURLTemplates[i] != w {
			t.Fatalf("template %d: got %q want %q", i, cfg.Zammad.AttachmentURLTemplates[i], w)
		}
	}
}

func TestParseBotTokens_FirstColonSeparatesName(t *testing.T) {
	got := parseBotTokens("support:123:AAbbCC, billing:456:DDee, , broken")
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %v", got)
	}
	if got["support"] != "123:AAbbCC" {
		t.Fatalf("support token: %q", got["support"])
	}
	if got["billing"] != "456:DDee" {
		t.Fatalf("billing token: %q", got["billing"])
	}
}

func TestParseSeedCustomers(t *testing.T) {
	got := parseSeedCustomers("support:1:Grace:Hopper; support:7:Ada ;; billing:x:Bad; :2:NoBot")
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %v", got)
	}
	want := SeedCustomer{Bot: "support", Number: 1, FirstName: "Grace", LastName: "Hopper"}
	if got[0] != want {
		t.Fatalf("first seed: %+v", got[0])
	}
	if got[1].Number != 7 || got[1].FirstName != "Ada" || got[1].LastName != "" {
		t.Fatalf("second seed: %+v", got[1])
	}
}
