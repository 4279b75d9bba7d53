package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{
			Token:   "123:abc",
			AdminID: 999,
		},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q, want longpoll", cfg.Telegram.RunMode)
	}
	if cfg.Storage.Backend != StorageMemory {
		t.Fatalf("backend = %q, want memory", cfg.Storage.Backend)
	}
	if len(cfg.Plans) != 1 || cfg.Plans[0].ID != "tier3" {
		t.Fatalf("default plan missing: %+v", cfg.Plans)
	}
	if cfg.Plans[0].Price != "100 GHS" || cfg.Plans[0].Units != "10 Odds" {
		t.Fatalf("default plan wrong: %+v", cfg.Plans[0])
	}
}

func TestNormalizeRunModeAlias(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = "Polling"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("polling alias not accepted: %q", cfg.Telegram.RunMode)
	}
}

func TestNormalizeRequiredFields(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.Token = ""
	if err := Normalize(cfg); err == nil {
		t.Fatal("missing token must fail")
	}

	cfg = validConfig()
	cfg.Telegram.AdminID = 0
	if err := Normalize(cfg); err == nil {
		t.Fatal("missing admin id must fail")
	}
}

func TestNormalizeWebhookMode(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = RunModeWebhook
	if err := Normalize(cfg); err == nil {
		t.Fatal("webhook mode without url must fail")
	}

	cfg = validConfig()
	cfg.Telegram.RunMode = RunModeWebhook
	cfg.Webhook = WebhookConfig{URL: "https://bot.example.org/hook", Listen: "0.0.0.0", Port: 8443}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("valid webhook config rejected: %v", err)
	}
}

func TestNormalizePostgresBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Backend = "postgres"
	if err := Normalize(cfg); err == nil || !strings.Contains(err.Error(), "database.host") {
		t.Fatalf("postgres without host: %v", err)
	}

	cfg = validConfig()
	cfg.Storage.Backend = "postgres"
	cfg.Database.Host = "localhost"
	cfg.Database.Name = "tips"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Database.Port != 5432 || cfg.Database.SSLMode != "disable" || cfg.Database.MaxConnections != 10 {
		t.Fatalf("postgres defaults not applied: %+v", cfg.Database)
	}
}

func TestNormalizeRejectsBadValues(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Backend = "redis"
	if err := Normalize(cfg); err == nil {
		t.Fatal("unknown backend must fail")
	}

	cfg = validConfig()
	cfg.RateLimit.ExcludeUpdates = []string{"inline_query"}
	if err := Normalize(cfg); err == nil {
		t.Fatal("unknown exclude update must fail")
	}

	cfg = validConfig()
	cfg.Plans = []PlanConfig{{ID: "a"}, {ID: "a"}}
	if err := Normalize(cfg); err == nil {
		t.Fatal("duplicate plan ids must fail")
	}
}
