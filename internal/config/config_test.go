package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_PATH", "")
	t.Setenv("GATEWAY_TIMEOUT", "")
	t.Setenv("GATEWAY_CURRENCY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Path != "rentals.db" {
		t.Errorf("Expected default database path, got %s", cfg.Database.Path)
	}
	if cfg.Gateway.Timeout != 10*time.Second {
		t.Errorf("Expected gateway timeout 10s, got %v", cfg.Gateway.Timeout)
	}
	if cfg.Gateway.Currency != "usd" {
		t.Errorf("Expected currency usd, got %s", cfg.Gateway.Currency)
	}
	if !cfg.Billing.Enabled {
		t.Errorf("Expected billing enabled by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GATEWAY_TIMEOUT", "2s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("BILLING_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Gateway.Timeout != 2*time.Second {
		t.Errorf("Expected gateway timeout 2s, got %v", cfg.Gateway.Timeout)
	}
	if len(cfg.Server.AllowedOrigins) != 2 {
		t.Fatalf("Expected 2 origins, got %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Server.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("Unexpected origin %q", cfg.Server.AllowedOrigins[1])
	}
	if cfg.Billing.Enabled {
		t.Errorf("Expected billing disabled")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("GATEWAY_TIMEOUT", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("Expected error for invalid duration")
	}
}
