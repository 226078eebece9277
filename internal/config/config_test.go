package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BANK_API_URL", "")
	t.Setenv("BANKFRONT_TOKEN_FILE", "")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIBaseURL != "http://localhost:8080/api" {
		t.Errorf("unexpected base URL: %s", cfg.APIBaseURL)
	}
	if cfg.Env != "development" {
		t.Errorf("unexpected environment: %s", cfg.Env)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Errorf("unexpected timeout: %s", cfg.HTTPTimeout)
	}
	if cfg.TokenFile == "" {
		t.Error("token file path must have a default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BANK_API_URL", "https://bank.example.com/api")
	t.Setenv("BANKFRONT_TOKEN_FILE", "/tmp/bankfront-token")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "30")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIBaseURL != "https://bank.example.com/api" {
		t.Errorf("unexpected base URL: %s", cfg.APIBaseURL)
	}
	if cfg.TokenFile != "/tmp/bankfront-token" {
		t.Errorf("unexpected token file: %s", cfg.TokenFile)
	}
	if cfg.Env != "production" {
		t.Errorf("unexpected environment: %s", cfg.Env)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("unexpected timeout: %s", cfg.HTTPTimeout)
	}
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	for _, raw := range []string{"abc", "0", "-5"} {
		t.Setenv("HTTP_TIMEOUT_SECONDS", raw)
		if _, err := Load(); err == nil {
			t.Errorf("expected error for HTTP_TIMEOUT_SECONDS=%q", raw)
		}
	}
}
