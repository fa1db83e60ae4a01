package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.API.BaseURL != "" {
		t.Errorf("expected empty api base url, got %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != defaultAPITimeout {
		t.Errorf("unexpected api timeout: %s", cfg.API.Timeout)
	}
	if cfg.API.IdentityHeader != "X-User-Email" {
		t.Errorf("unexpected identity header: %s", cfg.API.IdentityHeader)
	}
	if cfg.Session.CookieName != defaultSessionCookie {
		t.Errorf("unexpected cookie name: %s", cfg.Session.CookieName)
	}
	if cfg.Session.Secure {
		t.Errorf("expected insecure cookies outside prod")
	}
	if cfg.Environment != "local" {
		t.Errorf("expected local environment, got %s", cfg.Environment)
	}
	if got := cfg.Site.Languages; len(got) != 2 || got[0] != "en" || got[1] != "es" {
		t.Errorf("unexpected languages: %v", got)
	}
	if cfg.Addr() != ":8080" {
		t.Errorf("unexpected addr %s", cfg.Addr())
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"PORT":                          "9000",
		"JC_WEB_PORT":                   "9090",
		"JC_WEB_API_BASE_URL":           "https://api.example.com/v1/",
		"JC_WEB_API_TIMEOUT":            "3s",
		"JC_WEB_SESSION_LIFETIME":       "2h",
		"JC_WEB_RATELIMIT_CODE_PER_MIN": "12",
		"JC_WEB_LANGS":                  "en, ES",
		"JC_WEB_DEFAULT_LANG":           "es",
		"JC_WEB_DEV":                    "yes",
		"JC_WEB_LOG_LEVEL":              "DEBUG",
	}

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("expected JC_WEB_PORT to win, got %s", cfg.Server.Port)
	}
	if cfg.API.BaseURL != "https://api.example.com/v1" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 3*time.Second {
		t.Errorf("unexpected api timeout %s", cfg.API.Timeout)
	}
	if cfg.Session.Lifetime != 2*time.Hour {
		t.Errorf("unexpected lifetime %s", cfg.Session.Lifetime)
	}
	if cfg.RateLimits.CodeSendsPerMinute != 12 {
		t.Errorf("unexpected rate limit %d", cfg.RateLimits.CodeSendsPerMinute)
	}
	if cfg.Site.DefaultLanguage != "es" || len(cfg.Site.Languages) != 2 || cfg.Site.Languages[1] != "es" {
		t.Errorf("unexpected languages %v default %s", cfg.Site.Languages, cfg.Site.DefaultLanguage)
	}
	if !cfg.Server.DevMode {
		t.Errorf("expected dev mode")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected lowercased log level, got %s", cfg.LogLevel)
	}
}

func TestLoadProdRequiresSecrets(t *testing.T) {
	env := map[string]string{"JC_WEB_ENV": "prod"}

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	fields := vErr.Fields()
	want := map[string]bool{"Session.HashKey": false, "API.BaseURL": false, "Stripe.PublishableKey": false}
	for _, f := range fields {
		if _, ok := want[f]; ok {
			want[f] = true
		}
	}
	for f, seen := range want {
		if !seen {
			t.Errorf("expected %s in %v", f, fields)
		}
	}
}

func TestLoadRejectsUnknownDefaultLanguage(t *testing.T) {
	env := map[string]string{"JC_WEB_DEFAULT_LANG": "fr"}
	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# local overrides\nJC_WEB_API_BASE_URL=\"http://localhost:8000\"\nexport JC_WEB_STRIPE_PUBLISHABLE_KEY=pk_test_123\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}

	cfg, err := Load(context.Background(),
		WithEnvFile(path),
		WithoutSystemEnv(),
		WithEnvMap(map[string]string{"JC_WEB_STRIPE_PUBLISHABLE_KEY": "pk_test_override"}),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Errorf("expected dotenv base url, got %q", cfg.API.BaseURL)
	}
	if cfg.Stripe.PublishableKey != "pk_test_override" {
		t.Errorf("expected env map to override dotenv, got %q", cfg.Stripe.PublishableKey)
	}
}

func TestLoadIgnoresMissingDotEnv(t *testing.T) {
	_, err := Load(context.Background(), WithEnvFile(filepath.Join(t.TempDir(), "missing.env")), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("expected missing .env to be ignored, got %v", err)
	}
}
