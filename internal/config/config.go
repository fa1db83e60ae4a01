package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile            = ".env"
	defaultPort               = "8080"
	defaultReadHeaderTimeout  = 10 * time.Second
	defaultReadTimeout        = 15 * time.Second
	defaultWriteTimeout       = 30 * time.Second
	defaultIdleTimeout        = 60 * time.Second
	defaultShutdownTimeout    = 10 * time.Second
	defaultAPITimeout         = 10 * time.Second
	defaultIdentityHeader     = "X-User-Email"
	defaultSessionCookie      = "JC_WEB_SESSION"
	defaultSessionLifetime    = 30 * 24 * time.Hour
	defaultCodeSendsPerMinute = 6
	defaultCodeSendBurst      = 3
	defaultEnvironment        = "local"
	defaultSiteName           = "JobConcierge"
	defaultLanguage           = "en"
	defaultLogLevel           = "info"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	API         APIConfig
	Session     SessionConfig
	Stripe      StripeConfig
	RateLimits  RateLimitConfig
	Site        SiteConfig
	Analytics   AnalyticsConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port              string
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	DevMode           bool
}

// APIConfig points at the JobConcierge backend. An empty BaseURL enables the local fake backend.
type APIConfig struct {
	BaseURL        string
	Timeout        time.Duration
	IdentityHeader string
}

// SessionConfig controls the signed session cookie.
type SessionConfig struct {
	CookieName string
	HashKey    string
	BlockKey   string
	Lifetime   time.Duration
	Secure     bool
}

// StripeConfig holds the browser-side payment element settings.
type StripeConfig struct {
	PublishableKey string
}

// RateLimitConfig throttles code sending and verification per client IP.
type RateLimitConfig struct {
	CodeSendsPerMinute int
	CodeSendBurst      int
}

// SiteConfig describes the public site.
type SiteConfig struct {
	Name            string
	BaseURL         string
	DefaultLanguage string
	Languages       []string
	SupportEmail    string
}

// AnalyticsConfig holds client instrumentation identifiers surfaced to templates.
type AnalyticsConfig struct {
	GA4MeasurementID string
	GTMContainerID   string
	Debug            bool
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration by combining defaults, .env overrides,
// environment variables and explicit maps, in increasing precedence.
func Load(_ context.Context, opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	// Cloud Run injects PORT; an explicit JC_WEB_PORT wins.
	port := stringWithDefault(lookup, "PORT", defaultPort)
	port = stringWithDefault(lookup, "JC_WEB_PORT", port)

	env := strings.ToLower(stringWithDefault(lookup, "JC_WEB_ENV", defaultEnvironment))

	cfg := Config{
		Environment: env,
		LogLevel:    strings.ToLower(stringWithDefault(lookup, "JC_WEB_LOG_LEVEL", defaultLogLevel)),
		Server: ServerConfig{
			Port:              port,
			ReadHeaderTimeout: durationWithDefault(lookup, "JC_WEB_READ_HEADER_TIMEOUT", defaultReadHeaderTimeout),
			ReadTimeout:       durationWithDefault(lookup, "JC_WEB_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:      durationWithDefault(lookup, "JC_WEB_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:       durationWithDefault(lookup, "JC_WEB_IDLE_TIMEOUT", defaultIdleTimeout),
			ShutdownTimeout:   durationWithDefault(lookup, "JC_WEB_SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
			DevMode:           boolWithDefault(lookup, "JC_WEB_DEV", false),
		},
		API: APIConfig{
			BaseURL:        strings.TrimRight(stringWithDefault(lookup, "JC_WEB_API_BASE_URL", ""), "/"),
			Timeout:        durationWithDefault(lookup, "JC_WEB_API_TIMEOUT", defaultAPITimeout),
			IdentityHeader: stringWithDefault(lookup, "JC_WEB_API_IDENTITY_HEADER", defaultIdentityHeader),
		},
		Session: SessionConfig{
			CookieName: stringWithDefault(lookup, "JC_WEB_SESSION_COOKIE", defaultSessionCookie),
			HashKey:    stringWithDefault(lookup, "JC_WEB_SESSION_HASH_KEY", ""),
			BlockKey:   stringWithDefault(lookup, "JC_WEB_SESSION_BLOCK_KEY", ""),
			Lifetime:   durationWithDefault(lookup, "JC_WEB_SESSION_LIFETIME", defaultSessionLifetime),
			Secure:     boolWithDefault(lookup, "JC_WEB_SESSION_SECURE", env == "prod"),
		},
		Stripe: StripeConfig{
			PublishableKey: stringWithDefault(lookup, "JC_WEB_STRIPE_PUBLISHABLE_KEY", ""),
		},
		RateLimits: RateLimitConfig{
			CodeSendsPerMinute: intWithDefault(lookup, "JC_WEB_RATELIMIT_CODE_PER_MIN", defaultCodeSendsPerMinute),
			CodeSendBurst:      intWithDefault(lookup, "JC_WEB_RATELIMIT_CODE_BURST", defaultCodeSendBurst),
		},
		Site: SiteConfig{
			Name:            stringWithDefault(lookup, "JC_WEB_SITE_NAME", defaultSiteName),
			BaseURL:         strings.TrimRight(stringWithDefault(lookup, "JC_WEB_BASE_URL", ""), "/"),
			DefaultLanguage: strings.ToLower(stringWithDefault(lookup, "JC_WEB_DEFAULT_LANG", defaultLanguage)),
			Languages:       csvWithDefault(lookup, "JC_WEB_LANGS", []string{"en", "es"}),
			SupportEmail:    stringWithDefault(lookup, "JC_WEB_SUPPORT_EMAIL", "support@jobconcierge.example"),
		},
		Analytics: AnalyticsConfig{
			GA4MeasurementID: stringWithDefault(lookup, "JC_WEB_GA_MEASUREMENT_ID", ""),
			GTMContainerID:   stringWithDefault(lookup, "JC_WEB_GTM_CONTAINER_ID", ""),
			Debug:            boolWithDefault(lookup, "JC_WEB_ANALYTICS_DEBUG", false),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsProd reports whether the configuration targets production.
func (c Config) IsProd() bool { return c.Environment == "prod" }

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string { return ":" + c.Server.Port }

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	} else if n, err := strconv.Atoi(cfg.Server.Port); err != nil || n <= 0 || n > 65535 {
		missing = append(missing, "Server.Port")
	}
	if cfg.API.Timeout <= 0 {
		missing = append(missing, "API.Timeout")
	}
	if strings.TrimSpace(cfg.API.IdentityHeader) == "" {
		missing = append(missing, "API.IdentityHeader")
	}
	if cfg.Session.Lifetime <= 0 {
		missing = append(missing, "Session.Lifetime")
	}
	if n := len(cfg.Session.BlockKey); n != 0 && n != 16 && n != 24 && n != 32 {
		missing = append(missing, "Session.BlockKey")
	}
	if cfg.IsProd() {
		// production must not fall back to an ephemeral signing key
		if len(cfg.Session.HashKey) < 32 {
			missing = append(missing, "Session.HashKey")
		}
		if cfg.API.BaseURL == "" {
			missing = append(missing, "API.BaseURL")
		}
		if cfg.Stripe.PublishableKey == "" {
			missing = append(missing, "Stripe.PublishableKey")
		}
	}
	if cfg.RateLimits.CodeSendsPerMinute <= 0 {
		missing = append(missing, "RateLimits.CodeSendsPerMinute")
	}
	if cfg.RateLimits.CodeSendBurst <= 0 {
		missing = append(missing, "RateLimits.CodeSendBurst")
	}
	if len(cfg.Site.Languages) == 0 || !contains(cfg.Site.Languages, cfg.Site.DefaultLanguage) {
		missing = append(missing, "Site.DefaultLanguage")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	values, err := godotenv.Read(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}

func csvWithDefault(lookup func(string) (string, bool), key string, fallback []string) []string {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		out := make([]string, len(fallback))
		copy(out, fallback)
		return out
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.ToLower(strings.TrimSpace(part))
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
