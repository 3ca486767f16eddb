package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const defaultJWTTTL = 7 * 24 * time.Hour

// Config holds runtime configuration sourced from env vars. It is loaded
// once at startup and treated as immutable afterwards.
type Config struct {
	Port               string        `env:"PORT" envDefault:"8080"`
	DatabaseURL        string        `env:"DATABASE_URL"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	AppURL             string        `env:"APP_URL" envDefault:"http://localhost:8080"`
	CORSOrigins        []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	BcryptCost         int           `env:"BCRYPT_COST" envDefault:"10"`
	ResetSweepInterval time.Duration `env:"RESET_SWEEP_INTERVAL" envDefault:"1h"`
	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`
	// TrustProxyHeaders lets X-Forwarded-For / X-Real-IP replace the
	// connection address. Enable only behind a proxy that overwrites them.
	TrustProxyHeaders  bool          `env:"TRUST_PROXY_HEADERS" envDefault:"false"`
	JWT                JWT           `envPrefix:"JWT_"`
	SMTP               SMTP          `envPrefix:"SMTP_"`
	Admin              Admin         `envPrefix:"ADMIN_"`
}

// JWT holds session token parameters.
type JWT struct {
	Secret     string `env:"SECRET"`
	Issuer     string `env:"ISSUER" envDefault:"mindmatters-api"`
	TTLMinutes int    `env:"TTL_MINUTES" envDefault:"10080"`
}

// SMTP holds outbound mail relay settings. An empty Host disables delivery.
type SMTP struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM" envDefault:"MindMatters <no-reply@mindmatters.local>"`
}

// Admin describes the account seeded at startup. Seeding is skipped unless
// both Email and Password are set.
type Admin struct {
	Name     string `env:"NAME" envDefault:"Admin"`
	Email    string `env:"EMAIL"`
	Password string `env:"PASSWORD"`
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	cfg.JWT.Secret = strings.TrimSpace(cfg.JWT.Secret)
	cfg.Port = fallback(cfg.Port, "8080")
	cfg.JWT.Issuer = fallback(cfg.JWT.Issuer, "mindmatters-api")
	cfg.CORSOrigins = normalizeOrigins(cfg.CORSOrigins)

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if cfg.JWT.Secret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if cfg.SMTP.Host != "" && cfg.SMTP.Port <= 0 {
		return Config{}, errors.New("SMTP_PORT must be positive")
	}
	if cfg.ResetSweepInterval <= 0 {
		cfg.ResetSweepInterval = time.Hour
	}
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = 30
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// TTL returns the session token lifetime, falling back to seven days.
func (j JWT) TTL() time.Duration {
	if j.TTLMinutes <= 0 {
		return defaultJWTTTL
	}
	return time.Duration(j.TTLMinutes) * time.Minute
}

// SeedEnabled reports whether an admin account should be ensured at startup.
func (a Admin) SeedEnabled() bool {
	return strings.TrimSpace(a.Email) != "" && a.Password != ""
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func normalizeOrigins(in []string) []string {
	var out []string
	for _, part := range in {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
