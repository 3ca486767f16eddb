package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/mindmatters")
	t.Setenv("JWT_SECRET", "  s3cret  ")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddress())
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, "mindmatters-api", cfg.JWT.Issuer)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.TTL())
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, time.Hour, cfg.ResetSweepInterval)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.False(t, cfg.Admin.SeedEnabled())
	assert.False(t, cfg.TrustProxyHeaders)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9000")
	t.Setenv("JWT_TTL_MINUTES", "15")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("RESET_SWEEP_INTERVAL", "10m")
	t.Setenv("ADMIN_EMAIL", "admin@mindmatters.local")
	t.Setenv("ADMIN_PASSWORD", "admin12345")
	t.Setenv("TRUST_PROXY_HEADERS", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddress())
	assert.Equal(t, 15*time.Minute, cfg.JWT.TTL())
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, 10*time.Minute, cfg.ResetSweepInterval)
	assert.True(t, cfg.Admin.SeedEnabled())
	assert.True(t, cfg.TrustProxyHeaders)
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load()
	assert.EqualError(t, err, "DATABASE_URL is required")
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/mindmatters")
	t.Setenv("JWT_SECRET", "   ")

	_, err := Load()
	assert.EqualError(t, err, "JWT_SECRET is required")
}

func TestLoad_NonPositiveTTLFallsBack(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_TTL_MINUTES", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.TTL())
}

func TestLoad_RejectsMalformedNumbers(t *testing.T) {
	setRequired(t)
	t.Setenv("BCRYPT_COST", "ten")

	_, err := Load()
	assert.Error(t, err)
}
