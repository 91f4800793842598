package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_DSN", "JWT_SECRET", "JWT_TTL", "CORS_ORIGINS", "ALLOW_REGISTRATION", "UNKNOWN_SUPPLIER", "CART_CAP_POLICY"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.DatabaseDSN)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.False(t, cfg.AllowRegistration)
	assert.Equal(t, "Неизвестный", cfg.UnknownSupplier)
	assert.Equal(t, "cap", cfg.CartCapPolicy)
	assert.Contains(t, cfg.Warnings, "JWT_SECRET is empty, using a development secret")
}

func TestLoadCollectsWarnings(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_TTL", "forever")

	cfg := Load()

	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Contains(t, cfg.Warnings, `invalid JWT_TTL "forever", using 24h0m0s`)
	assert.NotContains(t, cfg.Warnings, "JWT_SECRET is empty, using a development secret")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("ALLOW_REGISTRATION", "true")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.True(t, cfg.AllowRegistration)
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	assert.Equal(t, logrus.InfoLevel, NewLogger("loud").GetLevel())
	assert.Equal(t, logrus.DebugLevel, NewLogger("debug").GetLevel())
}
