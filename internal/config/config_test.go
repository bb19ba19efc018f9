package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_LocalDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("APP_ENV", "development")
	t.Setenv("CURRENCY", "eur")
	t.Setenv("STORAGE_DRIVER", "")

	cfg := Load()

	assert.Equal(t, ModeLocal, cfg.Mode())
	assert.False(t, cfg.IsCloud())
	assert.Equal(t, "EUR", cfg.DefaultCurrency)
	assert.Equal(t, "file", cfg.StorageDriver)
	assert.False(t, cfg.SecureCookies)
}

func TestLoad_CloudMode(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_EXPIRY", "2h")

	cfg := Load()

	assert.Equal(t, ModeCloud, cfg.Mode())
	assert.Equal(t, "test-secret", cfg.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
}

func TestEnvHelpers_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("SOME_BOOL", "maybe")
	t.Setenv("SOME_DURATION", "soon")

	assert.True(t, envBool("SOME_BOOL", true))
	assert.Equal(t, time.Minute, envDuration("SOME_DURATION", time.Minute))
	assert.Equal(t, "fallback", envString("UNSET_KEY_FOR_TEST", "fallback"))
}

func TestSanitized_DropsSecrets(t *testing.T) {
	cfg := &Config{AppName: "x", JWTSecret: "secret", S3SecretKey: "s3", SentryDSN: "dsn"}
	safe := cfg.Sanitized()

	assert.Equal(t, "x", safe.AppName)
	assert.Empty(t, safe.JWTSecret)
	assert.Empty(t, safe.S3SecretKey)
	assert.Empty(t, safe.SentryDSN)
}
