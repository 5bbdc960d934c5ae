package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	cfg := New()

	assert.Equal(t, ":5000", cfg.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(1<<20), cfg.MaxMessageSize)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, https://staging.example.com")
	t.Setenv("STATIC_DIR", "/srv/client")
	t.Setenv("MAX_MESSAGE_SIZE", "2048")
	t.Setenv("SHUTDOWN_TIMEOUT", "5")
	t.Setenv("ENVIRONMENT", "prod")

	cfg := NewFromEnv()

	assert.Equal(t, ":9000", cfg.Port)
	assert.Equal(t, []string{"https://app.example.com", "https://staging.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "/srv/client", cfg.StaticDir)
	assert.Equal(t, int64(2048), cfg.MaxMessageSize)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "prod", cfg.Environment)
}

func TestNewFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("MAX_MESSAGE_SIZE", "not-a-number")
	t.Setenv("SHUTDOWN_TIMEOUT", "-3")

	cfg := NewFromEnv()

	assert.Equal(t, int64(1<<20), cfg.MaxMessageSize)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}
