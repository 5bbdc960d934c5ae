// Package config defines runtime settings for the MindMesh server, loaded
// from the environment with sanitized defaults.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the server configuration settings.
type Config struct {
	// Port is the listen address, e.g. ":5000".
	Port string
	// AllowedOrigins lists origins accepted for WebSocket upgrades and CORS.
	// A single "*" entry allows any origin.
	AllowedOrigins []string
	// StaticDir is the directory holding the built client application.
	// Empty disables static serving.
	StaticDir string
	// MaxMessageSize caps inbound realtime frames in bytes. Edit events carry
	// the full node and connection lists, so this is generous by default.
	MaxMessageSize int64
	// ShutdownTimeout bounds graceful shutdown of the HTTP server and hub.
	ShutdownTimeout time.Duration
	// Environment selects logger verbosity ("dev" enables debug output).
	Environment string
}

// New returns a Config populated with default values.
func New() *Config {
	return &Config{
		Port:            ":5000",
		AllowedOrigins:  []string{"http://localhost:3000"},
		StaticDir:       "",
		MaxMessageSize:  1 << 20,
		ShutdownTimeout: 10 * time.Second,
		Environment:     "dev",
	}
}

// NewFromEnv returns a Config built from environment variables, falling back
// to defaults for anything unset or unparsable.
func NewFromEnv() *Config {
	cfg := New()

	if port := os.Getenv("PORT"); port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Port = port
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseOrigins(origins)
	}

	if dir := os.Getenv("STATIC_DIR"); dir != "" {
		cfg.StaticDir = dir
	}

	if maxSize := os.Getenv("MAX_MESSAGE_SIZE"); maxSize != "" {
		cfg.MaxMessageSize = parseMaxMessageSize(maxSize, cfg.MaxMessageSize)
	}

	if timeout := os.Getenv("SHUTDOWN_TIMEOUT"); timeout != "" {
		cfg.ShutdownTimeout = parseTimeout(timeout, cfg.ShutdownTimeout)
	}

	if env := os.Getenv("ENVIRONMENT"); env != "" {
		cfg.Environment = env
	}

	return cfg.sanitized()
}

func (c *Config) sanitized() *Config {
	if c.Port == "" {
		c.Port = ":5000"
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 1 << 20
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	return c
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	out := parts[:0]
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseMaxMessageSize(value string, defaultValue int64) int64 {
	if size, err := strconv.ParseInt(value, 10, 64); err == nil && size > 0 {
		return size
	}
	return defaultValue
}

func parseTimeout(value string, defaultValue time.Duration) time.Duration {
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
