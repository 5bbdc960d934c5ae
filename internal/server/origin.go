// Package server normalizes and validates HTTP origins for WebSocket
// upgrades against the configured allow list.
package server

import (
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

type originPolicy struct {
	allowAll bool
	origins  map[string]struct{}
	logger   *zap.Logger
}

func newOriginPolicy(allowed []string, logger *zap.Logger) *originPolicy {
	p := &originPolicy{
		origins: make(map[string]struct{}, len(allowed)),
		logger:  logger,
	}
	for _, origin := range allowed {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			p.allowAll = true
			continue
		}
		normalized, ok := normalizeOrigin(trimmed)
		if !ok {
			logger.Warn("ignoring invalid origin in configuration", zap.String("origin", origin))
			continue
		}
		p.origins[normalized] = struct{}{}
	}
	return p
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}

func (p *originPolicy) check(r *http.Request) bool {
	if p.allowAll {
		return true
	}

	header := r.Header.Get("Origin")
	normalized, ok := normalizeOrigin(header)
	if ok {
		if _, exists := p.origins[normalized]; exists {
			return true
		}
	}

	p.logger.Warn("blocked websocket upgrade from disallowed origin",
		zap.String("origin", header))
	return false
}
