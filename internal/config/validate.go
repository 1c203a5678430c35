// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package config

import (
	"fmt"
	"strings"

	"github.com/tomtom215/modelview/internal/logging"
)

var validEnvironments = map[string]bool{
	"development": true,
	"staging":     true,
	"production":  true,
}

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateGateway(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %v", c.Server.ShutdownTimeout)
	}
	if !validEnvironments[c.Server.Environment] {
		return fmt.Errorf("ENVIRONMENT must be development, staging or production, got %q", c.Server.Environment)
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case BackendMemory:
		return nil
	case BackendBadger:
		if strings.TrimSpace(c.Storage.Path) == "" {
			return fmt.Errorf("BADGER_PATH is required when STORAGE_BACKEND=badger")
		}
		if c.Storage.GCInterval < 0 {
			return fmt.Errorf("BADGER_GC_INTERVAL must not be negative, got %v", c.Storage.GCInterval)
		}
		if c.Storage.GCDiscardRatio <= 0 || c.Storage.GCDiscardRatio >= 1 {
			return fmt.Errorf("BADGER_GC_DISCARD_RATIO must be in (0, 1), got %v", c.Storage.GCDiscardRatio)
		}
		return nil
	default:
		return fmt.Errorf("STORAGE_BACKEND must be memory or badger, got %q", c.Storage.Backend)
	}
}

func (c *Config) validateGateway() error {
	g := c.Gateway
	if g.SendBuffer <= 0 {
		return fmt.Errorf("WS_SEND_BUFFER must be positive, got %d", g.SendBuffer)
	}
	if g.BroadcastBuffer <= 0 {
		return fmt.Errorf("WS_BROADCAST_BUFFER must be positive, got %d", g.BroadcastBuffer)
	}
	if g.MaxMessageSize <= 0 {
		return fmt.Errorf("WS_MAX_MESSAGE_SIZE must be positive, got %d", g.MaxMessageSize)
	}
	if g.MessageRate > 0 && g.MessageBurst <= 0 {
		return fmt.Errorf("WS_MESSAGE_BURST must be positive when WS_MESSAGE_RATE is set, got %d", g.MessageBurst)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	s := c.Security
	if !s.RateLimitDisabled {
		if s.RateLimitReqs <= 0 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", s.RateLimitReqs)
		}
		if s.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", s.RateLimitWindow)
		}
	}
	if s.MaxModelBytes <= 0 {
		return fmt.Errorf("MAX_MODEL_BYTES must be positive, got %d", s.MaxModelBytes)
	}
	if c.IsProduction() {
		for _, o := range s.CORSOrigins {
			if o == "*" {
				return fmt.Errorf("CORS_ORIGINS must not contain * in production")
			}
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}
