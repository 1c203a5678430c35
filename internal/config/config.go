// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/tomtom215/modelview/internal/logging"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Storage  StorageConfig  `koanf:"storage"`
	Gateway  GatewayConfig  `koanf:"gateway"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// Environment is "development", "staging" or "production".
	Environment string `koanf:"environment"`
}

// Addr returns host:port for net.Listen.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// StorageConfig selects and tunes the project store.
type StorageConfig struct {
	Backend    string `koanf:"backend"`
	Path       string `koanf:"path"`
	SyncWrites bool   `koanf:"sync_writes"`
	// GCInterval is how often badger value-log GC runs. Zero disables it.
	GCInterval     time.Duration `koanf:"gc_interval"`
	GCDiscardRatio float64       `koanf:"gc_discard_ratio"`
}

// GatewayConfig tunes the WebSocket gateway.
type GatewayConfig struct {
	SendBuffer      int     `koanf:"send_buffer"`
	BroadcastBuffer int     `koanf:"broadcast_buffer"`
	MaxMessageSize  int64   `koanf:"max_message_size"`
	MessageRate     float64 `koanf:"message_rate"`
	MessageBurst    int     `koanf:"message_burst"`
	// AllowedOrigins for the upgrade handshake. "*" or empty allows any.
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// SecurityConfig holds HTTP hardening settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	// MaxModelBytes caps uploaded STL payloads.
	MaxModelBytes int64 `koanf:"max_model_bytes"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	// Caller adds file:line to each entry.
	Caller bool `koanf:"caller"`
}

// ToLoggingConfig converts to the logging package's Config.
func (l LoggingConfig) ToLoggingConfig() logging.Config {
	return logging.Config{
		Level:  l.Level,
		Format: l.Format,
		Caller: l.Caller,
	}
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// String summarizes the configuration for startup logs.
func (c *Config) String() string {
	return fmt.Sprintf("server=%s storage=%s log=%s/%s",
		c.Server.Addr(), c.Storage.Backend, c.Logging.Level, c.Logging.Format)
}
