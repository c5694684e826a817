// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

// Package config loads Marketpanel configuration from defaults, an optional
// YAML file and environment variables, in that order of precedence.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config is the complete application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Platform PlatformConfig `koanf:"platform"`
	Store    StoreConfig    `koanf:"store"`
	Cache    CacheConfig    `koanf:"cache"`
	Panel    PanelConfig    `koanf:"panel"`
	Audit    AuditConfig    `koanf:"audit"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port    int           `koanf:"port"`
	Host    string        `koanf:"host"`
	Timeout time.Duration `koanf:"timeout"` // read/write timeout and graceful shutdown budget
}

// Addr returns host:port for http.Server.
func (s *ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// PlatformConfig points at the upstream marketplace platform API that owns the
// marketplace catalog and the subscription assets.
type PlatformConfig struct {
	URL     string        `koanf:"url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

// StoreConfig configures the BadgerDB settings store.
type StoreConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// CacheConfig configures the chart result cache.
type CacheConfig struct {
	TTL time.Duration `koanf:"ttl"` // 0 disables caching
}

// PanelConfig configures the server-rendered admin panel.
type PanelConfig struct {
	// APIBaseURL is where the panel's API client sends requests. Empty means
	// this server's own listener.
	APIBaseURL string `koanf:"api_base_url"`

	// DefaultInstallation scopes /api/settings when a request carries no
	// X-Installation-Id header.
	DefaultInstallation string `koanf:"default_installation"`

	// AdminTokenTTL is the lifetime of the token the panel mints for itself.
	AdminTokenTTL time.Duration `koanf:"admin_token_ttl"`

	// SessionTTL expires idle browser sessions.
	SessionTTL time.Duration `koanf:"session_ttl"`
}

// ResolveAPIBaseURL returns APIBaseURL, or the loopback address of server
// when it is unset.
func (p *PanelConfig) ResolveAPIBaseURL(server *ServerConfig) string {
	if p.APIBaseURL != "" {
		return p.APIBaseURL
	}
	host := server.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(server.Port))
}

// AuditConfig configures the settings audit trail. Events share the settings
// store's database.
type AuditConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Retention  time.Duration `koanf:"retention"`   // events expire after this long
	BufferSize int           `koanf:"buffer_size"` // pending events before new ones are dropped
}

// SecurityConfig holds auth and request-shaping settings.
type SecurityConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads the layered configuration and validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
