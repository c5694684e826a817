// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package config

import (
	"fmt"

	"github.com/tomtom215/marketpanel/internal/logging"
)

// MinJWTSecretLength is the shortest accepted HMAC secret.
const MinJWTSecretLength = 32

// Validate checks that required configuration is present and consistent.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validatePlatform,
		c.validateStore,
		c.validateCache,
		c.validatePanel,
		c.validateAudit,
		c.validateSecurity,
		c.validateLogging,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.Server.Timeout)
	}
	return nil
}

func (c *Config) validatePlatform() error {
	if c.Platform.URL == "" {
		return fmt.Errorf("PLATFORM_URL is required")
	}
	if err := validateHTTPURL(c.Platform.URL, "PLATFORM_URL"); err != nil {
		return fmt.Errorf("PLATFORM_URL is invalid: %w", err)
	}
	if c.Platform.Timeout <= 0 {
		return fmt.Errorf("PLATFORM_TIMEOUT must be positive, got %s", c.Platform.Timeout)
	}
	return nil
}

func (c *Config) validateStore() error {
	if !c.Store.InMemory && c.Store.Path == "" {
		return fmt.Errorf("STORE_PATH is required unless STORE_IN_MEMORY=true")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.TTL < 0 {
		return fmt.Errorf("CACHE_TTL must not be negative, got %s", c.Cache.TTL)
	}
	return nil
}

func (c *Config) validatePanel() error {
	if c.Panel.APIBaseURL != "" {
		if err := validateHTTPURL(c.Panel.APIBaseURL, "PANEL_API_BASE_URL"); err != nil {
			return fmt.Errorf("PANEL_API_BASE_URL is invalid: %w", err)
		}
	}
	if c.Panel.AdminTokenTTL <= 0 {
		return fmt.Errorf("PANEL_ADMIN_TOKEN_TTL must be positive, got %s", c.Panel.AdminTokenTTL)
	}
	if c.Panel.SessionTTL <= 0 {
		return fmt.Errorf("PANEL_SESSION_TTL must be positive, got %s", c.Panel.SessionTTL)
	}
	return nil
}

func (c *Config) validateAudit() error {
	if !c.Audit.Enabled {
		return nil
	}
	if c.Audit.Retention <= 0 {
		return fmt.Errorf("AUDIT_RETENTION must be positive, got %s", c.Audit.Retention)
	}
	if c.Audit.BufferSize <= 0 {
		return fmt.Errorf("AUDIT_BUFFER_SIZE must be positive, got %d", c.Audit.BufferSize)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if len(c.Security.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", MinJWTSecretLength)
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs <= 0 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.Security.RateLimitWindow)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
