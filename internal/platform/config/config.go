// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis) via constructors.
  - Zero Hidden State: No global variables are used to store config.
  - No Secrets: signing material stays in [sec.SecretsProvider]; this struct
    never holds a value that must not appear in a config dump.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/taibuivan/aegis/pkg/query"
)

// # Configuration Schema

// Config holds all runtime configuration for the Aegis API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`
	LogLevel    string `env:"LOG_LEVEL"    envDefault:"info"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Access-token lifecycle. The signing secret itself is NOT here; it is
	// read once at startup through the secrets provider.
	JWTExpirationMS       int64 `env:"JWT_EXPIRATION_MS"               envDefault:"3600000"`
	JWTRotationGraceHours int   `env:"JWT_ROTATION_GRACE_PERIOD_HOURS" envDefault:"24"`
	RefreshExpirationDays int   `env:"REFRESH_TOKEN_EXPIRATION_DAYS"   envDefault:"30"`

	// Account lockout tuning
	LockoutMaxAttempts           int `env:"SECURITY_LOCKOUT_MAX_ATTEMPTS"            envDefault:"5"`
	LockoutDurationMinutes       int `env:"SECURITY_LOCKOUT_DURATION_MINUTES"        envDefault:"15"`
	LockoutProgressiveMultiplier int `env:"SECURITY_LOCKOUT_PROGRESSIVE_MULTIPLIER"  envDefault:"4"`

	// Request admission per endpoint class
	RateLimitLoginAttempts         int `env:"RATE_LIMIT_LOGIN_ATTEMPTS"          envDefault:"5"`
	RateLimitLoginWindowMinutes    int `env:"RATE_LIMIT_LOGIN_WINDOW_MINUTES"    envDefault:"15"`
	RateLimitRegisterAttempts      int `env:"RATE_LIMIT_REGISTER_ATTEMPTS"       envDefault:"3"`
	RateLimitRegisterWindowMinutes int `env:"RATE_LIMIT_REGISTER_WINDOW_MINUTES" envDefault:"60"`
	RateLimitAPIAttempts           int `env:"RATE_LIMIT_API_ATTEMPTS"            envDefault:"100"`
	RateLimitAPIWindowSeconds      int `env:"RATE_LIMIT_API_WINDOW_SECONDS"      envDefault:"60"`

	// Audit journal intake queue capacity
	AuditQueueSize int `env:"AUDIT_QUEUE_SIZE" envDefault:"1024"`

	// Cross-Origin Resource Sharing: comma-separated allowed origins.
	// Wildcards are deliberately unsupported; credentials are always allowed,
	// so every origin must be named.
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// # Derived Values

// AccessTokenLifetime converts JWT_EXPIRATION_MS into a [time.Duration].
func (c *Config) AccessTokenLifetime() time.Duration {
	return time.Duration(c.JWTExpirationMS) * time.Millisecond
}

// KeyRotationGrace converts JWT_ROTATION_GRACE_PERIOD_HOURS into a [time.Duration].
func (c *Config) KeyRotationGrace() time.Duration {
	return time.Duration(c.JWTRotationGraceHours) * time.Hour
}

// RefreshTokenLifetime converts REFRESH_TOKEN_EXPIRATION_DAYS into a [time.Duration].
func (c *Config) RefreshTokenLifetime() time.Duration {
	return time.Duration(c.RefreshExpirationDays) * 24 * time.Hour
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS into a trimmed origin list.
func (c *Config) AllowedOrigins() []string {
	return query.StringSlice(c.CORSAllowedOrigins)
}
