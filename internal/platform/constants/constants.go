// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Endpoint-class admission defaults and IP tracking TTLs.
  - Security: JWT issuer, signing-key policy, and lockout tiers.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "aegis-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// RateLimitCleanupInterval is how often old source entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a source must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "aegis.app"

	// TokenType is the scheme reported to clients alongside issued access tokens.
	TokenType = "Bearer"

	// MinSigningSecretBytes is the smallest accepted HMAC signing secret.
	// 32 bytes gives the full 256-bit strength of HS256.
	MinSigningSecretBytes = 32

	// KeyRotationGracePeriod is how long a retired signing key keeps verifying
	// tokens that were minted before the rotation.
	KeyRotationGracePeriod = 24 * time.Hour

	// RefreshTokenLifetime is the default validity window of a refresh token.
	RefreshTokenLifetime = 30 * 24 * time.Hour

	// RevokedRetention is how long revoked refresh tokens are kept before the
	// cleanup pass purges them. The window preserves reuse-detection evidence.
	RevokedRetention = 30 * 24 * time.Hour
)

// # Account Lockout

const (
	// LockoutMaxAttempts is the failed-login count that triggers the first tier.
	LockoutMaxAttempts = 5

	// LockoutBaseDuration is the first-tier lockout window.
	LockoutBaseDuration = 15 * time.Minute

	// LockoutProgressiveMultiplier scales the base duration for the second tier.
	LockoutProgressiveMultiplier = 4

	// LockoutCeilingDuration caps every tier from the third crossing onward.
	LockoutCeilingDuration = 24 * time.Hour
)

// # Background Maintenance

const (
	// MaintenanceInterval is how often the background pass prunes refresh
	// tokens and sweeps retired signing keys.
	MaintenanceInterval = 1 * time.Hour
)

// # HTTP Headers

const (
	HeaderXRequestID      = "X-Request-ID"
	HeaderXForwardedFor   = "X-Forwarded-For"
	HeaderXForwardedProto = "X-Forwarded-Proto"
	HeaderXRealIP         = "X-Real-IP"
	HeaderOrigin          = "Origin"
	HeaderAuthorization   = "Authorization"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldItems   = "items"
	FieldTotal   = "total"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Database Schemas

const (
	SchemaAuth   = "auth"
	SchemaSystem = "system"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixTenantSlug = "tenant:slug:"
	RedisPrefixTenantID   = "tenant:id:"
)
