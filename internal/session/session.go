// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session manages the refresh-token chain behind every login.

Each login mints one refresh token. Using it is a one-shot operation: a
refresh atomically revokes the presented token and issues a successor, so
each chain has exactly one live token at any instant. A token presented
after it was already rotated is treated as stolen: the whole chain (every
active token of that user) is revoked and a SUSPICIOUS_ACTIVITY event is
emitted.

Token format:

	<recordID>.<secret>

The record ID addresses the database row directly; only the secret half is
slow-hashed. Lookup therefore costs one primary-key read plus one bcrypt
comparison, never a table scan over bcrypt hashes.

Architecture:

  - Service: Rotation, reuse detection, revocation semantics.
  - Repository: Postgres persistence; the rotation swap runs in one
    transaction.
*/
package session

import (
	"strings"
	"time"
)

// refreshSecretLength is the entropy of the secret half, in bytes.
const refreshSecretLength = 32

// # Domain Entities

// RefreshToken is one link of a user's refresh chain. Only the bcrypt hash
// of the secret half is ever stored.
type RefreshToken struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	TenantID   string     `json:"tenantId"`
	TokenHash  string     `json:"-"`
	DeviceName string     `json:"deviceName,omitempty"`
	IsRevoked  bool       `json:"revoked"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	RevokedAt  *time.Time `json:"revokedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// # Field Identifiers
const (
	FieldRefreshToken = "refreshToken"
	FieldDevice       = "device"
)

// composeToken joins the record ID and secret into the client-visible form.
func composeToken(recordID, secret string) string {
	return recordID + "." + secret
}

// splitToken separates a client-presented token into record ID and secret.
// The record ID is a UUID and the secret is base64url, so the first dot is
// an unambiguous separator.
func splitToken(token string) (recordID, secret string, ok bool) {
	recordID, secret, ok = strings.Cut(token, ".")
	if !ok || recordID == "" || secret == "" {
		return "", "", false
	}
	return recordID, secret, true
}
