// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package user manages member accounts inside a tenant.

It owns the profile surface (lookup, listing, self-service updates) and the
administrative deactivation flow. Credential verification and lockout
bookkeeping live in the auth and lockout packages; this package only reads
those columns.

Architecture:

  - Service: Tenant-scoped profile use cases.
  - Repository: Postgres persistence for the auth.account table.
*/
package user

import (
	"time"

	"github.com/taibuivan/aegis/internal/platform/sec"
)

// # Domain Entities

// User is a member account belonging to exactly one tenant.
//
// The JSON shape of this struct is the public UserResponse: the password
// hash and the lockout bookkeeping columns never serialize.
type User struct {
	ID           string       `json:"id"`
	TenantID     string       `json:"tenantId"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	Name         string       `json:"name"`
	Role         sec.UserRole `json:"role"`
	IsActive     bool         `json:"active"`

	// Lockout bookkeeping, maintained by the lockout package.
	FailedLoginAttempts int        `json:"-"`
	LockedUntil         *time.Time `json:"-"`
	LastFailedLogin     *time.Time `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}

// # Field Identifiers
// Stable field names shared by validation errors and response payloads.
const (
	FieldUserID   = "userId"
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldUserName = "userName"
	FieldName     = "name"
	FieldRole     = "role"
)
