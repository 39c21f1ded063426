// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package tenant manages the organizations that partition every other record
in the system.

Each tenant owns its users, sessions, and audit trail. A tenant is created
exactly once during self-service registration and is never deleted; setting
the active flag to false is the terminal state.

Architecture:

  - Repository: Postgres persistence with a Redis read-through cache on the
    slug lookup (the hot path of every login).
  - The slug is a URL-safe ASCII identifier, unique across all tenants.
*/
package tenant

import "time"

// # Domain Entities

// Tenant is an isolated organization namespace.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	IsActive  bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// # Field Identifiers
// Stable field names shared by validation errors and response payloads.
const (
	FieldTenantID   = "tenantId"
	FieldTenantName = "tenantName"
	FieldTenantSlug = "tenantSlug"
)
