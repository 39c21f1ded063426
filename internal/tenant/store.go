// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tenant

import "context"

// # Repository Contracts

// Repository defines persistence operations for tenants.
//
// # Implementations
//   - PostgresRepository: Source of truth.
//   - CachedRepository: Decorator adding a Redis read-through cache on FindBySlug.
type Repository interface {
	/*
		Create persists a new tenant.

		Parameters:
		  - context: context.Context
		  - tenant: *Tenant

		Returns:
		  - error: apperr.Conflict if the slug is already taken, or storage errors
	*/
	Create(context context.Context, tenant *Tenant) error

	/*
		FindByID retrieves a tenant by its primary key.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Tenant: Matching entity
		  - error: apperr.NotFound or storage errors
	*/
	FindByID(context context.Context, id string) (*Tenant, error)

	/*
		FindBySlug retrieves a tenant by its URL-safe slug.

		Description: This is the first step of every login attempt, so
		implementations should keep it cheap.

		Parameters:
		  - context: context.Context
		  - slug: string

		Returns:
		  - *Tenant: Matching entity
		  - error: apperr.NotFound or storage errors
	*/
	FindBySlug(context context.Context, slug string) (*Tenant, error)
}
