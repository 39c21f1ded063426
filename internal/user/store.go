// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package user

import "context"

// # Repository Contracts

// Repository defines persistence operations for member accounts.
type Repository interface {
	/*
		Create persists a new user.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: apperr.Conflict if the email is taken inside the tenant, or storage errors
	*/
	Create(context context.Context, user *User) error

	/*
		FindByID retrieves a user by primary key.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity including lockout columns
		  - error: apperr.NotFound or storage errors
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmailAndTenant retrieves a user by the (email, tenant) pair.

		Description: Emails are unique per tenant, not globally. The same
		address may exist under any number of tenants.

		Parameters:
		  - context: context.Context
		  - email: string
		  - tenantID: string

		Returns:
		  - *User: Hydrated entity including lockout columns
		  - error: apperr.NotFound or storage errors
	*/
	FindByEmailAndTenant(context context.Context, email, tenantID string) (*User, error)

	/*
		ListByTenant returns one page of a tenant's users plus the total count.

		Parameters:
		  - context: context.Context
		  - tenantID: string
		  - limit: int
		  - offset: int

		Returns:
		  - []*User: Page ordered by creation time descending
		  - int: Total matching rows across all pages
		  - error: Storage errors
	*/
	ListByTenant(context context.Context, tenantID string, limit, offset int) ([]*User, int, error)

	/*
		UpdateName changes the display name of a user.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - name: string

		Returns:
		  - error: apperr.NotFound or storage errors
	*/
	UpdateName(context context.Context, userID, name string) error

	/*
		UpdatePassword replaces the stored password hash.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - passwordHash: string

		Returns:
		  - error: apperr.NotFound or storage errors
	*/
	UpdatePassword(context context.Context, userID, passwordHash string) error

	/*
		Deactivate clears the active flag. Rows are never deleted; audit
		entries keep referencing the user after deactivation.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: apperr.NotFound or storage errors
	*/
	Deactivate(context context.Context, userID string) error
}
