// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// # Error Mapping
//
// Storage-specific errors (like pgx.ErrNoRows) are mapped to domain-friendly
// [apperr.AppError] types to avoid leaking storage implementation details.

package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/aegis/internal/platform/apperr"
	"github.com/taibuivan/aegis/internal/platform/dberr"
)

// # User Repository

// PostgresRepository implements the Repository interface using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL implementation of the Repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

/*
Create persists a new user record into the auth.account table.

Description: Initializes timestamps when absent and maps the per-tenant
email uniqueness constraint to a client-safe Conflict.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: apperr.Conflict on duplicate email, or connectivity errors
*/
func (repository *PostgresRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO auth.account (
			id, tenantid, email, passwordhash, displayname, role, isactive,
			failedloginattempts, lockeduntil, lastfailedlogin, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.TenantID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Role,
		user.IsActive,
		user.FailedLoginAttempts,
		user.LockedUntil,
		user.LastFailedLogin,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("Email is already registered for this tenant")
		}
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByID retrieves a user record by primary key.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*User, error) {
	const query = `
		SELECT id, tenantid, email, passwordhash, displayname, role, isactive,
		       failedloginattempts, lockeduntil, lastfailedlogin, createdat, updatedat
		FROM auth.account
		WHERE id = $1`

	return repository.scanOne(repository.pool.QueryRow(context, query, id))
}

/*
FindByEmailAndTenant retrieves a user by the (email, tenant) pair.

Description: The account table has a composite uniqueness constraint on
(email, tenantid), so this lookup returns at most one row.

Parameters:
  - context: context.Context
  - email: string
  - tenantID: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresRepository) FindByEmailAndTenant(context context.Context, email, tenantID string) (*User, error) {
	const query = `
		SELECT id, tenantid, email, passwordhash, displayname, role, isactive,
		       failedloginattempts, lockeduntil, lastfailedlogin, createdat, updatedat
		FROM auth.account
		WHERE email = $1 AND tenantid = $2`

	return repository.scanOne(repository.pool.QueryRow(context, query, email, tenantID))
}

/*
ListByTenant returns one page of a tenant's users with the total row count.

Description: Uses a window count so the page and its total come back in a
single round trip. Ordered by creation time descending, newest first.

Parameters:
  - context: context.Context
  - tenantID: string
  - limit: int
  - offset: int

Returns:
  - []*User: Page of users
  - int: Total rows in the tenant
  - error: Database errors
*/
func (repository *PostgresRepository) ListByTenant(context context.Context, tenantID string, limit, offset int) ([]*User, int, error) {
	const query = `
		SELECT id, tenantid, email, passwordhash, displayname, role, isactive,
		       failedloginattempts, lockeduntil, lastfailedlogin, createdat, updatedat,
		       COUNT(*) OVER() AS total_count
		FROM auth.account
		WHERE tenantid = $1
		ORDER BY createdat DESC
		LIMIT $2 OFFSET $3`

	rows, err := repository.pool.Query(context, query, tenantID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_user_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var users []*User
	var total int

	for rows.Next() {
		user := &User{}
		err := rows.Scan(
			&user.ID,
			&user.TenantID,
			&user.Email,
			&user.PasswordHash,
			&user.Name,
			&user.Role,
			&user.IsActive,
			&user.FailedLoginAttempts,
			&user.LockedUntil,
			&user.LastFailedLogin,
			&user.CreatedAt,
			&user.UpdatedAt,
			&total,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_user_repo_scan_failed: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_user_repo_rows_failed: %w", err)
	}

	return users, total, nil
}

/*
UpdateName changes the display name of a user.

Parameters:
  - context: context.Context
  - userID: string
  - name: string

Returns:
  - error: apperr.NotFound if the row does not exist, or database errors
*/
func (repository *PostgresRepository) UpdateName(context context.Context, userID, name string) error {
	const query = `
		UPDATE auth.account
		SET displayname = $2, updatedat = NOW()
		WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, userID, name)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_name_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}

/*
UpdatePassword replaces the stored password hash.

Parameters:
  - context: context.Context
  - userID: string
  - passwordHash: string

Returns:
  - error: apperr.NotFound if the row does not exist, or database errors
*/
func (repository *PostgresRepository) UpdatePassword(context context.Context, userID, passwordHash string) error {
	const query = `
		UPDATE auth.account
		SET passwordhash = $2, updatedat = NOW()
		WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_password_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}

/*
Deactivate clears the active flag without deleting the row.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: apperr.NotFound if the row does not exist, or database errors
*/
func (repository *PostgresRepository) Deactivate(context context.Context, userID string) error {
	const query = `
		UPDATE auth.account
		SET isactive = FALSE, updatedat = NOW()
		WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, userID)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_deactivate_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}

// scanOne hydrates a single user row, mapping pgx.ErrNoRows to NotFound.
func (repository *PostgresRepository) scanOne(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.TenantID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.Role,
		&user.IsActive,
		&user.FailedLoginAttempts,
		&user.LockedUntil,
		&user.LastFailedLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_failed: %w", err)
	}

	return user, nil
}
