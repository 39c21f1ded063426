// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/aegis/internal/platform/apperr"
)

// # Refresh Token Repository

// PostgresRepository implements the Repository interface using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL implementation of the Repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

/*
Create persists a new refresh token record.

Parameters:
  - context: context.Context
  - token: *RefreshToken

Returns:
  - error: Database constraint violations or connectivity errors
*/
func (repository *PostgresRepository) Create(context context.Context, token *RefreshToken) error {
	const query = `
		INSERT INTO auth.refreshtoken (
			id, userid, tenantid, tokenhash, devicename, isrevoked, expiresat, revokedat, createdat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(context, query,
		token.ID,
		token.UserID,
		token.TenantID,
		token.TokenHash,
		token.DeviceName,
		token.IsRevoked,
		token.ExpiresAt,
		token.RevokedAt,
		token.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_session_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByID retrieves a refresh token record by primary key.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *RefreshToken: Hydrated record
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*RefreshToken, error) {
	const query = `
		SELECT id, userid, tenantid, tokenhash, devicename, isrevoked, expiresat, revokedat, createdat
		FROM auth.refreshtoken
		WHERE id = $1`

	token := &RefreshToken{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&token.ID,
		&token.UserID,
		&token.TenantID,
		&token.TokenHash,
		&token.DeviceName,
		&token.IsRevoked,
		&token.ExpiresAt,
		&token.RevokedAt,
		&token.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Refresh token")
		}
		return nil, fmt.Errorf("postgres_session_repo_find_failed: %w", err)
	}

	return token, nil
}

/*
Rotate atomically revokes the old record and inserts its replacement.

Description: The conditional UPDATE doubles as the row lock. A concurrent
rotation of the same token blocks on that lock, then matches zero rows and
loses the race with apperr.TokenReuse. Old-revoke and new-insert commit or
roll back together.

Parameters:
  - context: context.Context
  - oldID: string
  - replacement: *RefreshToken

Returns:
  - error: apperr.TokenReuse when losing the race, or database errors
*/
func (repository *PostgresRepository) Rotate(context context.Context, oldID string, replacement *RefreshToken) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_rotate_begin_failed: %w", err)
	}

	// Ensures the row lock is released if insertion fails or the process panics.
	defer transaction.Rollback(context)

	const revokeQuery = `
		UPDATE auth.refreshtoken
		SET isrevoked = TRUE, revokedat = NOW()
		WHERE id = $1 AND isrevoked = FALSE`

	tag, err := transaction.Exec(context, revokeQuery, oldID)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_rotate_revoke_failed: %w", err)
	}

	// Zero rows means another rotation already consumed this token.
	if tag.RowsAffected() == 0 {
		return apperr.TokenReuse()
	}

	const insertQuery = `
		INSERT INTO auth.refreshtoken (
			id, userid, tenantid, tokenhash, devicename, isrevoked, expiresat, revokedat, createdat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	if replacement.CreatedAt.IsZero() {
		replacement.CreatedAt = time.Now()
	}

	_, err = transaction.Exec(context, insertQuery,
		replacement.ID,
		replacement.UserID,
		replacement.TenantID,
		replacement.TokenHash,
		replacement.DeviceName,
		replacement.IsRevoked,
		replacement.ExpiresAt,
		replacement.RevokedAt,
		replacement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_rotate_insert_failed: %w", err)
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_session_repo_rotate_commit_failed: %w", err)
	}

	return nil
}

/*
Revoke marks one token revoked. Already-revoked tokens are left untouched.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: apperr.NotFound for unknown ids, or database errors
*/
func (repository *PostgresRepository) Revoke(context context.Context, id string) error {
	const query = `
		UPDATE auth.refreshtoken
		SET isrevoked = TRUE, revokedat = NOW()
		WHERE id = $1 AND isrevoked = FALSE`

	tag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_revoke_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Distinguish "never existed" from "already revoked".
		const existsQuery = `SELECT EXISTS(SELECT 1 FROM auth.refreshtoken WHERE id = $1)`

		var exists bool
		if err := repository.pool.QueryRow(context, existsQuery, id).Scan(&exists); err != nil {
			return fmt.Errorf("postgres_session_repo_revoke_check_failed: %w", err)
		}
		if !exists {
			return apperr.NotFound("Refresh token")
		}
	}

	return nil
}

/*
RevokeAllForUser revokes every active token of one user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - int: Number of tokens revoked by this call
  - error: Database errors
*/
func (repository *PostgresRepository) RevokeAllForUser(context context.Context, userID string) (int, error) {
	const query = `
		UPDATE auth.refreshtoken
		SET isrevoked = TRUE, revokedat = NOW()
		WHERE userid = $1 AND isrevoked = FALSE`

	tag, err := repository.pool.Exec(context, query, userID)
	if err != nil {
		return 0, fmt.Errorf("postgres_session_repo_revoke_all_failed: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

/*
RevokeOthersForUser revokes every active token of one user except keepID.

Parameters:
  - context: context.Context
  - userID: string
  - keepID: string

Returns:
  - int: Number of tokens revoked by this call
  - error: Database errors
*/
func (repository *PostgresRepository) RevokeOthersForUser(context context.Context, userID, keepID string) (int, error) {
	const query = `
		UPDATE auth.refreshtoken
		SET isrevoked = TRUE, revokedat = NOW()
		WHERE userid = $1 AND id <> $2 AND isrevoked = FALSE`

	tag, err := repository.pool.Exec(context, query, userID, keepID)
	if err != nil {
		return 0, fmt.Errorf("postgres_session_repo_revoke_others_failed: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

/*
DeleteExpired removes records whose expiry has passed.

Parameters:
  - context: context.Context

Returns:
  - int64: Rows removed
  - error: Database errors
*/
func (repository *PostgresRepository) DeleteExpired(context context.Context) (int64, error) {
	const query = `DELETE FROM auth.refreshtoken WHERE expiresat < NOW()`

	tag, err := repository.pool.Exec(context, query)
	if err != nil {
		return 0, fmt.Errorf("postgres_session_repo_delete_expired_failed: %w", err)
	}

	return tag.RowsAffected(), nil
}

/*
DeleteRevokedBefore removes revoked records older than the cutoff.

Description: Recently revoked rows must survive so that reuse of a rotated
token is still recognized as suspicious rather than merely unknown.

Parameters:
  - context: context.Context
  - cutoff: time.Time

Returns:
  - int64: Rows removed
  - error: Database errors
*/
func (repository *PostgresRepository) DeleteRevokedBefore(context context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM auth.refreshtoken WHERE isrevoked = TRUE AND revokedat < $1`

	tag, err := repository.pool.Exec(context, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres_session_repo_delete_revoked_failed: %w", err)
	}

	return tag.RowsAffected(), nil
}
