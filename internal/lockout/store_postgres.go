// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package lockout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/aegis/internal/platform/apperr"
)

// # Lockout Repository

// PostgresRepository implements the Repository interface using pgx.
//
// The policy is injected so boundary math runs inside the same transaction
// that holds the row lock.
type PostgresRepository struct {
	pool   *pgxpool.Pool
	policy Policy
}

// NewPostgresRepository creates a new PostgreSQL implementation of the Repository.
func NewPostgresRepository(pool *pgxpool.Pool, policy Policy) *PostgresRepository {
	return &PostgresRepository{pool: pool, policy: policy}
}

/*
GetState reads the lockout columns of one user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *State: Current counters and timestamps
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresRepository) GetState(context context.Context, userID string) (*State, error) {
	const query = `
		SELECT id, tenantid, failedloginattempts, lockeduntil, lastfailedlogin
		FROM auth.account
		WHERE id = $1`

	state := &State{}
	err := repository.pool.QueryRow(context, query, userID).Scan(
		&state.UserID,
		&state.TenantID,
		&state.FailedAttempts,
		&state.LockedUntil,
		&state.LastFailedLogin,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_lockout_repo_get_state_failed: %w", err)
	}

	return state, nil
}

/*
IncrementFailure records one failed attempt under a row-level lock.

Description: The SELECT ... FOR UPDATE serializes concurrent failures on
the same account. An account locked at call time is left untouched. A new
count landing on a policy boundary writes the lock timestamp in the same
transaction, so the counter and the lock can never disagree.

Parameters:
  - context: context.Context
  - userID: string
  - failedAt: time.Time

Returns:
  - *FailureResult: Outcome of the recorded failure
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresRepository) IncrementFailure(context context.Context, userID string, failedAt time.Time) (*FailureResult, error) {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return nil, fmt.Errorf("postgres_lockout_repo_begin_failed: %w", err)
	}

	// Ensures the row lock is released if anything below fails.
	defer transaction.Rollback(context)

	const lockQuery = `
		SELECT failedloginattempts, lockeduntil
		FROM auth.account
		WHERE id = $1
		FOR UPDATE`

	var attempts int
	var lockedUntil *time.Time

	err = transaction.QueryRow(context, lockQuery, userID).Scan(&attempts, &lockedUntil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_lockout_repo_lock_failed: %w", err)
	}

	// A live lock freezes the counter.
	if lockedUntil != nil && lockedUntil.After(failedAt) {
		if err := transaction.Commit(context); err != nil {
			return nil, fmt.Errorf("postgres_lockout_repo_commit_failed: %w", err)
		}
		return &FailureResult{Attempts: attempts, AlreadyLocked: true, LockedUntil: lockedUntil}, nil
	}

	attempts++
	result := &FailureResult{Attempts: attempts}

	if duration := repository.policy.DurationFor(attempts); duration > 0 {
		until := failedAt.Add(duration)
		result.LockedUntil = &until
		result.LockDuration = duration

		const lockUpdate = `
			UPDATE auth.account
			SET failedloginattempts = $2, lastfailedlogin = $3, lockeduntil = $4, updatedat = NOW()
			WHERE id = $1`

		if _, err := transaction.Exec(context, lockUpdate, userID, attempts, failedAt, until); err != nil {
			return nil, fmt.Errorf("postgres_lockout_repo_lock_update_failed: %w", err)
		}
	} else {
		const countUpdate = `
			UPDATE auth.account
			SET failedloginattempts = $2, lastfailedlogin = $3, updatedat = NOW()
			WHERE id = $1`

		if _, err := transaction.Exec(context, countUpdate, userID, attempts, failedAt); err != nil {
			return nil, fmt.Errorf("postgres_lockout_repo_count_update_failed: %w", err)
		}
	}

	if err := transaction.Commit(context); err != nil {
		return nil, fmt.Errorf("postgres_lockout_repo_commit_failed: %w", err)
	}

	return result, nil
}

/*
ClearExpiredLock clears the lock timestamp if it still holds the expired value.

Description: The WHERE clause only matches the observed expired timestamp,
so a concurrent re-lock (new failure crossing a boundary) is never wiped.

Parameters:
  - context: context.Context
  - userID: string
  - expiredAt: time.Time

Returns:
  - bool: Whether this call cleared the lock
  - error: Database errors
*/
func (repository *PostgresRepository) ClearExpiredLock(context context.Context, userID string, expiredAt time.Time) (bool, error) {
	const query = `
		UPDATE auth.account
		SET lockeduntil = NULL, updatedat = NOW()
		WHERE id = $1 AND lockeduntil = $2`

	tag, err := repository.pool.Exec(context, query, userID, expiredAt)
	if err != nil {
		return false, fmt.Errorf("postgres_lockout_repo_clear_failed: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

/*
Reset zeroes the counter and clears both timestamps.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Database errors
*/
func (repository *PostgresRepository) Reset(context context.Context, userID string) error {
	const query = `
		UPDATE auth.account
		SET failedloginattempts = 0, lockeduntil = NULL, lastfailedlogin = NULL, updatedat = NOW()
		WHERE id = $1`

	if _, err := repository.pool.Exec(context, query, userID); err != nil {
		return fmt.Errorf("postgres_lockout_repo_reset_failed: %w", err)
	}

	return nil
}

/*
Unlock clears the counter and the lock timestamp, keeping the last failure
time for forensics.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: apperr.NotFound if the row does not exist, or database errors
*/
func (repository *PostgresRepository) Unlock(context context.Context, userID string) error {
	const query = `
		UPDATE auth.account
		SET failedloginattempts = 0, lockeduntil = NULL, updatedat = NOW()
		WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, userID)
	if err != nil {
		return fmt.Errorf("postgres_lockout_repo_unlock_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}
