// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package lockout

import (
	"context"
	"time"
)

// # Repository Contracts

// State is the lockout-relevant slice of one account row.
type State struct {
	UserID          string
	TenantID        string
	FailedAttempts  int
	LockedUntil     *time.Time
	LastFailedLogin *time.Time
}

// FailureResult reports what one recorded failure did to the row.
type FailureResult struct {
	// Attempts is the counter value after this call.
	Attempts int

	// AlreadyLocked is true when the account was locked at call time, in
	// which case nothing was changed.
	AlreadyLocked bool

	// LockedUntil is set when this failure crossed a boundary.
	LockedUntil *time.Time

	// LockDuration is the tier length applied, zero when no lock engaged.
	LockDuration time.Duration
}

// Repository defines persistence operations over the lockout columns of
// auth.account.
type Repository interface {
	/*
		GetState reads the lockout columns of one user.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - *State: Current counters and timestamps
		  - error: apperr.NotFound or storage errors
	*/
	GetState(context context.Context, userID string) (*State, error)

	/*
		IncrementFailure records one failed attempt under a row-level lock.

		Description: Runs SELECT ... FOR UPDATE, so concurrent failures
		serialize and never lose increments. Locked accounts are left
		untouched and reported via FailureResult.AlreadyLocked. When the new
		count lands on a policy boundary, the lock timestamp is written in
		the same transaction.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - failedAt: time.Time

		Returns:
		  - *FailureResult: Outcome of the recorded failure
		  - error: apperr.NotFound or storage errors
	*/
	IncrementFailure(context context.Context, userID string, failedAt time.Time) (*FailureResult, error)

	/*
		ClearExpiredLock clears the lock timestamp if it still holds the
		given expired value. The condition makes self-healing safe against a
		racing re-lock.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - expiredAt: time.Time

		Returns:
		  - bool: Whether this call cleared the lock
		  - error: Storage errors
	*/
	ClearExpiredLock(context context.Context, userID string, expiredAt time.Time) (bool, error)

	/*
		Reset zeroes the counter and clears both timestamps. Called on every
		successful authentication.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Storage errors
	*/
	Reset(context context.Context, userID string) error

	/*
		Unlock clears the counter and the lock timestamp, keeping the last
		failure time for forensics.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: apperr.NotFound or storage errors
	*/
	Unlock(context context.Context, userID string) error
}
