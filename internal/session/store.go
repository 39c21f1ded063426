// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"time"
)

// # Repository Contracts

// Repository defines persistence operations for refresh tokens.
type Repository interface {
	/*
		Create persists a new refresh token record.

		Parameters:
		  - context: context.Context
		  - token: *RefreshToken

		Returns:
		  - error: Storage errors
	*/
	Create(context context.Context, token *RefreshToken) error

	/*
		FindByID retrieves a refresh token by its record ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *RefreshToken: Hydrated record including revocation state
		  - error: apperr.NotFound or storage errors
	*/
	FindByID(context context.Context, id string) (*RefreshToken, error)

	/*
		Rotate atomically revokes the old record and inserts its replacement.

		Description: Runs in one transaction. When the old record was already
		revoked by a concurrent rotation, nothing is inserted and the swap
		fails with apperr.TokenReuse, so exactly one of two racing rotations
		wins.

		Parameters:
		  - context: context.Context
		  - oldID: string
		  - replacement: *RefreshToken

		Returns:
		  - error: apperr.TokenReuse when losing the race, or storage errors
	*/
	Rotate(context context.Context, oldID string, replacement *RefreshToken) error

	/*
		Revoke marks one token revoked. Revoking an already-revoked token is
		a no-op.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: apperr.NotFound for unknown ids, or storage errors
	*/
	Revoke(context context.Context, id string) error

	/*
		RevokeAllForUser revokes every active token of one user.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - int: Number of tokens revoked by this call
		  - error: Storage errors
	*/
	RevokeAllForUser(context context.Context, userID string) (int, error)

	/*
		RevokeOthersForUser revokes every active token of one user except the
		named record.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - keepID: string

		Returns:
		  - int: Number of tokens revoked by this call
		  - error: Storage errors
	*/
	RevokeOthersForUser(context context.Context, userID, keepID string) (int, error)

	/*
		DeleteExpired removes records whose expiry has passed.

		Parameters:
		  - context: context.Context

		Returns:
		  - int64: Rows removed
		  - error: Storage errors
	*/
	DeleteExpired(context context.Context) (int64, error)

	/*
		DeleteRevokedBefore removes revoked records older than the cutoff.
		Recent revocations are kept so reuse detection still recognizes them.

		Parameters:
		  - context: context.Context
		  - cutoff: time.Time

		Returns:
		  - int64: Rows removed
		  - error: Storage errors
	*/
	DeleteRevokedBefore(context context.Context, cutoff time.Time) (int64, error)
}
