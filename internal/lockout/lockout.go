// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package lockout tracks failed logins and applies tiered account locks.

The ladder is progressive: crossing an attempt boundary locks the account
for the tier's duration, and the counter only resets on a successful
authentication or an explicit admin unlock. A lock expiring on its own
clears silently on the next check (self-healing), leaving the counter in
place so repeat offenders climb to the next tier.

With the default policy (5 attempts, 15 minutes, multiplier 4):

	 5 failures → 15 minutes
	10 failures → 1 hour
	15 failures → 24 hours
	20+         → 24 hours (ceiling)

Failed attempts against an already-locked account never advance the
counter; an attacker hammering a locked account cannot extend the lock.

Architecture:

  - Service: Lock checks, counter bookkeeping, audit emission.
  - Repository: Lockout columns of auth.account; increments run under a
    row-level lock so concurrent failures never lose updates.
*/
package lockout

import "time"

// # Lockout Policy

// Policy fixes the progressive ladder. All values come from configuration.
type Policy struct {
	// MaxAttempts is the first boundary; later boundaries are its multiples.
	MaxAttempts int

	// BaseDuration is the first tier's lock length.
	BaseDuration time.Duration

	// Multiplier scales BaseDuration for the second tier.
	Multiplier int

	// Ceiling caps every tier from the third boundary on.
	Ceiling time.Duration
}

// DurationFor returns the lock length a failure count triggers, or zero
// when the count is not a boundary.
func (policy Policy) DurationFor(attempts int) time.Duration {
	if policy.MaxAttempts <= 0 || attempts < policy.MaxAttempts || attempts%policy.MaxAttempts != 0 {
		return 0
	}

	switch attempts / policy.MaxAttempts {
	case 1:
		return policy.BaseDuration
	case 2:
		return policy.BaseDuration * time.Duration(policy.Multiplier)
	default:
		return policy.Ceiling
	}
}

// nextBoundary returns the attempt count at which the next lock engages.
func (policy Policy) nextBoundary(attempts int) int {
	if policy.MaxAttempts <= 0 {
		return 0
	}
	return (attempts/policy.MaxAttempts + 1) * policy.MaxAttempts
}

// # Response Shapes

// Info is the admin-visible lockout state of one user.
type Info struct {
	UserID            string     `json:"userId"`
	IsLocked          bool       `json:"isLocked"`
	FailedAttempts    int        `json:"failedAttempts"`
	LockedUntil       *time.Time `json:"lockedUntil,omitempty"`
	RemainingMinutes  *int       `json:"remainingMinutes,omitempty"`
	RemainingAttempts *int       `json:"remainingAttempts,omitempty"`
}
