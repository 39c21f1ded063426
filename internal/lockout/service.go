// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package lockout

import (
	"context"
	"time"

	"github.com/taibuivan/aegis/internal/audit"
	"github.com/taibuivan/aegis/pkg/pointer"
)

// # Definitions & Constructors

// Service applies the lockout policy and keeps the audit trail informed.
type Service struct {
	accounts Repository
	journal  audit.Recorder
	policy   Policy

	// now is swappable for tests.
	now func() time.Time
}

// NewService constructs a new [Service] with its dependencies.
func NewService(accounts Repository, journal audit.Recorder, policy Policy) *Service {
	return &Service{
		accounts: accounts,
		journal:  journal,
		policy:   policy,
		now:      time.Now,
	}
}

// # Inputs

// FailureInput carries one failed login attempt.
type FailureInput struct {
	UserID    string
	TenantID  string
	IPAddress string
	UserAgent string
}

// UnlockInput carries an explicit admin unlock.
type UnlockInput struct {
	UserID    string
	ActorID   string
	IPAddress string
	UserAgent string
}

// # Operations

/*
IsLocked reports whether a user is currently locked out.

Description: A stored expiry in the past is cleared on the spot (the lock
heals itself without admin action) and an ACCOUNT_UNLOCKED event with
reason "automatic" is emitted. The failure counter survives the healing,
so the next run of failures climbs to the following tier.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - bool: Whether the account is locked right now
  - *time.Time: The lock expiry, nil when unlocked
  - error: apperr.NotFound or database errors
*/
func (service *Service) IsLocked(context context.Context, userID string) (bool, *time.Time, error) {
	state, err := service.accounts.GetState(context, userID)
	if err != nil {
		return false, nil, err
	}

	if state.LockedUntil == nil {
		return false, nil, nil
	}

	if state.LockedUntil.After(service.now().UTC()) {
		return true, state.LockedUntil, nil
	}

	cleared, err := service.accounts.ClearExpiredLock(context, userID, *state.LockedUntil)
	if err != nil {
		return false, nil, err
	}

	// Only the caller that actually cleared the row emits the event, so a
	// burst of concurrent checks cannot duplicate it.
	if cleared {
		service.journal.Record(audit.Event{
			Kind:     audit.KindAccountUnlocked,
			UserID:   state.UserID,
			TenantID: state.TenantID,
			Details:  map[string]any{"reason": "automatic"},
		})
	}

	return false, nil, nil
}

/*
RecordFailedAttempt advances the failure counter for one bad login.

Description: A count landing on a policy boundary locks the account and
emits ACCOUNT_LOCKED. An account that is already locked is left untouched;
callers can tell from the result's AlreadyLocked flag.

Parameters:
  - context: context.Context
  - input: FailureInput

Returns:
  - *FailureResult: The counter after this attempt and any lock applied
  - error: apperr.NotFound or database errors
*/
func (service *Service) RecordFailedAttempt(context context.Context, input FailureInput) (*FailureResult, error) {
	result, err := service.accounts.IncrementFailure(context, input.UserID, service.now().UTC())
	if err != nil {
		return nil, err
	}

	if result.AlreadyLocked {
		return result, nil
	}

	if result.LockDuration > 0 {
		service.journal.Record(audit.Event{
			Kind:      audit.KindAccountLocked,
			UserID:    input.UserID,
			TenantID:  input.TenantID,
			IPAddress: input.IPAddress,
			UserAgent: input.UserAgent,
			Details: map[string]any{
				"failedAttempts":      result.Attempts,
				"lockDurationMinutes": int(result.LockDuration.Minutes()),
			},
		})
	}

	return result, nil
}

/*
ResetFailedAttempts zeroes the counter after a successful authentication.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Database errors
*/
func (service *Service) ResetFailedAttempts(context context.Context, userID string) error {
	return service.accounts.Reset(context, userID)
}

/*
Unlock clears a lock on explicit admin request.

Description: Unlike the self-healing path, this also zeroes the failure
counter, and the emitted ACCOUNT_UNLOCKED event names the acting admin.
Unlocking an account that was never locked is not an error.

Parameters:
  - context: context.Context
  - input: UnlockInput

Returns:
  - error: apperr.NotFound if the user does not exist, or database errors
*/
func (service *Service) Unlock(context context.Context, input UnlockInput) error {
	state, err := service.accounts.GetState(context, input.UserID)
	if err != nil {
		return err
	}

	if err := service.accounts.Unlock(context, input.UserID); err != nil {
		return err
	}

	service.journal.Record(audit.Event{
		Kind:      audit.KindAccountUnlocked,
		UserID:    input.UserID,
		TenantID:  state.TenantID,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		Details: map[string]any{
			"reason":     "manual",
			"unlockedBy": input.ActorID,
		},
	})

	return nil
}

/*
Status reports a user's lockout state without side effects.

Description: Read-only: an expired lock shows up as unlocked here but is
only cleared (and audited) by the next IsLocked check on the login path.
Locked accounts report the minutes left; unlocked ones report how many
more failures trigger the next tier.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *Info: Lockout state for the admin API
  - error: apperr.NotFound or database errors
*/
func (service *Service) Status(context context.Context, userID string) (*Info, error) {
	state, err := service.accounts.GetState(context, userID)
	if err != nil {
		return nil, err
	}

	info := &Info{
		UserID:         state.UserID,
		FailedAttempts: state.FailedAttempts,
	}

	now := service.now().UTC()

	if state.LockedUntil != nil && state.LockedUntil.After(now) {
		info.IsLocked = true
		info.LockedUntil = state.LockedUntil
		info.RemainingMinutes = pointer.To(RemainingMinutes(*state.LockedUntil, now))
		return info, nil
	}

	info.RemainingAttempts = pointer.To(service.policy.nextBoundary(state.FailedAttempts) - state.FailedAttempts)
	return info, nil
}

// RemainingMinutes converts a lock expiry into whole minutes left, rounding
// up so "locked for 30 seconds" never reads as zero.
func RemainingMinutes(until, now time.Time) int {
	remaining := until.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int((remaining + time.Minute - 1) / time.Minute)
}
