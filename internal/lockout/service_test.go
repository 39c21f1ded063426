// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package lockout_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/aegis/internal/audit"
	"github.com/taibuivan/aegis/internal/lockout"
	"github.com/taibuivan/aegis/internal/platform/apperr"
)

// stateStore is a func-field lockout.Repository; unset methods fail the test.
type stateStore struct {
	getState         func(userID string) (*lockout.State, error)
	incrementFailure func(userID string, failedAt time.Time) (*lockout.FailureResult, error)
	clearExpiredLock func(userID string, expiredAt time.Time) (bool, error)
	reset            func(userID string) error
	unlock           func(userID string) error

	t *testing.T
}

func (store *stateStore) GetState(_ context.Context, userID string) (*lockout.State, error) {
	if store.getState == nil {
		store.t.Fatal("unexpected GetState call")
	}
	return store.getState(userID)
}

func (store *stateStore) IncrementFailure(_ context.Context, userID string, failedAt time.Time) (*lockout.FailureResult, error) {
	if store.incrementFailure == nil {
		store.t.Fatal("unexpected IncrementFailure call")
	}
	return store.incrementFailure(userID, failedAt)
}

func (store *stateStore) ClearExpiredLock(_ context.Context, userID string, expiredAt time.Time) (bool, error) {
	if store.clearExpiredLock == nil {
		store.t.Fatal("unexpected ClearExpiredLock call")
	}
	return store.clearExpiredLock(userID, expiredAt)
}

func (store *stateStore) Reset(_ context.Context, userID string) error {
	if store.reset == nil {
		store.t.Fatal("unexpected Reset call")
	}
	return store.reset(userID)
}

func (store *stateStore) Unlock(_ context.Context, userID string) error {
	if store.unlock == nil {
		store.t.Fatal("unexpected Unlock call")
	}
	return store.unlock(userID)
}

// recorderStub captures journal events synchronously.
type recorderStub struct {
	mu     sync.Mutex
	events []audit.Event
}

func (stub *recorderStub) Record(event audit.Event) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	stub.events = append(stub.events, event)
}

/*
TestService_IsLocked verifies the three states: no lock, live lock, and an
expired lock healing itself.
*/
func TestService_IsLocked(t *testing.T) {
	t.Run("unlocked", func(t *testing.T) {
		store := &stateStore{t: t, getState: func(string) (*lockout.State, error) {
			return &lockout.State{UserID: "user-1"}, nil
		}}
		journal := &recorderStub{}
		service := lockout.NewService(store, journal, defaultPolicy)

		locked, until, err := service.IsLocked(context.Background(), "user-1")
		require.NoError(t, err)
		assert.False(t, locked)
		assert.Nil(t, until)
		assert.Empty(t, journal.events)
	})

	t.Run("live_lock", func(t *testing.T) {
		lockedUntil := time.Now().UTC().Add(10 * time.Minute)
		store := &stateStore{t: t, getState: func(string) (*lockout.State, error) {
			return &lockout.State{UserID: "user-1", LockedUntil: &lockedUntil}, nil
		}}
		journal := &recorderStub{}
		service := lockout.NewService(store, journal, defaultPolicy)

		locked, until, err := service.IsLocked(context.Background(), "user-1")
		require.NoError(t, err)
		assert.True(t, locked)
		require.NotNil(t, until)
		assert.Equal(t, lockedUntil, *until)
		assert.Empty(t, journal.events)
	})

	t.Run("expired_lock_self_heals", func(t *testing.T) {
		expiredAt := time.Now().UTC().Add(-time.Minute)
		var clearedWith time.Time
		store := &stateStore{
			t: t,
			getState: func(string) (*lockout.State, error) {
				return &lockout.State{UserID: "user-1", TenantID: "tenant-1", FailedAttempts: 5, LockedUntil: &expiredAt}, nil
			},
			clearExpiredLock: func(_ string, at time.Time) (bool, error) {
				clearedWith = at
				return true, nil
			},
		}
		journal := &recorderStub{}
		service := lockout.NewService(store, journal, defaultPolicy)

		locked, _, err := service.IsLocked(context.Background(), "user-1")
		require.NoError(t, err)
		assert.False(t, locked)
		assert.Equal(t, expiredAt, clearedWith)

		require.Len(t, journal.events, 1)
		event := journal.events[0]
		assert.Equal(t, audit.KindAccountUnlocked, event.Kind)
		assert.Equal(t, "tenant-1", event.TenantID)
		assert.Equal(t, "automatic", event.Details["reason"])
	})

	t.Run("expired_lock_lost_clear_race", func(t *testing.T) {
		expiredAt := time.Now().UTC().Add(-time.Minute)
		store := &stateStore{
			t: t,
			getState: func(string) (*lockout.State, error) {
				return &lockout.State{UserID: "user-1", LockedUntil: &expiredAt}, nil
			},
			clearExpiredLock: func(string, time.Time) (bool, error) {
				return false, nil
			},
		}
		journal := &recorderStub{}
		service := lockout.NewService(store, journal, defaultPolicy)

		locked, _, err := service.IsLocked(context.Background(), "user-1")
		require.NoError(t, err)
		assert.False(t, locked)

		// Another checker cleared the row first; no duplicate event.
		assert.Empty(t, journal.events)
	})
}

/*
TestService_RecordFailedAttempt verifies journal emission on boundary
crossings and silence everywhere else.
*/
func TestService_RecordFailedAttempt(t *testing.T) {
	input := lockout.FailureInput{
		UserID:    "user-1",
		TenantID:  "tenant-1",
		IPAddress: "10.0.0.1",
		UserAgent: "curl/8.0",
	}

	t.Run("boundary_locks_and_journals", func(t *testing.T) {
		lockedUntil := time.Now().UTC().Add(15 * time.Minute)
		store := &stateStore{t: t, incrementFailure: func(string, time.Time) (*lockout.FailureResult, error) {
			return &lockout.FailureResult{
				Attempts:     5,
				LockedUntil:  &lockedUntil,
				LockDuration: 15 * time.Minute,
			}, nil
		}}
		journal := &recorderStub{}
		service := lockout.NewService(store, journal, defaultPolicy)

		result, err := service.RecordFailedAttempt(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, 5, result.Attempts)

		require.Len(t, journal.events, 1)
		event := journal.events[0]
		assert.Equal(t, audit.KindAccountLocked, event.Kind)
		assert.Equal(t, "user-1", event.UserID)
		assert.Equal(t, "10.0.0.1", event.IPAddress)
		assert.Equal(t, 5, event.Details["failedAttempts"])
		assert.Equal(t, 15, event.Details["lockDurationMinutes"])
	})

	t.Run("plain_failure_is_silent", func(t *testing.T) {
		store := &stateStore{t: t, incrementFailure: func(string, time.Time) (*lockout.FailureResult, error) {
			return &lockout.FailureResult{Attempts: 3}, nil
		}}
		journal := &recorderStub{}
		service := lockout.NewService(store, journal, defaultPolicy)

		result, err := service.RecordFailedAttempt(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, 3, result.Attempts)
		assert.Empty(t, journal.events)
	})

	t.Run("already_locked_freezes_counter", func(t *testing.T) {
		store := &stateStore{t: t, incrementFailure: func(string, time.Time) (*lockout.FailureResult, error) {
			return &lockout.FailureResult{Attempts: 5, AlreadyLocked: true}, nil
		}}
		journal := &recorderStub{}
		service := lockout.NewService(store, journal, defaultPolicy)

		result, err := service.RecordFailedAttempt(context.Background(), input)
		require.NoError(t, err)
		assert.True(t, result.AlreadyLocked)

		// No second ACCOUNT_LOCKED for an account that is already locked.
		assert.Empty(t, journal.events)
	})
}

/*
TestService_Unlock verifies the manual path: counter cleared, event names the
acting admin.
*/
func TestService_Unlock(t *testing.T) {
	t.Run("unlocks_and_journals", func(t *testing.T) {
		unlockCalled := false
		store := &stateStore{
			t: t,
			getState: func(string) (*lockout.State, error) {
				return &lockout.State{UserID: "user-1", TenantID: "tenant-1"}, nil
			},
			unlock: func(string) error {
				unlockCalled = true
				return nil
			},
		}
		journal := &recorderStub{}
		service := lockout.NewService(store, journal, defaultPolicy)

		err := service.Unlock(context.Background(), lockout.UnlockInput{
			UserID:  "user-1",
			ActorID: "admin-1",
		})
		require.NoError(t, err)
		assert.True(t, unlockCalled)

		require.Len(t, journal.events, 1)
		event := journal.events[0]
		assert.Equal(t, audit.KindAccountUnlocked, event.Kind)
		assert.Equal(t, "manual", event.Details["reason"])
		assert.Equal(t, "admin-1", event.Details["unlockedBy"])
	})

	t.Run("unknown_user", func(t *testing.T) {
		store := &stateStore{t: t, getState: func(string) (*lockout.State, error) {
			return nil, apperr.NotFound("User")
		}}
		journal := &recorderStub{}
		service := lockout.NewService(store, journal, defaultPolicy)

		err := service.Unlock(context.Background(), lockout.UnlockInput{UserID: "ghost"})
		require.Error(t, err)
		assert.Equal(t, apperr.CodeNotFound, apperr.Code(err))
		assert.Empty(t, journal.events)
	})
}

/*
TestService_Status verifies the read-only admin view in both states.
*/
func TestService_Status(t *testing.T) {
	t.Run("locked", func(t *testing.T) {
		lockedUntil := time.Now().UTC().Add(10 * time.Minute)
		store := &stateStore{t: t, getState: func(string) (*lockout.State, error) {
			return &lockout.State{UserID: "user-1", FailedAttempts: 5, LockedUntil: &lockedUntil}, nil
		}}
		service := lockout.NewService(store, &recorderStub{}, defaultPolicy)

		info, err := service.Status(context.Background(), "user-1")
		require.NoError(t, err)
		assert.True(t, info.IsLocked)
		assert.Equal(t, 5, info.FailedAttempts)
		require.NotNil(t, info.RemainingMinutes)
		assert.Equal(t, 10, *info.RemainingMinutes)
		assert.Nil(t, info.RemainingAttempts)
	})

	t.Run("unlocked_reports_headroom", func(t *testing.T) {
		store := &stateStore{t: t, getState: func(string) (*lockout.State, error) {
			return &lockout.State{UserID: "user-1", FailedAttempts: 3}, nil
		}}
		service := lockout.NewService(store, &recorderStub{}, defaultPolicy)

		info, err := service.Status(context.Background(), "user-1")
		require.NoError(t, err)
		assert.False(t, info.IsLocked)
		require.NotNil(t, info.RemainingAttempts)
		assert.Equal(t, 2, *info.RemainingAttempts)
		assert.Nil(t, info.RemainingMinutes)
	})

	t.Run("expired_lock_reads_as_unlocked", func(t *testing.T) {
		expiredAt := time.Now().UTC().Add(-time.Minute)
		store := &stateStore{t: t, getState: func(string) (*lockout.State, error) {
			return &lockout.State{UserID: "user-1", FailedAttempts: 7, LockedUntil: &expiredAt}, nil
		}}
		journal := &recorderStub{}
		service := lockout.NewService(store, journal, defaultPolicy)

		// Status never clears the row; that belongs to the login path.
		info, err := service.Status(context.Background(), "user-1")
		require.NoError(t, err)
		assert.False(t, info.IsLocked)
		require.NotNil(t, info.RemainingAttempts)
		assert.Equal(t, 3, *info.RemainingAttempts)
		assert.Empty(t, journal.events)
	})
}
