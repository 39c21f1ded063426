// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/aegis/internal/audit"
	"github.com/taibuivan/aegis/internal/platform/apperr"
	"github.com/taibuivan/aegis/internal/platform/constants"
	"github.com/taibuivan/aegis/internal/platform/sec"
	"github.com/taibuivan/aegis/internal/session"
)

// memoryTokenStore is an in-memory session.Repository. rotateErr, when set,
// simulates losing the atomic swap to a concurrent rotation.
type memoryTokenStore struct {
	mu      sync.Mutex
	records map[string]*session.RefreshToken

	rotateErr     error
	revokedCutoff time.Time
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{records: make(map[string]*session.RefreshToken)}
}

func (store *memoryTokenStore) Create(_ context.Context, token *session.RefreshToken) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	clone := *token
	store.records[token.ID] = &clone
	return nil
}

func (store *memoryTokenStore) FindByID(_ context.Context, id string) (*session.RefreshToken, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	record, found := store.records[id]
	if !found {
		return nil, apperr.NotFound("Refresh token")
	}
	clone := *record
	return &clone, nil
}

func (store *memoryTokenStore) Rotate(_ context.Context, oldID string, replacement *session.RefreshToken) error {
	if store.rotateErr != nil {
		return store.rotateErr
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	old, found := store.records[oldID]
	if !found {
		return apperr.NotFound("Refresh token")
	}
	if old.IsRevoked {
		return apperr.TokenReuse()
	}

	now := time.Now()
	old.IsRevoked = true
	old.RevokedAt = &now

	clone := *replacement
	store.records[replacement.ID] = &clone
	return nil
}

func (store *memoryTokenStore) Revoke(_ context.Context, id string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	record, found := store.records[id]
	if !found {
		return apperr.NotFound("Refresh token")
	}
	if !record.IsRevoked {
		now := time.Now()
		record.IsRevoked = true
		record.RevokedAt = &now
	}
	return nil
}

func (store *memoryTokenStore) RevokeAllForUser(_ context.Context, userID string) (int, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	revoked := 0
	now := time.Now()
	for _, record := range store.records {
		if record.UserID == userID && !record.IsRevoked {
			record.IsRevoked = true
			record.RevokedAt = &now
			revoked++
		}
	}
	return revoked, nil
}

func (store *memoryTokenStore) RevokeOthersForUser(_ context.Context, userID, keepID string) (int, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	revoked := 0
	now := time.Now()
	for _, record := range store.records {
		if record.UserID == userID && record.ID != keepID && !record.IsRevoked {
			record.IsRevoked = true
			record.RevokedAt = &now
			revoked++
		}
	}
	return revoked, nil
}

func (store *memoryTokenStore) DeleteExpired(_ context.Context) (int64, error) {
	return 0, nil
}

func (store *memoryTokenStore) DeleteRevokedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.revokedCutoff = cutoff
	return 0, nil
}

// get returns the live stored record, not a clone. Test-side mutation hook.
func (store *memoryTokenStore) get(id string) *session.RefreshToken {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.records[id]
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

func (stub *recorderStub) kinds() []audit.Kind {
	stub.mu.Lock()
	defer stub.mu.Unlock()

	kinds := make([]audit.Kind, 0, len(stub.events))
	for _, event := range stub.events {
		kinds = append(kinds, event.Kind)
	}
	return kinds
}

func newSessionService() (*session.Service, *memoryTokenStore, *recorderStub) {
	store := newMemoryTokenStore()
	journal := &recorderStub{}
	return session.NewService(store, journal, time.Hour), store, journal
}

/*
TestService_Generate verifies issuance: the plaintext is addressable, only
the slow hash is stored, and the expiry honors the configured lifetime.
*/
func TestService_Generate(t *testing.T) {
	service, store, _ := newSessionService()

	issued, err := service.Generate(context.Background(), "user-1", "tenant-1", "laptop")
	require.NoError(t, err)

	recordID, secret, found := strings.Cut(issued.Plaintext, ".")
	require.True(t, found)
	assert.Equal(t, issued.Record.ID, recordID)

	stored := store.get(recordID)
	require.NotNil(t, stored)
	assert.Equal(t, "user-1", stored.UserID)
	assert.Equal(t, "tenant-1", stored.TenantID)
	assert.Equal(t, "laptop", stored.DeviceName)
	assert.False(t, stored.IsRevoked)
	assert.WithinDuration(t, time.Now().Add(time.Hour), stored.ExpiresAt, 5*time.Second)

	// The secret half never touches storage in clear form.
	assert.NotContains(t, stored.TokenHash, secret)
	assert.True(t, sec.CheckTokenHash(secret, stored.TokenHash))
}

/*
TestService_Rotate verifies the one-shot swap: the presented token dies, the
successor inherits the chain identity.
*/
func TestService_Rotate(t *testing.T) {
	service, store, journal := newSessionService()

	issued, err := service.Generate(context.Background(), "user-1", "tenant-1", "laptop")
	require.NoError(t, err)

	successor, err := service.Rotate(context.Background(), session.RotateInput{Plaintext: issued.Plaintext})
	require.NoError(t, err)

	assert.NotEqual(t, issued.Plaintext, successor.Plaintext)
	assert.Equal(t, "user-1", successor.Record.UserID)
	assert.Equal(t, "tenant-1", successor.Record.TenantID)
	assert.Equal(t, "laptop", successor.Record.DeviceName)

	assert.True(t, store.get(issued.Record.ID).IsRevoked)
	assert.False(t, store.get(successor.Record.ID).IsRevoked)

	// A clean rotation is routine and journals nothing.
	assert.Empty(t, journal.kinds())
}

/*
TestService_Rotate_ReuseTripsTheftResponse verifies that presenting an
already-consumed token severs the whole chain and journals the incident.
*/
func TestService_Rotate_ReuseTripsTheftResponse(t *testing.T) {
	service, store, journal := newSessionService()

	original, err := service.Generate(context.Background(), "user-1", "tenant-1", "")
	require.NoError(t, err)

	successor, err := service.Rotate(context.Background(), session.RotateInput{Plaintext: original.Plaintext})
	require.NoError(t, err)

	// Replay of the consumed token.
	_, err = service.Rotate(context.Background(), session.RotateInput{
		Plaintext: original.Plaintext,
		IPAddress: "10.0.0.9",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeTokenReuse, apperr.Code(err))

	// The live successor died with the chain.
	assert.True(t, store.get(successor.Record.ID).IsRevoked)

	require.Equal(t, []audit.Kind{audit.KindSuspiciousActivity}, journal.kinds())
	event := journal.events[0]
	assert.Equal(t, "user-1", event.UserID)
	assert.Equal(t, "10.0.0.9", event.IPAddress)
	assert.Equal(t, "refresh_token_reuse", event.Details["reason"])
}

/*
TestService_Rotate_RaceLoser verifies that losing the atomic swap to a
concurrent rotation takes the same theft path as a plain replay.
*/
func TestService_Rotate_RaceLoser(t *testing.T) {
	service, store, journal := newSessionService()

	issued, err := service.Generate(context.Background(), "user-1", "tenant-1", "")
	require.NoError(t, err)

	store.rotateErr = apperr.TokenReuse()

	_, err = service.Rotate(context.Background(), session.RotateInput{Plaintext: issued.Plaintext})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeTokenReuse, apperr.Code(err))

	assert.Equal(t, []audit.Kind{audit.KindSuspiciousActivity}, journal.kinds())
}

/*
TestService_Validate verifies the pure check across every token state.
*/
func TestService_Validate(t *testing.T) {
	service, store, journal := newSessionService()

	issued, err := service.Generate(context.Background(), "user-1", "tenant-1", "")
	require.NoError(t, err)

	// 1. Live token passes
	record, err := service.Validate(context.Background(), issued.Plaintext)
	require.NoError(t, err)
	assert.Equal(t, issued.Record.ID, record.ID)

	// 2. Malformed and unknown tokens are invalid, not 404
	for _, plaintext := range []string{"", "no-separator", "unknown-id." + "x"} {
		_, err = service.Validate(context.Background(), plaintext)
		require.Error(t, err)
		assert.Equal(t, apperr.CodeTokenInvalid, apperr.Code(err))
	}

	// 3. A wrong secret half is indistinguishable from an unknown token
	recordID, _, _ := strings.Cut(issued.Plaintext, ".")
	_, err = service.Validate(context.Background(), recordID+".wrong-secret")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeTokenInvalid, apperr.Code(err))

	// 4. Expired tokens report expiry
	store.get(issued.Record.ID).ExpiresAt = time.Now().Add(-time.Minute)
	_, err = service.Validate(context.Background(), issued.Plaintext)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeTokenExpired, apperr.Code(err))

	// 5. Revoked tokens report reuse
	store.get(issued.Record.ID).ExpiresAt = time.Now().Add(time.Hour)
	store.get(issued.Record.ID).IsRevoked = true
	_, err = service.Validate(context.Background(), issued.Plaintext)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeTokenReuse, apperr.Code(err))

	// Validation never journals
	assert.Empty(t, journal.kinds())
}

/*
TestService_Revoke verifies logout semantics: unknown tokens 404, double
revocation is silent.
*/
func TestService_Revoke(t *testing.T) {
	service, store, _ := newSessionService()

	issued, err := service.Generate(context.Background(), "user-1", "tenant-1", "")
	require.NoError(t, err)

	err = service.Revoke(context.Background(), "ghost.token")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.Code(err))

	require.NoError(t, service.Revoke(context.Background(), issued.Plaintext))
	assert.True(t, store.get(issued.Record.ID).IsRevoked)

	// Second logout with the same token succeeds silently.
	require.NoError(t, service.Revoke(context.Background(), issued.Plaintext))
}

/*
TestService_RevokeOthersForUser verifies that a password change keeps exactly
the caller's session, and that an unusable keep-token falls back to revoking
everything.
*/
func TestService_RevokeOthersForUser(t *testing.T) {
	service, store, _ := newSessionService()

	keeper, err := service.Generate(context.Background(), "user-1", "tenant-1", "laptop")
	require.NoError(t, err)
	other, err := service.Generate(context.Background(), "user-1", "tenant-1", "phone")
	require.NoError(t, err)

	revoked, err := service.RevokeOthersForUser(context.Background(), "user-1", keeper.Plaintext)
	require.NoError(t, err)
	assert.Equal(t, 1, revoked)
	assert.False(t, store.get(keeper.Record.ID).IsRevoked)
	assert.True(t, store.get(other.Record.ID).IsRevoked)

	// A keep-token that belongs to someone else revokes everything instead.
	foreign, err := service.Generate(context.Background(), "user-2", "tenant-1", "")
	require.NoError(t, err)

	revoked, err = service.RevokeOthersForUser(context.Background(), "user-1", foreign.Plaintext)
	require.NoError(t, err)
	assert.Equal(t, 1, revoked)
	assert.True(t, store.get(keeper.Record.ID).IsRevoked)
}

/*
TestService_PruneRevoked verifies the retention cutoff handed to the store.
*/
func TestService_PruneRevoked(t *testing.T) {
	service, store, _ := newSessionService()

	_, err := service.PruneRevoked(context.Background())
	require.NoError(t, err)

	expected := time.Now().Add(-constants.RevokedRetention)
	assert.WithinDuration(t, expected, store.revokedCutoff, time.Minute)
}
