// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package user_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/aegis/internal/audit"
	"github.com/taibuivan/aegis/internal/platform/apperr"
	"github.com/taibuivan/aegis/internal/platform/sec"
	"github.com/taibuivan/aegis/internal/user"
)

// accountStore is an in-memory user.Repository keyed by user ID.
type accountStore struct {
	byID map[string]*user.User

	deactivated []string
	renamed     map[string]string
}

func newAccountStore(users ...*user.User) *accountStore {
	store := &accountStore{
		byID:    make(map[string]*user.User),
		renamed: make(map[string]string),
	}
	for _, record := range users {
		// Copy so one test's mutations never leak into the next.
		clone := *record
		store.byID[record.ID] = &clone
	}
	return store
}

func (store *accountStore) Create(_ context.Context, record *user.User) error {
	store.byID[record.ID] = record
	return nil
}

func (store *accountStore) FindByID(_ context.Context, id string) (*user.User, error) {
	record, found := store.byID[id]
	if !found {
		return nil, apperr.NotFound("User")
	}
	clone := *record
	return &clone, nil
}

func (store *accountStore) FindByEmailAndTenant(_ context.Context, email, tenantID string) (*user.User, error) {
	for _, record := range store.byID {
		if record.Email == email && record.TenantID == tenantID {
			clone := *record
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (store *accountStore) ListByTenant(_ context.Context, tenantID string, limit, offset int) ([]*user.User, int, error) {
	matches := []*user.User{}
	for _, record := range store.byID {
		if record.TenantID == tenantID {
			matches = append(matches, record)
		}
	}
	return matches, len(matches), nil
}

func (store *accountStore) UpdateName(_ context.Context, userID, name string) error {
	record, found := store.byID[userID]
	if !found {
		return apperr.NotFound("User")
	}
	record.Name = name
	store.renamed[userID] = name
	return nil
}

func (store *accountStore) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	record, found := store.byID[userID]
	if !found {
		return apperr.NotFound("User")
	}
	record.PasswordHash = passwordHash
	return nil
}

func (store *accountStore) Deactivate(_ context.Context, userID string) error {
	record, found := store.byID[userID]
	if !found {
		return apperr.NotFound("User")
	}
	record.IsActive = false
	store.deactivated = append(store.deactivated, userID)
	return nil
}

// revokerStub records blanket session revocations.
type revokerStub struct {
	revokedUsers []string
	count        int
}

func (stub *revokerStub) RevokeAllForUser(_ context.Context, userID string) (int, error) {
	stub.revokedUsers = append(stub.revokedUsers, userID)
	return stub.count, nil
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

var member = &user.User{
	ID:       "user-1",
	TenantID: "tenant-1",
	Email:    "tai@aegis.dev",
	Name:     "Tai",
	Role:     sec.RoleUser,
	IsActive: true,
}

/*
TestService_GetByID verifies tenant scoping: cross-tenant reads answer
NotFound, never Forbidden.
*/
func TestService_GetByID(t *testing.T) {
	service := user.NewService(newAccountStore(member), &revokerStub{}, &recorderStub{})

	found, err := service.GetByID(context.Background(), "tenant-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "tai@aegis.dev", found.Email)

	_, err = service.GetByID(context.Background(), "tenant-2", "user-1")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.Code(err))

	_, err = service.GetByID(context.Background(), "tenant-1", "ghost")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.Code(err))
}

/*
TestService_UpdateName verifies the self-service rename and its journal
entry naming the changed field.
*/
func TestService_UpdateName(t *testing.T) {
	store := newAccountStore(member)
	journal := &recorderStub{}
	service := user.NewService(store, &revokerStub{}, journal)

	updated, err := service.UpdateName(context.Background(), user.UpdateNameInput{
		UserID:   "user-1",
		TenantID: "tenant-1",
		Name:     "Tai Bui",
	})
	require.NoError(t, err)
	assert.Equal(t, "Tai Bui", updated.Name)
	assert.Equal(t, "Tai Bui", store.renamed["user-1"])

	require.Len(t, journal.events, 1)
	event := journal.events[0]
	assert.Equal(t, audit.KindUserUpdated, event.Kind)
	assert.Equal(t, []any{"name"}, event.Details["changed"])
}

/*
TestService_Deactivate verifies the removal path: flag cleared, sessions
revoked, USER_DELETED journaled with the acting admin.
*/
func TestService_Deactivate(t *testing.T) {
	store := newAccountStore(member)
	revoker := &revokerStub{count: 2}
	journal := &recorderStub{}
	service := user.NewService(store, revoker, journal)

	err := service.Deactivate(context.Background(), user.DeactivateInput{
		TargetUserID:  "user-1",
		ActorID:       "admin-1",
		ActorTenantID: "tenant-1",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"user-1"}, store.deactivated)
	assert.Equal(t, []string{"user-1"}, revoker.revokedUsers)
	assert.False(t, store.byID["user-1"].IsActive)

	require.Len(t, journal.events, 1)
	event := journal.events[0]
	assert.Equal(t, audit.KindUserDeleted, event.Kind)
	assert.Equal(t, "user-1", event.UserID)
	assert.Equal(t, "admin-1", event.Details["deletedBy"])
	assert.Equal(t, 2, event.Details["revokedSessions"])
}

/*
TestService_Deactivate_CrossTenant verifies that an admin cannot reach into
another tenant, and that the probe leaves no trace of the target.
*/
func TestService_Deactivate_CrossTenant(t *testing.T) {
	store := newAccountStore(member)
	revoker := &revokerStub{}
	journal := &recorderStub{}
	service := user.NewService(store, revoker, journal)

	err := service.Deactivate(context.Background(), user.DeactivateInput{
		TargetUserID:  "user-1",
		ActorID:       "admin-9",
		ActorTenantID: "tenant-9",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.Code(err))

	assert.Empty(t, store.deactivated)
	assert.Empty(t, revoker.revokedUsers)
	assert.Empty(t, journal.events)
	assert.True(t, store.byID["user-1"].IsActive)
}
