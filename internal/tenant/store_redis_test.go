// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tenant_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/aegis/internal/platform/apperr"
	"github.com/taibuivan/aegis/internal/platform/constants"
	"github.com/taibuivan/aegis/internal/tenant"
)

// countingStore is a tenant.Repository that serves from a map and counts
// how often the cache fell through to it.
type countingStore struct {
	bySlug map[string]*tenant.Tenant

	slugLookups int
}

func (store *countingStore) Create(_ context.Context, record *tenant.Tenant) error {
	store.bySlug[record.Slug] = record
	return nil
}

func (store *countingStore) FindByID(_ context.Context, id string) (*tenant.Tenant, error) {
	for _, record := range store.bySlug {
		if record.ID == id {
			return record, nil
		}
	}
	return nil, apperr.NotFound("Tenant")
}

func (store *countingStore) FindBySlug(_ context.Context, slug string) (*tenant.Tenant, error) {
	store.slugLookups++
	record, found := store.bySlug[slug]
	if !found {
		return nil, apperr.NotFound("Tenant")
	}
	return record, nil
}

func newCachedRepository(t *testing.T) (*tenant.CachedRepository, *countingStore, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})

	inner := &countingStore{bySlug: make(map[string]*tenant.Tenant)}
	return tenant.NewCachedRepository(inner, client), inner, server
}

var acme = &tenant.Tenant{
	ID:       "0190bd1e-5a0f-7cc3-b2a4-9f3e8d72c611",
	Name:     "Acme Corp",
	Slug:     "acme-corp",
	IsActive: true,
}

/*
TestCachedRepository_ReadThrough verifies that the first slug lookup fills
the cache and the second is served without touching Postgres.
*/
func TestCachedRepository_ReadThrough(t *testing.T) {
	repository, inner, _ := newCachedRepository(t)
	inner.bySlug[acme.Slug] = acme

	first, err := repository.FindBySlug(context.Background(), "acme-corp")
	require.NoError(t, err)
	assert.Equal(t, acme.ID, first.ID)
	assert.Equal(t, 1, inner.slugLookups)

	second, err := repository.FindBySlug(context.Background(), "acme-corp")
	require.NoError(t, err)
	assert.Equal(t, acme.ID, second.ID)
	assert.Equal(t, acme.Name, second.Name)
	assert.True(t, second.IsActive)

	// Served from Redis; the inner repository was not consulted again.
	assert.Equal(t, 1, inner.slugLookups)
}

/*
TestCachedRepository_CreatePrimes verifies that registration warms the slug
key so the first login never pays the Postgres read.
*/
func TestCachedRepository_CreatePrimes(t *testing.T) {
	repository, inner, server := newCachedRepository(t)

	require.NoError(t, repository.Create(context.Background(), acme))
	assert.True(t, server.Exists(constants.RedisPrefixTenantSlug+acme.Slug))

	found, err := repository.FindBySlug(context.Background(), "acme-corp")
	require.NoError(t, err)
	assert.Equal(t, acme.ID, found.ID)
	assert.Equal(t, 0, inner.slugLookups)
}

/*
TestCachedRepository_CorruptEntry verifies that an undecodable cache value is
dropped and the lookup falls through to the source of truth.
*/
func TestCachedRepository_CorruptEntry(t *testing.T) {
	repository, inner, server := newCachedRepository(t)
	inner.bySlug[acme.Slug] = acme

	key := constants.RedisPrefixTenantSlug + acme.Slug
	require.NoError(t, server.Set(key, "{not-json"))

	found, err := repository.FindBySlug(context.Background(), "acme-corp")
	require.NoError(t, err)
	assert.Equal(t, acme.ID, found.ID)
	assert.Equal(t, 1, inner.slugLookups)

	// The repaired entry serves the next lookup.
	_, err = repository.FindBySlug(context.Background(), "acme-corp")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.slugLookups)
}

/*
TestCachedRepository_RedisDown verifies that a cache outage degrades to
direct reads instead of failing logins.
*/
func TestCachedRepository_RedisDown(t *testing.T) {
	repository, inner, server := newCachedRepository(t)
	inner.bySlug[acme.Slug] = acme

	server.Close()

	for i := 0; i < 2; i++ {
		found, err := repository.FindBySlug(context.Background(), "acme-corp")
		require.NoError(t, err)
		assert.Equal(t, acme.ID, found.ID)
	}

	// Every lookup reached the inner repository while Redis was away.
	assert.Equal(t, 2, inner.slugLookups)
}

/*
TestCachedRepository_Miss verifies that unknown slugs stay NotFound and are
not negatively cached.
*/
func TestCachedRepository_Miss(t *testing.T) {
	repository, inner, _ := newCachedRepository(t)

	_, err := repository.FindBySlug(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.Code(err))

	_, err = repository.FindBySlug(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, 2, inner.slugLookups)
}
