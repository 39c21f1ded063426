// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/aegis/internal/platform/constants"
)

// slugCacheTTL bounds staleness of cached slug lookups. Tenants are
// immutable after creation, so expiry is the only invalidation needed.
const slugCacheTTL = 10 * time.Minute

// CachedRepository decorates a [Repository] with a Redis read-through cache
// keyed by slug.
//
// # Behavior
//
// Cache misses and Redis outages both fall through to the inner repository;
// the cache is never authoritative.
type CachedRepository struct {
	inner Repository
	cache *redis.Client
}

// NewCachedRepository wraps inner with the slug cache.
func NewCachedRepository(inner Repository, cache *redis.Client) *CachedRepository {
	return &CachedRepository{inner: inner, cache: cache}
}

/*
Create persists the tenant and primes the slug cache.

Parameters:
  - context: context.Context
  - tenant: *Tenant

Returns:
  - error: Propagated from the inner repository
*/
func (repository *CachedRepository) Create(context context.Context, tenant *Tenant) error {
	if err := repository.inner.Create(context, tenant); err != nil {
		return err
	}

	// Prime the cache so the first login after registration skips Postgres.
	_ = repository.cacheTenant(context, tenant)
	return nil
}

/*
FindByID retrieves a tenant by primary key.

Description: ID lookups bypass the cache; only the slug path is hot.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Tenant: Matching entity
  - error: apperr.NotFound or storage errors
*/
func (repository *CachedRepository) FindByID(context context.Context, id string) (*Tenant, error) {
	return repository.inner.FindByID(context, id)
}

/*
FindBySlug retrieves a tenant by slug, consulting Redis first.

Description: A hit deserializes the cached entity directly. A miss (or any
Redis failure) falls through to Postgres and refreshes the cache entry.

Parameters:
  - context: context.Context
  - slug: string

Returns:
  - *Tenant: Matching entity
  - error: apperr.NotFound or storage errors
*/
func (repository *CachedRepository) FindBySlug(context context.Context, slug string) (*Tenant, error) {
	key := constants.RedisPrefixTenantSlug + slug

	cached, err := repository.cache.Get(context, key).Result()
	if err == nil {
		tenant := &Tenant{}
		if unmarshalErr := json.Unmarshal([]byte(cached), tenant); unmarshalErr == nil {
			return tenant, nil
		}
		// Corrupt entry. Drop it and fall through to the source of truth.
		_ = repository.cache.Del(context, key).Err()
	} else if !errors.Is(err, redis.Nil) {
		// Redis being down must not take logins down with it.
		return repository.inner.FindBySlug(context, slug)
	}

	tenant, err := repository.inner.FindBySlug(context, slug)
	if err != nil {
		return nil, err
	}

	_ = repository.cacheTenant(context, tenant)
	return tenant, nil
}

// cacheTenant serializes the tenant into its slug key with the standard TTL.
func (repository *CachedRepository) cacheTenant(context context.Context, tenant *Tenant) error {
	payload, err := json.Marshal(tenant)
	if err != nil {
		return fmt.Errorf("redis_tenant_marshal_failed: %w", err)
	}

	key := constants.RedisPrefixTenantSlug + tenant.Slug
	if err := repository.cache.Set(context, key, payload, slugCacheTTL).Err(); err != nil {
		return fmt.Errorf("redis_tenant_cache_failed: %w", err)
	}

	return nil
}
