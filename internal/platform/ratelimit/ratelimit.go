// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package ratelimit provides per-source token-bucket request admission.

Buckets are keyed by endpoint class plus source identity, so consuming login
capacity never touches registration capacity for the same address. State is
process-local and ephemeral; on restart every source simply starts with a full
bucket again.

Policies:

  - login: 5 attempts / 15 minutes
  - register: 3 attempts / 60 minutes
  - api: 100 requests / 60 seconds

Distributed enforcement is out of scope. In a multi-instance deployment each
instance admits its own share, which widens the effective limit by the
instance count.
*/
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/taibuivan/aegis/internal/platform/constants"
)

// # Endpoint Classes

const (
	// ClassLogin guards credential verification attempts.
	ClassLogin = "login"

	// ClassRegister guards tenant/account creation.
	ClassRegister = "register"

	// ClassAPI is the general admission class for authenticated traffic.
	ClassAPI = "api"
)

// Policy describes one endpoint class: Capacity tokens refilled evenly over
// Window. A full bucket is granted on first contact.
type Policy struct {
	Capacity int
	Window   time.Duration
}

// limit converts the policy into the x/time/rate refill rate.
func (p Policy) limit() rate.Limit {
	return rate.Limit(float64(p.Capacity) / p.Window.Seconds())
}

// # Limiter

// bucket pairs a token bucket with its last-contact time for eviction.
// window mirrors the policy so the janitor can tell when an idle bucket has
// fully refilled.
type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	window   time.Duration
}

// Limiter owns every bucket for one process. All access is internally
// synchronized; the zero value is not usable, construct via [New].
type Limiter struct {
	mu       sync.Mutex
	policies map[string]Policy
	buckets  map[string]*bucket

	// now is injected so admission tests control the clock.
	now func() time.Time
}

// New creates a Limiter with the given per-class policies.
func New(policies map[string]Policy) *Limiter {
	return &Limiter{
		policies: policies,
		buckets:  make(map[string]*bucket),
		now:      time.Now,
	}
}

// Allow reports whether one request from source is admitted under class.
// Unknown classes are admitted; admission is a guard, not a gate of last resort.
func (l *Limiter) Allow(class, source string) bool {
	return l.AllowN(class, source, 1)
}

// AllowN attempts to consume n tokens from the class/source bucket.
// The first contact for a key instantiates a full bucket.
func (l *Limiter) AllowN(class, source string, n int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	policy, found := l.policies[class]
	if !found {
		return true
	}

	key := class + ":" + source
	entry, found := l.buckets[key]
	if !found {
		entry = &bucket{
			limiter: rate.NewLimiter(policy.limit(), policy.Capacity),
			window:  policy.Window,
		}
		l.buckets[key] = entry
	}

	currentTime := l.now()
	entry.lastSeen = currentTime
	return entry.limiter.AllowN(currentTime, n)
}

// StartJanitor launches the background eviction loop that removes buckets
// idle longer than [constants.RateLimitClientTTL]. It returns immediately;
// the loop stops when ctx is cancelled.
func (l *Limiter) StartJanitor(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(constants.RateLimitCleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				l.evictIdle()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// evictIdle drops buckets whose source has been quiet long enough for a full
// refill. A bucket idle for its whole window holds full capacity again, so
// deleting it re-grants nothing; shorter idle periods keep the bucket and its
// remaining debt.
func (l *Limiter) evictIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()

	currentTime := l.now()
	for key, entry := range l.buckets {
		threshold := constants.RateLimitClientTTL
		if entry.window > threshold {
			threshold = entry.window
		}
		if currentTime.Sub(entry.lastSeen) > threshold {
			delete(l.buckets, key)
		}
	}
}

// Size reports how many live buckets the limiter holds.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// WithClock overrides the limiter's time source. Test hook.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
	return l
}
