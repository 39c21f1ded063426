// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ratelimit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/aegis/internal/platform/ratelimit"
)

// newLimiter builds a limiter with a tight login policy and a fixed clock.
func newLimiter(capacity int, window time.Duration) (*ratelimit.Limiter, *time.Time) {
	currentTime := time.Now()
	limiter := ratelimit.New(map[string]ratelimit.Policy{
		ratelimit.ClassLogin: {Capacity: capacity, Window: window},
	}).WithClock(func() time.Time { return currentTime })

	return limiter, &currentTime
}

/*
TestLimiter_Capacity verifies that a fresh source gets exactly the configured
burst before admission stops.
*/
func TestLimiter_Capacity(t *testing.T) {
	limiter, _ := newLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow(ratelimit.ClassLogin, "10.0.0.1"), "request %d should pass", i+1)
	}

	assert.False(t, limiter.Allow(ratelimit.ClassLogin, "10.0.0.1"))
}

/*
TestLimiter_Refill verifies that capacity returns gradually as the window
advances.
*/
func TestLimiter_Refill(t *testing.T) {
	limiter, clock := newLimiter(3, 3*time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow(ratelimit.ClassLogin, "10.0.0.1"))
	}
	assert.False(t, limiter.Allow(ratelimit.ClassLogin, "10.0.0.1"))

	// 3 per 3 minutes refills one token per minute.
	*clock = clock.Add(61 * time.Second)
	assert.True(t, limiter.Allow(ratelimit.ClassLogin, "10.0.0.1"))
	assert.False(t, limiter.Allow(ratelimit.ClassLogin, "10.0.0.1"))
}

/*
TestLimiter_SourceIsolation verifies that one exhausted source never affects
another.
*/
func TestLimiter_SourceIsolation(t *testing.T) {
	limiter, _ := newLimiter(1, time.Minute)

	assert.True(t, limiter.Allow(ratelimit.ClassLogin, "10.0.0.1"))
	assert.False(t, limiter.Allow(ratelimit.ClassLogin, "10.0.0.1"))

	assert.True(t, limiter.Allow(ratelimit.ClassLogin, "10.0.0.2"))
}

/*
TestLimiter_ClassIsolation verifies that buckets are keyed per class, so
spending login capacity leaves other classes untouched.
*/
func TestLimiter_ClassIsolation(t *testing.T) {
	currentTime := time.Now()
	limiter := ratelimit.New(map[string]ratelimit.Policy{
		ratelimit.ClassLogin:    {Capacity: 1, Window: time.Minute},
		ratelimit.ClassRegister: {Capacity: 1, Window: time.Minute},
	}).WithClock(func() time.Time { return currentTime })

	assert.True(t, limiter.Allow(ratelimit.ClassLogin, "10.0.0.1"))
	assert.False(t, limiter.Allow(ratelimit.ClassLogin, "10.0.0.1"))

	// Same source, different class: full bucket.
	assert.True(t, limiter.Allow(ratelimit.ClassRegister, "10.0.0.1"))
	assert.Equal(t, 2, limiter.Size())
}

/*
TestLimiter_UnknownClass verifies that classes without a policy admit
everything rather than failing closed.
*/
func TestLimiter_UnknownClass(t *testing.T) {
	limiter, _ := newLimiter(1, time.Minute)

	for i := 0; i < 10; i++ {
		assert.True(t, limiter.Allow("unconfigured", "10.0.0.1"))
	}
	assert.Equal(t, 0, limiter.Size())
}
