// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/taibuivan/aegis/internal/platform/apperr"
	"github.com/taibuivan/aegis/internal/platform/constants"
)

// # Signing Key Ring

// signingKey is one entry of the ring. A zero retiredAt means the key is the
// current signer; a non-zero retiredAt means the key only verifies until its
// grace window elapses.
type signingKey struct {
	material  []byte
	retiredAt time.Time
}

// Keyring holds the current HMAC signing key plus a bounded set of retired
// keys, each addressed by a short key identifier carried in the token header.
//
// # Why retired keys?
//
// Rotating the signing secret must not invalidate access tokens already in
// flight. A retired key keeps verifying (never signing) until its grace
// window ends, so clients re-authenticate on their own schedule instead of
// being dumped en masse at rotation time.
//
// # Concurrency
//
// All state lives behind one mutex. Readers observe either the pre-rotation
// or the post-rotation ring, never a half-installed key.
type Keyring struct {
	mu      sync.RWMutex
	keys    map[string]*signingKey
	current string
	grace   time.Duration

	// now is injected so grace-window tests control the clock.
	now func() time.Time
}

// NewKeyring seeds a ring with the initial signing material.
// A non-positive grace falls back to [constants.KeyRotationGracePeriod].
func NewKeyring(material []byte, grace time.Duration) (*Keyring, error) {
	if len(material) < constants.MinSigningSecretBytes {
		return nil, apperr.InvalidKey()
	}
	if grace <= 0 {
		grace = constants.KeyRotationGracePeriod
	}

	kid := KeyID(material)
	ring := &Keyring{
		keys:    map[string]*signingKey{kid: {material: material}},
		current: kid,
		grace:   grace,
		now:     time.Now,
	}
	return ring, nil
}

// KeyID derives the short key identifier from signing material: the first
// 8 bytes of its SHA-256 digest, hex encoded. Deterministic, so the same
// secret always yields the same identifier across restarts and instances.
func KeyID(material []byte) string {
	digest := sha256.Sum256(material)
	return hex.EncodeToString(digest[:8])
}

// Current returns the identifier and material of the active signing key.
func (ring *Keyring) Current() (string, []byte) {
	ring.mu.RLock()
	defer ring.mu.RUnlock()
	return ring.current, ring.keys[ring.current].material
}

// ByID resolves verification material for a key identifier.
//
// It succeeds for the current key and for retired keys still inside their
// grace window. The clock is re-read on every call, so a key that was valid
// a moment ago can expire between two verifications. Expired entries are
// pruned on access.
func (ring *Keyring) ByID(kid string) ([]byte, bool) {
	ring.mu.Lock()
	defer ring.mu.Unlock()

	key, found := ring.keys[kid]
	if !found {
		return nil, false
	}

	if kid == ring.current {
		return key.material, true
	}

	if ring.now().Before(key.retiredAt.Add(ring.grace)) {
		return key.material, true
	}

	delete(ring.keys, kid)
	return nil, false
}

// Rotate demotes the current key to retired and installs newMaterial as the
// new signer. Tokens minted before the call keep verifying until the retired
// key's grace window ends.
//
// Rejects material shorter than [constants.MinSigningSecretBytes]. Rotating
// to the material already in use is a no-op.
func (ring *Keyring) Rotate(newMaterial []byte) error {
	if len(newMaterial) < constants.MinSigningSecretBytes {
		return apperr.InvalidKey()
	}

	kid := KeyID(newMaterial)

	ring.mu.Lock()
	defer ring.mu.Unlock()

	if kid == ring.current {
		return nil
	}

	ring.keys[ring.current].retiredAt = ring.now()
	ring.keys[kid] = &signingKey{material: newMaterial}
	ring.current = kid
	return nil
}

// Sweep removes retired keys whose grace window has elapsed and reports how
// many were purged. Idempotent; safe to run on a schedule.
func (ring *Keyring) Sweep() int {
	ring.mu.Lock()
	defer ring.mu.Unlock()

	purged := 0
	currentTime := ring.now()
	for kid, key := range ring.keys {
		if kid == ring.current {
			continue
		}
		if !currentTime.Before(key.retiredAt.Add(ring.grace)) {
			delete(ring.keys, kid)
			purged++
		}
	}
	return purged
}

// Size reports how many keys the ring currently holds, current included.
func (ring *Keyring) Size() int {
	ring.mu.RLock()
	defer ring.mu.RUnlock()
	return len(ring.keys)
}

// WithClock overrides the ring's time source. Test hook.
func (ring *Keyring) WithClock(now func() time.Time) *Keyring {
	ring.mu.Lock()
	defer ring.mu.Unlock()
	ring.now = now
	return ring
}
