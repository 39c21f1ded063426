// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/aegis/internal/platform/apperr"
	"github.com/taibuivan/aegis/internal/platform/sec"
)

var (
	primarySecret = []byte("0123456789abcdef0123456789abcdef")
	rotatedSecret = []byte("fedcba9876543210fedcba9876543210")
)

/*
TestNewKeyring verifies the minimum-length policy on the seed material.
*/
func TestNewKeyring(t *testing.T) {
	tests := []struct {
		name     string
		material []byte
		wantErr  bool
	}{
		{"exact_minimum", primarySecret, false},
		{"longer", []byte("0123456789abcdef0123456789abcdef0123456789abcdef"), false},
		{"too_short", []byte("short"), true},
		{"empty", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ring, err := sec.NewKeyring(tt.material, time.Hour)

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperr.CodeInvalidKey, apperr.Code(err))
				assert.Nil(t, ring)
			} else {
				require.NoError(t, err)
				assert.Equal(t, 1, ring.Size())
			}
		})
	}
}

/*
TestKeyring_Rotate verifies that rotation installs a new signer while the
retired key keeps resolving inside its grace window.
*/
func TestKeyring_Rotate(t *testing.T) {
	ring, err := sec.NewKeyring(primarySecret, time.Hour)
	require.NoError(t, err)

	oldKid, _ := ring.Current()

	require.NoError(t, ring.Rotate(rotatedSecret))

	// 1. The new key signs
	newKid, material := ring.Current()
	assert.NotEqual(t, oldKid, newKid)
	assert.Equal(t, rotatedSecret, material)

	// 2. The retired key still verifies
	retired, found := ring.ByID(oldKid)
	assert.True(t, found)
	assert.Equal(t, primarySecret, retired)

	assert.Equal(t, 2, ring.Size())
}

/*
TestKeyring_Rotate_RejectsShortMaterial verifies the length policy on rotation.
*/
func TestKeyring_Rotate_RejectsShortMaterial(t *testing.T) {
	ring, err := sec.NewKeyring(primarySecret, time.Hour)
	require.NoError(t, err)

	err = ring.Rotate([]byte("too-short"))
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidKey, apperr.Code(err))

	// The ring is untouched after a rejected rotation
	_, material := ring.Current()
	assert.Equal(t, primarySecret, material)
	assert.Equal(t, 1, ring.Size())
}

/*
TestKeyring_Rotate_SameMaterial verifies that re-submitting the active secret
is a no-op instead of retiring the current key.
*/
func TestKeyring_Rotate_SameMaterial(t *testing.T) {
	ring, err := sec.NewKeyring(primarySecret, time.Hour)
	require.NoError(t, err)

	kidBefore, _ := ring.Current()
	require.NoError(t, ring.Rotate(primarySecret))
	kidAfter, _ := ring.Current()

	assert.Equal(t, kidBefore, kidAfter)
	assert.Equal(t, 1, ring.Size())
}

/*
TestKeyring_GraceExpiry verifies that a retired key stops resolving once its
grace window elapses.
*/
func TestKeyring_GraceExpiry(t *testing.T) {
	currentTime := time.Now()
	ring, err := sec.NewKeyring(primarySecret, time.Hour)
	require.NoError(t, err)
	ring.WithClock(func() time.Time { return currentTime })

	oldKid, _ := ring.Current()
	require.NoError(t, ring.Rotate(rotatedSecret))

	// 1. Inside the grace window the retired key resolves
	currentTime = currentTime.Add(59 * time.Minute)
	_, found := ring.ByID(oldKid)
	assert.True(t, found)

	// 2. Past the window it does not, and the entry is pruned on access
	currentTime = currentTime.Add(2 * time.Minute)
	_, found = ring.ByID(oldKid)
	assert.False(t, found)
	assert.Equal(t, 1, ring.Size())
}

/*
TestKeyring_Sweep verifies scheduled purging of expired retired keys.
*/
func TestKeyring_Sweep(t *testing.T) {
	currentTime := time.Now()
	ring, err := sec.NewKeyring(primarySecret, time.Hour)
	require.NoError(t, err)
	ring.WithClock(func() time.Time { return currentTime })

	require.NoError(t, ring.Rotate(rotatedSecret))
	require.Equal(t, 2, ring.Size())

	// Nothing to purge inside the window
	assert.Equal(t, 0, ring.Sweep())

	currentTime = currentTime.Add(2 * time.Hour)
	assert.Equal(t, 1, ring.Sweep())
	assert.Equal(t, 1, ring.Size())

	// Idempotent
	assert.Equal(t, 0, ring.Sweep())
}

/*
TestKeyID verifies that key identifiers are deterministic and distinct.
*/
func TestKeyID(t *testing.T) {
	assert.Equal(t, sec.KeyID(primarySecret), sec.KeyID(primarySecret))
	assert.NotEqual(t, sec.KeyID(primarySecret), sec.KeyID(rotatedSecret))
	assert.Len(t, sec.KeyID(primarySecret), 16)
}
