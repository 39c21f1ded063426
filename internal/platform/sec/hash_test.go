// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/aegis/internal/platform/sec"
)

/*
TestHashPassword verifies the bcrypt round trip and that the stored form
never equals the plain text.
*/
func TestHashPassword(t *testing.T) {
	password := "S3cure-Passw0rd!"

	hash, err := sec.HashPassword(password)
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, password, hash)

	assert.True(t, sec.CheckPasswordHash(password, hash))
	assert.False(t, sec.CheckPasswordHash("wrong-password", hash))
	assert.False(t, sec.CheckPasswordHash(password, "not-a-bcrypt-hash"))
}

/*
TestGenerateSecureToken checks entropy length and uniqueness of the opaque
token generator.
*/
func TestGenerateSecureToken(t *testing.T) {
	first, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)

	second, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)

	// 32 bytes of base64url without padding is 43 characters.
	assert.Len(t, first, 43)
	assert.NotEqual(t, first, second)
}

/*
TestHashToken verifies the refresh-secret hash round trip.
*/
func TestHashToken(t *testing.T) {
	secret, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)

	hash, err := sec.HashToken(secret)
	require.NoError(t, err)
	assert.NotEqual(t, secret, hash)

	assert.True(t, sec.CheckTokenHash(secret, hash))
	assert.False(t, sec.CheckTokenHash("tampered", hash))
}
