// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// # Password Hashing

// HashPassword hashes a plain-text password using the bcrypt algorithm.
func HashPassword(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("sec_hash_password_failed: %w", err)
	}
	return string(hashedBytes), nil
}

// CheckPasswordHash compares a plain-text password with its hashed version.
func CheckPasswordHash(plainTextPassword, existingHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword))
	return err == nil
}

// # Opaque Token Material

// GenerateSecureToken returns byteLength bytes of CSPRNG output encoded as
// unpadded base64url. 32 bytes yields the 256-bit entropy refresh secrets
// require.
func GenerateSecureToken(byteLength int) (string, error) {
	buffer := make([]byte, byteLength)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("sec_generate_token_failed: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// HashToken produces the storable slow hash of an opaque token secret.
// Refresh secrets are stored only in this form; a database leak therefore
// never yields replayable tokens.
func HashToken(plainTextToken string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextToken), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("sec_hash_token_failed: %w", err)
	}
	return string(hashedBytes), nil
}

// CheckTokenHash compares a plain-text token secret with its stored hash.
func CheckTokenHash(plainTextToken, existingHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextToken))
	return err == nil
}
