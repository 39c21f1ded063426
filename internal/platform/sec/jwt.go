// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing, the
// signing-key ring, secret access) from the domain logic. It acts as an
// Infrastructure service injected into the Application layer via small
// interfaces such as [middleware.TokenVerifier].
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taibuivan/aegis/internal/platform/apperr"
)

// AuthClaims represents the payload embedded inside a JWT Access Token.
//
// # Why custom claims?
//
// By embedding the TenantID, Email, and Role directly inside the JWT,
// the [middleware.Authenticate] can reconstruct the active principal context
// WITHOUT querying the database on every single API request. This provides
// massive read-scalability.
type AuthClaims struct {
	jwt.RegisteredClaims

	TenantID string `json:"tenant_id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// UserID returns the principal identifier carried in the subject claim.
func (claims *AuthClaims) UserID() string { return claims.Subject }

// # Token Service

// keyHeaderID is the JOSE header field naming the signing key.
const keyHeaderID = "kid"

var (
	errMissingKeyID = errors.New("token has no key identifier")
	errUnknownKeyID = errors.New("token key identifier is not in the ring")
)

// TokenService handles generation and verification of JWT access tokens using
// HS256. Every token carries the identifier of the key that signed it, so
// verification resolves material through the [Keyring] in O(1) and signing-key
// rotation never has to try candidate keys.
type TokenService struct {
	keys     *Keyring
	issuer   string
	lifetime time.Duration

	// now is injected so expiry tests control the clock.
	now func() time.Time
}

// NewTokenService creates a TokenService signing with the ring's current key.
func NewTokenService(keys *Keyring, issuer string, lifetime time.Duration) *TokenService {
	return &TokenService{
		keys:     keys,
		issuer:   issuer,
		lifetime: lifetime,
		now:      time.Now,
	}
}

// GenerateAccessToken creates a new JWT access token for a user.
// The subject claim carries the user id; tenant, email, and role travel as
// private claims; the header names the signing key.
func (service *TokenService) GenerateAccessToken(userID, tenantID, email, role string) (string, error) {
	currentTime := service.now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(service.lifetime)),
		},
		TenantID: tenantID,
		Email:    email,
		Role:     role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	kid, material := service.keys.Current()
	token.Header[keyHeaderID] = kid

	signedToken, err := token.SignedString(material)
	if err != nil {
		return "", fmt.Errorf("sec_sign_token_failed: %w", err)
	}

	return signedToken, nil
}

// VerifyToken checks the signature and validity of a JWT string.
//
// Failures keep their kinds apart: a key identifier outside the active and
// grace sets maps to UNKNOWN_KEY, an elapsed expiry to TOKEN_EXPIRED, and
// every signature or format problem to TOKEN_INVALID. Tokens without a key
// identifier are rejected outright.
func (service *TokenService) VerifyToken(tokenString string) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, service.verificationKey,
		jwt.WithIssuer(service.issuer),
		jwt.WithTimeFunc(func() time.Time { return service.now() }),
	)

	if err != nil {
		switch {
		case errors.Is(err, errUnknownKeyID):
			return nil, apperr.UnknownKey()
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, apperr.TokenExpired()
		default:
			return nil, apperr.TokenInvalid("Invalid token")
		}
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, apperr.TokenInvalid("Invalid token claims")
	}

	return claims, nil
}

// verificationKey resolves signing material for the token's key identifier.
func (service *TokenService) verificationKey(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("sec_unexpected_signing_method: %v", token.Header["alg"])
	}

	kid, ok := token.Header[keyHeaderID].(string)
	if !ok || kid == "" {
		return nil, errMissingKeyID
	}

	material, found := service.keys.ByID(kid)
	if !found {
		return nil, errUnknownKeyID
	}

	return material, nil
}

// Lifetime reports the configured access-token validity window.
func (service *TokenService) Lifetime() time.Duration { return service.lifetime }

// WithClock overrides the service's time source. Test hook.
func (service *TokenService) WithClock(now func() time.Time) *TokenService {
	service.now = now
	return service
}
