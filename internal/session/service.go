// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/taibuivan/aegis/internal/audit"
	"github.com/taibuivan/aegis/internal/platform/apperr"
	"github.com/taibuivan/aegis/internal/platform/constants"
	"github.com/taibuivan/aegis/internal/platform/sec"
	"github.com/taibuivan/aegis/pkg/uuidv7"
)

// # Service

// Service implements the refresh-token lifecycle: issuance, one-shot
// rotation with reuse detection, and revocation.
//
// # Review Process
//
// Reuse detection is the theft tripwire of the whole system. Changes to
// Rotate or resolve must be reviewed by the security team.
type Service struct {
	tokenRepository Repository
	journal         audit.Recorder
	lifetime        time.Duration
	now             func() time.Time
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(tokenRepo Repository, journal audit.Recorder, lifetime time.Duration) *Service {
	return &Service{
		tokenRepository: tokenRepo,
		journal:         journal,
		lifetime:        lifetime,
		now:             time.Now,
	}
}

// Issued pairs the one-time client-visible token with its stored record.
type Issued struct {
	Plaintext string
	Record    *RefreshToken
}

// # Issuance

/*
Generate mints a fresh refresh token for a new login.

Description: Creates the record with a CSPRNG secret, stores only the slow
hash, and returns the composed plaintext exactly once. The plaintext is
never reconstructable afterwards.

Parameters:
  - context: context.Context
  - userID: string
  - tenantID: string
  - deviceName: string (optional, client-declared label)

Returns:
  - *Issued: Plaintext plus stored record
  - err: Generation or storage failures
*/
func (service *Service) Generate(context context.Context, userID, tenantID, deviceName string) (*Issued, error) {
	secret, err := sec.GenerateSecureToken(refreshSecretLength)
	if err != nil {
		return nil, fmt.Errorf("session_service_generate_secret_failed: %w", err)
	}

	tokenHash, err := sec.HashToken(secret)
	if err != nil {
		return nil, fmt.Errorf("session_service_hash_failed: %w", err)
	}

	record := &RefreshToken{
		ID:         uuidv7.New(),
		UserID:     userID,
		TenantID:   tenantID,
		TokenHash:  tokenHash,
		DeviceName: deviceName,
		IsRevoked:  false,
		ExpiresAt:  service.now().Add(service.lifetime),
	}

	if err := service.tokenRepository.Create(context, record); err != nil {
		return nil, fmt.Errorf("session_service_create_failed: %w", err)
	}

	return &Issued{
		Plaintext: composeToken(record.ID, secret),
		Record:    record,
	}, nil
}

// # Validation & Rotation

/*
Validate checks a presented token without consuming it.

Description: True iff the record exists, the secret matches, the record is
not revoked, and the expiry lies in the future. Pure check: no side
effects, no audit emission.

Parameters:
  - context: context.Context
  - plaintext: string

Returns:
  - *RefreshToken: The live record
  - err: TokenInvalid, TokenReuse, or TokenExpired
*/
func (service *Service) Validate(context context.Context, plaintext string) (*RefreshToken, error) {
	record, err := service.resolve(context, plaintext)
	if err != nil {
		return nil, unrecognized(err)
	}

	if record.IsRevoked {
		return nil, apperr.TokenReuse()
	}

	if !record.ExpiresAt.After(service.now()) {
		return nil, apperr.TokenExpired()
	}

	return record, nil
}

// RotateInput carries one rotation attempt with its transport metadata.
type RotateInput struct {
	Plaintext string
	IPAddress string
	UserAgent string
}

/*
Rotate consumes a refresh token and issues its successor.

Description: The presented token is revoked and a replacement inserted in
one database transaction, so every token is usable exactly once. Presenting
an already-consumed token is treated as theft: every active token of that
user is revoked and SUSPICIOUS_ACTIVITY is emitted before the caller sees
TokenReuse. Concurrent rotations of the same token produce exactly one
winner; the loser takes the same theft path.

Parameters:
  - context: context.Context
  - input: RotateInput

Returns:
  - *Issued: Successor token
  - err: TokenInvalid, TokenReuse, TokenExpired, or storage failures
*/
func (service *Service) Rotate(context context.Context, input RotateInput) (*Issued, error) {
	record, err := service.resolve(context, input.Plaintext)
	if err != nil {
		return nil, unrecognized(err)
	}

	if record.IsRevoked {
		service.handleReuse(context, record, input.IPAddress, input.UserAgent)
		return nil, apperr.TokenReuse()
	}

	if !record.ExpiresAt.After(service.now()) {
		return nil, apperr.TokenExpired()
	}

	secret, err := sec.GenerateSecureToken(refreshSecretLength)
	if err != nil {
		return nil, fmt.Errorf("session_service_rotate_secret_failed: %w", err)
	}

	tokenHash, err := sec.HashToken(secret)
	if err != nil {
		return nil, fmt.Errorf("session_service_rotate_hash_failed: %w", err)
	}

	replacement := &RefreshToken{
		ID:         uuidv7.New(),
		UserID:     record.UserID,
		TenantID:   record.TenantID,
		TokenHash:  tokenHash,
		DeviceName: record.DeviceName,
		IsRevoked:  false,
		ExpiresAt:  service.now().Add(service.lifetime),
	}

	if err := service.tokenRepository.Rotate(context, record.ID, replacement); err != nil {
		// A racing rotation won between our check and the swap. Same
		// tripwire as a plain reuse.
		if appError := apperr.As(err); appError != nil && appError.Code == apperr.CodeTokenReuse {
			service.handleReuse(context, record, input.IPAddress, input.UserAgent)
			return nil, appError
		}
		return nil, fmt.Errorf("session_service_rotate_failed: %w", err)
	}

	return &Issued{
		Plaintext: composeToken(replacement.ID, secret),
		Record:    replacement,
	}, nil
}

// # Revocation

/*
Revoke terminates the single session behind the presented token.

Description: Backing store for logout. Unknown or forged tokens surface as
NotFound; revoking an already-revoked token succeeds silently so repeated
logouts are harmless.

Parameters:
  - context: context.Context
  - plaintext: string

Returns:
  - err: apperr.NotFound or storage failures
*/
func (service *Service) Revoke(context context.Context, plaintext string) error {
	record, err := service.resolve(context, plaintext)
	if err != nil {
		return err
	}

	if record.IsRevoked {
		return nil
	}

	if err := service.tokenRepository.Revoke(context, record.ID); err != nil {
		return fmt.Errorf("session_service_revoke_failed: %w", err)
	}

	return nil
}

/*
RevokeAllForUser terminates every active session of one user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - int: Number of sessions revoked by this call
  - err: Storage failures
*/
func (service *Service) RevokeAllForUser(context context.Context, userID string) (int, error) {
	revoked, err := service.tokenRepository.RevokeAllForUser(context, userID)
	if err != nil {
		return 0, fmt.Errorf("session_service_revoke_all_failed: %w", err)
	}
	return revoked, nil
}

/*
RevokeOthersForUser terminates every session of one user except the one
behind keepPlaintext. Used by password changes to keep the current device
signed in. An unrecognizable keep-token falls back to revoking everything.

Parameters:
  - context: context.Context
  - userID: string
  - keepPlaintext: string

Returns:
  - int: Number of sessions revoked by this call
  - err: Storage failures
*/
func (service *Service) RevokeOthersForUser(context context.Context, userID, keepPlaintext string) (int, error) {
	record, err := service.resolve(context, keepPlaintext)
	if err != nil || record.UserID != userID {
		return service.RevokeAllForUser(context, userID)
	}

	revoked, err := service.tokenRepository.RevokeOthersForUser(context, userID, record.ID)
	if err != nil {
		return 0, fmt.Errorf("session_service_revoke_others_failed: %w", err)
	}
	return revoked, nil
}

// # Maintenance

// PruneExpired deletes records whose expiry has passed. Run periodically.
func (service *Service) PruneExpired(context context.Context) (int64, error) {
	return service.tokenRepository.DeleteExpired(context)
}

// PruneRevoked deletes revoked records older than the retention window.
// Younger ones stay so reuse of a rotated token still trips detection.
func (service *Service) PruneRevoked(context context.Context) (int64, error) {
	cutoff := service.now().Add(-constants.RevokedRetention)
	return service.tokenRepository.DeleteRevokedBefore(context, cutoff)
}

// # Internal Mechanics

// resolve looks up the record behind a plaintext and verifies its secret.
// Malformed input, unknown ids, and wrong secrets all collapse onto
// apperr.NotFound so callers cannot probe which half failed.
func (service *Service) resolve(context context.Context, plaintext string) (*RefreshToken, error) {
	recordID, secret, ok := splitToken(plaintext)
	if !ok {
		return nil, apperr.NotFound("Refresh token")
	}

	record, err := service.tokenRepository.FindByID(context, recordID)
	if err != nil {
		return nil, err
	}

	if !sec.CheckTokenHash(secret, record.TokenHash) {
		return nil, apperr.NotFound("Refresh token")
	}

	return record, nil
}

// handleReuse is the theft response: sever the whole chain, then journal it.
func (service *Service) handleReuse(context context.Context, record *RefreshToken, ipAddress, userAgent string) {
	revoked, err := service.tokenRepository.RevokeAllForUser(context, record.UserID)
	if err != nil {
		revoked = 0
	}

	service.journal.Record(audit.Event{
		Kind:      audit.KindSuspiciousActivity,
		UserID:    record.UserID,
		TenantID:  record.TenantID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Details: map[string]any{
			"reason":          "refresh_token_reuse",
			"tokenId":         record.ID,
			"revokedSessions": revoked,
		},
	})
}

// unrecognized maps resolve failures onto the 401 token taxonomy for the
// validation and rotation paths (logout keeps the plain 404).
func unrecognized(err error) error {
	if appError := apperr.As(err); appError != nil && appError.Code == apperr.CodeNotFound {
		return apperr.TokenInvalid("Refresh token not recognized")
	}
	return err
}
