// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth orchestrates the authentication flows.

It owns no storage of its own: tenants, users, refresh sessions, lockout
state, and the audit trail each live in their own package, and this service
sequences them into the registration, login, refresh, logout, and password
flows. Failure semantics are deliberately flat: unknown tenant, unknown
email, wrong password, and deactivated account all surface as the same
INVALID_CREDENTIALS so a caller cannot probe which factor failed.

Architecture:

  - Service: Flow orchestration and audit emission.
  - Handler: The /api/auth and /api/admin/security HTTP surface.
*/
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/taibuivan/aegis/internal/audit"
	"github.com/taibuivan/aegis/internal/lockout"
	"github.com/taibuivan/aegis/internal/platform/apperr"
	"github.com/taibuivan/aegis/internal/platform/sec"
	"github.com/taibuivan/aegis/internal/session"
	"github.com/taibuivan/aegis/internal/tenant"
	"github.com/taibuivan/aegis/internal/user"
	"github.com/taibuivan/aegis/pkg/slug"
	"github.com/taibuivan/aegis/pkg/uuidv7"
)

// # Contracts & Types

// TokenIssuer defines the contract for minting access tokens.
// Satisfied by [sec.TokenService].
type TokenIssuer interface {
	// GenerateAccessToken creates a signed JWT string for the given principal.
	GenerateAccessToken(userID, tenantID, email, role string) (string, error)

	// Lifetime returns the configured access-token validity window.
	Lifetime() time.Duration
}

// SessionManager defines the refresh-token operations the flows need.
// Satisfied by [session.Service].
type SessionManager interface {
	Generate(context context.Context, userID, tenantID, deviceName string) (*session.Issued, error)
	Rotate(context context.Context, input session.RotateInput) (*session.Issued, error)
	Revoke(context context.Context, plaintext string) error
	RevokeAllForUser(context context.Context, userID string) (int, error)
	RevokeOthersForUser(context context.Context, userID, keepPlaintext string) (int, error)
}

// AccountLocker defines the lockout operations the login flow needs.
// Satisfied by [lockout.Service].
type AccountLocker interface {
	IsLocked(context context.Context, userID string) (bool, *time.Time, error)
	RecordFailedAttempt(context context.Context, input lockout.FailureInput) (*lockout.FailureResult, error)
	ResetFailedAttempts(context context.Context, userID string) error
}

// Service implements the authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to flow ordering,
// failure mapping, or audit emission must be reviewed by the security team.
type Service struct {
	tenantRepository tenant.Repository
	userRepository   user.Repository
	sessions         SessionManager
	lockouts         AccountLocker
	tokens           TokenIssuer
	keys             *sec.Keyring
	journal          audit.Recorder

	// now is swappable for tests.
	now func() time.Time
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	tenantRepo tenant.Repository,
	userRepo user.Repository,
	sessions SessionManager,
	lockouts AccountLocker,
	tokens TokenIssuer,
	keys *sec.Keyring,
	journal audit.Recorder,
) *Service {
	return &Service{
		tenantRepository: tenantRepo,
		userRepository:   userRepo,
		sessions:         sessions,
		lockouts:         lockouts,
		tokens:           tokens,
		keys:             keys,
		journal:          journal,
		now:              time.Now,
	}
}

// Response is the transport shape every successful auth flow returns.
type Response struct {
	AccessToken  string `json:"accessToken"`
	TokenType    string `json:"tokenType"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
	UserID       string `json:"userId"`
	TenantID     string `json:"tenantId"`
	TenantName   string `json:"tenantName"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new tenant and its
// founding admin in one step.
type RegisterInput struct {
	TenantName string
	TenantSlug string
	Email      string
	Password   string
	UserName   string
	UserAgent  string
	IPAddress  string
}

/*
Register provisions a tenant together with its first user.

Description: The founding user always gets the ADMIN role. The tenant slug
is normalized to URL form; when the caller leaves it blank it is derived
from the tenant name. Slug uniqueness is checked up front so the caller
gets a precise Conflict instead of a generic constraint error.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *Response: Access and refresh tokens for the founding admin
  - error: Conflict (slug taken) or storage failures
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*Response, error) {

	// Normalize the slug; an empty one falls back to the tenant name.
	slugValue := slug.From(input.TenantSlug)
	if slugValue == "" {
		slugValue = slug.From(input.TenantName)
	}
	if slugValue == "" {
		return nil, apperr.ValidationError("Tenant slug cannot be derived from the provided values")
	}

	// Verify slug uniqueness. Return a client-safe Conflict error.
	_, err := service.tenantRepository.FindBySlug(context, slugValue)
	if err == nil {
		return nil, apperr.Conflict("Tenant slug is already taken")
	}

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Time-sortable IDs to prevent PG index fragmentation.
	tenantRecord := &tenant.Tenant{
		ID:       uuidv7.New(),
		Name:     input.TenantName,
		Slug:     slugValue,
		IsActive: true,
	}

	if err := service.tenantRepository.Create(context, tenantRecord); err != nil {
		return nil, fmt.Errorf("auth_service_tenant_create_failed: %w", err)
	}

	account := &user.User{
		ID:           uuidv7.New(),
		TenantID:     tenantRecord.ID,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		Name:         input.UserName,
		Role:         sec.RoleAdmin,
		IsActive:     true,
	}

	if err := service.userRepository.Create(context, account); err != nil {
		return nil, fmt.Errorf("auth_service_user_create_failed: %w", err)
	}

	service.journal.Record(audit.Event{
		Kind:      audit.KindTenantCreated,
		UserID:    account.ID,
		TenantID:  tenantRecord.ID,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		Details: map[string]any{
			"tenantName": tenantRecord.Name,
			"tenantSlug": tenantRecord.Slug,
		},
	})
	service.journal.Record(audit.Event{
		Kind:      audit.KindUserCreated,
		UserID:    account.ID,
		TenantID:  tenantRecord.ID,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		Details: map[string]any{
			"email": account.Email,
			"role":  string(account.Role),
		},
	})

	return service.establishSession(context, account, tenantRecord, "")
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email      string
	Password   string
	TenantSlug string
	DeviceName string
	UserAgent  string
	IPAddress  string
}

/*
Login validates user credentials and issues security tokens.

Description: The flow checks factors in a fixed order (tenant, user,
lockout, password, active flag) and reports every miss as the same
INVALID_CREDENTIALS. Only the lockout check breaks rank: a locked account
answers ACCOUNT_LOCKED with the minutes remaining and records no further
failed attempt.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *Response: Transport-ready session identifiers
  - error: InvalidCredentials, AccountLocked, or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*Response, error) {

	// Resolve the tenant first; a miss must look identical to a bad password.
	tenantRecord, err := service.tenantRepository.FindBySlug(context, input.TenantSlug)
	if err != nil || !tenantRecord.IsActive {
		service.recordLoginFailure(audit.Event{
			IPAddress: input.IPAddress,
			UserAgent: input.UserAgent,
		}, "Tenant not found")
		return nil, apperr.InvalidCredentials()
	}

	// Emails are only unique inside a tenant, so the pair is the lookup key.
	account, err := service.userRepository.FindByEmailAndTenant(context, input.Email, tenantRecord.ID)
	if err != nil {
		service.recordLoginFailure(audit.Event{
			TenantID:  tenantRecord.ID,
			IPAddress: input.IPAddress,
			UserAgent: input.UserAgent,
		}, "User not found")
		return nil, apperr.InvalidCredentials()
	}

	// A locked account short-circuits before the password is even checked,
	// and the failed-attempt counter stays frozen.
	locked, lockedUntil, err := service.lockouts.IsLocked(context, account.ID)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, apperr.AccountLocked(lockout.RemainingMinutes(*lockedUntil, service.now().UTC()))
	}

	// Constant-time comparison in bcrypt prevents timing attacks.
	if !sec.CheckPasswordHash(input.Password, account.PasswordHash) {
		_, _ = service.lockouts.RecordFailedAttempt(context, lockout.FailureInput{
			UserID:    account.ID,
			TenantID:  account.TenantID,
			IPAddress: input.IPAddress,
			UserAgent: input.UserAgent,
		})
		service.recordLoginFailure(audit.Event{
			UserID:    account.ID,
			TenantID:  account.TenantID,
			IPAddress: input.IPAddress,
			UserAgent: input.UserAgent,
		}, "Invalid password")
		return nil, apperr.InvalidCredentials()
	}

	// Deactivated accounts keep their password but can no longer sign in.
	if !account.IsActive {
		service.recordLoginFailure(audit.Event{
			UserID:    account.ID,
			TenantID:  account.TenantID,
			IPAddress: input.IPAddress,
			UserAgent: input.UserAgent,
		}, "Account deactivated")
		return nil, apperr.InvalidCredentials()
	}

	// Success clears the failure counter; a reset miss must not fail the login.
	_ = service.lockouts.ResetFailedAttempts(context, account.ID)

	response, err := service.establishSession(context, account, tenantRecord, input.DeviceName)
	if err != nil {
		return nil, err
	}

	details := map[string]any{}
	if input.DeviceName != "" {
		details["device"] = input.DeviceName
	}
	service.journal.Record(audit.Event{
		Kind:      audit.KindLoginSuccess,
		UserID:    account.ID,
		TenantID:  account.TenantID,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		Details:   details,
	})

	return response, nil
}

// # Session Management

// RefreshInput carries one refresh-token presentation.
type RefreshInput struct {
	RefreshToken string
	UserAgent    string
	IPAddress    string
}

/*
Refresh exchanges a refresh token for a fresh token pair.

Description: Rotation happens first and is atomic; reuse of an
already-consumed token trips the theft response inside the session service
before this method sees the error. The user and tenant are then re-checked
so a lockout or deactivation applied since login cuts the session short.

Parameters:
  - context: context.Context
  - input: RefreshInput

Returns:
  - *Response: New access and refresh tokens
  - error: TokenInvalid, TokenExpired, TokenReuse, AccountLocked,
    InvalidCredentials, or internal failures
*/
func (service *Service) Refresh(context context.Context, input RefreshInput) (*Response, error) {
	issued, err := service.sessions.Rotate(context, session.RotateInput{
		Plaintext: input.RefreshToken,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
	})
	if err != nil {
		return nil, err
	}

	account, err := service.userRepository.FindByID(context, issued.Record.UserID)
	if err != nil {
		return nil, apperr.InvalidCredentials()
	}

	// A lock placed after login invalidates the session on its next refresh.
	locked, lockedUntil, err := service.lockouts.IsLocked(context, account.ID)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, apperr.AccountLocked(lockout.RemainingMinutes(*lockedUntil, service.now().UTC()))
	}

	if !account.IsActive {
		return nil, apperr.InvalidCredentials()
	}

	tenantRecord, err := service.tenantRepository.FindByID(context, account.TenantID)
	if err != nil || !tenantRecord.IsActive {
		return nil, apperr.InvalidCredentials()
	}

	accessToken, err := service.tokens.GenerateAccessToken(account.ID, account.TenantID, account.Email, string(account.Role))
	if err != nil {
		return nil, fmt.Errorf("auth_service_access_token_failed: %w", err)
	}

	service.journal.Record(audit.Event{
		Kind:      audit.KindTokenRefresh,
		UserID:    account.ID,
		TenantID:  account.TenantID,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
	})

	return service.buildResponse(accessToken, issued.Plaintext, account, tenantRecord), nil
}

// LogoutInput identifies the session to end and the actor ending it.
type LogoutInput struct {
	RefreshToken string
	UserID       string
	TenantID     string
	UserAgent    string
	IPAddress    string
}

/*
Logout revokes a single refresh token.

Description: Revoking a token that is already revoked succeeds silently; a
token that never existed is a 404 so clients detect typos in stored tokens.

Parameters:
  - context: context.Context
  - input: LogoutInput

Returns:
  - error: NotFound for an unknown token, or storage failures
*/
func (service *Service) Logout(context context.Context, input LogoutInput) error {
	if err := service.sessions.Revoke(context, input.RefreshToken); err != nil {
		return err
	}

	service.journal.Record(audit.Event{
		Kind:      audit.KindLogout,
		UserID:    input.UserID,
		TenantID:  input.TenantID,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
	})

	return nil
}

// LogoutAllInput identifies the user whose sessions all end.
type LogoutAllInput struct {
	UserID    string
	TenantID  string
	UserAgent string
	IPAddress string
}

/*
LogoutAll revokes every active refresh token of one user.

Parameters:
  - context: context.Context
  - input: LogoutAllInput

Returns:
  - int: Number of sessions revoked
  - error: Storage failures
*/
func (service *Service) LogoutAll(context context.Context, input LogoutAllInput) (int, error) {
	count, err := service.sessions.RevokeAllForUser(context, input.UserID)
	if err != nil {
		return 0, err
	}

	service.journal.Record(audit.Event{
		Kind:      audit.KindLogout,
		UserID:    input.UserID,
		TenantID:  input.TenantID,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		Details: map[string]any{
			"scope":        "all",
			"revokedCount": count,
		},
	})

	return count, nil
}

// # Credential Management

// ChangePasswordInput carries a self-service password change.
type ChangePasswordInput struct {
	UserID          string
	TenantID        string
	CurrentPassword string
	NewPassword     string

	// RefreshToken, when present, names the caller's own session so it
	// survives the change. Blank revokes every session.
	RefreshToken string

	UserAgent string
	IPAddress string
}

/*
ChangePassword verifies the current password and installs a new one.

Description: Every other session is revoked so a stolen refresh token dies
with the old password. The session presenting the change keeps working when
the caller passes its refresh token along.

Parameters:
  - context: context.Context
  - input: ChangePasswordInput

Returns:
  - error: Unauthorized (wrong current password), NotFound, or storage failures
*/
func (service *Service) ChangePassword(context context.Context, input ChangePasswordInput) error {
	account, err := service.userRepository.FindByID(context, input.UserID)
	if err != nil {
		return err
	}

	if !sec.CheckPasswordHash(input.CurrentPassword, account.PasswordHash) {
		return apperr.Unauthorized("Current password is incorrect")
	}

	hashedPassword, err := sec.HashPassword(input.NewPassword)
	if err != nil {
		return fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	if err := service.userRepository.UpdatePassword(context, account.ID, hashedPassword); err != nil {
		return err
	}

	// Old sessions die with the old password.
	var revoked int
	if input.RefreshToken != "" {
		revoked, err = service.sessions.RevokeOthersForUser(context, account.ID, input.RefreshToken)
	} else {
		revoked, err = service.sessions.RevokeAllForUser(context, account.ID)
	}
	if err != nil {
		return err
	}

	service.journal.Record(audit.Event{
		Kind:      audit.KindPasswordChange,
		UserID:    account.ID,
		TenantID:  account.TenantID,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		Details: map[string]any{
			"revokedSessions": revoked,
		},
	})

	return nil
}

// # Key Administration

/*
RotateSigningKey installs new JWT signing material.

Description: The previous key keeps verifying inside its grace window, so
tokens issued before the rotation expire naturally instead of failing en
masse. Rotating to the material already in use is a no-op.

Parameters:
  - newSecret: string (minimum 32 bytes)

Returns:
  - error: InvalidKey when the material is too short
*/
func (service *Service) RotateSigningKey(newSecret string) error {
	return service.keys.Rotate([]byte(newSecret))
}

// # Internal Helpers

// establishSession mints the access token plus a fresh refresh session and
// assembles the transport response.
func (service *Service) establishSession(context context.Context, account *user.User, tenantRecord *tenant.Tenant, deviceName string) (*Response, error) {
	accessToken, err := service.tokens.GenerateAccessToken(account.ID, account.TenantID, account.Email, string(account.Role))
	if err != nil {
		return nil, fmt.Errorf("auth_service_access_token_failed: %w", err)
	}

	issued, err := service.sessions.Generate(context, account.ID, account.TenantID, deviceName)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	return service.buildResponse(accessToken, issued.Plaintext, account, tenantRecord), nil
}

// buildResponse assembles the flat auth payload shared by all flows.
func (service *Service) buildResponse(accessToken, refreshPlaintext string, account *user.User, tenantRecord *tenant.Tenant) *Response {
	return &Response{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		RefreshToken: refreshPlaintext,
		ExpiresIn:    int64(service.tokens.Lifetime().Seconds()),
		UserID:       account.ID,
		TenantID:     account.TenantID,
		TenantName:   tenantRecord.Name,
		Email:        account.Email,
		Name:         account.Name,
		Role:         string(account.Role),
	}
}

// recordLoginFailure emits LOGIN_FAILED with the given reason attached.
func (service *Service) recordLoginFailure(event audit.Event, reason string) {
	event.Kind = audit.KindLoginFailed
	event.Details = map[string]any{"reason": reason}
	service.journal.Record(event)
}
