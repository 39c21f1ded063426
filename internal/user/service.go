// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package user

import (
	"context"
	"fmt"

	"github.com/taibuivan/aegis/internal/audit"
	"github.com/taibuivan/aegis/internal/platform/apperr"
)

// # Contracts & Types

// SessionRevoker terminates every active refresh session of a user. The
// session service implements it; deactivation must sever all devices.
type SessionRevoker interface {
	RevokeAllForUser(context context.Context, userID string) (int, error)
}

// Service implements tenant-scoped user management use cases.
//
// Cross-tenant access is answered with NotFound rather than Forbidden so
// callers cannot probe which IDs exist in other tenants.
type Service struct {
	userRepository Repository
	sessions       SessionRevoker
	journal        audit.Recorder
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(userRepo Repository, sessions SessionRevoker, journal audit.Recorder) *Service {
	return &Service{
		userRepository: userRepo,
		sessions:       sessions,
		journal:        journal,
	}
}

// # Read Operations

/*
GetByID retrieves a user visible to the requesting tenant.

Parameters:
  - context: context.Context
  - requesterTenantID: string (tenant of the caller's claims)
  - id: string

Returns:
  - *User: Matching entity
  - error: apperr.NotFound for missing or cross-tenant users
*/
func (service *Service) GetByID(context context.Context, requesterTenantID, id string) (*User, error) {
	user, err := service.userRepository.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if user.TenantID != requesterTenantID {
		return nil, apperr.NotFound("User")
	}

	return user, nil
}

/*
List returns one page of the requesting tenant's users.

Parameters:
  - context: context.Context
  - tenantID: string
  - limit: int
  - offset: int

Returns:
  - []*User: Page ordered newest first
  - int: Total users in the tenant
  - error: Storage errors
*/
func (service *Service) List(context context.Context, tenantID string, limit, offset int) ([]*User, int, error) {
	return service.userRepository.ListByTenant(context, tenantID, limit, offset)
}

// # Profile Updates

// UpdateNameInput carries a self-service display name change.
type UpdateNameInput struct {
	UserID    string
	TenantID  string
	Name      string
	IPAddress string
	UserAgent string
}

/*
UpdateName changes the caller's display name.

Description: Applies the change and emits USER_UPDATED with the changed
field, so the audit trail shows what moved without storing old values.

Parameters:
  - context: context.Context
  - input: UpdateNameInput

Returns:
  - *User: Entity after the update
  - error: apperr.NotFound or storage errors
*/
func (service *Service) UpdateName(context context.Context, input UpdateNameInput) (*User, error) {
	if err := service.userRepository.UpdateName(context, input.UserID, input.Name); err != nil {
		return nil, fmt.Errorf("user_service_update_name_failed: %w", err)
	}

	user, err := service.userRepository.FindByID(context, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("user_service_reload_failed: %w", err)
	}

	service.journal.Record(audit.Event{
		Kind:      audit.KindUserUpdated,
		UserID:    input.UserID,
		TenantID:  input.TenantID,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		Details:   map[string]any{"changed": []any{"name"}},
	})

	return user, nil
}

// # Administrative Removal

// DeactivateInput carries an admin-initiated user removal.
type DeactivateInput struct {
	TargetUserID  string
	ActorID       string
	ActorTenantID string
	IPAddress     string
	UserAgent     string
}

/*
Deactivate removes a user from service without deleting the row.

Description: Clears the active flag, revokes every refresh session so all
devices drop out at the next refresh, and emits USER_DELETED. The row stays
so historical audit entries keep resolving.

Parameters:
  - context: context.Context
  - input: DeactivateInput

Returns:
  - error: apperr.NotFound for missing or cross-tenant targets, or storage errors
*/
func (service *Service) Deactivate(context context.Context, input DeactivateInput) error {
	target, err := service.userRepository.FindByID(context, input.TargetUserID)
	if err != nil {
		return err
	}

	if target.TenantID != input.ActorTenantID {
		return apperr.NotFound("User")
	}

	if err := service.userRepository.Deactivate(context, target.ID); err != nil {
		return fmt.Errorf("user_service_deactivate_failed: %w", err)
	}

	// Best-effort: the account is already inert, session cleanup just
	// shortens the window until each device notices.
	revoked, err := service.sessions.RevokeAllForUser(context, target.ID)
	if err != nil {
		revoked = 0
	}

	service.journal.Record(audit.Event{
		Kind:      audit.KindUserDeleted,
		UserID:    target.ID,
		TenantID:  target.TenantID,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		Details: map[string]any{
			"deletedBy":       input.ActorID,
			"revokedSessions": revoked,
		},
	})

	return nil
}
