// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package user

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/aegis/internal/platform/middleware"
	requestutil "github.com/taibuivan/aegis/internal/platform/request"
	"github.com/taibuivan/aegis/internal/platform/respond"
	"github.com/taibuivan/aegis/internal/platform/validate"
	"github.com/taibuivan/aegis/pkg/pagination"
)

// # Definitions & Constructors

// Handler implements user-facing profile endpoints plus the admin removal.
type Handler struct {
	userService *Service
	guard       *middleware.Guard
}

// NewHandler constructs a new [Handler] with its dependencies.
func NewHandler(service *Service, guard *middleware.Guard) *Handler {
	return &Handler{userService: service, guard: guard}
}

// Routes returns a [chi.Router] with the authenticated profile surface.
//
// # Endpoints
//   - GET  /      : Lists the caller's tenant, paginated.
//   - GET  /me    : The caller's own profile.
//   - PATCH /me   : Self-service display name update.
//   - GET  /{id}  : A single user inside the caller's tenant.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(handler.guard.RequireAuth)

	router.Get("/", handler.list)
	router.Get("/me", handler.me)
	router.Patch("/me", handler.updateMe)
	router.Get("/{id}", handler.getByID)

	return router
}

// # Request Payloads

type updateProfileRequest struct {
	Name string `json:"name"`
}

/*
List returns one page of the caller's tenant members.

GET /api/users

Response:
  - 200: Paginated [User] list
  - 401: ErrUnauthorized: Missing bearer token
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)

	users, total, err := handler.userService.List(request.Context(), claims.TenantID, params.Size, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if users == nil {
		users = []*User{}
	}

	respond.Paginated(writer, users, pagination.NewMeta(params, total))
}

/*
Me returns the caller's own profile.

GET /api/users/me

Response:
  - 200: User
  - 401: ErrUnauthorized: Missing bearer token
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.userService.GetByID(request.Context(), claims.TenantID, claims.UserID())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
UpdateMe changes the caller's display name.

PATCH /api/users/me

Request:
  - Body: updateProfileRequest (Name)

Response:
  - 200: User: Profile after the change
  - 400: ErrValidation: Empty or oversized name
  - 401: ErrUnauthorized: Missing bearer token
*/
func (handler *Handler) updateMe(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateProfileRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).
		MaxLen(FieldName, input.Name, 100)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.userService.UpdateName(request.Context(), UpdateNameInput{
		UserID:    claims.UserID(),
		TenantID:  claims.TenantID,
		Name:      input.Name,
		IPAddress: middleware.RealIP(request),
		UserAgent: request.UserAgent(),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
GetByID returns one user from the caller's tenant.

GET /api/users/{id}

Response:
  - 200: User
  - 400: ErrValidation: Malformed id
  - 401: ErrUnauthorized: Missing bearer token
  - 404: ErrNotFound: Unknown id, including ids belonging to other tenants
*/
func (handler *Handler) getByID(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id := requestutil.ID(request, "id")

	validator := &validate.Validator{}
	validator.UUID(FieldUserID, id)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.userService.GetByID(request.Context(), claims.TenantID, id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
AdminDelete deactivates a user and revokes all of their sessions.

DELETE /api/admin/users/{id}

Description: Mounted by the server under the admin router, which already
enforces authentication and the ADMIN role.

Response:
  - 204: No Content: User deactivated
  - 400: ErrValidation: Malformed id
  - 404: ErrNotFound: Unknown id, including ids belonging to other tenants
*/
func (handler *Handler) AdminDelete(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id := requestutil.ID(request, "id")

	validator := &validate.Validator{}
	validator.UUID(FieldUserID, id)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.userService.Deactivate(request.Context(), DeactivateInput{
		TargetUserID:  id,
		ActorID:       claims.UserID(),
		ActorTenantID: claims.TenantID,
		IPAddress:     middleware.RealIP(request),
		UserAgent:     request.UserAgent(),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
