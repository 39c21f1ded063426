// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/aegis/internal/platform/constants"
	"github.com/taibuivan/aegis/internal/platform/middleware"
	"github.com/taibuivan/aegis/internal/platform/ratelimit"
	requestutil "github.com/taibuivan/aegis/internal/platform/request"
	"github.com/taibuivan/aegis/internal/platform/respond"
	"github.com/taibuivan/aegis/internal/platform/validate"
)

// Stable field names used in validation errors.
const (
	FieldTenantName      = "tenantName"
	FieldTenantSlug      = "tenantSlug"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldUserName        = "userName"
	FieldRefreshToken    = "refreshToken"
	FieldCurrentPassword = "currentPassword"
	FieldNewPassword     = "newPassword"
	FieldNewSecret       = "newSecret"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages the session lifecycle entry points (registration,
// login, refresh, logout, password change) plus the signing-key admin action.
type Handler struct {
	authService *Service
	guard       *middleware.Guard
	limiter     *ratelimit.Limiter
}

// NewHandler constructs a new [Handler] with its dependencies.
func NewHandler(service *Service, guard *middleware.Guard, limiter *ratelimit.Limiter) *Handler {
	return &Handler{authService: service, guard: guard, limiter: limiter}
}

// Routes returns a [chi.Router] configured with authentication routes.
//
// # Endpoints
//   - POST /register        : Creates a tenant plus its founding admin.
//   - POST /login           : Authenticates and returns a token pair.
//   - POST /refresh         : Rotates a refresh token.
//   - POST /logout          : Revokes one refresh token.
//   - POST /logout-all      : Revokes every session of the caller.
//   - POST /change-password : Replaces the caller's password.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints. Login and registration sit behind their own strict
	// admission classes on top of the server-wide API limit.
	router.With(middleware.RateLimit(handler.limiter, ratelimit.ClassRegister)).
		Post("/register", handler.register)
	router.With(middleware.RateLimit(handler.limiter, ratelimit.ClassLogin)).
		Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(handler.guard.RequireAuth)
		r.Post("/logout", handler.logout)
		r.Post("/logout-all", handler.logoutAll)
		r.Post("/change-password", handler.changePassword)
	})

	return router
}

// AdminRoutes returns the security administration surface. The server mounts
// it under the admin router, which enforces the ADMIN role.
//
// # Endpoints
//   - POST /rotate-jwt-key : Installs new signing material.
func (handler *Handler) AdminRoutes() chi.Router {
	router := chi.NewRouter()
	router.Post("/rotate-jwt-key", handler.rotateKey)
	return router
}

// # Request Payloads

type registerRequest struct {
	TenantName string `json:"tenantName"`
	TenantSlug string `json:"tenantSlug"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	UserName   string `json:"userName"`
}

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	TenantSlug string `json:"tenantSlug"`
	Device     string `json:"device"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	RefreshToken    string `json:"refreshToken"`
}

type rotateKeyRequest struct {
	NewSecret string `json:"newSecret"`
}

/*
Register provisions a new tenant with its founding admin account.

POST /api/auth/register

Description: Validates input, creates the tenant and the ADMIN user, and
returns a ready-to-use token pair.

Request:
  - Body: registerRequest (TenantName, TenantSlug, Email, Password, UserName)

Response:
  - 201: Response: Token pair plus identity fields
  - 400: ErrValidation: Bad input
  - 409: ErrConflict: Tenant slug already taken
  - 429: ErrRateLimited: Registration admission exhausted
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldTenantName, input.TenantName).
		MaxLen(FieldTenantName, input.TenantName, 100).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8).
		Required(FieldUserName, input.UserName).
		MaxLen(FieldUserName, input.UserName, 100)

	// The slug is optional; when present it must already be URL-shaped.
	if input.TenantSlug != "" {
		validator.Slug(FieldTenantSlug, input.TenantSlug)
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	response, err := handler.authService.Register(request.Context(), RegisterInput{
		TenantName: input.TenantName,
		TenantSlug: input.TenantSlug,
		Email:      input.Email,
		Password:   input.Password,
		UserName:   input.UserName,
		IPAddress:  middleware.RealIP(request),
		UserAgent:  request.UserAgent(),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, response)
}

/*
Login authenticates a user inside one tenant.

POST /api/auth/login

Request:
  - Body: loginRequest (Email, Password, TenantSlug, Device?)

Response:
  - 200: Response: Token pair plus identity fields
  - 400: ErrValidation: Missing fields
  - 401: ErrInvalidCredentials / ErrAccountLocked
  - 429: ErrRateLimited: Login admission exhausted
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		Required(FieldTenantSlug, input.TenantSlug)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	response, err := handler.authService.Login(request.Context(), LoginInput{
		Email:      input.Email,
		Password:   input.Password,
		TenantSlug: input.TenantSlug,
		DeviceName: input.Device,
		IPAddress:  middleware.RealIP(request),
		UserAgent:  request.UserAgent(),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, response)
}

/*
Refresh rotates a refresh token into a fresh token pair.

POST /api/auth/refresh

Description: The presented token is consumed whether or not the exchange
succeeds. Reuse of an already-consumed token revokes every session of the
user and answers with a TOKEN_REUSE violation.

Request:
  - Body: refreshRequest (RefreshToken)

Response:
  - 200: Response: New token pair
  - 400: ErrValidation: Missing token
  - 401: ErrTokenInvalid / ErrTokenExpired / ErrTokenReuse / ErrAccountLocked
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.RefreshToken == "" {
		respond.Error(writer, request, validate.RequiredError(FieldRefreshToken, "is required"))
		return
	}

	response, err := handler.authService.Refresh(request.Context(), RefreshInput{
		RefreshToken: input.RefreshToken,
		IPAddress:    middleware.RealIP(request),
		UserAgent:    request.UserAgent(),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, response)
}

/*
Logout revokes a single refresh token.

POST /api/auth/logout

Request:
  - Body: logoutRequest (RefreshToken)

Response:
  - 200: Success: Session ended
  - 400: ErrValidation: Missing token
  - 401: ErrUnauthorized: Missing bearer token
  - 404: ErrNotFound: Token was never issued
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input logoutRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.RefreshToken == "" {
		respond.Error(writer, request, validate.RequiredError(FieldRefreshToken, "is required"))
		return
	}

	err = handler.authService.Logout(request.Context(), LogoutInput{
		RefreshToken: input.RefreshToken,
		UserID:       claims.UserID(),
		TenantID:     claims.TenantID,
		IPAddress:    middleware.RealIP(request),
		UserAgent:    request.UserAgent(),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		constants.FieldMessage: "Logged out successfully",
	})
}

/*
LogoutAll revokes every active session of the caller.

POST /api/auth/logout-all

Response:
  - 200: Success: `{revokedCount}` sessions ended
  - 401: ErrUnauthorized: Missing bearer token
*/
func (handler *Handler) logoutAll(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	count, err := handler.authService.LogoutAll(request.Context(), LogoutAllInput{
		UserID:    claims.UserID(),
		TenantID:  claims.TenantID,
		IPAddress: middleware.RealIP(request),
		UserAgent: request.UserAgent(),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		"revokedCount": count,
	})
}

/*
ChangePassword replaces the caller's password.

POST /api/auth/change-password

Description: Verifies the current password first. Every other session is
revoked; passing the caller's own refresh token keeps that one alive.

Request:
  - Body: changePasswordRequest (CurrentPassword, NewPassword, RefreshToken?)

Response:
  - 200: Success: Password changed
  - 400: ErrValidation: Weak new password
  - 401: ErrUnauthorized: Wrong current password or missing bearer token
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldCurrentPassword, input.CurrentPassword).
		Required(FieldNewPassword, input.NewPassword).
		MinLen(FieldNewPassword, input.NewPassword, 8)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.authService.ChangePassword(request.Context(), ChangePasswordInput{
		UserID:          claims.UserID(),
		TenantID:        claims.TenantID,
		CurrentPassword: input.CurrentPassword,
		NewPassword:     input.NewPassword,
		RefreshToken:    input.RefreshToken,
		IPAddress:       middleware.RealIP(request),
		UserAgent:       request.UserAgent(),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		constants.FieldMessage: "Password changed successfully",
	})
}

/*
RotateKey installs new JWT signing material.

POST /api/admin/security/rotate-jwt-key

Description: Outstanding tokens signed by the previous key keep verifying
for the configured grace window.

Request:
  - Body: rotateKeyRequest (NewSecret, minimum 32 bytes)

Response:
  - 200: Success: Key rotated
  - 400: ErrInvalidKey: Material shorter than 32 bytes
*/
func (handler *Handler) rotateKey(writer http.ResponseWriter, request *http.Request) {
	var input rotateKeyRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.NewSecret == "" {
		respond.Error(writer, request, validate.RequiredError(FieldNewSecret, "is required"))
		return
	}

	if err := handler.authService.RotateSigningKey(input.NewSecret); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		constants.FieldMessage: "Signing key rotated successfully",
	})
}
