// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"net/http"
	"strings"

	"github.com/taibuivan/aegis/internal/platform/apperr"
	"github.com/taibuivan/aegis/internal/platform/ctxutil"
	"github.com/taibuivan/aegis/internal/platform/respond"
	"github.com/taibuivan/aegis/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify tokens in middleware.
//
// # Why an interface?
//
// Defining TokenVerifier here decouples the middleware from the [sec] token
// service implementation, allowing us to easily inject mocks during unit testing.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*sec.AuthClaims, error)
}

// DenialObserver receives role-guard rejections so they can be recorded in
// the audit journal. Implementations must not block; denials are reported on
// the request path.
type DenialObserver interface {
	RecordDenial(userID, tenantID, path, ip, userAgent string)
}

// Guard bundles authentication and authorization middleware around one token
// verifier and an optional denial observer.
type Guard struct {
	verifier TokenVerifier
	denied   DenialObserver
}

// NewGuard creates a Guard. observer may be nil when denials need no audit trail.
func NewGuard(verifier TokenVerifier, observer DenialObserver) *Guard {
	return &Guard{verifier: verifier, denied: observer}
}

// Authenticate extracts and verifies the JWT from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous.
//  3. If present, parse and verify the JWT via [TokenVerifier].
//  4. Inject [*sec.AuthClaims] into the request context for downstream use.
func (guard *Guard) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		authHeader := request.Header.Get("Authorization")

		// ── 1. Anonymous Access ───────────────────────────────────────────
		if authHeader == "" {
			next.ServeHTTP(writer, request)
			return
		}

		// ── 2. Format Validation ──────────────────────────────────────────
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
			return
		}

		// ── 3. Token Verification ─────────────────────────────────────────
		tokenStr := parts[1]
		claims, err := guard.verifier.VerifyToken(tokenStr)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		// ── 4. Context Injection ──────────────────────────────────────────
		ctx := ctxutil.WithPrincipal(request.Context(), claims)
		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Guard.Authenticate].
//
// # Flow
//  1. Check if [*sec.AuthClaims] exists in context.
//  2. If missing, abort with HTTP 401 Unauthorized.
func (guard *Guard) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		claims := ctxutil.GetPrincipal(request.Context())
		if claims == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRole blocks requests if the authenticated principal doesn't have the
// required role.
//
// # Usage
//
// Must be registered in the router AFTER [Guard.Authenticate]. It automatically
// implies [Guard.RequireAuth] so you don't need to mount both.
//
// # Flow
//  1. Check if [*sec.AuthClaims] exists in context (implies AuthN).
//  2. Check if the principal's role meets or exceeds the required target role
//     using [sec.UserRole.AtLeast].
//  3. If insufficient, report the denial to the observer and abort with 403.
func (guard *Guard) RequireRole(role sec.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := ctxutil.GetPrincipal(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if claims == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			userRole := sec.UserRole(claims.Role)
			if !userRole.AtLeast(role) {
				if guard.denied != nil {
					guard.denied.RecordDenial(claims.UserID(), claims.TenantID, request.URL.Path, RealIP(request), request.UserAgent())
				}
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
