// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package lockout

import (
	"net/http"

	"github.com/taibuivan/aegis/internal/platform/constants"
	"github.com/taibuivan/aegis/internal/platform/middleware"
	requestutil "github.com/taibuivan/aegis/internal/platform/request"
	"github.com/taibuivan/aegis/internal/platform/respond"
	"github.com/taibuivan/aegis/internal/platform/validate"
)

// FieldUserID names the path parameter in validation errors.
const FieldUserID = "userId"

// # Definitions & Constructors

// Handler implements the admin lockout endpoints. Both are mounted by the
// server under the admin router, which already enforces authentication and
// the ADMIN role.
type Handler struct {
	lockoutService *Service
}

// NewHandler constructs a new [Handler] with its dependencies.
func NewHandler(service *Service) *Handler {
	return &Handler{lockoutService: service}
}

// # Endpoints

/*
Status returns a user's current lockout state.

GET /api/admin/users/{id}/lockout-status

Response:
  - 200: Info: Lock flag, counter, and remaining minutes or attempts
  - 400: ErrValidation: Malformed id
  - 404: ErrNotFound: Unknown user
*/
func (handler *Handler) Status(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	validator := &validate.Validator{}
	validator.UUID(FieldUserID, id)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	info, err := handler.lockoutService.Status(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, info)
}

/*
Unlock clears a user's lockout on admin request.

POST /api/admin/users/{id}/unlock

Response:
  - 200: Success: Account unlocked
  - 400: ErrValidation: Malformed id
  - 404: ErrNotFound: Unknown user
*/
func (handler *Handler) Unlock(writer http.ResponseWriter, request *http.Request) {
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

	err = handler.lockoutService.Unlock(request.Context(), UnlockInput{
		UserID:    id,
		ActorID:   claims.UserID(),
		IPAddress: middleware.RealIP(request),
		UserAgent: request.UserAgent(),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		constants.FieldMessage: "Account unlocked successfully",
	})
}
