// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/aegis/internal/platform/respond"
	"github.com/taibuivan/aegis/internal/platform/validate"
	"github.com/taibuivan/aegis/pkg/pagination"
	"github.com/taibuivan/aegis/pkg/slice"
)

// # Definitions & Constructors

// Handler exposes the read-only admin surface over the audit trail.
type Handler struct {
	repository Repository
}

// NewHandler constructs a new [Handler] with its repository dependency.
func NewHandler(repository Repository) *Handler {
	return &Handler{repository: repository}
}

// AdminRoutes returns the router mounted under the admin audit prefix.
// Role enforcement happens on the parent admin router.
func (handler *Handler) AdminRoutes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.list)
	return router
}

/*
List returns a filtered page of the audit trail.

GET /api/admin/audit-logs

Description: Every filter is optional; unfiltered queries page over the
whole trail newest-first. Date bounds accept RFC 3339 timestamps or plain
dates.

Request:
  - Query: tenantId?, userId?, eventType?, startDate?, endDate?, page, size, sort

Response:
  - 200: Paginated [Entry] list
  - 400: ErrValidation: Unknown event type, malformed date, or bad sort
  - 401/403: Authentication or role failure (enforced upstream)
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query()
	params := pagination.FromRequest(request)

	filter := Filter{
		TenantID: query.Get("tenantId"),
		UserID:   query.Get("userId"),
	}

	validator := &validate.Validator{}

	if raw := query.Get(FieldEventType); raw != "" {
		kinds := slice.Map(Kinds(), func(kind Kind) string { return string(kind) })
		validator.OneOf(FieldEventType, raw, kinds...)
		filter.EventType = Kind(raw)
	}

	if raw := query.Get(FieldStartDate); raw != "" {
		parsed, err := parseTime(raw)
		validator.Custom(FieldStartDate, err != nil, "Must be an RFC 3339 timestamp or YYYY-MM-DD date")
		filter.StartDate = parsed
	}

	if raw := query.Get(FieldEndDate); raw != "" {
		parsed, err := parseTime(raw)
		validator.Custom(FieldEndDate, err != nil, "Must be an RFC 3339 timestamp or YYYY-MM-DD date")
		filter.EndDate = parsed
	}

	if raw := query.Get(FieldSort); raw != "" {
		direction := strings.ToLower(raw)
		validator.OneOf(FieldSort, direction, "asc", "desc")
		filter.Ascending = direction == "asc"
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	entries, total, err := handler.repository.List(request.Context(), filter, params.Size, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if entries == nil {
		entries = []*Entry{}
	}

	respond.Paginated(writer, entries, pagination.NewMeta(params, total))
}

// parseTime accepts RFC 3339 or a bare date. Bare dates resolve to midnight UTC.
func parseTime(raw string) (*time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return &parsed, nil
	}

	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
