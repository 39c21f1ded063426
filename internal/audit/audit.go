// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package audit records the security event trail.

Every authentication-relevant action (logins, lockouts, token rotation,
administrative changes) produces an event. Events are accepted on the
request path but persisted by a background worker, so a slow or failing
database write can never add latency to the request that triggered it.

Architecture:

  - Journal: Bounded in-memory queue plus a single persistence worker.
    Best-effort durable: saturation drops the oldest queued event.
  - Repository: Postgres persistence and the filtered admin query.
  - Handler: Read-only admin endpoint over the stored trail.
*/
package audit

import "time"

// # Contracts

// Recorder is the write side of the journal. Services depend on this
// interface rather than the concrete [Journal] so tests can capture events.
type Recorder interface {
	// Record enqueues one event. It must return immediately and never fail.
	Record(event Event)
}

// # Domain Entities

// Event is what callers hand to the journal. Only Kind is mandatory;
// identity and transport fields are filled per call site.
type Event struct {
	Kind      Kind
	UserID    string
	TenantID  string
	IPAddress string
	UserAgent string
	Details   map[string]any
}

// Entry is a persisted audit row. The JSON shape is the admin API response.
type Entry struct {
	ID        string         `json:"id"`
	EventType Kind           `json:"eventType"`
	UserID    *string        `json:"userId,omitempty"`
	TenantID  *string        `json:"tenantId,omitempty"`
	IPAddress *string        `json:"ipAddress,omitempty"`
	UserAgent *string        `json:"userAgent,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// # Field Identifiers
// Stable field names shared by validation errors and query parameters.
const (
	FieldEventType = "eventType"
	FieldStartDate = "startDate"
	FieldEndDate   = "endDate"
	FieldSort      = "sort"
)
