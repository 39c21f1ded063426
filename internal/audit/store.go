// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit

import (
	"context"
	"time"
)

// # Repository Contracts

// Filter narrows the admin audit query. Zero values mean "no constraint".
type Filter struct {
	TenantID  string
	UserID    string
	EventType Kind
	StartDate *time.Time
	EndDate   *time.Time

	// Ascending flips the default newest-first ordering.
	Ascending bool
}

// Repository defines persistence operations for audit entries.
type Repository interface {
	/*
		Insert persists one audit entry.

		Parameters:
		  - context: context.Context
		  - entry: *Entry

		Returns:
		  - error: Storage errors (the journal logs and drops them)
	*/
	Insert(context context.Context, entry *Entry) error

	/*
		List returns one page of entries matching the filter plus the total count.

		Parameters:
		  - context: context.Context
		  - filter: Filter
		  - limit: int
		  - offset: int

		Returns:
		  - []*Entry: Page ordered by creation time (descending unless flipped)
		  - int: Total matching rows across all pages
		  - error: Storage errors
	*/
	List(context context.Context, filter Filter, limit, offset int) ([]*Entry, int, error)
}
