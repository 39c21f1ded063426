// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/aegis/internal/platform/database/schema"
	"github.com/taibuivan/aegis/internal/platform/dberr"
)

// # PostgreSQL Repository

// PostgresRepository implements the [Repository] interface using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed audit store.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

/*
Insert persists one audit entry into system.auditlog.

Description: Details are serialized to JSONB. Empty identity fields are
stored as NULL so that filters distinguish "absent" from "empty".

Parameters:
  - context: context.Context
  - entry: *Entry

Returns:
  - error: Database execution errors
*/
func (repository *PostgresRepository) Insert(context context.Context, entry *Entry) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		schema.SystemAuditLog.Table,
		schema.SystemAuditLog.ID, schema.SystemAuditLog.EventType,
		schema.SystemAuditLog.UserID, schema.SystemAuditLog.TenantID,
		schema.SystemAuditLog.IPAddress, schema.SystemAuditLog.UserAgent,
		schema.SystemAuditLog.Details, schema.SystemAuditLog.CreatedAt,
	)

	var details []byte
	if len(entry.Details) > 0 {
		payload, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("postgres_audit_details_marshal_failed: %w", err)
		}
		details = payload
	}

	_, err := repository.pool.Exec(context, query,
		entry.ID,
		entry.EventType,
		entry.UserID,
		entry.TenantID,
		entry.IPAddress,
		entry.UserAgent,
		details,
		entry.CreatedAt,
	)
	return dberr.Wrap(err, "insert_audit_entry")
}

/*
List returns a filtered, paginated slice of audit entries and the total count.

Description: Builds the WHERE clause dynamically from the populated filter
fields and uses COUNT(*) OVER() so the page and its total come back in a
single round trip.

Parameters:
  - context: context.Context
  - filter: Filter (tenant, user, kind, time range, sort direction)
  - limit: int
  - offset: int

Returns:
  - []*Entry: Slice of hydrated entries
  - int: Total count matching filters
  - error: Database execution errors
*/
func (repository *PostgresRepository) List(context context.Context, filter Filter, limit, offset int) ([]*Entry, int, error) {

	// Query build initialization
	var queryBuilder strings.Builder
	var args []any
	argID := 1

	queryBuilder.WriteString(fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s,
			COUNT(*) OVER() AS total_count
		FROM %s
		WHERE TRUE
	`,
		schema.SystemAuditLog.ID, schema.SystemAuditLog.EventType,
		schema.SystemAuditLog.UserID, schema.SystemAuditLog.TenantID,
		schema.SystemAuditLog.IPAddress, schema.SystemAuditLog.UserAgent,
		schema.SystemAuditLog.Details, schema.SystemAuditLog.CreatedAt,
		schema.SystemAuditLog.Table,
	))

	// Apply Filters (Dynamic WHERE clause construction)
	if filter.TenantID != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND %s = $%d", schema.SystemAuditLog.TenantID, argID))
		args = append(args, filter.TenantID)
		argID++
	}

	if filter.UserID != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND %s = $%d", schema.SystemAuditLog.UserID, argID))
		args = append(args, filter.UserID)
		argID++
	}

	if filter.EventType != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND %s = $%d", schema.SystemAuditLog.EventType, argID))
		args = append(args, filter.EventType)
		argID++
	}

	if filter.StartDate != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND %s >= $%d", schema.SystemAuditLog.CreatedAt, argID))
		args = append(args, *filter.StartDate)
		argID++
	}

	if filter.EndDate != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND %s <= $%d", schema.SystemAuditLog.CreatedAt, argID))
		args = append(args, *filter.EndDate)
		argID++
	}

	// Ordering and pagination. Newest first unless the caller flipped it.
	direction := "DESC"
	if filter.Ascending {
		direction = "ASC"
	}
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY %s %s", schema.SystemAuditLog.CreatedAt, direction))
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, limit, offset)

	rows, err := repository.pool.Query(context, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_audit_entries")
	}
	defer rows.Close()

	var entries []*Entry
	var total int

	for rows.Next() {
		entry := &Entry{}
		var details []byte

		err := rows.Scan(
			&entry.ID,
			&entry.EventType,
			&entry.UserID,
			&entry.TenantID,
			&entry.IPAddress,
			&entry.UserAgent,
			&details,
			&entry.CreatedAt,
			&total,
		)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_audit_entry")
		}

		if len(details) > 0 {
			if err := json.Unmarshal(details, &entry.Details); err != nil {
				return nil, 0, fmt.Errorf("postgres_audit_details_unmarshal_failed: %w", err)
			}
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "iterate_audit_entries")
	}

	return entries, total, nil
}
