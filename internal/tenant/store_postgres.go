// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tenant

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/aegis/internal/platform/database/schema"
	"github.com/taibuivan/aegis/internal/platform/dberr"
)

// PostgresRepository implements [Repository] on top of the auth.tenant table.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates the Postgres-backed tenant repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (repository *PostgresRepository) Create(context context.Context, tenant *Tenant) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5)
	`,
		schema.AuthTenant.Table, schema.AuthTenant.ID, schema.AuthTenant.Name,
		schema.AuthTenant.Slug, schema.AuthTenant.IsActive, schema.AuthTenant.CreatedAt,
	)

	if tenant.CreatedAt.IsZero() {
		tenant.CreatedAt = time.Now()
	}

	_, err := repository.db.Exec(context, query,
		tenant.ID, tenant.Name, tenant.Slug, tenant.IsActive, tenant.CreatedAt,
	)
	return dberr.Wrap(err, "create_tenant")
}

func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Tenant, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1
	`,
		schema.AuthTenant.ID, schema.AuthTenant.Name, schema.AuthTenant.Slug,
		schema.AuthTenant.IsActive, schema.AuthTenant.CreatedAt,
		schema.AuthTenant.Table, schema.AuthTenant.ID,
	)

	t := &Tenant{}
	err := repository.db.QueryRow(context, query, id).Scan(
		&t.ID, &t.Name, &t.Slug, &t.IsActive, &t.CreatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "find_tenant_by_id")
	}

	return t, nil
}

func (repository *PostgresRepository) FindBySlug(context context.Context, slug string) (*Tenant, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1
	`,
		schema.AuthTenant.ID, schema.AuthTenant.Name, schema.AuthTenant.Slug,
		schema.AuthTenant.IsActive, schema.AuthTenant.CreatedAt,
		schema.AuthTenant.Table, schema.AuthTenant.Slug,
	)

	t := &Tenant{}
	err := repository.db.QueryRow(context, query, slug).Scan(
		&t.ID, &t.Name, &t.Slug, &t.IsActive, &t.CreatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "find_tenant_by_slug")
	}

	return t, nil
}
