package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are applied in order and must stay idempotent; there is no
// down path. New schema changes append statements here.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS branches (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		city TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		national_id TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		branch_id UUID REFERENCES branches(id),
		password_hash TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS members (
		id UUID PRIMARY KEY,
		full_name TEXT NOT NULL DEFAULT '',
		national_id TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		disability_type TEXT NOT NULL DEFAULT '',
		employment_status TEXT NOT NULL DEFAULT '',
		preferred_branch_id UUID REFERENCES branches(id),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_members_national_id
		ON members (national_id) WHERE national_id <> ''`,
	`CREATE TABLE IF NOT EXISTS registrations (
		id UUID PRIMARY KEY,
		member_id UUID NOT NULL REFERENCES members(id),
		branch_id UUID REFERENCES branches(id),
		status TEXT NOT NULL,
		full_name TEXT NOT NULL DEFAULT '',
		national_id TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		disability_type TEXT NOT NULL DEFAULT '',
		employment_status TEXT NOT NULL DEFAULT '',
		employee_notes TEXT NOT NULL DEFAULT '',
		manager_notes TEXT NOT NULL DEFAULT '',
		rejection_reason TEXT NOT NULL DEFAULT '',
		employee_review_date TIMESTAMPTZ,
		manager_review_date TIMESTAMPTZ,
		employee_reviewer_id UUID,
		employee_reviewer_name TEXT NOT NULL DEFAULT '',
		manager_reviewer_id UUID,
		manager_reviewer_name TEXT NOT NULL DEFAULT '',
		assigned_to UUID,
		assigned_by UUID,
		assigned_date TIMESTAMPTZ,
		profile_completion INT NOT NULL DEFAULT 0,
		submitted_at TIMESTAMPTZ,
		version BIGINT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_registrations_branch_status
		ON registrations (branch_id, status)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_registrations_member_open
		ON registrations (member_id) WHERE status NOT IN ('approved', 'rejected')`,
	`CREATE INDEX IF NOT EXISTS idx_registrations_assigned_to
		ON registrations (assigned_to)`,
	`CREATE TABLE IF NOT EXISTS audit_outbox (
		id UUID PRIMARY KEY,
		action TEXT NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		published_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_outbox_unpublished
		ON audit_outbox (created_at) WHERE published_at IS NULL`,
}

// Migrate applies the schema. Safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
