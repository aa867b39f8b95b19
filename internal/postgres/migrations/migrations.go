// Package migrations holds the schema DDL and applies it idempotently.
package migrations

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id                   TEXT PRIMARY KEY,
		tenant_id            TEXT NOT NULL,
		intent               TEXT NOT NULL,
		issue                TEXT NOT NULL,
		urgency              TEXT NOT NULL,
		location             TEXT NOT NULL DEFAULT '',
		preferred_time       TEXT NOT NULL DEFAULT '',
		confidence           DOUBLE PRECISION NOT NULL,
		status               TEXT NOT NULL,
		customer_phone       TEXT NOT NULL,
		customer_name        TEXT NOT NULL DEFAULT '',
		transcript           TEXT NOT NULL,
		escalation_reason    TEXT NOT NULL DEFAULT '',
		assigned_to          TEXT,
		assigned_worker_name TEXT NOT NULL DEFAULT '',
		created_at           TIMESTAMPTZ NOT NULL,
		updated_at           TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_tenant_status ON tasks (tenant_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_unassigned ON tasks (status) WHERE assigned_to IS NULL`,

	`CREATE TABLE IF NOT EXISTS workers (
		id            TEXT PRIMARY KEY,
		tenant_id     TEXT NOT NULL,
		name          TEXT NOT NULL,
		phone         TEXT NOT NULL,
		skills        TEXT[] NOT NULL DEFAULT '{}',
		status        TEXT NOT NULL,
		current_tasks INTEGER NOT NULL DEFAULT 0,
		max_tasks     INTEGER NOT NULL,
		rating        DOUBLE PRECISION,
		total_jobs    INTEGER NOT NULL DEFAULT 0,
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL,
		CONSTRAINT workers_capacity CHECK (current_tasks >= 0 AND current_tasks <= max_tasks),
		CONSTRAINT workers_phone_per_tenant UNIQUE (tenant_id, phone)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_workers_tenant_status ON workers (tenant_id, status)`,

	`CREATE TABLE IF NOT EXISTS call_logs (
		id           TEXT PRIMARY KEY,
		tenant_id    TEXT NOT NULL,
		phone_number TEXT NOT NULL,
		transcript   TEXT NOT NULL,
		confidence   DOUBLE PRECISION NOT NULL,
		task_id      TEXT,
		success      BOOLEAN NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_call_logs_tenant ON call_logs (tenant_id)`,

	`CREATE TABLE IF NOT EXISTS failure_logs (
		id            TEXT PRIMARY KEY,
		tenant_id     TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL,
		phone_number  TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL
	)`,
}

// Apply runs all schema statements in order. Every statement is idempotent,
// so Apply is safe to run on every service start.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement %d: %w", i, err)
		}
	}
	return nil
}
