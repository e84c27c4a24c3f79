package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS proposals (
		id                          TEXT PRIMARY KEY,
		number                      TEXT NOT NULL UNIQUE,
		title                       TEXT NOT NULL DEFAULT '',
		client_name                 TEXT NOT NULL DEFAULT '',
		line_items                  TEXT NOT NULL DEFAULT '[]',
		general_conditions_pct      TEXT NOT NULL DEFAULT '',
		supervision_type            TEXT NOT NULL DEFAULT 'none'
		                            CHECK(supervision_type IN ('none','part_time','full_time')),
		supervision_weeks           TEXT NOT NULL DEFAULT '0',
		discount                    TEXT NOT NULL DEFAULT '0',
		total_cost                  TEXT NOT NULL DEFAULT '0',
		management_approval         TEXT NOT NULL DEFAULT 'pending'
		                            CHECK(management_approval IN ('pending','approved','rejected')),
		client_approval             TEXT NOT NULL DEFAULT ''
		                            CHECK(client_approval IN ('','pending','approved','rejected','request_changes')),
		management_rejection_reason TEXT NOT NULL DEFAULT '',
		client_rejection_reason     TEXT NOT NULL DEFAULT '',
		client_change_request       TEXT NOT NULL DEFAULT '',
		sent_for_approval           TEXT,
		management_decision         TEXT,
		client_decision             TEXT,
		returned_for_review         TEXT,
		created_by                  TEXT NOT NULL DEFAULT '',
		created_at                  TEXT NOT NULL,
		updated_at                  TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS invoices (
		id          TEXT PRIMARY KEY,
		number      TEXT NOT NULL UNIQUE,
		proposal_id TEXT NOT NULL UNIQUE REFERENCES proposals(id),
		client_name TEXT NOT NULL DEFAULT '',
		line_items  TEXT NOT NULL DEFAULT '[]',
		supervision TEXT NOT NULL DEFAULT '{}',
		costs       TEXT NOT NULL DEFAULT '{}',
		status      TEXT NOT NULL DEFAULT 'pending'
		            CHECK(status IN ('pending','partial_paid','paid','overdue','cancelled')),
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS projects (
		id                  TEXT PRIMARY KEY,
		number              TEXT NOT NULL UNIQUE,
		name                TEXT NOT NULL,
		proposal_id         TEXT NOT NULL DEFAULT '',
		invoice_id          TEXT NOT NULL DEFAULT '',
		progress_percentage INTEGER NOT NULL DEFAULT 0
		                    CHECK(progress_percentage BETWEEN 0 AND 100),
		total_budget        TEXT NOT NULL DEFAULT '0',
		status              TEXT NOT NULL DEFAULT 'active'
		                    CHECK(status IN ('active','completed')),
		completed_at        TEXT,
		created_by          TEXT NOT NULL DEFAULT '',
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_projects_proposal ON projects(proposal_id)`,

	`CREATE TABLE IF NOT EXISTS change_orders (
		id                TEXT PRIMARY KEY,
		number            TEXT NOT NULL UNIQUE,
		project_id        TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		title             TEXT NOT NULL,
		status            TEXT NOT NULL DEFAULT 'pending'
		                  CHECK(status IN ('pending','approved','rejected')),
		completion_status TEXT NOT NULL DEFAULT 'pending'
		                  CHECK(completion_status IN ('pending','in_progress','finished')),
		rejection_reason  TEXT NOT NULL DEFAULT '',
		decision          TEXT,
		created_by        TEXT NOT NULL DEFAULT '',
		created_at        TEXT NOT NULL,
		updated_at        TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_change_orders_project ON change_orders(project_id)`,

	`CREATE TABLE IF NOT EXISTS steps (
		id              TEXT PRIMARY KEY,
		owner_kind      TEXT NOT NULL CHECK(owner_kind IN ('project','change_order')),
		owner_id        TEXT NOT NULL,
		parent_id       TEXT REFERENCES steps(id) ON DELETE CASCADE,
		name            TEXT NOT NULL,
		description     TEXT NOT NULL DEFAULT '',
		status          TEXT NOT NULL DEFAULT 'pending'
		                CHECK(status IN ('pending','in_progress','finished')),
		price           TEXT NOT NULL DEFAULT '0',
		order_index     INTEGER NOT NULL DEFAULT 0,
		manual_override INTEGER NOT NULL DEFAULT 0,
		created_by      TEXT NOT NULL DEFAULT '',
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_steps_owner ON steps(owner_kind, owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_steps_parent ON steps(parent_id)`,

	`CREATE TABLE IF NOT EXISTS document_sequences (
		kind     TEXT PRIMARY KEY,
		next_seq INTEGER NOT NULL CHECK(next_seq > 0)
	)`,

	// Client-facing budget may differ from the internal total.
	`ALTER TABLE projects ADD COLUMN client_budget TEXT`,

	// Priced breakdown copied verbatim into the invoice.
	`ALTER TABLE proposals ADD COLUMN costs TEXT NOT NULL DEFAULT '{}'`,
}
