package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Table and column names keep the inherited Czech schema: zustatek is the
// balance, studentsky the student-rate flag, termin_splatnosti the repayment
// due date. Each account table has its own id sequence, so an acc_id is only
// unique within its variant.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id  BIGSERIAL PRIMARY KEY,
		jmeno    TEXT NOT NULL,
		prijmeni TEXT NOT NULL,
		heslo    TEXT NOT NULL,
		role     TEXT NOT NULL CHECK (role IN ('Admin', 'User', 'Banker'))
	)`,
	`CREATE TABLE IF NOT EXISTS bezny_ucet (
		acc_id   BIGSERIAL PRIMARY KEY,
		user_id  BIGINT NOT NULL REFERENCES users(user_id),
		zustatek BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS sporici_ucet (
		acc_id     BIGSERIAL PRIMARY KEY,
		user_id    BIGINT NOT NULL REFERENCES users(user_id),
		zustatek   BIGINT NOT NULL DEFAULT 0,
		studentsky BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS kreditni_ucet (
		acc_id            BIGSERIAL PRIMARY KEY,
		user_id           BIGINT NOT NULL REFERENCES users(user_id),
		zustatek          BIGINT NOT NULL DEFAULT 0,
		termin_splatnosti TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id          TEXT PRIMARY KEY,
		user_id     BIGINT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
		token_hash  TEXT NOT NULL,
		expires_at  TIMESTAMPTZ NOT NULL,
		revoked_at  TIMESTAMPTZ,
		replaced_by TEXT,
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS accrual_runs (
		id           TEXT PRIMARY KEY,
		ran_at       TIMESTAMPTZ NOT NULL,
		rate_percent BIGINT NOT NULL,
		accounts     BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS bezny_ucet_user_idx ON bezny_ucet(user_id)`,
	`CREATE INDEX IF NOT EXISTS sporici_ucet_user_idx ON sporici_ucet(user_id)`,
	`CREATE INDEX IF NOT EXISTS kreditni_ucet_user_idx ON kreditni_ucet(user_id)`,
}

// EnsureSchema bootstraps the tables on startup, the way the original
// created its database from DDL scripts on first run.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
