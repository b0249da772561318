// Package postgres owns the database handle and the schema for the postgres
// deployment. Tables mirror the ledger's record kinds; the uniqueness
// constraints are the relational form of the derived-storage-key collision
// check.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Open connects and verifies the database is reachable.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS market (
		singleton_key  TEXT PRIMARY KEY,
		fee_rate       BIGINT NOT NULL,
		tax_rate       BIGINT NOT NULL,
		item_count     BIGINT NOT NULL,
		proposal_count BIGINT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS memberships (
		member_id  UUID PRIMARY KEY,
		approved   BOOLEAN NOT NULL,
		joined_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		id          BIGINT PRIMARY KEY,
		seller_id   UUID NOT NULL,
		buyer_id    UUID,
		title       TEXT NOT NULL,
		description TEXT NOT NULL,
		price       BIGINT NOT NULL,
		tax         BIGINT NOT NULL,
		sold        BOOLEAN NOT NULL DEFAULT FALSE,
		listed_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS proposals (
		id          BIGINT PRIMARY KEY,
		owner_id    UUID NOT NULL,
		title       TEXT NOT NULL,
		description TEXT NOT NULL,
		amount      BIGINT NOT NULL,
		quorum      BIGINT NOT NULL,
		vote_yes    BIGINT NOT NULL DEFAULT 0,
		vote_no     BIGINT NOT NULL DEFAULT 0,
		approved    BOOLEAN NOT NULL DEFAULT FALSE,
		created_at  TIMESTAMPTZ NOT NULL,
		expires_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS votes (
		proposal_id BIGINT NOT NULL,
		voter_id    UUID NOT NULL,
		choice      BOOLEAN NOT NULL,
		cast_at     TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (proposal_id, voter_id)
	)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		account_id UUID PRIMARY KEY,
		balance    BIGINT NOT NULL CHECK (balance >= 0)
	)`,
}

// EnsureSchema creates all tables if missing. Idempotent; safe at startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
