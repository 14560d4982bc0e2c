// Package migrations bootstraps the database schema. Statements are
// idempotent so Apply can run on every startup.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS countries (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		capital TEXT,
		region TEXT,
		population BIGINT NOT NULL,
		currency_code TEXT,
		exchange_rate DOUBLE PRECISION,
		estimated_gdp DOUBLE PRECISION,
		flag_url TEXT,
		last_refreshed_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS countries_name_lower_idx ON countries (LOWER(name))`,
	`CREATE TABLE IF NOT EXISTS refresh_metadata (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		last_refreshed_at TIMESTAMPTZ NOT NULL,
		total_countries INTEGER NOT NULL
	)`,
}

// Apply executes all schema statements in order.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
