package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// location and company are NOT NULL so that the unique index treats missing
// values as equal.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS listings (
		id          BIGSERIAL PRIMARY KEY,
		url         TEXT NOT NULL,
		title       TEXT NOT NULL,
		body        TEXT NOT NULL DEFAULT '',
		date_posted DATE NOT NULL,
		country     TEXT NOT NULL DEFAULT '',
		company     TEXT NOT NULL DEFAULT '',
		location    TEXT NOT NULL DEFAULT '',
		mode        TEXT NOT NULL DEFAULT 'unknown',
		logo        TEXT NOT NULL DEFAULT '',
		fields      TEXT[] NOT NULL DEFAULT '{}',
		provider    TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS listings_dedup_idx
		ON listings (title, location, date_posted, provider, company)`,
	`CREATE INDEX IF NOT EXISTS listings_date_posted_idx ON listings (date_posted)`,
}

// Migrate creates the listings schema if it does not exist yet.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate listings schema: %w", err)
		}
	}
	return nil
}
