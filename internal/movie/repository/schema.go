package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// The statements are valid for both PostgreSQL and SQLite. A country row
// with resolved = FALSE only satisfies the moviecountry foreign key; its
// flag has not been looked up yet.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS moviesearch (
        search_key    TEXT PRIMARY KEY,
        total_results INTEGER NOT NULL,
        results       TEXT NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS movie (
        imdb_id TEXT PRIMARY KEY,
        title   TEXT NOT NULL,
        year    INTEGER NOT NULL,
        country TEXT NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS country (
        country_name TEXT PRIMARY KEY,
        flag_url     TEXT,
        resolved     BOOLEAN NOT NULL DEFAULT FALSE
    )`,
	`CREATE TABLE IF NOT EXISTS moviecountry (
        imdb_id      TEXT NOT NULL REFERENCES movie(imdb_id),
        position     INTEGER NOT NULL,
        country_name TEXT NOT NULL REFERENCES country(country_name),
        PRIMARY KEY (imdb_id, position)
    )`,
}

// Migrate creates the cache tables when they are absent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
