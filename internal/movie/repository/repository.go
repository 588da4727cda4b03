package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Options describes how to reach the durable store.
type Options struct {
	Driver string
	DSN    string
}

// SQLiteDSN enables foreign keys and WAL on every connection.
func SQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
}

// Open connects, tunes the pool and applies the schema.
func Open(ctx context.Context, opts Options) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, opts.Driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	switch opts.Driver {
	case DriverSQLite:
		// one writer at a time; transactions never share the pool
		db.SetMaxOpenConns(1)
	default:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
