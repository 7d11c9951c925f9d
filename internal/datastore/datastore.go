// Package datastore is the Postgres persistence layer for the registry:
// namespaces, api keys, packages, versions, and vetting jobs, plus the
// LISTEN/NOTIFY plumbing and advisory locks the worker pool coordinates
// through. Modeled on the teacher's registry/storage package in spirit
// (a narrow repository surface over a shared connection), adapted from
// blob storage to a relational schema since this domain is inherently
// transactional.
package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// DB wraps the shared connection pool used by both the admission service
// and the vetting worker.
type DB struct {
	sql *sql.DB
}

// Open connects to Postgres at dsn and applies the schema.
func Open(ctx context.Context, dsn string) (*DB, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("datastore: opening connection: %w", err)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("datastore: ping: %w", err)
	}

	db := &DB{sql: sqlDB}
	if err := db.migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the connection pool.
func (db *DB) Close() error {
	return db.sql.Close()
}

// SQL exposes the underlying *sql.DB for callers (e.g. the database health
// check) that need direct access.
func (db *DB) SQL() *sql.DB {
	return db.sql
}

func (db *DB) migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("datastore: applying schema: %w", err)
		}
	}
	return nil
}
