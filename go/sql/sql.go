// Package sql wraps sqlx with the connection setup and transaction
// boilerplate every SQL-backed store in this module shares.
package sql

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	_ "github.com/lib/pq"        // postgres driver, registered for DATABASE_URL=postgres://...
	_ "modernc.org/sqlite"       // sqlite driver, registered for DATABASE_URL=sqlite:// or a bare path
)

// DB wraps an *sqlx.DB with the driver name it was opened under, since
// sqlx needs it again to rebind "?"-style queries to a driver's native
// placeholder syntax.
type DB struct {
	*sqlx.DB
	driverName string
}

// Open connects to dsn, picking the driver from its scheme: a
// "postgres://" or "postgresql://" URL selects lib/pq; anything else
// (a bare filesystem path, by convention) selects modernc.org/sqlite.
func Open(dsn string) (*DB, error) {
	driverName := "sqlite"
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driverName = "postgres"
	}

	conn, err := sqlx.Connect(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return &DB{DB: conn, driverName: driverName}, nil
}

// DriverName reports which driver Open selected for dsn.
func (db *DB) DriverName() string {
	return db.driverName
}

// Rebind rewrites a query's "?" placeholders into this connection's
// driver's placeholder syntax.
func (db *DB) Rebind(query string) string {
	return db.DB.Rebind(query)
}

// Bootstrap executes schema, a sequence of semicolon-separated DDL
// statements, against the connection. Every statement is expected to be
// idempotent (CREATE TABLE IF NOT EXISTS, CREATE INDEX IF NOT EXISTS),
// since Bootstrap runs on every startup.
func (db *DB) Bootstrap(ctx context.Context, schema string) error {
	_, err := db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("bootstrapping schema: %w", err)
	}
	return nil
}

// WithTx runs fn inside a transaction, committing on a nil return and
// rolling back otherwise (including on panic, which it re-raises after
// rolling back).
func (db *DB) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}
