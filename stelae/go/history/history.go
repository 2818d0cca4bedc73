// Package history implements C9: the SQLite-backed history store that
// records every document and collection change across publications, and
// answers the version-resolution queries the versions endpoint (C8)
// needs.
package history

import (
	"context"

	"github.com/jmoiron/sqlx"

	gosql "github.com/openlawlibrary/stelae-sub000/go/sql"
)

// BatchSize bounds how many rows a single INSERT OR IGNORE statement
// carries (spec §4.9).
const BatchSize = 1000

// Store is a handle to the history database. SQLite is normative; the
// underlying gosql.DB also accepts a postgres:// DSN for the documented
// Postgres portability path, though only the SQLite dialect is
// implemented: the write queries use INSERT OR IGNORE, and the read
// queries outside selectIn pass "?" placeholders without rebinding.
type Store struct {
	db *gosql.DB
}

// Open connects to dsn and bootstraps the schema if it is not already
// present.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := gosql.Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Bootstrap(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// WithTx runs fn inside a transaction, used by the ingestion job to make
// a bulk load atomic (spec §5: "reads never observe a partial bulk
// insert").
func (s *Store) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return s.db.WithTx(ctx, fn)
}
