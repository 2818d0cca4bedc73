package history

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// CreateStele upserts stele by name. Idempotent via INSERT OR IGNORE on
// the natural key.
func CreateStele(ctx context.Context, tx *sqlx.Tx, name string) error {
	_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO stele (name) VALUES (?)`, name)
	return err
}

// CreatePublication upserts a publication row.
func CreatePublication(ctx context.Context, tx *sqlx.Tx, name, date, stele string, lastValidPublicationName, lastValidVersion *string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO publication (name, date, stele, revoked, last_valid_publication_name, last_valid_version)
		VALUES (?, ?, ?, 0, ?, ?)
	`, name, date, stele, lastValidPublicationName, lastValidVersion)
	return err
}

// CreatePublicationVersion upserts one publication_version row.
func CreatePublicationVersion(ctx context.Context, tx *sqlx.Tx, publication, version, stele string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO publication_version (publication, version, stele)
		VALUES (?, ?, ?)
	`, publication, version, stele)
	return err
}

// CreateDocument upserts a document row by its stable doc_id.
func CreateDocument(ctx context.Context, tx *sqlx.Tx, docID string) error {
	_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO document (doc_id) VALUES (?)`, docID)
	return err
}

// UpdatePublicationSetRevoked marks a publication revoked.
func UpdatePublicationSetRevoked(ctx context.Context, tx *sqlx.Tx, name, stele string) error {
	_, err := tx.ExecContext(ctx, `UPDATE publication SET revoked = 1 WHERE name = ? AND stele = ?`, name, stele)
	return err
}

// InsertDocumentChangesBulk inserts document_changes in batches of
// BatchSize, each batch its own INSERT OR IGNORE statement.
func InsertDocumentChangesBulk(ctx context.Context, tx *sqlx.Tx, changes []DocumentChange) error {
	return batched(changes, func(chunk []DocumentChange) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT OR IGNORE INTO document_change (doc_mpath, status, url, change_reason, publication, version, stele, doc_id)
			VALUES (:doc_mpath, :status, :url, :change_reason, :publication, :version, :stele, :doc_id)
		`, chunk)
		return err
	})
}

// InsertDocumentElementsBulk inserts document_element rows (the
// URL-to-document-mpath index) in batches of BatchSize.
func InsertDocumentElementsBulk(ctx context.Context, tx *sqlx.Tx, elements []DocumentElement) error {
	return batched(elements, func(chunk []DocumentElement) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT OR IGNORE INTO document_element (doc_mpath, url, doc_id, stele)
			VALUES (:doc_mpath, :url, :doc_id, :stele)
		`, chunk)
		return err
	})
}

// InsertLibraryBulk inserts library rows in batches of BatchSize.
func InsertLibraryBulk(ctx context.Context, tx *sqlx.Tx, libraries []Library) error {
	return batched(libraries, func(chunk []Library) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT OR IGNORE INTO library (mpath, url, stele)
			VALUES (:mpath, :url, :stele)
		`, chunk)
		return err
	})
}

// InsertLibraryChangesBulk inserts library_change rows in batches of
// BatchSize.
func InsertLibraryChangesBulk(ctx context.Context, tx *sqlx.Tx, changes []LibraryChange) error {
	return batched(changes, func(chunk []LibraryChange) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT OR IGNORE INTO library_change (library_mpath, publication, version, stele, status, url)
			VALUES (:library_mpath, :publication, :version, :stele, :status, :url)
		`, chunk)
		return err
	})
}

// InsertChangedLibraryDocumentBulk inserts changed_library_document rows
// in batches of BatchSize.
func InsertChangedLibraryDocumentBulk(ctx context.Context, tx *sqlx.Tx, rows []ChangedLibraryDocument) error {
	return batched(rows, func(chunk []ChangedLibraryDocument) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT OR IGNORE INTO changed_library_document (publication, version, stele, doc_mpath, status, library_mpath, url)
			VALUES (:publication, :version, :stele, :doc_mpath, :status, :library_mpath, :url)
		`, chunk)
		return err
	})
}

// InsertPublicationHasPublicationVersionsBulk inserts
// publication_has_publication_versions rows in batches of BatchSize.
func InsertPublicationHasPublicationVersionsBulk(ctx context.Context, tx *sqlx.Tx, rows []PublicationHasPublicationVersions) error {
	return batched(rows, func(chunk []PublicationHasPublicationVersions) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT OR IGNORE INTO publication_has_publication_versions (publication, referenced_publication, referenced_version, stele)
			VALUES (:publication, :referenced_publication, :referenced_version, :stele)
		`, chunk)
		return err
	})
}

func batched[T any](rows []T, insert func(chunk []T) error) error {
	for start := 0; start < len(rows); start += BatchSize {
		end := start + BatchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := insert(rows[start:end]); err != nil {
			return fmt.Errorf("inserting batch [%d:%d): %w", start, end, err)
		}
	}
	return nil
}
