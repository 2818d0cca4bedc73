package history

import "database/sql"

// Publication is a row of the publication table: a named, dated release
// of a Stele's content, optionally revoked and optionally chained to a
// last-valid predecessor once revoked.
type Publication struct {
	ID                        int64          `db:"id"`
	Name                      string         `db:"name"`
	Date                      string         `db:"date"`
	Stele                     string         `db:"stele"`
	Revoked                   bool           `db:"revoked"`
	LastValidPublicationName  sql.NullString `db:"last_valid_publication_name"`
	LastValidVersion          sql.NullString `db:"last_valid_version"`
}

// Version is a single codified date a document or collection changed on.
type Version struct {
	CodifiedDate string `db:"codified_date"`
}

// DocumentChange records one document's change at one publication
// version: what happened (Status), at what path (DocMpath), and under
// which publication/version/stele it was observed.
type DocumentChange struct {
	DocMpath     string         `db:"doc_mpath"`
	Status       string         `db:"status"`
	URL          string         `db:"url"`
	ChangeReason sql.NullString `db:"change_reason"`
	Publication  string         `db:"publication"`
	Version      string         `db:"version"`
	Stele        string         `db:"stele"`
	DocID        string         `db:"doc_id"`
}

// DocumentElement maps a served URL to the document materialized path it
// resolves to, within one Stele.
type DocumentElement struct {
	DocMpath string `db:"doc_mpath"`
	URL      string `db:"url"`
	DocID    string `db:"doc_id"`
	Stele    string `db:"stele"`
}

// Library maps a served URL to a collection's materialized path.
type Library struct {
	Mpath string `db:"mpath"`
	URL   string `db:"url"`
	Stele string `db:"stele"`
}

// LibraryChange records one collection's change at one publication
// version.
type LibraryChange struct {
	LibraryMpath string `db:"library_mpath"`
	Publication  string `db:"publication"`
	Version      string `db:"version"`
	Stele        string `db:"stele"`
	Status       string `db:"status"`
	URL          string `db:"url"`
}

// ChangedLibraryDocument records that a document within a collection
// changed as part of a collection-level change.
type ChangedLibraryDocument struct {
	Publication  string `db:"publication"`
	Version      string `db:"version"`
	Stele        string `db:"stele"`
	DocMpath     string `db:"doc_mpath"`
	Status       string `db:"status"`
	LibraryMpath string `db:"library_mpath"`
	URL          string `db:"url"`
}

// PublicationHasPublicationVersions records that publication inherits
// referencedVersion of referencedPublication, within one Stele.
type PublicationHasPublicationVersions struct {
	Publication           string `db:"publication"`
	ReferencedPublication string `db:"referenced_publication"`
	ReferencedVersion     string `db:"referenced_version"`
	Stele                 string `db:"stele"`
}
