package history

// Status values recorded against a document_change/library_change row.
// The ingestion job assigns these; the read queries filter on them to
// locate the commit at which an element was added or became effective.
const (
	StatusElementChanged     = "ELEMENT_CHANGED"
	StatusSubelementsChanged = "SUBELEMENTS_CHANGED"
	StatusElementAdded       = "ELEMENT_ADDED"
	StatusElementRemoved     = "ELEMENT_REMOVED"
	StatusElementEffective   = "ELEMENT_EFFECTIVE"
)

// schemaSQL bootstraps the natural-key tables the ingestion job populates
// and the versions endpoint (C8) reads. Every statement is idempotent so
// Bootstrap can run on every process start.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS stele (
	name TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS publication (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	date TEXT NOT NULL,
	stele TEXT NOT NULL,
	revoked INTEGER NOT NULL DEFAULT 0,
	last_valid_publication_name TEXT,
	last_valid_version TEXT,
	UNIQUE(name, stele)
);
CREATE INDEX IF NOT EXISTS publication__stele__revoked ON publication(stele, revoked);

CREATE TABLE IF NOT EXISTS publication_version (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	publication TEXT NOT NULL,
	version TEXT NOT NULL,
	stele TEXT NOT NULL,
	UNIQUE(publication, version, stele)
);

CREATE TABLE IF NOT EXISTS document (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	doc_id TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS document_change (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	doc_mpath TEXT NOT NULL,
	status TEXT NOT NULL,
	url TEXT NOT NULL,
	change_reason TEXT,
	publication TEXT NOT NULL,
	version TEXT NOT NULL,
	stele TEXT NOT NULL,
	doc_id TEXT NOT NULL,
	UNIQUE(doc_mpath, publication, version, stele)
);
CREATE INDEX IF NOT EXISTS document_change__doc_mpath ON document_change(doc_mpath);
CREATE INDEX IF NOT EXISTS document_change__publication ON document_change(publication, version);

CREATE TABLE IF NOT EXISTS document_element (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	doc_mpath TEXT NOT NULL,
	url TEXT NOT NULL,
	doc_id TEXT NOT NULL,
	stele TEXT NOT NULL,
	UNIQUE(url, stele)
);

CREATE TABLE IF NOT EXISTS library (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	mpath TEXT NOT NULL,
	url TEXT NOT NULL,
	stele TEXT NOT NULL,
	UNIQUE(url, stele)
);

CREATE TABLE IF NOT EXISTS library_change (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	library_mpath TEXT NOT NULL,
	publication TEXT NOT NULL,
	version TEXT NOT NULL,
	stele TEXT NOT NULL,
	status TEXT NOT NULL,
	url TEXT NOT NULL,
	UNIQUE(library_mpath, publication, version, stele)
);
CREATE INDEX IF NOT EXISTS library_change__library_mpath ON library_change(library_mpath);

CREATE TABLE IF NOT EXISTS changed_library_document (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	publication TEXT NOT NULL,
	version TEXT NOT NULL,
	stele TEXT NOT NULL,
	doc_mpath TEXT NOT NULL,
	status TEXT NOT NULL,
	library_mpath TEXT NOT NULL,
	url TEXT NOT NULL,
	UNIQUE(publication, version, stele, doc_mpath, library_mpath)
);

CREATE TABLE IF NOT EXISTS publication_has_publication_versions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	publication TEXT NOT NULL,
	referenced_publication TEXT NOT NULL,
	referenced_version TEXT NOT NULL,
	stele TEXT NOT NULL,
	UNIQUE(publication, referenced_publication, referenced_version, stele)
);
CREATE INDEX IF NOT EXISTS phpv__publication ON publication_has_publication_versions(publication, stele);
`
