package history

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

// FindAllNonRevokedPublications returns stele's publications, newest
// name first (spec §4.8 step 2).
func (s *Store) FindAllNonRevokedPublications(ctx context.Context, stele string) ([]Publication, error) {
	var rows []Publication
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, name, date, stele, revoked, last_valid_publication_name, last_valid_version
		FROM publication
		WHERE revoked = 0 AND stele = ?
		ORDER BY name DESC
	`, stele)
	return rows, err
}

// FindDocMpathByURL resolves url to the document materialized path it
// serves, within stele. The second return is false when no document
// claims that URL.
func (s *Store) FindDocMpathByURL(ctx context.Context, url, stele string) (string, bool, error) {
	var mpath string
	err := s.db.GetContext(ctx, &mpath, `
		SELECT doc_mpath FROM document_element WHERE url = ? AND stele = ? LIMIT 1
	`, url, stele)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return mpath, true, nil
}

// FindLibMpathByURL resolves url to the collection materialized path it
// serves, within stele.
func (s *Store) FindLibMpathByURL(ctx context.Context, url, stele string) (string, bool, error) {
	var mpath string
	err := s.db.GetContext(ctx, &mpath, `
		SELECT mpath FROM library WHERE url = ? AND stele = ? LIMIT 1
	`, url, stele)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return mpath, true, nil
}

// FindAllRecursiveForPublication breadth-first walks
// publication_has_publication_versions starting at (publication, stele),
// accumulating every transitively-referenced publication name until no
// new one is produced (spec §4.8, "Recursive publication versions").
func (s *Store) FindAllRecursiveForPublication(ctx context.Context, publication, stele string) ([]string, error) {
	visited := map[string]bool{publication: true}
	queue := []string{publication}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		var refs []string
		err := s.db.SelectContext(ctx, &refs, `
			SELECT DISTINCT referenced_publication
			FROM publication_has_publication_versions
			WHERE publication = ? AND stele = ?
		`, current, stele)
		if err != nil {
			return nil, err
		}
		for _, ref := range refs {
			if !visited[ref] {
				visited[ref] = true
				queue = append(queue, ref)
			}
		}
	}

	names := make([]string, 0, len(visited))
	for name := range visited {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// FindAllDocumentVersionsByMpathAndPublication returns every codified
// date mpath changed on, as inherited by any of publications (the
// starting publication plus everything it transitively references per
// FindAllRecursiveForPublication), descending. When mpath's element-added
// row is present, it additionally folds in the document prefix's
// element-effective row if that date is strictly later (spec §4.8's
// `document_effective` rule; mpath addresses a sub-element via a
// "|"-separated suffix, so the enclosing document's prefix is mpath up to
// its first "|").
func (s *Store) FindAllDocumentVersionsByMpathAndPublication(ctx context.Context, mpath string, publications []string) ([]Version, error) {
	var rows []Version
	if err := s.selectIn(ctx, &rows, `
		SELECT DISTINCT phpv.referenced_version AS codified_date
		FROM document_change dc
		LEFT JOIN publication_has_publication_versions phpv
			ON dc.publication = phpv.referenced_publication
			AND dc.version = phpv.referenced_version
		WHERE dc.doc_mpath LIKE ? AND phpv.publication IN (?)
	`, mpath+"%", publications); err != nil {
		return nil, err
	}

	var elementAdded []Version
	if err := s.selectIn(ctx, &elementAdded, `
		SELECT phpv.referenced_version AS codified_date
		FROM document_change dc
		LEFT JOIN publication_has_publication_versions phpv
			ON dc.publication = phpv.referenced_publication
			AND dc.version = phpv.referenced_version
		WHERE dc.doc_mpath = ? AND phpv.publication IN (?) AND dc.status = ?
		ORDER BY phpv.referenced_version DESC
	`, mpath, publications, StatusElementAdded); err != nil {
		return nil, err
	}
	if len(elementAdded) == 0 {
		sortVersionsDesc(rows)
		return rows, nil
	}

	docPrefix := mpath
	if idx := strings.Index(mpath, "|"); idx >= 0 {
		docPrefix = mpath[:idx]
	}
	docPrefix += "|"

	var documentEffective []Version
	if err := s.selectIn(ctx, &documentEffective, `
		SELECT phpv.referenced_version AS codified_date
		FROM document_change dc
		LEFT JOIN publication_has_publication_versions phpv
			ON dc.publication = phpv.referenced_publication
			AND dc.version = phpv.referenced_version
		WHERE dc.doc_mpath = ? AND phpv.publication IN (?) AND dc.status = ?
		ORDER BY phpv.referenced_version DESC
	`, docPrefix, publications, StatusElementEffective); err != nil {
		return nil, err
	}
	if len(documentEffective) == 0 {
		sortVersionsDesc(rows)
		return rows, nil
	}

	if !containsVersion(rows, documentEffective[0]) && documentEffective[0].CodifiedDate > elementAdded[0].CodifiedDate {
		rows = append(rows, documentEffective[0])
	}
	sortVersionsDesc(rows)
	return rows, nil
}

// FindAllCollectionVersionsByMpathAndPublication returns every codified
// date any document within the collection at mpath changed on, as
// inherited by any of publications (see
// FindAllDocumentVersionsByMpathAndPublication), descending.
func (s *Store) FindAllCollectionVersionsByMpathAndPublication(ctx context.Context, mpath string, publications []string) ([]Version, error) {
	var rows []Version
	if err := s.selectIn(ctx, &rows, `
		SELECT DISTINCT phpv.referenced_version AS codified_date
		FROM changed_library_document cld
		LEFT JOIN publication_has_publication_versions phpv
			ON cld.publication = phpv.referenced_publication
			AND cld.version = phpv.referenced_version
		WHERE cld.library_mpath LIKE ? AND phpv.publication IN (?)
	`, mpath+"%", publications); err != nil {
		return nil, err
	}

	var elementAdded []Version
	if err := s.selectIn(ctx, &elementAdded, `
		SELECT DISTINCT phpv.referenced_version AS codified_date
		FROM library_change lc
		LEFT JOIN publication_has_publication_versions phpv
			ON lc.publication = phpv.referenced_publication
			AND lc.version = phpv.referenced_version
		WHERE lc.library_mpath LIKE ? AND lc.status = ? AND phpv.publication IN (?)
		ORDER BY phpv.referenced_version DESC
	`, mpath+"%", StatusElementAdded, publications); err != nil {
		return nil, err
	}
	if len(elementAdded) == 0 {
		sortVersionsDesc(rows)
		return rows, nil
	}

	if !containsVersion(rows, elementAdded[0]) {
		rows = append(rows, elementAdded[0])
	}
	sortVersionsDesc(rows)
	return rows, nil
}

// selectIn rebinds a query containing a single "IN (?)" placeholder for
// inArgs and runs it, the sqlx idiom for a variable-length publication
// set (used to query across a publication plus everything
// FindAllRecursiveForPublication found it transitively references).
func (s *Store) selectIn(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	expanded, boundArgs, err := sqlx.In(query, args...)
	if err != nil {
		return err
	}
	return s.db.SelectContext(ctx, dest, s.db.Rebind(expanded), boundArgs...)
}

func sortVersionsDesc(versions []Version) {
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].CodifiedDate > versions[j].CodifiedDate
	})
}

func containsVersion(versions []Version, v Version) bool {
	for _, existing := range versions {
		if existing.CodifiedDate == v.CodifiedDate {
			return true
		}
	}
	return false
}
