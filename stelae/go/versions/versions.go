// Package versions implements C8: the versions endpoint that reports,
// for a given document or collection path, every publication and
// codified date that changed it, plus the human-readable messages
// describing how stale the currently-viewed version is (spec §4.8).
package versions

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/openlawlibrary/stelae-sub000/go/sklog"
	"github.com/openlawlibrary/stelae-sub000/stelae/go/apperr"
	"github.com/openlawlibrary/stelae-sub000/stelae/go/history"
	"github.com/openlawlibrary/stelae-sub000/stelae/go/routes"
)

// CurrentPublicationName is the synthetic label standing in for
// whichever publication is presently the newest.
const CurrentPublicationName = "Current"

// CurrentVersionDate is the synthetic codified-date value standing in
// for the newest version of the active publication.
const CurrentVersionDate = "current"

const dateLayout = "2006-01-02"

// Store is the subset of the history store (C9) the versions endpoint
// reads. A narrow interface here keeps this package's tests free of a
// real database.
type Store interface {
	FindAllNonRevokedPublications(ctx context.Context, stele string) ([]history.Publication, error)
	FindDocMpathByURL(ctx context.Context, url, stele string) (string, bool, error)
	FindLibMpathByURL(ctx context.Context, url, stele string) (string, bool, error)
	FindAllRecursiveForPublication(ctx context.Context, publication, stele string) ([]string, error)
	FindAllDocumentVersionsByMpathAndPublication(ctx context.Context, mpath string, publications []string) ([]history.Version, error)
	FindAllCollectionVersionsByMpathAndPublication(ctx context.Context, mpath string, publications []string) ([]history.Version, error)
}

// ServeVersions implements GET /_api/versions/*?publication=&date=&compare_date=.
func ServeVersions(w http.ResponseWriter, r *http.Request) {
	store, ok := routes.HistoryFromContext(r.Context())
	if !ok {
		writeError(w, apperr.Upstream(errHistoryNotConfigured))
		return
	}

	root, ok := routes.ActiveRootFromContext(r.Context())
	if !ok {
		http.NotFound(w, r)
		return
	}
	authoritative := root
	if arch, ok := routes.ArchiveFromContext(r.Context()); ok {
		if headerStele := r.Header.Get("X-Stelae"); headerStele != "" {
			if s, ok := arch.Steles[headerStele]; ok {
				authoritative = s
			}
		}
	}

	docPath := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	query := r.URL.Query()

	resp, err := Resolve(r.Context(), store, authoritative.QualifiedName(), docPath,
		query.Get("publication"), query.Get("date"), query.Get("compare_date"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, resp)
}

// Resolve runs the full C8 algorithm (spec §4.8) and builds the response
// payload, independent of any particular transport.
func Resolve(ctx context.Context, store Store, stele, docPath, publicationParam, dateParam, compareDateParam string) (*Response, error) {
	publications, err := store.FindAllNonRevokedPublications(ctx, stele)
	if err != nil {
		return nil, apperr.Upstream(err)
	}
	if len(publications) == 0 {
		return nil, apperr.NotFoundf("no publications found for %s", stele)
	}
	currentPublication := publications[0]

	activePublicationName := publicationParam
	if activePublicationName == "" {
		activePublicationName = currentPublication.Name
	}
	var activePublication *history.Publication
	for i := range publications {
		if publications[i].Name == activePublicationName {
			activePublication = &publications[i]
			break
		}
	}

	url := "/" + docPath
	var docVersions []Version
	if activePublication != nil {
		docVersions, err = publicationVersions(ctx, store, stele, activePublication.Name, url)
		if err != nil {
			return nil, err
		}
	}

	currentDate := ""
	if len(docVersions) > 0 {
		currentDate = docVersions[0].Date
	}

	activeVersion := currentDate
	if parsed, ok := parseDate(dateParam); ok {
		activeVersion = parsed
	}
	var activeCompareTo *string
	if compareDateParam != "" {
		compare := currentDate
		if parsed, ok := parseDate(compareDateParam); ok {
			compare = parsed
		}
		activeCompareTo = &compare
	}

	messages := computeMessages(docVersions, currentPublication, activePublicationName, dateParam, activeCompareTo)

	if activeVersion == currentDate {
		activeVersion = CurrentVersionDate
	}
	displayActivePublicationName := activePublicationName
	if activePublicationName == currentPublication.Name {
		displayActivePublicationName = CurrentPublicationName
	}

	docVersions = insertIfNotPresent(docVersions, dateParam)
	if activeCompareTo != nil {
		docVersions = insertIfNotPresent(docVersions, *activeCompareTo)
	}

	versionsSize := len(docVersions)
	for i := range docVersions {
		docVersions[i].Display = formatDate(docVersions[i].Date)
		docVersions[i].Index = versionsSize - i
	}
	if len(docVersions) > 0 {
		docVersions[0].Display += " (last modified)"
	}

	currentVersionIndex := 0
	if len(docVersions) > 0 {
		currentVersionIndex = docVersions[0].Index
	}
	currentVersionEntry := Version{Date: CurrentVersionDate, Display: CurrentPublicationName, Index: currentVersionIndex}
	insertPos := versionsSize - currentVersionIndex
	if insertPos < 0 {
		insertPos = 0
	}
	if insertPos > len(docVersions) {
		insertPos = len(docVersions)
	}
	docVersions = append(docVersions, Version{})
	copy(docVersions[insertPos+1:], docVersions[insertPos:])
	docVersions[insertPos] = currentVersionEntry

	views := make([]PublicationView, 0, len(publications)+1)
	views = append(views, PublicationView{
		Name: CurrentPublicationName,
		Date: currentPublication.Date,
	})
	for _, pb := range publications {
		views = append(views, PublicationView{Name: pb.Name, Date: pb.Date})
	}
	for i := range views {
		views[i].Active = views[i].Name == displayActivePublicationName
		views[i].Display = formatDisplayDate(views[i].Name, currentPublication.Name)
		views[i].Versions = []Version{}
		if views[i].Active {
			views[i].Versions = docVersions
		}
	}

	return &Response{
		ActivePublication: displayActivePublicationName,
		ActiveVersion:     activeVersion,
		ActiveCompareTo:   activeCompareTo,
		Features:          Features{Compare: true, HistoricalVersions: true},
		Path:              docPath,
		Publications:      newOrderedPublications(views),
		Messages:          messages,
	}, nil
}

// publicationVersions resolves url to a document's or collection's
// materialized path and returns every codified date publication
// inherited changes on, descending (spec §4.8 "publication_versions").
// A publication inherits versions transitively through
// publication_has_publication_versions (spec §4.8 "Recursive publication
// versions"), so the document/collection query runs over publication
// plus everything FindAllRecursiveForPublication finds it references.
func publicationVersions(ctx context.Context, store Store, stele, publication, url string) ([]Version, error) {
	publications, err := store.FindAllRecursiveForPublication(ctx, publication, stele)
	if err != nil {
		return nil, apperr.Upstream(err)
	}

	if mpath, ok, err := store.FindDocMpathByURL(ctx, url, stele); err != nil {
		return nil, apperr.Upstream(err)
	} else if ok {
		rows, err := store.FindAllDocumentVersionsByMpathAndPublication(ctx, mpath, publications)
		if err != nil {
			return nil, apperr.Upstream(err)
		}
		return toVersions(rows), nil
	}

	if mpath, ok, err := store.FindLibMpathByURL(ctx, url, stele); err != nil {
		return nil, apperr.Upstream(err)
	} else if ok {
		rows, err := store.FindAllCollectionVersionsByMpathAndPublication(ctx, mpath, publications)
		if err != nil {
			return nil, apperr.Upstream(err)
		}
		return toVersions(rows), nil
	}

	return nil, nil
}

func toVersions(rows []history.Version) []Version {
	out := make([]Version, len(rows))
	for i, row := range rows {
		out[i] = Version{Date: row.CodifiedDate, Display: row.CodifiedDate}
	}
	return out
}

func parseDate(s string) (string, bool) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", false
	}
	return t.Format(dateLayout), true
}

func formatDate(date string) string {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("January 2, 2006")
}

func formatDisplayDate(name, currentPublicationName string) string {
	if name == CurrentPublicationName {
		return CurrentPublicationName
	}
	display := formatDate(name)
	if name == currentPublicationName {
		display += " (current)"
	}
	return display
}

// insertIfNotPresent inserts a marker version for date (display/index
// left zero, filled in by the caller's later pass) into versions if no
// entry already carries that date, keeping the slice sorted descending.
func insertIfNotPresent(versions []Version, date string) []Version {
	if date == "" {
		return versions
	}
	for _, v := range versions {
		if v.Date == date {
			return versions
		}
	}
	idx := 0
	for idx < len(versions) && versions[idx].Date >= date {
		idx++
	}
	versions = append(versions, Version{})
	copy(versions[idx+1:], versions[idx:])
	versions[idx] = Version{Date: date, Display: date}
	return versions
}

func writeError(w http.ResponseWriter, err error) {
	switch apperr.KindOf(err) {
	case apperr.NotFound:
		http.Error(w, "not found", http.StatusNotFound)
	case apperr.InvalidInput:
		http.Error(w, err.Error(), http.StatusBadRequest)
	case apperr.Forbidden:
		http.Error(w, err.Error(), http.StatusForbidden)
	case apperr.ConfigError:
		sklog.Errorf("config error serving versions request: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	default:
		sklog.Errorf("upstream error serving versions request: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
