// Package serve implements C5 (current-document server) and C6 (archive
// endpoint): resolving a matched route or an explicit (namespace, name,
// commitish, path) request to a git blob and writing it out with the
// conditional-GET and content-type handling spec §4.5/§4.6 describe.
package serve

import (
	"errors"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/openlawlibrary/stelae-sub000/go/httputils"
	"github.com/openlawlibrary/stelae-sub000/go/sklog"
	"github.com/openlawlibrary/stelae-sub000/stelae/go/apperr"
	"github.com/openlawlibrary/stelae-sub000/stelae/go/archive"
	"github.com/openlawlibrary/stelae-sub000/stelae/go/datarepo"
	"github.com/openlawlibrary/stelae-sub000/stelae/go/gitresolve"
	"github.com/openlawlibrary/stelae-sub000/stelae/go/routes"
	"github.com/openlawlibrary/stelae-sub000/stelae/go/stele"
)

// contentTypeFor guesses a response Content-Type from a path's extension,
// overriding the RDF/XML MIME type to text/plain so browsers render it
// instead of offering a download (spec §4.5 step 2, §6).
func contentTypeFor(p string) string {
	ext := path.Ext(p)
	ct := mime.TypeByExtension(ext)
	if ct == "" {
		ct = "application/octet-stream"
	}
	if strings.HasPrefix(ct, "application/rdf+xml") {
		ct = "text/plain"
	}
	return ct
}

// writeBlob writes a resolved blob with its ETag/X-File-Path headers,
// honoring If-None-Match and HEAD requests (spec §4.5 steps 2-5).
func writeBlob(w http.ResponseWriter, r *http.Request, result *gitresolve.Result) {
	etag := httputils.QuoteETag(result.BlobID)
	w.Header().Set("X-File-Path", result.ResolvedPath)
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", contentTypeFor(result.ResolvedPath))

	if httputils.ETagMatches(r.Header.Get("If-None-Match"), result.BlobID) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(result.Content)
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
		sklog.Errorf("config error serving request: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	default:
		sklog.Errorf("upstream error serving request: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// ServeDocument serves the current (HEAD) version of the route's matched
// document, falling back to the active root's fallback repo on NotFound
// (spec §4.5).
func ServeDocument(w http.ResponseWriter, r *http.Request) {
	target, ok := routes.TargetFromContext(r.Context())
	if !ok {
		http.NotFound(w, r)
		return
	}
	docPath := strings.Trim(chi.URLParam(r, "tail"), "/")
	serveFromRepo(w, r, target.DataRepo, docPath, true)
}

// serveFromRepo looks up docPath in repo's redirects table first, then
// resolves it through C1. When tryFallback is set and the lookup misses,
// it retries against the request's fallback repo before answering 404
// (spec §4.5 steps 1 and 4).
func serveFromRepo(w http.ResponseWriter, r *http.Request, repo *datarepo.Repo, docPath string, tryFallback bool) {
	if repo == nil {
		http.NotFound(w, r)
		return
	}

	redirects, err := repo.Redirects()
	if err != nil {
		writeError(w, err)
		return
	}
	if to, ok := redirects["/"+docPath]; ok {
		http.Redirect(w, r, to, http.StatusFound)
		return
	}

	result, err := gitresolve.FindBlob(repo.GitRepo(), docPath, "HEAD")
	if err == nil {
		writeBlob(w, r, result)
		return
	}

	if apperr.KindOf(err) == apperr.NotFound && tryFallback {
		if fallback, ok := routes.FallbackFromContext(r.Context()); ok &&
			fallback.DataRepo != nil && fallback.DataRepo.QualifiedName() != repo.QualifiedName() {
			serveFromRepo(w, r, fallback.DataRepo, docPath, false)
			return
		}
	}
	writeError(w, err)
}

// ServeArchive implements C6: GET /_archive/{namespace}/{name}?commitish=&path=.
func ServeArchive(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")
	name := chi.URLParam(r, "name")

	arch, ok := routes.ArchiveFromContext(r.Context())
	if !ok {
		writeError(w, apperr.Upstream(errors.New("archive not found in request context")))
		return
	}
	root, ok := routes.ActiveRootFromContext(r.Context())
	if !ok {
		root = arch.Root
	}

	qualifiedName := namespace + "/" + name
	authoritative := root
	if headerStele := r.Header.Get("X-Stelae"); headerStele != "" {
		if s, ok := arch.Steles[headerStele]; ok {
			authoritative = s
		}
	}

	repos, err := authoritative.GetRepositories()
	if err != nil {
		writeError(w, err)
		return
	}
	if repos == nil {
		http.Error(w, "Repository is not in list of allowed repositories", http.StatusBadRequest)
		return
	}
	if _, ok := repos.Repositories[qualifiedName]; !ok {
		http.Error(w, "Repository is not in list of allowed repositories", http.StatusBadRequest)
		return
	}

	if guardConfiguredAndPrivate(arch, root, authoritative, namespace, qualifiedName) {
		http.Error(w, "Forbidden repository", http.StatusForbidden)
		return
	}

	query := r.URL.Query()
	commitish := query.Get("commitish")
	docPath := query.Get("path")

	cache, ok := routes.RepoCacheFromContext(r.Context())
	if !ok {
		writeError(w, apperr.Upstream(errors.New("repo cache not found in request context")))
		return
	}
	repo, err := cache.Open(qualifiedName)
	if err != nil {
		writeError(w, err)
		return
	}
	if repo == nil {
		http.Error(w, "Repository is not in list of allowed repositories", http.StatusBadRequest)
		return
	}

	result, err := gitresolve.FindBlob(repo.GitRepo(), docPath, commitish)
	if err != nil {
		writeError(w, err)
		return
	}
	writeBlob(w, r, result)
}

// ServeStelae implements the C1 passthrough: GET
// /_api/stelae/{namespace}/{name}?commitish=&path=. Unlike ServeArchive,
// it does not allow-list against the authoritative Stele's declared
// repositories — it's a direct blob lookup by qualified name, grounded on
// the original's get_blob handler.
func ServeStelae(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")
	name := chi.URLParam(r, "name")
	qualifiedName := namespace + "/" + name

	query := r.URL.Query()
	commitish := query.Get("commitish")
	docPath := query.Get("path")

	cache, ok := routes.RepoCacheFromContext(r.Context())
	if !ok {
		writeError(w, apperr.Upstream(errors.New("repo cache not found in request context")))
		return
	}
	repo, err := cache.Open(qualifiedName)
	if err != nil {
		writeError(w, err)
		return
	}
	if repo == nil {
		http.NotFound(w, r)
		return
	}

	result, err := gitresolve.FindBlob(repo.GitRepo(), docPath, commitish)
	if err != nil {
		writeError(w, err)
		return
	}
	writeBlob(w, r, result)
}

// guardConfiguredAndPrivate implements the private-repo guard (spec §4.6):
// under a guarded multihost configuration, a request whose namespace
// equals the authoritative Stele's org, for a repo that the root Stele
// declares, is rejected.
func guardConfiguredAndPrivate(arch *archive.Archive, root, authoritative *stele.Stele, namespace, qualifiedName string) bool {
	if !arch.Config.Guarded() {
		return false
	}
	if namespace != authoritative.Org() {
		return false
	}
	rootRepos, err := root.GetRepositories()
	if err != nil || rootRepos == nil {
		return false
	}
	_, inRoot := rootRepos.Repositories[qualifiedName]
	return inRoot
}
