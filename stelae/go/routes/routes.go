// Package routes implements C4: compiling an archive's data-repo
// declarations into a chi dispatch table that resolves every request to
// exactly one (Stele, repo) pair, or falls through to a declared
// fallback.
package routes

import (
	"net/http"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/openlawlibrary/stelae-sub000/stelae/go/archive"
	"github.com/openlawlibrary/stelae-sub000/stelae/go/datarepo"
	"github.com/openlawlibrary/stelae-sub000/stelae/go/history"
	"github.com/openlawlibrary/stelae-sub000/stelae/go/stele"
)

// RepoCache opens each data repo's git handle at most once per built
// router, even if the same repo is mounted under several route patterns
// or reached again through the archive endpoint (spec §5: "Git
// repository handles: one per (Stele, repo)").
type RepoCache struct {
	archivePath string
	repos       map[string]*datarepo.Repo
}

func newRepoCache(archivePath string) *RepoCache {
	return &RepoCache{archivePath: archivePath, repos: map[string]*datarepo.Repo{}}
}

// Open returns the cached data-repo handle for qualifiedName, opening it
// on first use.
func (c *RepoCache) Open(qualifiedName string) (*datarepo.Repo, error) {
	if r, ok := c.repos[qualifiedName]; ok {
		return r, nil
	}
	idx := strings.Index(qualifiedName, "/")
	if idx < 0 {
		return nil, nil
	}
	org, name := qualifiedName[:idx], qualifiedName[idx+1:]
	r, err := datarepo.Open(qualifiedName, filepath.Join(c.archivePath, org, name))
	if err != nil {
		return nil, err
	}
	c.repos[qualifiedName] = r
	return r, nil
}

// Handlers are the terminal HTTP handlers the registry wires routes to.
// A nil ServeArchive, ServeVersions, or ServeStelae means that route is
// not mounted at all; with a nil ServeDocument the repo routes are still
// mounted but answer 404 — useful for tests that only exercise a subset
// of the registry.
type Handlers struct {
	ServeDocument http.HandlerFunc // C5: current-document server
	ServeArchive  http.HandlerFunc // C6: archive endpoint
	ServeVersions http.HandlerFunc // C8: versions endpoint
	ServeStelae   http.HandlerFunc // C1 passthrough: /_api/stelae/{namespace}/{name}

	// History is the C9 store ServeVersions reads from. Nil is legal for
	// registries that don't mount the versions endpoint.
	History *history.Store
}

// Build compiles the archive's declarations into an http.Handler. When
// the archive's config declares a current_documents_guard header, the
// result is a guarded multihost dispatcher (spec §4.4); otherwise it is
// a single router rooted at the archive's root Stele.
func Build(arch *archive.Archive, h Handlers) (http.Handler, error) {
	if !arch.Config.Guarded() {
		return newRouterForRoot(arch, arch.Root, h)
	}
	return newGuardedRouter(arch, h)
}

func newGuardedRouter(arch *archive.Archive, h Handlers) (http.Handler, error) {
	guard := NewGuardConfig(arch.Config.Headers.CurrentDocumentsGuard)

	perStele := make(map[string]http.Handler, len(arch.Steles))
	for name, s := range arch.Steles {
		sub, err := newRouterForRoot(arch, s, h)
		if err != nil {
			return nil, err
		}
		perStele[name] = sub
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		value := r.Header.Get(guard.HeaderName())
		sub, ok := perStele[value]
		if value == "" || !ok {
			http.Error(w, "missing or unknown "+guard.HeaderName()+" header", http.StatusBadRequest)
			return
		}
		sub.ServeHTTP(w, r)
	}), nil
}

// newRouterForRoot builds the routing table with `root` acting as the
// archive's root Stele for the duration of the request — the archive's
// actual root in the unguarded case, or the guard-selected Stele under
// multihost guarding.
func newRouterForRoot(arch *archive.Archive, root *stele.Stele, h Handlers) (*chi.Mux, error) {
	r := chi.NewRouter()
	cache := newRepoCache(arch.Path)

	var fallbackTarget *Target
	fallbackDecl, hasFallback, err := root.GetFallbackRepo()
	if err != nil {
		return nil, err
	}
	if hasFallback {
		dataRepo, err := cache.Open(fallbackDecl.Name)
		if err != nil {
			return nil, err
		}
		fallbackTarget = &Target{Stele: root, RepoName: fallbackDecl.Name, Repo: *fallbackDecl, DataRepo: dataRepo}
	}

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := withArchiveContext(req.Context(), arch)
			ctx = withActiveRootContext(ctx, root)
			ctx = withFallbackContext(ctx, fallbackTarget)
			ctx = withRepoCacheContext(ctx, cache)
			ctx = withHistoryContext(ctx, h.History)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	// Every route is registered for GET only; HEAD requests are routed
	// through the same GET handlers, which omit the body.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.Method == http.MethodHead {
				if rctx := chi.RouteContext(req.Context()); rctx != nil {
					rctx.RouteMethod = http.MethodGet
				}
			}
			next.ServeHTTP(w, req)
		})
	})

	registerStaticRoutes(r, h)

	if err := mountDependentScopes(r, arch, root, h, cache); err != nil {
		return nil, err
	}
	if err := mountRootRoutes(r, root, h, cache); err != nil {
		return nil, err
	}

	return r, nil
}

// registerStaticRoutes mounts the fixed-path API routes ahead of any
// dynamic repo route (spec §4.4 rule 1).
func registerStaticRoutes(r chi.Router, h Handlers) {
	if h.ServeVersions != nil {
		r.Get("/_api/versions/*", h.ServeVersions)
	}
	if h.ServeArchive != nil {
		r.Get("/_archive/{namespace}/{name}", h.ServeArchive)
	}
	if h.ServeStelae != nil {
		r.Get("/_api/stelae/{namespace}/{name}", h.ServeStelae)
	}
}

// mountDependentScopes mounts every non-root Stele's declared scopes,
// excluding routes reserved for the root Stele (spec §4.4 rule 2).
func mountDependentScopes(r chi.Router, arch *archive.Archive, root *stele.Stele, h Handlers, cache *RepoCache) error {
	for _, s := range arch.NonRootSteles() {
		if s.QualifiedName() == root.QualifiedName() {
			continue
		}
		repos, err := s.GetRepositories()
		if err != nil {
			return err
		}
		if repos == nil || len(repos.Scopes) == 0 {
			continue
		}

		names := sortedRepoNames(repos.Repositories)
		for _, scope := range repos.Scopes {
			scopePath := scope
			var mountErr error
			r.Route(scopePath, func(sr chi.Router) {
				for _, name := range names {
					decl := repos.Repositories[name]
					dataRepo, err := cache.Open(name)
					if err != nil {
						mountErr = err
						return
					}
					target := Target{Stele: s, RepoName: name, Repo: decl, DataRepo: dataRepo}
					for _, pattern := range decl.Custom.Routes {
						if strings.HasPrefix(pattern, "_") {
							continue
						}
						sr.Get("/{tail:"+pattern+"}", withTarget(h.ServeDocument, target))
					}
				}
			})
			if mountErr != nil {
				return mountErr
			}
		}
	}
	return nil
}

// mountRootRoutes mounts the root Stele's own declared routes and scopes,
// unprefixed (spec §4.4 rule 3).
func mountRootRoutes(r chi.Router, root *stele.Stele, h Handlers, cache *RepoCache) error {
	repos, err := root.GetRepositories()
	if err != nil {
		return err
	}
	if repos == nil {
		return nil
	}

	for _, name := range sortedRepoNames(repos.Repositories) {
		decl := repos.Repositories[name]
		dataRepo, err := cache.Open(name)
		if err != nil {
			return err
		}
		target := Target{Stele: root, RepoName: name, Repo: decl, DataRepo: dataRepo}

		for _, pattern := range decl.Custom.Routes {
			r.Get("/{tail:"+pattern+"}", withTarget(h.ServeDocument, target))
		}

		if decl.Custom.Scope != "" {
			scopePath := "/" + strings.TrimPrefix(decl.Custom.Scope, "/")
			r.Route(scopePath, func(sr chi.Router) {
				sr.Get("/{tail:.*}", withTarget(h.ServeDocument, target))
			})
		}
	}
	return nil
}

func withTarget(next http.HandlerFunc, target Target) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if next == nil {
			http.NotFound(w, r)
			return
		}
		next(w, r.WithContext(withTargetContext(r.Context(), target)))
	}
}

func sortedRepoNames(repos map[string]stele.RepositoryDecl) []string {
	names := make([]string, 0, len(repos))
	for name := range repos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
