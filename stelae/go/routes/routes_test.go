package routes_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openlawlibrary/stelae-sub000/go/git/gittest"
	"github.com/openlawlibrary/stelae-sub000/stelae/go/archive"
	"github.com/openlawlibrary/stelae-sub000/stelae/go/routes"
)

func writeConfig(t *testing.T, archivePath string, guardHeader string) {
	t.Helper()
	dir := filepath.Join(archivePath, ".taf")
	require.NoError(t, os.MkdirAll(dir, 0755))
	content := "[root]\nname = \"law\"\norg = \"openlawlibrary\"\n"
	if guardHeader != "" {
		content += "[headers]\ncurrent_documents_guard = \"" + guardHeader + "\"\n"
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))
}

func steleAt(t *testing.T, archivePath, org, name string) *gittest.Builder {
	t.Helper()
	dir := filepath.Join(archivePath, org, name)
	return gittest.InitAt(t, dir)
}

// dataRepoAt creates a bare-enough git directory for a declared data
// repo, so the route registry's eager repo-open (spec §3) succeeds.
func dataRepoAt(t *testing.T, archivePath, qualifiedName string) {
	t.Helper()
	idx := -1
	for i := 0; i < len(qualifiedName); i++ {
		if qualifiedName[i] == '/' {
			idx = i
			break
		}
	}
	require.GreaterOrEqual(t, idx, 0)
	steleAt(t, archivePath, qualifiedName[:idx], qualifiedName[idx+1:])
}

func newDocTarget() (http.HandlerFunc, chan routes.Target) {
	ch := make(chan routes.Target, 1)
	return func(w http.ResponseWriter, r *http.Request) {
		target, _ := routes.TargetFromContext(r.Context())
		ch <- target
		w.WriteHeader(http.StatusOK)
	}, ch
}

func TestBuild_RootRouteMatchesDeclaredPattern(t *testing.T) {
	archivePath := t.TempDir()
	writeConfig(t, archivePath, "")
	root := steleAt(t, archivePath, "openlawlibrary", "law")
	root.Write("targets/repositories.json", `{
  "repositories": {
    "openlawlibrary/law-html": {
      "name": "openlawlibrary/law-html",
      "custom": {"repository_type": "html", "serve": "latest", "routes": [".*"]}
    }
  }
}`)
	root.Commit("init")
	dataRepoAt(t, archivePath, "openlawlibrary/law-html")

	a, err := archive.Parse(archivePath, "", false)
	require.NoError(t, err)

	doc, ch := newDocTarget()
	handler, err := routes.Build(a, routes.Handlers{ServeDocument: doc})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/some/doc.html", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	target := <-ch
	require.Equal(t, "openlawlibrary/law-html", target.RepoName)
}

func TestBuild_ScopedRootRoute(t *testing.T) {
	archivePath := t.TempDir()
	writeConfig(t, archivePath, "")
	root := steleAt(t, archivePath, "openlawlibrary", "law")
	root.Write("targets/repositories.json", `{
  "repositories": {
    "openlawlibrary/law-rdf": {
      "name": "openlawlibrary/law-rdf",
      "custom": {"repository_type": "rdf", "serve": "latest", "serve-prefix": "_rdf"}
    }
  }
}`)
	root.Commit("init")
	dataRepoAt(t, archivePath, "openlawlibrary/law-rdf")

	a, err := archive.Parse(archivePath, "", false)
	require.NoError(t, err)

	doc, ch := newDocTarget()
	handler, err := routes.Build(a, routes.Handlers{ServeDocument: doc})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/_rdf/some/file.rdf", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	target := <-ch
	require.Equal(t, "openlawlibrary/law-rdf", target.RepoName)
}

func TestBuild_DependentSteleScopeExcludesUnderscoreRoutes(t *testing.T) {
	archivePath := t.TempDir()
	writeConfig(t, archivePath, "")

	root := steleAt(t, archivePath, "openlawlibrary", "law")
	root.Write("targets/dependencies.json", `{
  "dependencies": {"openlawlibrary/dc-law": {"branch": "main", "out_of_band_authentication": false}}
}`)
	root.Commit("init")

	dep := steleAt(t, archivePath, "openlawlibrary", "dc-law")
	dep.Write("targets/repositories.json", `{
  "scopes": ["/dc"],
  "repositories": {
    "openlawlibrary/dc-html": {
      "name": "openlawlibrary/dc-html",
      "custom": {"repository_type": "html", "serve": "latest", "routes": [".*"]}
    },
    "openlawlibrary/dc-internal": {
      "name": "openlawlibrary/dc-internal",
      "custom": {"repository_type": "other", "serve": "latest", "routes": ["_internal/.*"]}
    }
  }
}`)
	dep.Commit("init")
	dataRepoAt(t, archivePath, "openlawlibrary/dc-html")
	dataRepoAt(t, archivePath, "openlawlibrary/dc-internal")

	a, err := archive.Parse(archivePath, "", false)
	require.NoError(t, err)

	doc, ch := newDocTarget()
	handler, err := routes.Build(a, routes.Handlers{ServeDocument: doc})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/dc/anything.html", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	target := <-ch
	require.Equal(t, "openlawlibrary/dc-html", target.RepoName)

	req2 := httptest.NewRequest(http.MethodGet, "/dc/_internal/anything", nil)
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)
	require.Equal(t, http.StatusNotFound, rec2.Code)
}

func TestBuild_GuardedMultihost_MissingHeaderRejected(t *testing.T) {
	archivePath := t.TempDir()
	writeConfig(t, archivePath, "X-Current-Documents-Guard")
	root := steleAt(t, archivePath, "openlawlibrary", "law")
	root.Write("README.md", "root")
	root.Commit("init")

	a, err := archive.Parse(archivePath, "", false)
	require.NoError(t, err)

	handler, err := routes.Build(a, routes.Handlers{})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBuild_GuardedMultihost_SelectsMatchingStele(t *testing.T) {
	archivePath := t.TempDir()
	writeConfig(t, archivePath, "X-Current-Documents-Guard")

	root := steleAt(t, archivePath, "openlawlibrary", "law")
	root.Write("targets/repositories.json", `{
  "repositories": {
    "openlawlibrary/law-html": {
      "name": "openlawlibrary/law-html",
      "custom": {"repository_type": "html", "serve": "latest", "routes": [".*"]}
    }
  }
}`)
	root.Commit("init")
	dataRepoAt(t, archivePath, "openlawlibrary/law-html")

	a, err := archive.Parse(archivePath, "", false)
	require.NoError(t, err)

	doc, ch := newDocTarget()
	handler, err := routes.Build(a, routes.Handlers{ServeDocument: doc})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/doc.html", nil)
	req.Header.Set("X-Current-Documents-Guard", "openlawlibrary/law")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	target := <-ch
	require.Equal(t, "openlawlibrary/law-html", target.RepoName)
}

func TestBuild_FallbackTargetAvailableInContext(t *testing.T) {
	archivePath := t.TempDir()
	writeConfig(t, archivePath, "")
	root := steleAt(t, archivePath, "openlawlibrary", "law")
	root.Write("targets/repositories.json", `{
  "repositories": {
    "openlawlibrary/law-fallback": {
      "name": "openlawlibrary/law-fallback",
      "custom": {"repository_type": "other", "serve": "latest", "is_fallback": true}
    }
  }
}`)
	root.Commit("init")
	dataRepoAt(t, archivePath, "openlawlibrary/law-fallback")

	a, err := archive.Parse(archivePath, "", false)
	require.NoError(t, err)

	var seenFallback *routes.Target
	doc := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fb, ok := routes.FallbackFromContext(r.Context())
		if ok {
			seenFallback = fb
		}
		w.WriteHeader(http.StatusNotFound)
	})

	handler, err := routes.Build(a, routes.Handlers{ServeStelae: doc})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/_api/stelae/openlawlibrary/law-fallback", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.NotNil(t, seenFallback)
	require.Equal(t, "openlawlibrary/law-fallback", seenFallback.RepoName)
}
