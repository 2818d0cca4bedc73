// Package datarepo wraps a single data repository's git handle: the bare
// repo holding published content, plus its optional redirects.json table
// (spec §3, "Redirects table (per-data-repo)").
package datarepo

import (
	"encoding/json"
	"sync"

	gogit "github.com/go-git/go-git/v5"

	stelaegit "github.com/openlawlibrary/stelae-sub000/go/git"
	"github.com/openlawlibrary/stelae-sub000/stelae/go/apperr"
)

// Repo is a data repository's git handle, opened once at route-init time
// and shared across concurrent blob lookups (spec §3 lifecycle &
// ownership, §5 concurrency model).
type Repo struct {
	qualifiedName string
	path          string
	repo          *gogit.Repository

	mu              sync.Mutex
	redirects       map[string]string
	redirectsLoaded bool
}

// Open opens the bare git repository at path.
func Open(qualifiedName, path string) (*Repo, error) {
	repo, err := stelaegit.OpenBare(path)
	if err != nil {
		return nil, apperr.Upstream(err)
	}
	return &Repo{qualifiedName: qualifiedName, path: path, repo: repo}, nil
}

// QualifiedName returns "<org>/<name>".
func (r *Repo) QualifiedName() string { return r.qualifiedName }

// Path returns the repo's filesystem directory.
func (r *Repo) Path() string { return r.path }

// GitRepo returns the underlying go-git repository handle, for C1 blob
// resolution.
func (r *Repo) GitRepo() *gogit.Repository { return r.repo }

// Redirects returns the repo's redirects.json table at HEAD, collapsed
// from its ordered [from, to] pair list to a mapping with last-wins
// semantics, cached after the first call. A repo with no redirects.json
// has an empty (non-nil) table.
func (r *Repo) Redirects() (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.redirectsLoaded {
		return r.redirects, nil
	}

	commit, err := stelaegit.ResolveCommitish(r.repo, "HEAD")
	if err != nil {
		return nil, apperr.Upstream(err)
	}
	content, _, err := stelaegit.FileAt(commit, "redirects.json")
	if err != nil {
		if stelaegit.IsNotExist(err) {
			r.redirects = map[string]string{}
			r.redirectsLoaded = true
			return r.redirects, nil
		}
		return nil, apperr.Upstream(err)
	}

	var pairs [][2]string
	if err := json.Unmarshal(content, &pairs); err != nil {
		return nil, apperr.Config(err)
	}

	table := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		table[pair[0]] = pair[1]
	}
	r.redirects = table
	r.redirectsLoaded = true
	return r.redirects, nil
}
