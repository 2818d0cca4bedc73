// Package gitresolve implements C1: resolving (repo, commitish, path) to
// blob bytes, honoring the directory-index fallback chain from spec §4.1.
package gitresolve

import (
	"strings"

	gogit "github.com/go-git/go-git/v5"

	stelaegit "github.com/openlawlibrary/stelae-sub000/go/git"
	"github.com/openlawlibrary/stelae-sub000/go/sklog"
	"github.com/openlawlibrary/stelae-sub000/stelae/go/apperr"
)

// Result is what a successful resolution produces: the blob's content, the
// candidate path that actually matched, and the blob id as a hex string
// (used verbatim as the ETag).
type Result struct {
	Content      []byte
	ResolvedPath string
	BlobID       string
}

// candidates computes the ordered resolution chain for a request path,
// after stripping leading/trailing slashes: exact path, path/index.html,
// path.html. An empty path resolves directly to "index.html" (the fourth
// rule in spec §4.1 collapses into this case).
func candidates(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return []string{"index.html"}
	}
	return []string{
		trimmed,
		trimmed + "/index.html",
		trimmed + ".html",
	}
}

// FindBlob resolves path against commitish in repo, trying each candidate
// in order and returning the first that exists. Returns an apperr.NotFound
// error if no candidate exists, or an apperr.UpstreamError for any other
// git failure (including an unresolvable commitish).
func FindBlob(repo *gogit.Repository, path, commitish string) (*Result, error) {
	if commitish == "" {
		commitish = "HEAD"
	}
	commit, err := stelaegit.ResolveCommitish(repo, commitish)
	if err != nil {
		return nil, apperr.Upstream(err)
	}

	for _, candidate := range candidates(path) {
		content, blobID, err := stelaegit.FileAt(commit, candidate)
		if err == nil {
			return &Result{Content: content, ResolvedPath: candidate, BlobID: blobID.String()}, nil
		}
		if !stelaegit.IsNotExist(err) {
			sklog.Errorf("git error resolving %s at %s: %v", candidate, commitish, err)
			return nil, apperr.Upstream(err)
		}
	}
	return nil, apperr.NotFoundf("no blob found for path %q at %s", path, commitish)
}
