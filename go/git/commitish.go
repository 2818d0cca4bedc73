// Package git wraps go-git with the subset of operations the archive
// loader (C2), Stele model (C3), and blob resolver (C1) need: resolving a
// commitish to a commit, and reading a single path out of that commit's
// tree.
package git

import (
	"io"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/openlawlibrary/stelae-sub000/go/skerr"
)

// OpenBare opens the bare (or non-bare) git repository rooted at dir.
func OpenBare(dir string) (*git.Repository, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, skerr.Wrapf(err, "opening git repository at %s", dir)
	}
	return repo, nil
}

// ResolveCommitish resolves a short SHA, full SHA, branch name, tag, or
// "HEAD" to a commit object, the way `<commitish>:<path>` single-revision
// syntax would in the git CLI.
func ResolveCommitish(repo *git.Repository, commitish string) (*object.Commit, error) {
	if commitish == "" {
		commitish = "HEAD"
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(commitish))
	if err != nil {
		return nil, skerr.Wrapf(err, "resolving commitish %q", commitish)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, skerr.Wrapf(err, "loading commit %s", hash)
	}
	return commit, nil
}

// FileAt returns the content and blob id of path as it exists in commit's
// tree, or go-git's object.ErrFileNotFound, unwrapped, if no such path
// exists.
func FileAt(commit *object.Commit, path string) ([]byte, plumbing.Hash, error) {
	file, err := commit.File(path)
	if err != nil {
		return nil, plumbing.ZeroHash, err
	}
	reader, err := file.Reader()
	if err != nil {
		return nil, plumbing.ZeroHash, skerr.Wrapf(err, "reading blob for %s", path)
	}
	defer reader.Close()
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, plumbing.ZeroHash, skerr.Wrapf(err, "reading blob for %s", path)
	}
	return content, file.Hash, nil
}

// IsNotExist reports whether err is the "no such file" error FileAt and the
// underlying go-git tree lookups return for a missing path.
func IsNotExist(err error) bool {
	return err == object.ErrFileNotFound || err == plumbing.ErrObjectNotFound
}
