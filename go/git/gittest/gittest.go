// Package gittest builds throwaway git repositories for tests, the way
// go/git/testutils's GitBuilder and docsyserver's gittestutils.GitInit do
// in the teacher corpus, but in-process via go-git instead of shelling out
// to the git binary.
package gittest

import (
	"os"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// Builder wraps a freshly initialized, non-bare repository rooted at a
// t.TempDir(), with a worktree ready for Add/Commit.
type Builder struct {
	t    *testing.T
	dir  string
	repo *git.Repository
}

// Init creates a new repository in a fresh temp directory.
func Init(t *testing.T) *Builder {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return &Builder{t: t, dir: dir, repo: repo}
}

// InitAt creates a new repository at a caller-chosen directory instead of
// a temp dir, for fixtures that need a specific multi-Stele layout on
// disk (for example an archive's <org>/<name> tree).
func InitAt(t *testing.T, dir string) *Builder {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return &Builder{t: t, dir: dir, repo: repo}
}

// Dir returns the repository's working directory.
func (b *Builder) Dir() string {
	return b.dir
}

// Repo returns the underlying go-git repository handle.
func (b *Builder) Repo() *git.Repository {
	return b.repo
}

// Write writes content to path relative to the repo root, creating parent
// directories as needed, and stages it.
func (b *Builder) Write(path, content string) {
	b.t.Helper()
	wt, err := b.repo.Worktree()
	require.NoError(b.t, err)
	full := wt.Filesystem
	require.NoError(b.t, full.MkdirAll(dirOf(path), 0755))
	f, err := full.Create(path)
	require.NoError(b.t, err)
	_, err = f.Write([]byte(content))
	require.NoError(b.t, err)
	require.NoError(b.t, f.Close())
	_, err = wt.Add(path)
	require.NoError(b.t, err)
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}

// Commit commits the current stage and returns the commit hash as a
// string.
func (b *Builder) Commit(msg string) string {
	b.t.Helper()
	wt, err := b.repo.Worktree()
	require.NoError(b.t, err)
	hash, err := wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "stelae-test",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(b.t, err)
	return hash.String()
}

// Tag creates a lightweight tag at the repository's current HEAD.
func (b *Builder) Tag(name string) {
	b.t.Helper()
	head, err := b.repo.Head()
	require.NoError(b.t, err)
	_, err = b.repo.CreateTag(name, head.Hash(), nil)
	require.NoError(b.t, err)
}

// Branch creates a new branch reference at the current HEAD, without
// switching the worktree to it.
func (b *Builder) Branch(name string) {
	b.t.Helper()
	head, err := b.repo.Head()
	require.NoError(b.t, err)
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), head.Hash())
	require.NoError(b.t, b.repo.Storer.SetReference(ref))
}
