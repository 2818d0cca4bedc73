package routes

import (
	"context"

	"github.com/openlawlibrary/stelae-sub000/stelae/go/archive"
	"github.com/openlawlibrary/stelae-sub000/stelae/go/datarepo"
	"github.com/openlawlibrary/stelae-sub000/stelae/go/history"
	"github.com/openlawlibrary/stelae-sub000/stelae/go/stele"
)

// Target names the (Stele, repo, data-repo-handle) triple a matched route
// resolves to, so the document handler (C5) and archive handler (C6) know
// which repository to resolve blobs against without re-parsing the route
// pattern or re-opening the git repository themselves.
type Target struct {
	Stele    *stele.Stele
	RepoName string
	Repo     stele.RepositoryDecl
	DataRepo *datarepo.Repo
}

type ctxKey int

const (
	ctxKeyTarget ctxKey = iota
	ctxKeyArchive
	ctxKeyActiveRoot
	ctxKeyFallback
	ctxKeyRepoCache
	ctxKeyHistory
)

func withTargetContext(ctx context.Context, t Target) context.Context {
	return context.WithValue(ctx, ctxKeyTarget, t)
}

// TargetFromContext returns the route Target a request matched, if any.
func TargetFromContext(ctx context.Context) (Target, bool) {
	t, ok := ctx.Value(ctxKeyTarget).(Target)
	return t, ok
}

func withArchiveContext(ctx context.Context, a *archive.Archive) context.Context {
	return context.WithValue(ctx, ctxKeyArchive, a)
}

// ArchiveFromContext returns the archive the matched router was built
// from, for handlers (C6, C8) that need to look up other Steles.
func ArchiveFromContext(ctx context.Context) (*archive.Archive, bool) {
	a, ok := ctx.Value(ctxKeyArchive).(*archive.Archive)
	return a, ok
}

func withActiveRootContext(ctx context.Context, root *stele.Stele) context.Context {
	return context.WithValue(ctx, ctxKeyActiveRoot, root)
}

// ActiveRootFromContext returns the Stele acting as root for this
// request — the archive's declared root, or, under a guarded multihost
// configuration, whichever Stele the guard header selected (spec §4.4).
func ActiveRootFromContext(ctx context.Context) (*stele.Stele, bool) {
	s, ok := ctx.Value(ctxKeyActiveRoot).(*stele.Stele)
	return s, ok
}

func withFallbackContext(ctx context.Context, fallback *Target) context.Context {
	return context.WithValue(ctx, ctxKeyFallback, fallback)
}

// FallbackFromContext returns the active root's fallback repo target, if
// one is declared (spec §4.4 rule 4).
func FallbackFromContext(ctx context.Context) (*Target, bool) {
	fb, ok := ctx.Value(ctxKeyFallback).(*Target)
	if !ok || fb == nil {
		return nil, false
	}
	return fb, true
}

func withRepoCacheContext(ctx context.Context, cache *RepoCache) context.Context {
	return context.WithValue(ctx, ctxKeyRepoCache, cache)
}

// RepoCacheFromContext returns the RepoCache the matched router built,
// so handlers reaching for a repo outside the matched Target (C6's
// archive endpoint, naming an arbitrary repo by namespace/name) reuse the
// same per-(Stele,repo) handle instead of opening a second one.
func RepoCacheFromContext(ctx context.Context) (*RepoCache, bool) {
	c, ok := ctx.Value(ctxKeyRepoCache).(*RepoCache)
	return c, ok
}

func withHistoryContext(ctx context.Context, store *history.Store) context.Context {
	return context.WithValue(ctx, ctxKeyHistory, store)
}

// HistoryFromContext returns the history store wired into Handlers, for
// the versions endpoint (C8) to query.
func HistoryFromContext(ctx context.Context) (*history.Store, bool) {
	s, ok := ctx.Value(ctxKeyHistory).(*history.Store)
	if !ok || s == nil {
		return nil, false
	}
	return s, true
}
