// Package stele implements C3: typed access to the authenticated JSON a
// Stele's authentication repository carries under targets/, with the
// caching and "missing optional file is not an error" rules spec §4.3
// describes.
package stele

import (
	"encoding/json"
	"sync"

	gogit "github.com/go-git/go-git/v5"

	stelaegit "github.com/openlawlibrary/stelae-sub000/go/git"
	"github.com/openlawlibrary/stelae-sub000/stelae/go/apperr"
)

// Stele is a publisher unit: one authentication repository, identified by
// a qualified name "<org>/<name>", plus the data it declares. Steles are
// built once at archive-load time and are immutable afterward (spec §3
// lifecycle & ownership).
type Stele struct {
	org    string
	name   string
	path   string
	isRoot bool
	repo   *gogit.Repository

	mu                 sync.Mutex
	repositories       *Repositories
	repositoriesLoaded bool
}

// New constructs a Stele around an already-opened authentication
// repository handle.
func New(org, name, path string, isRoot bool, repo *gogit.Repository) *Stele {
	return &Stele{org: org, name: name, path: path, isRoot: isRoot, repo: repo}
}

// QualifiedName returns "<org>/<name>".
func (s *Stele) QualifiedName() string { return s.org + "/" + s.name }

// Org returns the Stele's org segment.
func (s *Stele) Org() string { return s.org }

// Name returns the Stele's name segment.
func (s *Stele) Name() string { return s.name }

// Path returns the Stele's filesystem directory.
func (s *Stele) Path() string { return s.path }

// IsRoot reports whether this is the archive's root Stele.
func (s *Stele) IsRoot() bool { return s.isRoot }

// Repo returns the authentication repository handle.
func (s *Stele) Repo() *gogit.Repository { return s.repo }

// readJSONAtHead reads filename from the authentication repo's HEAD and
// unmarshals it into v. Returns (false, nil) if the file does not exist —
// "no data" is not an error for optional manifests (spec §4.3).
func (s *Stele) readJSONAtHead(filename string, v interface{}) (bool, error) {
	return s.readJSONAt("HEAD", filename, v)
}

func (s *Stele) readJSONAt(commitish, filename string, v interface{}) (bool, error) {
	commit, err := stelaegit.ResolveCommitish(s.repo, commitish)
	if err != nil {
		return false, apperr.Upstream(err)
	}
	content, _, err := stelaegit.FileAt(commit, filename)
	if err != nil {
		if stelaegit.IsNotExist(err) {
			return false, nil
		}
		return false, apperr.Upstream(err)
	}
	if err := json.Unmarshal(content, v); err != nil {
		return false, apperr.Config(err)
	}
	return true, nil
}

// GetRepositories returns targets/repositories.json, cached after the
// first successful call. A Stele with no repositories.json is legal and
// returns (nil, nil) — it contributes no routes (spec §4.2 invariants).
func (s *Stele) GetRepositories() (*Repositories, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.repositoriesLoaded {
		return s.repositories, nil
	}
	var repos Repositories
	found, err := s.readJSONAtHead("targets/repositories.json", &repos)
	if err != nil {
		return nil, err
	}
	s.repositoriesLoaded = true
	if !found {
		s.repositories = nil
		return nil, nil
	}
	s.repositories = &repos
	return s.repositories, nil
}

// GetDependencies returns targets/dependencies.json. Not cached: the
// archive loader calls it exactly once per Stele during the DAG walk.
func (s *Stele) GetDependencies() (*Dependencies, error) {
	var deps Dependencies
	found, err := s.readJSONAtHead("targets/dependencies.json", &deps)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &deps, nil
}

// GetTargetsMetadataAtCommitAndFilename reads targets/<filename> (a
// publication manifest; filename is the path under targets/, such as
// "<org>/<date>.json") at the given commitish.
func (s *Stele) GetTargetsMetadataAtCommitAndFilename(commitish, filename string) (*PublicationMetadata, error) {
	var meta PublicationMetadata
	found, err := s.readJSONAt(commitish, "targets/"+filename, &meta)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperr.NotFoundf("no publication metadata at %s:%s", commitish, filename)
	}
	return &meta, nil
}

// GetFallbackRepo returns the unique repository declared
// custom.is_fallback = true, if any.
func (s *Stele) GetFallbackRepo() (*RepositoryDecl, bool, error) {
	repos, err := s.GetRepositories()
	if err != nil {
		return nil, false, err
	}
	if repos == nil {
		return nil, false, nil
	}
	for name, decl := range repos.Repositories {
		if decl.Custom.IsFallback {
			d := decl
			d.Name = name
			return &d, true, nil
		}
	}
	return nil, false, nil
}
