// Package archive implements C2: loading a root Stele, walking its
// dependency DAG, and assembling the qualified-name -> Stele map the route
// registry (C4) compiles against.
package archive

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/openlawlibrary/stelae-sub000/go/config"
	stelaegit "github.com/openlawlibrary/stelae-sub000/go/git"
	"github.com/openlawlibrary/stelae-sub000/go/sklog"
	"github.com/openlawlibrary/stelae-sub000/stelae/go/apperr"
	"github.com/openlawlibrary/stelae-sub000/stelae/go/stele"
)

// Archive is the result of Parse: the config, the root Stele, and every
// Stele reachable from it through the dependency DAG, keyed by qualified
// name.
type Archive struct {
	Path   string
	Config *config.Config
	Root   *stele.Stele
	Steles map[string]*stele.Stele
}

// Parse loads the archive rooted at archivePath. When individual is set,
// sourcePath names the root Stele's directory directly (spec §4.2 step 2);
// otherwise the root Stele lives at <archivePath>/<org>/<name> per
// config.toml's [root] table.
func Parse(archivePath, sourcePath string, individual bool) (*Archive, error) {
	cfg, err := config.Load(filepath.Join(archivePath, ".taf", "config.toml"))
	if err != nil {
		return nil, err
	}

	rootDir := sourcePath
	if !individual {
		rootDir = filepath.Join(archivePath, cfg.Root.Org, cfg.Root.Name)
	}

	rootRepo, err := stelaegit.OpenBare(rootDir)
	if err != nil {
		return nil, apperr.Upstream(err)
	}
	root := stele.New(cfg.Root.Org, cfg.Root.Name, rootDir, true, rootRepo)

	a := &Archive{
		Path:   archivePath,
		Config: cfg,
		Root:   root,
		Steles: map[string]*stele.Stele{root.QualifiedName(): root},
	}

	if err := a.walkDependencies(root); err != nil {
		return nil, err
	}
	return a, nil
}

// walkDependencies performs a breadth-first walk over the dependency
// graph, visiting each qualified name at most once so cyclic declarations
// (observed in the test corpus per spec §9) cannot loop.
func (a *Archive) walkDependencies(root *stele.Stele) error {
	visited := map[string]bool{root.QualifiedName(): true}
	queue := []*stele.Stele{root}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		deps, err := current.GetDependencies()
		if err != nil {
			return err
		}
		if deps == nil {
			continue
		}

		names := make([]string, 0, len(deps.Dependencies))
		for name := range deps.Dependencies {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, qualifiedName := range names {
			if visited[qualifiedName] {
				continue
			}
			visited[qualifiedName] = true

			org, name, ok := splitQualifiedName(qualifiedName)
			if !ok {
				sklog.Warningf("skipping malformed dependency name %q", qualifiedName)
				continue
			}

			depDir := filepath.Join(a.Path, org, name)
			if _, err := os.Stat(depDir); err != nil {
				// Offline subtree: spec §4.2 step 5 says this is not an error.
				sklog.Infof("dependency %s has no local directory, skipping", qualifiedName)
				continue
			}

			depRepo, err := stelaegit.OpenBare(depDir)
			if err != nil {
				return apperr.Upstream(err)
			}
			depStele := stele.New(org, name, depDir, false, depRepo)
			a.Steles[qualifiedName] = depStele
			queue = append(queue, depStele)
		}
	}
	return nil
}

func splitQualifiedName(qualifiedName string) (org, name string, ok bool) {
	idx := strings.Index(qualifiedName, "/")
	if idx < 0 || idx == 0 || idx == len(qualifiedName)-1 {
		return "", "", false
	}
	return qualifiedName[:idx], qualifiedName[idx+1:], true
}

// NonRootSteles returns every Stele except the root, in deterministic
// (qualified-name-sorted) order, for route registration (spec §4.4 step
// 2).
func (a *Archive) NonRootSteles() []*stele.Stele {
	names := make([]string, 0, len(a.Steles))
	for name, s := range a.Steles {
		if !s.IsRoot() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	result := make([]*stele.Stele, 0, len(names))
	for _, name := range names {
		result = append(result, a.Steles[name])
	}
	return result
}
