package archive_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openlawlibrary/stelae-sub000/go/git/gittest"
	"github.com/openlawlibrary/stelae-sub000/stelae/go/archive"
)

// writeConfig writes a minimal .taf/config.toml declaring org/name as root.
func writeConfig(t *testing.T, archivePath, org, name string) {
	t.Helper()
	dir := filepath.Join(archivePath, ".taf")
	require.NoError(t, os.MkdirAll(dir, 0755))
	content := "[root]\n" +
		"name = \"" + name + "\"\n" +
		"org = \"" + org + "\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))
}

// steleAt initializes a git fixture directly at archivePath/org/name, the
// layout Parse expects for a non-individual archive.
func steleAt(t *testing.T, archivePath, org, name string) *gittest.Builder {
	t.Helper()
	dir := filepath.Join(archivePath, org, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(dir), 0755))
	return gittest.InitAt(t, dir)
}

func TestParse_RootOnly_NoDependencies(t *testing.T) {
	archivePath := t.TempDir()
	writeConfig(t, archivePath, "openlawlibrary", "law")
	root := steleAt(t, archivePath, "openlawlibrary", "law")
	root.Write("README.md", "root stele")
	root.Commit("init")

	a, err := archive.Parse(archivePath, "", false)
	require.NoError(t, err)
	require.Equal(t, "openlawlibrary/law", a.Root.QualifiedName())
	require.True(t, a.Root.IsRoot())
	require.Len(t, a.Steles, 1)
}

func TestParse_WalksDependencyDAG(t *testing.T) {
	archivePath := t.TempDir()
	writeConfig(t, archivePath, "openlawlibrary", "law")

	dcLaw := steleAt(t, archivePath, "openlawlibrary", "dc-law")
	dcLaw.Write("README.md", "dc-law")
	dcLaw.Commit("init")

	root := steleAt(t, archivePath, "openlawlibrary", "law")
	root.Write("targets/dependencies.json", `{
  "dependencies": {
    "openlawlibrary/dc-law": {"branch": "main", "out_of_band_authentication": true}
  }
}`)
	root.Commit("init")

	a, err := archive.Parse(archivePath, "", false)
	require.NoError(t, err)
	require.Len(t, a.Steles, 2)
	dep, ok := a.Steles["openlawlibrary/dc-law"]
	require.True(t, ok)
	require.False(t, dep.IsRoot())

	nonRoot := a.NonRootSteles()
	require.Len(t, nonRoot, 1)
	require.Equal(t, "openlawlibrary/dc-law", nonRoot[0].QualifiedName())
}

func TestParse_MissingDependencyDirectory_SkippedSilently(t *testing.T) {
	archivePath := t.TempDir()
	writeConfig(t, archivePath, "openlawlibrary", "law")

	root := steleAt(t, archivePath, "openlawlibrary", "law")
	root.Write("targets/dependencies.json", `{
  "dependencies": {
    "openlawlibrary/offline-dep": {"branch": "main", "out_of_band_authentication": false}
  }
}`)
	root.Commit("init")

	a, err := archive.Parse(archivePath, "", false)
	require.NoError(t, err)
	require.Len(t, a.Steles, 1)
	_, ok := a.Steles["openlawlibrary/offline-dep"]
	require.False(t, ok)
}

func TestParse_CyclicDependencies_VisitedOnce(t *testing.T) {
	archivePath := t.TempDir()
	writeConfig(t, archivePath, "openlawlibrary", "law")

	depsJSON := func(target string) string {
		return `{"dependencies": {"` + target + `": {"branch": "main", "out_of_band_authentication": false}}}`
	}

	root := steleAt(t, archivePath, "openlawlibrary", "law")
	root.Write("targets/dependencies.json", depsJSON("openlawlibrary/dc-law"))
	root.Commit("init")

	dcLaw := steleAt(t, archivePath, "openlawlibrary", "dc-law")
	dcLaw.Write("targets/dependencies.json", depsJSON("openlawlibrary/law"))
	dcLaw.Commit("init")

	a, err := archive.Parse(archivePath, "", false)
	require.NoError(t, err)
	require.Len(t, a.Steles, 2)
}

func TestParse_Individual_UsesSourcePathAsRoot(t *testing.T) {
	archivePath := t.TempDir()
	writeConfig(t, archivePath, "openlawlibrary", "law")

	standalone := gittest.Init(t)
	standalone.Write("README.md", "standalone stele")
	standalone.Commit("init")

	a, err := archive.Parse(archivePath, standalone.Dir(), true)
	require.NoError(t, err)
	require.Equal(t, standalone.Dir(), a.Root.Path())
	require.Len(t, a.Steles, 1)
}

func TestParse_MalformedConfig_ReturnsError(t *testing.T) {
	archivePath := t.TempDir()
	dir := filepath.Join(archivePath, ".taf")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not = [valid"), 0644))

	_, err := archive.Parse(archivePath, "", false)
	require.Error(t, err)
}
