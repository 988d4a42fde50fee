package buildstats

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/SteelMorgan/buildstats-diff/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTaskFile creates <dir>/<pkg>/<task> with the given timing
func writeTaskFile(t *testing.T, dir, pkg, task string, started, ended, utime float64) {
	t.Helper()
	pkgDir := filepath.Join(dir, pkg)
	require.NoError(t, os.MkdirAll(pkgDir, 0o755))
	content := fmt.Sprintf("Started: %v\nrusage ru_utime: %v\nrusage ru_stime: 0\nStatus: PASSED\nEnded: %v\n", started, utime, ended)
	require.NoError(t, os.WriteFile(filepath.Join(pkgDir, task), []byte(content), 0o644))
}

// makeBuildstatsDir creates a buildstats directory with two packages
func makeBuildstatsDir(t *testing.T, root string, compileTime float64) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, MarkerFile), []byte("Build Started: 0\n"), 0o644))
	writeTaskFile(t, root, "zlib-1.2.11-r0", "do_compile", 0, compileTime, compileTime)
	writeTaskFile(t, root, "zlib-1.2.11-r0", "do_install", 0, 1, 1)
	writeTaskFile(t, root, "shadow-2_4.8.1-r3", "do_compile", 0, 2, 2)
	return root
}

func TestResolveSource(t *testing.T) {
	base := t.TempDir()
	bsDir := makeBuildstatsDir(t, filepath.Join(base, "single"), 10)

	jsonFile := filepath.Join(base, "bs.json")
	require.NoError(t, os.WriteFile(jsonFile, []byte("[]"), 0o644))

	multiDir := filepath.Join(base, "multi")
	makeBuildstatsDir(t, filepath.Join(multiDir, "build1"), 10)
	makeBuildstatsDir(t, filepath.Join(multiDir, "build2"), 20)
	require.NoError(t, os.WriteFile(filepath.Join(multiDir, ".hidden"), []byte("x"), 0o644))

	emptyDir := filepath.Join(base, "empty")
	require.NoError(t, os.MkdirAll(emptyDir, 0o755))

	src, err := ResolveSource(jsonFile)
	require.NoError(t, err)
	assert.Equal(t, SourceJSONFile, src.Kind)

	src, err = ResolveSource(bsDir)
	require.NoError(t, err)
	assert.Equal(t, SourceTextDirectory, src.Kind)

	src, err = ResolveSource(multiDir)
	require.NoError(t, err)
	assert.Equal(t, SourceMulti, src.Kind)
	require.Len(t, src.Members, 2)
	assert.Equal(t, filepath.Join(multiDir, "build1"), src.Members[0].Path)
	assert.Equal(t, SourceTextDirectory, src.Members[1].Kind)

	_, err = ResolveSource(filepath.Join(base, "missing"))
	assert.ErrorIs(t, err, domain.ErrPath)

	_, err = ResolveSource(emptyDir)
	assert.ErrorIs(t, err, domain.ErrFormat)
}

func TestReader_ReadDirectory(t *testing.T) {
	dir := makeBuildstatsDir(t, filepath.Join(t.TempDir(), "bs"), 10)

	bs, metrics, err := NewReader().Read(dir)
	require.NoError(t, err)
	require.Len(t, bs, 2)

	zlib := bs["zlib"]
	require.NotNil(t, zlib)
	assert.Equal(t, "1.2.11", zlib.Version)
	assert.Equal(t, "r0", zlib.Revision)
	assert.ElementsMatch(t, []string{"do_compile", "do_install"}, zlib.TaskNames())
	assert.Equal(t, 10.0, zlib.Tasks["do_compile"].Mean(domain.MetricWallTime))

	assert.Equal(t, "2", bs["shadow"].Epoch)

	assert.Equal(t, "directory", metrics.SourceKind)
	assert.Equal(t, 1, metrics.Runs)
	assert.Equal(t, uint32(3), metrics.FilesRead)
	assert.Equal(t, uint32(2), metrics.PackagesParsed)
	assert.Equal(t, uint64(3), metrics.TasksParsed)
}

func TestReader_DirectoryWithoutMarker(t *testing.T) {
	dir := t.TempDir()
	writeTaskFile(t, dir, "zlib-1.2.11-r0", "do_compile", 0, 1, 1)

	_, err := ReadDirectory(dir)
	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestReader_DuplicatePackageInDirectory(t *testing.T) {
	dir := makeBuildstatsDir(t, filepath.Join(t.TempDir(), "bs"), 10)
	writeTaskFile(t, dir, "zlib-1.3-r0", "do_compile", 0, 1, 1)

	_, err := ReadDirectory(dir)
	assert.ErrorIs(t, err, domain.ErrMerge)
}

func TestReader_BrokenTaskFile(t *testing.T) {
	dir := makeBuildstatsDir(t, filepath.Join(t.TempDir(), "bs"), 10)
	broken := filepath.Join(dir, "zlib-1.2.11-r0", "do_package")
	require.NoError(t, os.WriteFile(broken, []byte("Started: 1\n"), 0o644))

	_, _, err := NewReader().Read(dir)
	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestReader_MultiRequiresOptIn(t *testing.T) {
	multiDir := t.TempDir()
	makeBuildstatsDir(t, filepath.Join(multiDir, "build1"), 10)
	makeBuildstatsDir(t, filepath.Join(multiDir, "build2"), 20)

	_, _, err := NewReader().Read(multiDir)
	assert.ErrorIs(t, err, domain.ErrArgument)
}

func TestReader_MultiNestedBuildDirectories(t *testing.T) {
	multiDir := t.TempDir()
	makeBuildstatsDir(t, filepath.Join(multiDir, "builds", "b1"), 10)
	makeBuildstatsDir(t, filepath.Join(multiDir, "builds", "b2"), 20)
	makeBuildstatsDir(t, filepath.Join(multiDir, "single"), 10)

	src, err := ResolveSource(multiDir)
	require.NoError(t, err)
	require.Len(t, src.Members, 2)
	assert.Equal(t, SourceMulti, src.Members[0].Kind)
	assert.Equal(t, SourceTextDirectory, src.Members[1].Kind)

	_, _, err = NewReader(WithMulti(true)).Read(multiDir)
	assert.ErrorIs(t, err, domain.ErrFormat)
}

func TestReader_MultiAverages(t *testing.T) {
	multiDir := t.TempDir()
	makeBuildstatsDir(t, filepath.Join(multiDir, "build1"), 10)
	makeBuildstatsDir(t, filepath.Join(multiDir, "build2"), 20)

	bs, metrics, err := NewReader(WithMulti(true)).Read(multiDir)
	require.NoError(t, err)

	runs := bs["zlib"].Tasks["do_compile"]
	require.Len(t, runs, 2)
	assert.Equal(t, 15.0, runs.Mean(domain.MetricWallTime))
	assert.Equal(t, 15.0, runs.Mean(domain.MetricCPUTime))
	assert.Equal(t, 2, metrics.Runs)
	assert.Equal(t, "multi", metrics.SourceKind)
	assert.Equal(t, uint64(6), metrics.TasksParsed)
}

func TestReader_SingleMemberNeedsNoOptIn(t *testing.T) {
	multiDir := t.TempDir()
	makeBuildstatsDir(t, filepath.Join(multiDir, "only"), 10)

	bs, metrics, err := NewReader().Read(multiDir)
	require.NoError(t, err)
	assert.Len(t, bs, 2)
	assert.Equal(t, 1, metrics.Runs)
}

func TestReader_MultiMixedJSONAndDirectory(t *testing.T) {
	multiDir := t.TempDir()
	makeBuildstatsDir(t, filepath.Join(multiDir, "a-build"), 10)

	first, err := ReadDirectory(filepath.Join(multiDir, "a-build"))
	require.NoError(t, err)
	require.NoError(t, WriteJSONFile(filepath.Join(multiDir, "b-build.json"), first))

	bs, _, err := NewReader(WithMulti(true)).Read(multiDir)
	require.NoError(t, err)
	assert.Len(t, bs["zlib"].Tasks["do_install"], 2)
}

func TestReader_MultiIncompatibleBuilds(t *testing.T) {
	multiDir := t.TempDir()
	makeBuildstatsDir(t, filepath.Join(multiDir, "build1"), 10)
	second := makeBuildstatsDir(t, filepath.Join(multiDir, "build2"), 10)
	require.NoError(t, os.Rename(
		filepath.Join(second, "zlib-1.2.11-r0"),
		filepath.Join(second, "zlib-1.2.12-r0"),
	))

	_, _, err := NewReader(WithMulti(true)).Read(multiDir)
	assert.ErrorIs(t, err, domain.ErrMerge)
}
