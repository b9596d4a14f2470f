package artifacts

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smith-xyz/golang-distance-generator/pkg/models"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestReadLines(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "Fnames.txt"), "a.c:1;main\n\n  b.c:2;parse  \n")

	lines, err := ReadLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.c:1;main", "b.c:2;parse"}, lines)

	_, err = ReadLines(filepath.Join(t.TempDir(), "missing.txt"))
	assert.True(t, errors.Is(err, ErrMissingArtifact))
}

func TestReadBlockCalls(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "BBcalls.txt"),
		"a.c:3,b.c:2;parse\na.c:3,c.c:9;helper\nmalformed\na.c:4,x,d.c:1;last\n")

	calls, err := ReadBlockCalls(path)
	require.NoError(t, err)
	expected := []BlockCall{
		{Block: "a.c:3", Callee: "b.c:2;parse"},
		{Block: "a.c:3", Callee: "c.c:9;helper"},
		{Block: "a.c:4", Callee: "d.c:1;last"},
	}
	if diff := cmp.Diff(expected, calls); diff != "" {
		t.Errorf("ReadBlockCalls mismatch (-want +got):\n%s", diff)
	}
}

func TestDistanceFilesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dist-files", "callgraph.distance.txt")
	records := []models.DistanceRecord{
		{Name: "a.c:1;main", Distance: models.Known(3)},
		{Name: "b.c:2;parse", Distance: models.Known(2.0 / 3.0)},
		{Name: "c.c:3;dead", Distance: models.Unreachable()},
		{Name: "a.c:7", Distance: models.Unsure()},
	}

	require.NoError(t, WriteDistances(path, records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a.c:1;main,3.0\nb.c:2;parse,0.6666666666666666\nc.c:3;dead,2147483647.0\na.c:7,-1.0\n", string(data))

	read, err := ReadDistances(path)
	require.NoError(t, err)
	assert.Equal(t, records, read)

	m := DistanceMap(read)
	assert.True(t, m["c.c:3;dead"].IsUnreachable())
	assert.True(t, m["a.c:7"].IsUnsure())
}

func TestReadDistancesRejectsGarbage(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "cfg.distance.txt"), "a.c:1,1.0\na.c:2,near\n")
	_, err := ReadDistances(path)
	assert.Error(t, err)

	path = writeFile(t, filepath.Join(t.TempDir(), "cfg.distance.txt"), "a.c:1,1.0\na.c:2,NaN\n")
	_, err = ReadDistances(path)
	assert.Error(t, err, "non-finite values would break distance ordering")
}

func TestMergeFiles(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, filepath.Join(dir, "cfg.a.distance.txt"), "a.c:1,1.0\n")
	second := writeFile(t, filepath.Join(dir, "cfg.b.distance.txt"), "b.c:1,2.0\n")
	out := filepath.Join(dir, "merged.txt")

	require.NoError(t, MergeFiles([]string{first, second}, out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "a.c:1,1.0\nb.c:1,2.0\n", string(data))

	err = MergeFiles([]string{first, filepath.Join(dir, "missing.txt")}, out)
	assert.True(t, errors.Is(err, ErrMissingArtifact))
	data, err = os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "a.c:1,1.0\nb.c:1,2.0\n", string(data), "failed merge must keep previous output")
}

func TestRequire(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, filepath.Join(dir, "BBnames.txt"), "a.c:1\n")

	assert.NoError(t, RequireFile(file))
	assert.NoError(t, RequireDir(dir))
	assert.True(t, errors.Is(RequireFile(dir), ErrMissingArtifact))
	assert.True(t, errors.Is(RequireDir(file), ErrMissingArtifact))
	assert.True(t, errors.Is(RequireFile(filepath.Join(dir, "nope")), ErrMissingArtifact))
}
