package propagation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smith-xyz/golang-distance-generator/pkg/artifacts"
	"github.com/smith-xyz/golang-distance-generator/pkg/models"
	"github.com/smith-xyz/golang-distance-generator/pkg/utils"
)

func writeStageFiles(t *testing.T) StageFiles {
	t.Helper()
	dotDir := writeCFGs(t, mainFunc, fFunc, gFunc)
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
		return path
	}

	return StageFiles{
		DotDir:     dotDir,
		CallGraph:  write("callgraph.dot", chainCallGraph),
		BlockNames: write("BBnames.txt", "m.c:1\nm.c:2\nf.c:1\nf.c:2\ng.c:1\ng.c:2\ng.c:3\n"),
		BlockCalls: write("BBcalls.txt", "m.c:1,f.c:1;F\nf.c:1,g.c:1;G\n"),
		Input:      write("cfg.intra.distance.txt", "m.c:1,5.0\nf.c:1,3.0\nf.c:2,4.0\ng.c:1,-1.0\ng.c:2,2147483647.0\ng.c:3,1.0\n"),
		Output:     filepath.Join(dir, "cfg.distance.txt"),
	}
}

func TestLoadBlocks(t *testing.T) {
	files := writeStageFiles(t)
	blocks, err := LoadBlocks(files.BlockNames, files.BlockCalls, files.Input)
	require.NoError(t, err)

	assert.Equal(t, 7, blocks.Len())
	record, ok := blocks.Get("f.c:1")
	require.True(t, ok)
	assert.True(t, record.CallsFunction(gFunc))
	assert.Equal(t, models.Known(3), record.Distance)

	record, ok = blocks.Get("m.c:2")
	require.True(t, ok)
	assert.True(t, record.Distance.IsUnsure(), "blocks without a CFG distance start unsure")
}

func TestRunStageIsIdempotent(t *testing.T) {
	files := writeStageFiles(t)
	input, err := os.ReadFile(files.Input)
	require.NoError(t, err)
	cfg := models.DefaultAnalysisConfig()

	require.NoError(t, RunStage(utils.DiscardLogger(), &cfg, files, nil))
	first, err := os.ReadFile(files.Output)
	require.NoError(t, err)
	assert.Equal(t, "m.c:1,5.0\nm.c:2,-1.0\nf.c:1,3.0\nf.c:2,4.0\ng.c:1,13.0\ng.c:2,13.0\ng.c:3,1.0\n", string(first))

	require.NoError(t, RunStage(utils.DiscardLogger(), &cfg, files, nil))
	second, err := os.ReadFile(files.Output)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	unchanged, err := os.ReadFile(files.Input)
	require.NoError(t, err)
	assert.Equal(t, input, unchanged, "the CFG distances are never rewritten")
}

func TestRunStageRequiresInputs(t *testing.T) {
	files := writeStageFiles(t)
	files.Input = filepath.Join(t.TempDir(), "cfg.intra.distance.txt")
	cfg := models.DefaultAnalysisConfig()

	err := RunStage(utils.DiscardLogger(), &cfg, files, nil)
	assert.ErrorIs(t, err, artifacts.ErrMissingArtifact)
}
