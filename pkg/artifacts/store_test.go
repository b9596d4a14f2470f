package artifacts

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCFGStore(t *testing.T) {
	dir := t.TempDir()
	store := NewCFGStore(dir, 8)

	_, err := store.Load("a.c:1;f")
	assert.ErrorIs(t, err, ErrMissingArtifact)
	_, cached := store.Cached("a.c:1;f")
	assert.False(t, cached, "missing CFGs are not cached")

	writeFile(t, filepath.Join(dir, CFGFileName("a.c:1;f")), `digraph "CFG for 'f' function" {
	Node0x1 [shape=record,label="{a.c:1:0}"];
	Node0x2 [shape=record,label="{a.c:2:1}"];
	Node0x1 -> Node0x2;
}
`)

	cfg, err := store.Load("a.c:1;f")
	require.NoError(t, err)
	assert.True(t, cfg.Has("a.c:2"))

	again, err := store.Load("a.c:1;f")
	require.NoError(t, err)
	assert.Same(t, cfg, again)
	assert.Equal(t, 1, store.Len())

	writeFile(t, filepath.Join(dir, CFGFileName("b.c:1;g")), "digraph {")
	_, err = store.Load("b.c:1;g")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissingArtifact)
}
