package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smith-xyz/golang-distance-generator/pkg/artifacts"
	"github.com/smith-xyz/golang-distance-generator/pkg/graph"
	"github.com/smith-xyz/golang-distance-generator/pkg/models"
	"github.com/smith-xyz/golang-distance-generator/pkg/utils"
)

// a.c:1 -> a.c:2 -> a.c:3, a.c:1 -> a.c:4
const functionCFG = `digraph "CFG for 'f' function" {
	label="CFG for 'f' function";

	Node0x1 [shape=record,label="{a.c:1:0}"];
	Node0x2 [shape=record,label="{a.c:2:1}"];
	Node0x3 [shape=record,label="{a.c:3:2}"];
	Node0x4 [shape=record,label="{a.c:4:3}"];
	Node0x1 -> Node0x2;
	Node0x2 -> Node0x3;
	Node0x1 -> Node0x4;
}
`

var blockNames = []string{"a.c:1", "a.c:2", "a.c:3", "a.c:4", "b.c:9"}

func parseCFG(t *testing.T, dot string) *graph.Graph {
	t.Helper()
	g, err := graph.Parse([]byte(dot), graph.ControlFlowGraph, 0)
	require.NoError(t, err)
	return g
}

func newTestEngine() *DistanceEngine {
	cfg := models.DefaultAnalysisConfig()
	return NewDistanceEngine(utils.DiscardLogger(), &cfg)
}

func TestTargetBlockDistances(t *testing.T) {
	g := parseCFG(t, functionCFG)
	seeds := Preliminary(g, nil, nil, []string{"a.c:3", "b.c:9"})
	require.Equal(t, 1, seeds.Len(), "targets outside this CFG are ignored")

	records := newTestEngine().Calculate(g, seeds, blockNames)
	assert.Equal(t, []models.DistanceRecord{
		{Name: "a.c:1", Distance: models.Known(3)},
		{Name: "a.c:2", Distance: models.Known(2)},
		{Name: "a.c:3", Distance: models.Known(0)},
		{Name: "a.c:4", Distance: models.Unreachable()},
	}, records)
}

func TestCallDistancesWeighBlocks(t *testing.T) {
	g := parseCFG(t, functionCFG)
	cgDistances := map[string]models.Distance{
		"g.c:1;g": models.Known(2),
	}
	calls := []artifacts.BlockCall{
		{Block: "a.c:4", Callee: "g.c:1;g"},
		{Block: "a.c:4", Callee: "x.c:1;unscored"},
	}
	seeds := Preliminary(g, cgDistances, calls, []string{"a.c:3"})
	e := newTestEngine()

	d, ok := e.BlockDistance(g, seeds, "a.c:4")
	require.True(t, ok)
	assert.Equal(t, models.Known(20), d, "close call dominates: coefficient times callee distance")

	// 2 / (1/(1+10*2+1) + 1/(1+0+2))
	d, ok = e.BlockDistance(g, seeds, "a.c:1")
	require.True(t, ok)
	assert.InDelta(t, 5.28, d.Value(), 1e-9)

	// a.c:4 is not reachable from a.c:2 and only the target counts
	d, ok = e.BlockDistance(g, seeds, "a.c:2")
	require.True(t, ok)
	assert.Equal(t, models.Known(2), d)
}

func TestPreliminaryKeepsClosestCallee(t *testing.T) {
	g := parseCFG(t, functionCFG)
	cgDistances := map[string]models.Distance{
		"g.c:1;g": models.Known(2),
		"k.c:1;k": models.Known(1),
		"u.c:1;u": models.Unreachable(),
	}
	calls := []artifacts.BlockCall{
		{Block: "a.c:2", Callee: "u.c:1;u"},
		{Block: "a.c:4", Callee: "g.c:1;g"},
		{Block: "a.c:4", Callee: "k.c:1;k"},
		{Block: "z.c:1", Callee: "k.c:1;k"},
	}
	seeds := Preliminary(g, cgDistances, calls, []string{"a.c:2"})

	assert.Equal(t, []models.DistanceRecord{
		{Name: "a.c:2", Distance: models.Known(0)},
		{Name: "a.c:4", Distance: models.Known(1)},
	}, seeds.DistanceRecords())
}

func TestFarSeedsYieldUnreachable(t *testing.T) {
	g := parseCFG(t, functionCFG)
	cgDistances := map[string]models.Distance{"u.c:1;u": models.Unreachable()}
	calls := []artifacts.BlockCall{{Block: "a.c:2", Callee: "u.c:1;u"}}
	seeds := Preliminary(g, cgDistances, calls, nil)
	e := newTestEngine()

	for _, name := range []string{"a.c:1", "a.c:2"} {
		d, ok := e.BlockDistance(g, seeds, name)
		require.True(t, ok, name)
		assert.True(t, d.IsUnreachable(), name)
	}
}

func TestEmptySeedsYieldUnreachable(t *testing.T) {
	g := parseCFG(t, functionCFG)
	seeds := Preliminary(g, nil, nil, nil)
	require.Equal(t, 0, seeds.Len())

	d, ok := newTestEngine().BlockDistance(g, seeds, "a.c:1")
	require.True(t, ok)
	assert.True(t, d.IsUnreachable(), "no known block means unreachable, not unsure")

	_, ok = newTestEngine().BlockDistance(g, seeds, "b.c:9")
	assert.False(t, ok, "blocks without nodes are omitted")
}

func TestCoefficientIsConfigurable(t *testing.T) {
	g := parseCFG(t, functionCFG)
	cgDistances := map[string]models.Distance{"g.c:1;g": models.Known(2)}
	calls := []artifacts.BlockCall{{Block: "a.c:4", Callee: "g.c:1;g"}}
	seeds := Preliminary(g, cgDistances, calls, nil)

	cfg := models.DefaultAnalysisConfig()
	cfg.IntraCallCoefficient = 1
	e := NewDistanceEngine(utils.DiscardLogger(), &cfg)

	d, ok := e.BlockDistance(g, seeds, "a.c:4")
	require.True(t, ok)
	assert.Equal(t, models.Known(2), d)
}

// a.c:1 and the target a.c:3 each have two nodes, as LLVM emits for
// blocks split by the uniquifying suffix:
// a.c:0 -> a.c:1 -> a.c:2 -> a.c:3 and a.c:0 -> a.c:1' -> a.c:3'
const duplicateBlocksCFG = `digraph "CFG for 'f' function" {
	Node0x0 [shape=record,label="{a.c:0:0}"];
	Node0x1 [shape=record,label="{a.c:1:1}"];
	Node0x2 [shape=record,label="{a.c:2:2}"];
	Node0x3 [shape=record,label="{a.c:3:3}"];
	Node0x5 [shape=record,label="{a.c:1:}"];
	Node0x6 [shape=record,label="{a.c:3:}"];
	Node0x0 -> Node0x1;
	Node0x1 -> Node0x2;
	Node0x2 -> Node0x3;
	Node0x0 -> Node0x5;
	Node0x5 -> Node0x6;
}
`

func TestDuplicateBlockNodes(t *testing.T) {
	g := parseCFG(t, duplicateBlocksCFG)
	require.Len(t, g.Lookup("a.c:1"), 2)
	require.Len(t, g.Lookup("a.c:3"), 2)

	seeds := Preliminary(g, nil, nil, []string{"a.c:3"})
	e := newTestEngine()

	tests := []struct {
		block string
		want  float64
	}{
		// both instances of a.c:3 reachable: closeness averaged over them, 1/((1/4+1/3)/2)
		{"a.c:0", 24.0 / 7.0},
		// first instance gives 3.0, second gives 2.0: the closest wins
		{"a.c:1", 2.0},
		// only one target instance reachable
		{"a.c:2", 2.0},
		{"a.c:3", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.block, func(t *testing.T) {
			d, ok := e.BlockDistance(g, seeds, tt.block)
			require.True(t, ok)
			require.True(t, d.IsKnown())
			assert.InDelta(t, tt.want, d.Value(), 1e-9)
		})
	}
}
