package graph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const callGraphDOT = `digraph "Call graph: prog.0.0.preopt.bc" {
	label="Call graph: prog.0.0.preopt.bc";

	Node0x1 [shape=record,label="{m.c:1;main}"];
	Node0x2 [shape=record,label="{a.c:10;parse}"];
	Node0x3 [shape=record,label="{b.c:20;target}"];
	Node0x4 [shape=record,label="{(unknown)}"];
	Node0x5 [shape=record,label="{a.c:10;parse}"];
	Node0x1 -> Node0x2;
	Node0x1 -> Node0x4;
	Node0x4 -> Node0x3;
	Node0x2 -> Node0x3;
	Node0x5 -> Node0x5;
}
`

const cfgDOT = `digraph "CFG for 'parse' function" {
	label="CFG for 'parse' function";

	Node0xa [shape=record,label="{a.c:10:0}"];
	Node0xb [shape=record,label="{a.c:11:1}"];
	Node0xc [shape=record,label="{a.c:12:2}"];
	Node0xd [shape=record,label="{a.c:11:3}"];
	Node0xa -> Node0xb;
	Node0xa -> Node0xd;
	Node0xb -> Node0xc;
	Node0xd -> Node0xc;
}
`

func keys(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Key())
	}
	return out
}

func TestParseCallGraph(t *testing.T) {
	g, err := Parse([]byte(callGraphDOT), CallGraph, 0)
	require.NoError(t, err)

	assert.Equal(t, 4, g.Len(), "(unknown) node must be dropped")
	assert.False(t, g.Has(UnknownFunction))
	assert.Equal(t, 2, g.EdgeCount(), "edges through (unknown) and self loops are dropped")

	if diff := cmp.Diff([]string{"m.c:1;main", "a.c:10;parse", "b.c:20;target"}, g.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}

	parse := g.Lookup("a.c:10;parse")
	require.Len(t, parse, 2, "duplicate instances must all be indexed")
	assert.Equal(t, "Node0x2", parse[0].DOTID())
	assert.Equal(t, "Node0x5", parse[1].DOTID())
	assert.Empty(t, g.Predecessors(parse[1]))
	assert.Equal(t, 1, g.InDegree(parse[1]), "a dropped self loop still counts as an incoming edge")

	main := g.Lookup("m.c:1;main")[0]
	assert.Equal(t, 0, g.InDegree(main))
	assert.Equal(t, []string{"a.c:10;parse"}, keys(g.Successors(main)))

	target := g.Lookup("b.c:20;target")[0]
	assert.Equal(t, []string{"a.c:10;parse"}, keys(g.Predecessors(target)))

	assert.Empty(t, g.Lookup("a.c:10"), "lookup is by whole function name")
}

func TestParseCFG(t *testing.T) {
	g, err := Parse([]byte(cfgDOT), ControlFlowGraph, 16)
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"a.c:10", "a.c:11", "a.c:12"}, g.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, g.Lookup("a.c:11"), 2)

	entry := g.Lookup("a.c:10")[0]
	assert.Equal(t, []string{"a.c:11", "a.c:11"}, keys(g.Successors(entry)), "successors in declaration order")
}

func TestShortestPathLength(t *testing.T) {
	g, err := Parse([]byte(cfgDOT), ControlFlowGraph, 2)
	require.NoError(t, err)

	entry := g.Lookup("a.c:10")[0]
	exit := g.Lookup("a.c:12")[0]

	tests := []struct {
		name      string
		from, to  *Node
		length    int
		reachable bool
	}{
		{"self", entry, entry, 0, true},
		{"two hops", entry, exit, 2, true},
		{"one hop", g.Lookup("a.c:11")[1], exit, 1, true},
		{"against edge direction", exit, entry, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			length, ok := g.ShortestPathLength(tt.from, tt.to)
			assert.Equal(t, tt.reachable, ok)
			if tt.reachable {
				assert.Equal(t, tt.length, length)
			}
		})
	}

	// cached results must match fresh ones
	first := g.DistancesTo(exit)
	second := g.DistancesTo(exit)
	assert.Equal(t, first, second)
	assert.Len(t, first, 4)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "callgraph.dot")
	require.NoError(t, os.WriteFile(path, []byte(callGraphDOT), 0600))

	g, err := LoadFile(path, CallGraph, 0)
	require.NoError(t, err)
	assert.True(t, g.Has("b.c:20;target"))

	_, err = LoadFile(filepath.Join(dir, "missing.dot"), CallGraph, 0)
	assert.Error(t, err)

	broken := filepath.Join(dir, "broken.dot")
	require.NoError(t, os.WriteFile(broken, []byte("digraph {"), 0600))
	_, err = LoadFile(broken, CallGraph, 0)
	assert.Error(t, err)
}
