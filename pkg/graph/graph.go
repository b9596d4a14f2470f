// Package graph loads call graphs and control flow graphs from Graphviz DOT
// files and answers label and shortest path queries over them.
//
// Labels are parsed once at load time into a canonical key (a function name
// for call graphs, a basic block identifier for CFGs). Because the upstream
// call graph is merged incrementally and never deduplicated, one key may map
// to several nodes.
package graph

import (
	"fmt"
	"os"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"
)

// Kind selects how node labels are turned into keys
type Kind int

const (
	// CallGraph labels encode a function name: "{name}"
	CallGraph Kind = iota
	// ControlFlowGraph labels encode a block identifier: "{block:N}"
	ControlFlowGraph
)

func (k Kind) String() string {
	switch k {
	case CallGraph:
		return "callgraph"
	case ControlFlowGraph:
		return "cfg"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

const defaultPathCacheSize = 4096

// Node is a DOT node carrying its raw label and parsed key
type Node struct {
	id    int64
	seq   int
	dotID string
	label string
	key   string
}

// ID implements gonum.Node
func (n *Node) ID() int64 { return n.id }

// DOTID returns the node identifier used in the DOT source
func (n *Node) DOTID() string { return n.dotID }

// Label returns the raw label attribute
func (n *Node) Label() string { return n.label }

// Key returns the function name or block identifier parsed from the label
func (n *Node) Key() string { return n.key }

// SetDOTID implements dot.DOTIDSetter
func (n *Node) SetDOTID(id string) { n.dotID = id }

// SetAttribute implements encoding.AttributeSetter. Only the label is kept.
func (n *Node) SetAttribute(attr encoding.Attribute) error {
	if attr.Key == "label" {
		n.label = attr.Value
	}
	return nil
}

// builder adapts simple.DirectedGraph to the DOT decoder
type builder struct {
	*simple.DirectedGraph
	next      int
	selfLoops map[int64]bool
}

func (b *builder) NewNode() gonum.Node {
	n := &Node{id: b.DirectedGraph.NewNode().ID(), seq: b.next}
	b.next++
	return n
}

// SetEdge keeps self loops out of the graph, since simple graphs reject them
// and they never shorten a path. They are remembered for InDegree.
func (b *builder) SetEdge(e gonum.Edge) {
	if id := e.From().ID(); id == e.To().ID() {
		b.selfLoops[id] = true
		return
	}
	b.DirectedGraph.SetEdge(e)
}

// DOTAttributeSetters implements dot.AttributeSetters. Graph-wide attribute
// statements such as the graph label are accepted and dropped.
func (b *builder) DOTAttributeSetters() (g, n, e encoding.AttributeSetter) {
	return discard{}, discard{}, discard{}
}

type discard struct{}

func (discard) SetAttribute(encoding.Attribute) error { return nil }

// Graph is a directed graph with a key index over its nodes
type Graph struct {
	g         *simple.DirectedGraph
	nodes     []*Node
	index     map[string][]*Node
	selfLoops map[int64]bool
	paths     *lru.Cache[int64, map[int64]int]
}

// Parse decodes DOT source into a Graph. For call graphs, nodes labelled
// (unknown) are dropped together with their edges.
func Parse(data []byte, kind Kind, pathCacheSize int) (*Graph, error) {
	b := &builder{DirectedGraph: simple.NewDirectedGraph(), selfLoops: make(map[int64]bool)}
	if err := dot.Unmarshal(data, b); err != nil {
		return nil, fmt.Errorf("failed to decode %s dot: %w", kind, err)
	}

	if pathCacheSize <= 0 {
		pathCacheSize = defaultPathCacheSize
	}
	paths, err := lru.New[int64, map[int64]int](pathCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create path cache: %w", err)
	}

	g := &Graph{
		g:         b.DirectedGraph,
		index:     make(map[string][]*Node),
		selfLoops: b.selfLoops,
		paths:     paths,
	}

	var nodes []*Node
	for it := b.Nodes(); it.Next(); {
		if n, ok := it.Node().(*Node); ok {
			nodes = append(nodes, n)
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].seq < nodes[j].seq })

	for _, n := range nodes {
		switch kind {
		case CallGraph:
			n.key = FunctionNameFromLabel(n.label)
			if n.key == UnknownFunction {
				b.RemoveNode(n.id)
				continue
			}
		case ControlFlowGraph:
			n.key = BlockNameFromLabel(n.label)
		}
		g.nodes = append(g.nodes, n)
		if n.key != "" {
			g.index[n.key] = append(g.index[n.key], n)
		}
	}

	return g, nil
}

// LoadFile reads and decodes a DOT file
func LoadFile(path string, kind Kind, pathCacheSize int) (*Graph, error) {
	data, err := os.ReadFile(path) // #nosec G304 - artifact paths come from the run layout
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	g, err := Parse(data, kind, pathCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return g, nil
}

// Nodes returns all nodes in DOT declaration order
func (g *Graph) Nodes() []*Node { return g.nodes }

// Len returns the number of nodes
func (g *Graph) Len() int { return len(g.nodes) }

// Lookup returns every node whose key equals key
func (g *Graph) Lookup(key string) []*Node { return g.index[key] }

// Has reports whether any node carries key
func (g *Graph) Has(key string) bool { return len(g.index[key]) > 0 }

// Keys returns the distinct keys in first-declaration order
func (g *Graph) Keys() []string {
	seen := make(map[string]bool, len(g.index))
	keys := make([]string, 0, len(g.index))
	for _, n := range g.nodes {
		if n.key == "" || seen[n.key] {
			continue
		}
		seen[n.key] = true
		keys = append(keys, n.key)
	}
	return keys
}

// Successors returns the direct successors of n in declaration order
func (g *Graph) Successors(n *Node) []*Node {
	return collect(g.g.From(n.id))
}

// Predecessors returns the direct predecessors of n in declaration order
func (g *Graph) Predecessors(n *Node) []*Node {
	return collect(g.g.To(n.id))
}

// InDegree returns the number of incoming edges of n, a self loop included
func (g *Graph) InDegree(n *Node) int {
	degree := g.g.To(n.id).Len()
	if g.selfLoops[n.id] {
		degree++
	}
	return degree
}

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int {
	return g.g.Edges().Len()
}

func collect(it gonum.Nodes) []*Node {
	var nodes []*Node
	for it.Next() {
		if n, ok := it.Node().(*Node); ok {
			nodes = append(nodes, n)
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].seq < nodes[j].seq })
	return nodes
}
