package callgraph

import (
	"log/slog"

	"github.com/smith-xyz/golang-distance-generator/pkg/graph"
)

// EntryPointAnalyzer finds the program entry points of a call graph
type EntryPointAnalyzer struct {
	logger      *slog.Logger
	verbose     bool
	entryPoints []string
}

// NewEntryPointAnalyzer creates a new entry point analyzer for the given entry function names
func NewEntryPointAnalyzer(logger *slog.Logger, verbose bool, entryPoints []string) *EntryPointAnalyzer {
	e := &EntryPointAnalyzer{
		logger:  logger,
		verbose: verbose,
	}
	e.SetEntryPoints(entryPoints)
	return e
}

// SetEntryPoints replaces the recognized entry function names
func (e *EntryPointAnalyzer) SetEntryPoints(entryPoints []string) {
	e.entryPoints = make([]string, len(entryPoints))
	copy(e.entryPoints, entryPoints)
}

// IsEntryPoint reports whether the node's symbol is a recognized entry function
func (e *EntryPointAnalyzer) IsEntryPoint(n *graph.Node) bool {
	return n != nil && graph.IsEntryName(n.Key(), e.entryPoints)
}

// BuildEntryPoints returns the nodes that start a traversal: no callers and
// an entry function symbol. Nodes are returned in declaration order.
func (e *EntryPointAnalyzer) BuildEntryPoints(g *graph.Graph) []*graph.Node {
	var entries []*graph.Node
	for _, n := range g.Nodes() {
		if g.InDegree(n) != 0 || !e.IsEntryPoint(n) {
			continue
		}
		entries = append(entries, n)
	}

	if e.verbose {
		e.logger.Debug("Entry points found", "count", len(entries))
	}
	if len(entries) == 0 {
		e.logger.Warn("No entry point without callers found in call graph", "entry_points", e.entryPoints)
	}
	return entries
}
