// Package propagation resolves block distances across function boundaries
// by walking the call graph breadth first from the program entry points.
package propagation

import (
	"errors"
	"log/slog"

	"github.com/smith-xyz/golang-distance-generator/pkg/analysis/callgraph"
	"github.com/smith-xyz/golang-distance-generator/pkg/artifacts"
	"github.com/smith-xyz/golang-distance-generator/pkg/graph"
	"github.com/smith-xyz/golang-distance-generator/pkg/models"
	"github.com/smith-xyz/golang-distance-generator/pkg/stats"
)

// Engine owns the traversal state. It mutates the block table in place
// and must be driven from a single goroutine.
type Engine struct {
	logger         *slog.Logger
	verbose        bool
	callGraph      *graph.Graph
	cfgs           *artifacts.CFGStore
	blocks         *models.BlockTable
	entryPoints    *callgraph.EntryPointAnalyzer
	hopCoefficient float64
	innerCallDelta float64
	visited        map[int64]bool
	stats          *stats.Run
}

// NewEngine creates a propagation engine over the call graph, the CFG store
// and the block table it will update
func NewEngine(logger *slog.Logger, analysisConfig *models.AnalysisConfig, callGraph *graph.Graph, cfgs *artifacts.CFGStore, blocks *models.BlockTable, run *stats.Run) *Engine {
	defaults := models.DefaultAnalysisConfig()
	if analysisConfig == nil {
		analysisConfig = &defaults
	}
	hop := analysisConfig.CallHopCoefficient
	if hop <= 0 {
		hop = defaults.CallHopCoefficient
	}
	delta := analysisConfig.InnerCallDelta
	if delta <= 0 {
		delta = defaults.InnerCallDelta
	}
	entryNames := analysisConfig.EntryPoints
	if len(entryNames) == 0 {
		entryNames = defaults.EntryPoints
	}

	return &Engine{
		logger:         logger,
		verbose:        analysisConfig.Verbose,
		callGraph:      callGraph,
		cfgs:           cfgs,
		blocks:         blocks,
		entryPoints:    callgraph.NewEntryPointAnalyzer(logger, analysisConfig.Verbose, entryNames),
		hopCoefficient: hop,
		innerCallDelta: delta,
		visited:        make(map[int64]bool),
		stats:          run,
	}
}

// Blocks returns the block table being updated
func (e *Engine) Blocks() *models.BlockTable {
	return e.blocks
}

// Visited reports whether node was processed successfully
func (e *Engine) Visited(node *graph.Node) bool {
	return e.visited[node.ID()]
}

// Run walks the call graph from every entry point
func (e *Engine) Run() error {
	entries := e.entryPoints.BuildEntryPoints(e.callGraph)
	for _, entry := range entries {
		if err := e.walk(entry); err != nil {
			return err
		}
	}
	if e.verbose {
		e.logger.Debug("Propagation finished",
			"entry_points", len(entries),
			"visited", len(e.visited),
			"cfgs_loaded", e.cfgs.Len())
	}
	return nil
}

// walk is a breadth-first traversal from source. Callees of a node are only
// queued once the node itself was processed.
func (e *Engine) walk(source *graph.Node) error {
	queue := []*graph.Node{source}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if e.visited[node.ID()] {
			continue
		}
		ok, err := e.Process(node)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		e.visited[node.ID()] = true
		queue = append(queue, e.callGraph.Successors(node)...)
	}
	return nil
}

// Process visits one call graph node. It returns false when the function's
// CFG is unavailable, so the branch is not expanded and may be retried from
// another caller. Only malformed CFG files are errors.
func (e *Engine) Process(node *graph.Node) (bool, error) {
	function := node.Key()
	cfg, err := e.cfgs.Load(function)
	if err != nil {
		if errors.Is(err, artifacts.ErrMissingArtifact) {
			e.logger.Debug("CFG not found, pruning branch", "function", function)
			e.stats.VisitFailed()
			return false, nil
		}
		return false, err
	}
	e.stats.NodeVisited()

	minDistance := models.Unreachable()
	hasPredecessor := false
	hasUnsure := false
	for _, p := range e.callGraph.Predecessors(node) {
		if !e.visited[p.ID()] {
			continue
		}
		hasPredecessor = true
		distance := e.DistanceAfterCall(p.Key(), function)
		if distance.IsUnsure() {
			hasUnsure = true
			continue
		}
		minDistance = models.MinDistance(minDistance, distance)
	}

	if !hasPredecessor && e.entryPoints.IsEntryPoint(node) {
		return true, nil
	}
	if hasPredecessor && minDistance.IsFar() {
		e.stats.BranchPruned()
		return true, nil
	}

	resolved := 0
	for _, n := range cfg.Nodes() {
		record, ok := e.blocks.Get(n.Key())
		if !ok || !record.Distance.NeedsResolution() {
			continue
		}
		switch {
		case !hasPredecessor:
			record.Distance = models.Unsure()
		case minDistance.IsFar():
			if hasUnsure {
				record.Distance = models.Unsure()
			}
		default:
			record.Distance = minDistance.Add(e.hopCoefficient)
			resolved++
		}
	}
	e.stats.BlocksResolved(resolved)
	return true, nil
}

// DistanceAfterCall returns the distance observed around the call sites of
// callee inside caller: the call-site blocks themselves when close, and
// their CFG successors. A call-site block that still needs resolution is
// backfilled from its closest successor. The result is unsure when nothing
// close was seen and some block involved was unsure, and unreachable when
// caller never calls callee.
func (e *Engine) DistanceAfterCall(caller, callee string) models.Distance {
	callerCFG, ok := e.cfgs.Cached(caller)
	if !ok {
		return models.Unsure()
	}
	if _, ok := e.cfgs.Cached(callee); !ok {
		return models.Unsure()
	}

	result := models.Unreachable()
	hasUnsure := false
	for _, n := range callerCFG.Nodes() {
		block := n.Key()
		site, ok := e.blocks.Get(block)
		if !ok || !site.CallsFunction(callee) {
			continue
		}

		switch {
		case site.Distance.IsUnsure():
			hasUnsure = true
		case site.Distance.IsClose():
			result = models.MinDistance(result, site.Distance)
		}

		after := models.Unreachable()
		for _, s := range callerCFG.Successors(n) {
			if s.Key() == block {
				continue
			}
			next, ok := e.blocks.Get(s.Key())
			if !ok {
				continue
			}
			if next.Distance.IsUnsure() {
				hasUnsure = true
				continue
			}
			result = models.MinDistance(result, next.Distance)
			after = models.MinDistance(after, next.Distance)
		}

		if site.Distance.NeedsResolution() && after.IsClose() {
			site.Distance = after.Add(e.innerCallDelta)
			e.stats.BlockBackfilled()
		}
	}

	if result.IsFar() && hasUnsure {
		return models.Unsure()
	}
	return result
}
