package callgraph

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/smith-xyz/golang-distance-generator/pkg/graph"
	"github.com/smith-xyz/golang-distance-generator/pkg/models"
)

// ErrNoTargets is returned when none of the target functions exist in the call graph
var ErrNoTargets = errors.New("no target function found in the call graph")

// DistanceEngine scores functions by their harmonic closeness to a set of
// target nodes in the call graph. The graph is only read.
type DistanceEngine struct {
	logger  *slog.Logger
	verbose bool
	graph   *graph.Graph
	targets []*graph.Node
}

// NewDistanceEngine creates a new call graph distance engine
func NewDistanceEngine(logger *slog.Logger, analysisConfig *models.AnalysisConfig, g *graph.Graph) *DistanceEngine {
	verbose := false
	if analysisConfig != nil {
		verbose = analysisConfig.Verbose
	}
	return &DistanceEngine{
		logger:  logger,
		verbose: verbose,
		graph:   g,
	}
}

// ResolveTargets adds every node matching each target name to the target set
// and returns the number of nodes added. Names with no node are logged and skipped.
func (e *DistanceEngine) ResolveTargets(names []string) int {
	added := 0
	for _, name := range names {
		nodes := e.graph.Lookup(name)
		if len(nodes) == 0 {
			e.logger.Debug("Target function not in call graph", "function", name)
			continue
		}
		e.targets = append(e.targets, nodes...)
		added += len(nodes)
	}
	return added
}

// Targets returns the resolved target nodes
func (e *DistanceEngine) Targets() []*graph.Node {
	return e.targets
}

// FunctionDistance scores one function name. ok is false when the name has no
// node in the call graph, in which case nothing should be published for it.
func (e *DistanceEngine) FunctionDistance(name string) (distance models.Distance, ok bool) {
	nodes := e.graph.Lookup(name)
	if len(nodes) == 0 {
		return models.Unsure(), false
	}

	best := models.Unsure()
	found := false
	missedTarget := false
	for _, u := range nodes {
		var d float64
		i := 0
		for _, t := range e.targets {
			length, reachable := e.graph.ShortestPathLength(u, t)
			if !reachable {
				missedTarget = true
				continue
			}
			d += 1.0 / (1.0 + float64(length))
			i++
		}
		if d > 0 {
			candidate := models.Known(float64(i) / d)
			if !found || candidate.Less(best) {
				best = candidate
				found = true
			}
		}
	}

	switch {
	case found:
		return best, true
	case missedTarget:
		return models.Unreachable(), true
	default:
		// no targets at all: nothing is known about this function
		return models.Unsure(), false
	}
}

// Calculate scores every name in order and returns one record per name present
// in the call graph
func (e *DistanceEngine) Calculate(names []string) []models.DistanceRecord {
	records := make([]models.DistanceRecord, 0, len(names))
	omitted := 0
	for _, name := range names {
		distance, ok := e.FunctionDistance(name)
		if !ok {
			omitted++
			continue
		}
		records = append(records, models.DistanceRecord{Name: name, Distance: distance})
	}

	if e.verbose {
		e.logger.Debug("Call graph distances calculated",
			"functions", len(names),
			"scored", len(records),
			"omitted", omitted,
			"targets", len(e.targets))
	}
	return records
}

// CheckTargets fails with ErrNoTargets when the target set is empty
func (e *DistanceEngine) CheckTargets() error {
	if len(e.targets) == 0 {
		return fmt.Errorf("%w (%d nodes searched)", ErrNoTargets, e.graph.Len())
	}
	return nil
}
