package callgraph

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/smith-xyz/golang-distance-generator/pkg/artifacts"
	"github.com/smith-xyz/golang-distance-generator/pkg/graph"
	"github.com/smith-xyz/golang-distance-generator/pkg/models"
	"github.com/smith-xyz/golang-distance-generator/pkg/stats"
)

// StageFiles names the inputs and output of the call graph stage
type StageFiles struct {
	CallGraph string // DOT call graph
	Targets   string // target function names
	Names     string // function names to score
	Output    string // function,distance records
}

// RunStage scores every listed function against the target functions and
// writes the distance file. An empty resolved target set is an error.
func RunStage(logger *slog.Logger, analysisConfig *models.AnalysisConfig, files StageFiles, run *stats.Run) error {
	start := time.Now()
	defer run.ObserveStage("callgraph", start)

	for _, path := range []string{files.CallGraph, files.Targets, files.Names} {
		if err := artifacts.RequireFile(path); err != nil {
			return err
		}
	}

	cg, err := graph.LoadFile(files.CallGraph, graph.CallGraph, analysisConfig.PathCacheSize)
	if err != nil {
		return err
	}
	logger.Debug("Call graph loaded", "nodes", cg.Len(), "edges", cg.EdgeCount())

	targets, err := artifacts.ReadLines(files.Targets)
	if err != nil {
		return err
	}
	names, err := artifacts.ReadLines(files.Names)
	if err != nil {
		return err
	}

	engine := NewDistanceEngine(logger, analysisConfig, cg)
	engine.ResolveTargets(targets)
	if err := engine.CheckTargets(); err != nil {
		return fmt.Errorf("%s: %w", files.Targets, err)
	}

	records := engine.Calculate(names)
	run.FunctionsScored(len(records), len(names)-len(records))

	if err := artifacts.WriteDistances(files.Output, records); err != nil {
		return err
	}
	logger.Info("Call graph distances written", "file", files.Output, "functions", len(records))
	return nil
}
