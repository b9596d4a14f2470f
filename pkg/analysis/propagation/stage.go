package propagation

import (
	"log/slog"
	"time"

	"github.com/smith-xyz/golang-distance-generator/pkg/artifacts"
	"github.com/smith-xyz/golang-distance-generator/pkg/graph"
	"github.com/smith-xyz/golang-distance-generator/pkg/models"
	"github.com/smith-xyz/golang-distance-generator/pkg/stats"
)

// StageFiles names the inputs and output of the propagation stage
type StageFiles struct {
	DotDir     string // cfg.<function>.dot files
	CallGraph  string // DOT call graph
	BlockNames string // all block identifiers
	BlockCalls string // block,callee records
	Input      string // merged CFG distances
	Output     string // final block distances
}

// RunStage loads the block table, propagates distances along the call graph
// and writes every block record. Input and output are distinct files, so the
// stage can be rerun on the same inputs.
func RunStage(logger *slog.Logger, analysisConfig *models.AnalysisConfig, files StageFiles, run *stats.Run) error {
	start := time.Now()
	defer run.ObserveStage("propagation", start)

	if err := artifacts.RequireDir(files.DotDir); err != nil {
		return err
	}
	for _, path := range []string{files.CallGraph, files.BlockNames, files.BlockCalls, files.Input} {
		if err := artifacts.RequireFile(path); err != nil {
			return err
		}
	}

	cg, err := graph.LoadFile(files.CallGraph, graph.CallGraph, analysisConfig.PathCacheSize)
	if err != nil {
		return err
	}
	blocks, err := LoadBlocks(files.BlockNames, files.BlockCalls, files.Input)
	if err != nil {
		return err
	}
	logger.Debug("Block table loaded", "blocks", blocks.Len())

	cfgs := artifacts.NewCFGStore(files.DotDir, analysisConfig.PathCacheSize)
	engine := NewEngine(logger, analysisConfig, cg, cfgs, blocks, run)
	if err := engine.Run(); err != nil {
		return err
	}

	if err := artifacts.WriteDistances(files.Output, blocks.DistanceRecords()); err != nil {
		return err
	}
	logger.Info("Propagated block distances written", "file", files.Output, "blocks", blocks.Len())
	return nil
}
