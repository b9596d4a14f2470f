package cfg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/smith-xyz/golang-distance-generator/pkg/artifacts"
	"github.com/smith-xyz/golang-distance-generator/pkg/graph"
	"github.com/smith-xyz/golang-distance-generator/pkg/models"
	"github.com/smith-xyz/golang-distance-generator/pkg/stats"
	"github.com/smith-xyz/golang-distance-generator/pkg/utils"
)

// StageFiles names the inputs and outputs of the CFG stage
type StageFiles struct {
	DotDir            string // cfg.<function>.dot files
	CallGraph         string // DOT call graph, decides which CFGs are scored
	CallGraphDistance string // output of the call graph stage
	BlockNames        string // blocks to score, in output order
	BlockCalls        string // block,callee records
	Targets           string // resolved target blocks
	FunctionDir       string // per-function distance files
	Output            string // merged block distances
}

// inputs are read once and shared read-only by all workers
type inputs struct {
	functions   map[string]bool
	cgDistances map[string]models.Distance
	calls       []artifacts.BlockCall
	order       map[string]int
	targets     []string
}

// Runner evaluates every function CFG on a bounded pool of workers
type Runner struct {
	logger          *slog.Logger
	engine          *DistanceEngine
	workers         int
	pathCacheSize   int
	instrumentation *utils.Instrumentation
	stats           *stats.Run
}

// NewRunner creates a CFG stage runner. A nil instrumentation disables progress reporting.
func NewRunner(logger *slog.Logger, analysisConfig *models.AnalysisConfig, instrumentation *utils.Instrumentation, run *stats.Run) *Runner {
	workers := analysisConfig.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if instrumentation == nil {
		instrumentation = utils.NewInstrumentation(logger, analysisConfig.Verbose, nil)
	}
	return &Runner{
		logger:          logger,
		engine:          NewDistanceEngine(logger, analysisConfig),
		workers:         workers,
		pathCacheSize:   analysisConfig.PathCacheSize,
		instrumentation: instrumentation,
		stats:           run,
	}
}

// Run scores the blocks of every CFG in files.DotDir, writes one distance
// file per function and merges them into files.Output in file name order.
func (r *Runner) Run(ctx context.Context, files StageFiles) error {
	start := time.Now()
	defer r.stats.ObserveStage("cfg", start)

	in, err := r.loadInputs(files)
	if err != nil {
		return err
	}

	cfgFiles, err := artifacts.ListCFGFiles(files.DotDir)
	if err != nil {
		return err
	}

	if err := clearFunctionFiles(files.FunctionDir); err != nil {
		return err
	}

	progress := r.instrumentation.NewProgressTracker("cfg distances", len(cfgFiles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, path := range cfgFiles {
		path := path
		g.Go(func() error {
			defer progress.Update(1)
			if err := gctx.Err(); err != nil {
				return err
			}
			return r.processFile(path, files.FunctionDir, in)
		})
	}
	err = g.Wait()
	progress.Complete()
	if err != nil {
		return err
	}

	outputs, err := artifacts.ListFunctionDistanceFiles(files.FunctionDir)
	if err != nil {
		return err
	}
	if err := artifacts.MergeFiles(outputs, files.Output); err != nil {
		return err
	}
	r.logger.Info("CFG distances written", "file", files.Output, "functions", len(outputs), "cfgs", len(cfgFiles))
	return nil
}

// clearFunctionFiles removes per-function distance files left by an earlier
// run, which would otherwise leak into the merged output. Other files in dir
// are kept.
func clearFunctionFiles(dir string) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	stale, err := artifacts.ListFunctionDistanceFiles(dir)
	if err != nil {
		return err
	}
	for _, path := range stale {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return nil
}

func (r *Runner) loadInputs(files StageFiles) (*inputs, error) {
	if err := artifacts.RequireDir(files.DotDir); err != nil {
		return nil, err
	}
	for _, path := range []string{files.CallGraph, files.CallGraphDistance, files.BlockNames, files.BlockCalls, files.Targets} {
		if err := artifacts.RequireFile(path); err != nil {
			return nil, err
		}
	}

	cg, err := graph.LoadFile(files.CallGraph, graph.CallGraph, r.pathCacheSize)
	if err != nil {
		return nil, err
	}
	functions := make(map[string]bool, cg.Len())
	for _, key := range cg.Keys() {
		functions[key] = true
	}

	cgRecords, err := artifacts.ReadDistances(files.CallGraphDistance)
	if err != nil {
		return nil, err
	}
	calls, err := artifacts.ReadBlockCalls(files.BlockCalls)
	if err != nil {
		return nil, err
	}
	names, err := artifacts.ReadLines(files.BlockNames)
	if err != nil {
		return nil, err
	}
	targets, err := artifacts.ReadLines(files.Targets)
	if err != nil {
		return nil, err
	}

	order := make(map[string]int, len(names))
	for i, name := range names {
		if _, seen := order[name]; !seen {
			order[name] = i
		}
	}

	return &inputs{
		functions:   functions,
		cgDistances: artifacts.DistanceMap(cgRecords),
		calls:       calls,
		order:       order,
		targets:     targets,
	}, nil
}

func (r *Runner) processFile(path, functionDir string, in *inputs) error {
	function, ok := artifacts.FunctionFromCFGFileName(path)
	if !ok {
		r.stats.CFGSkipped()
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.Size() == 0 || !in.functions[function] {
		r.logger.Debug("Skipping CFG", "function", function, "size", info.Size())
		r.stats.CFGSkipped()
		return nil
	}

	cfg, err := graph.LoadFile(path, graph.ControlFlowGraph, r.pathCacheSize)
	if err != nil {
		return err
	}

	seeds := Preliminary(cfg, in.cgDistances, in.calls, in.targets)
	records := r.engine.Calculate(cfg, seeds, blocksInOrder(cfg, in.order))

	out := filepath.Join(functionDir, artifacts.FunctionDistanceFileName(function))
	if err := artifacts.WriteDistances(out, records); err != nil {
		return err
	}
	r.stats.CFGProcessed(len(records))
	return nil
}

// blocksInOrder returns the listed blocks that have a node in cfg, in list order
func blocksInOrder(cfg *graph.Graph, order map[string]int) []string {
	var blocks []string
	for _, key := range cfg.Keys() {
		if _, ok := order[key]; ok {
			blocks = append(blocks, key)
		}
	}
	sort.Slice(blocks, func(i, j int) bool { return order[blocks[i]] < order[blocks[j]] })
	return blocks
}
