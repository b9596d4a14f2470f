// Package pipeline sequences the distance stages of one run and records
// progress so an interrupted run resumes at the first unfinished stage.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/smith-xyz/golang-distance-generator/pkg/analysis/callgraph"
	"github.com/smith-xyz/golang-distance-generator/pkg/analysis/cfg"
	"github.com/smith-xyz/golang-distance-generator/pkg/analysis/propagation"
	"github.com/smith-xyz/golang-distance-generator/pkg/artifacts"
	"github.com/smith-xyz/golang-distance-generator/pkg/config"
	"github.com/smith-xyz/golang-distance-generator/pkg/models"
	"github.com/smith-xyz/golang-distance-generator/pkg/stats"
	"github.com/smith-xyz/golang-distance-generator/pkg/utils"
)

// Pipeline runs the parse, call graph, CFG and propagation steps of a run
type Pipeline struct {
	logger          *slog.Logger
	run             *config.RunContext
	analysis        models.AnalysisConfig
	instrumentation *utils.Instrumentation
	messages        *utils.VerboseLogger
	steps           *StepLog
	stats           *stats.Run
}

// New creates a pipeline for the given run layout
func New(logger *slog.Logger, run *config.RunContext, analysis models.AnalysisConfig, instrumentation *utils.Instrumentation, counters *stats.Run) *Pipeline {
	if instrumentation == nil {
		instrumentation = utils.NewInstrumentation(logger, analysis.Verbose, nil)
	}
	return &Pipeline{
		logger:          logger,
		run:             run,
		analysis:        analysis,
		instrumentation: instrumentation,
		messages:        utils.NewVerboseLogger(analysis.Verbose),
		steps:           NewStepLog(run.StepLogFile()),
		stats:           counters,
	}
}

// Restore forgets recorded progress so the next Run starts from the first step
func (p *Pipeline) Restore() error {
	p.logger.Debug("Restoring steps", "step_log", p.run.StepLogFile())
	return p.steps.Reset()
}

// Run executes every step not yet recorded as complete
func (p *Pipeline) Run(ctx context.Context) error {
	step, err := p.steps.Current()
	if err != nil {
		return err
	}

	for ; !step.Done(); step++ {
		p.messages.Infof("[Step:%d] %s", int(step)+1, p.describe(step))
		start := time.Now()
		err := p.instrumentation.TimedOperation(step.String(), func() error {
			return p.execute(ctx, step)
		})
		if err != nil {
			return p.fail(step, err)
		}
		p.messages.Logf("[Step:%d] %s finished in %s\n", int(step)+1, step, time.Since(start).Round(time.Millisecond))
		if err := p.steps.Complete(step); err != nil {
			return err
		}
	}

	p.messages.Infof("All the things were done!")
	return nil
}

func (p *Pipeline) describe(step Step) string {
	switch step {
	case StepParse:
		return fmt.Sprintf("Parsing bitcode file for '%s'", p.run.BinName)
	case StepCallGraph:
		return "Calculating distances for call graph"
	case StepCFG:
		return "Calculating distances for CFGs (this may take a while)"
	case StepPropagation:
		return "Calculating supplemental distances"
	default:
		return step.String()
	}
}

func (p *Pipeline) execute(ctx context.Context, step Step) error {
	switch step {
	case StepParse:
		return p.parse(ctx)
	case StepCallGraph:
		return p.callGraphDistances()
	case StepCFG:
		return p.cfgDistances(ctx)
	case StepPropagation:
		return p.propagate()
	default:
		return fmt.Errorf("unknown step %d", int(step))
	}
}

// fail records err in the step error log unless a subprocess already captured one there
func (p *Pipeline) fail(step Step, err error) error {
	var cmdErr *utils.CommandError
	if errors.As(err, &cmdErr) {
		return err
	}
	logFile := p.run.StepErrorLog(int(step) + 1)
	if writeErr := os.WriteFile(logFile, []byte(err.Error()+"\n"), 0600); writeErr != nil {
		p.logger.Warn("Failed to write step error log", "file", logFile, "error", writeErr)
		return err
	}
	return fmt.Errorf("step %s failed, please check the log file %s: %w", step, logFile, err)
}

// parse produces the metadata directory. Without a configured parser the
// directory must already exist.
func (p *Pipeline) parse(ctx context.Context) error {
	if p.run.Tools.Parser == "" {
		p.logger.Info("No parser configured, using existing metadata", "dir", p.run.MetadataDir())
		return p.requireMetadata()
	}

	parser, err := utils.CheckToolAvailable(p.run.Tools.Parser)
	if err != nil {
		return err
	}
	bitcode := p.run.BitcodeFile()
	if err := artifacts.RequireFile(bitcode); err != nil {
		return err
	}
	targets := filepath.Join(p.run.TmpDir, p.run.Artifacts.BlockTargets)
	if err := artifacts.RequireFile(targets); err != nil {
		return err
	}
	root, err := filepath.Abs(p.run.ProjectRoot)
	if err != nil {
		return fmt.Errorf("failed to resolve project root: %w", err)
	}
	if err := artifacts.RequireDir(root); err != nil {
		return err
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	metadata := p.run.MetadataDir()
	if err := os.RemoveAll(metadata); err != nil {
		return fmt.Errorf("failed to clear %s: %w", metadata, err)
	}
	if err := os.MkdirAll(metadata, 0750); err != nil {
		return fmt.Errorf("failed to create %s: %w", metadata, err)
	}
	if err := utils.CopyFile(targets, p.run.MetadataFile(p.run.Artifacts.BlockTargets)); err != nil {
		return err
	}

	return utils.RunCommandWithLog(ctx, p.run.StepErrorLog(int(StepParse)+1), parser,
		"-b", bitcode,
		"-o", metadata,
		"-r", root,
	)
}

func (p *Pipeline) requireMetadata() error {
	if err := artifacts.RequireDir(p.run.MetadataDir()); err != nil {
		return err
	}
	if err := artifacts.RequireDir(p.run.DotFilesDir()); err != nil {
		return err
	}
	return artifacts.RequireFile(p.run.CallGraphFile())
}

func (p *Pipeline) callGraphDistances() error {
	return callgraph.RunStage(p.logger, &p.analysis, p.CallGraphFiles(), p.stats)
}

func (p *Pipeline) cfgDistances(ctx context.Context) error {
	runner := cfg.NewRunner(p.logger, &p.analysis, p.instrumentation, p.stats)
	return runner.Run(ctx, p.CFGFiles())
}

func (p *Pipeline) propagate() error {
	return propagation.RunStage(p.logger, &p.analysis, p.PropagationFiles(), p.stats)
}

// CallGraphFiles returns the artifact paths of the call graph step
func (p *Pipeline) CallGraphFiles() callgraph.StageFiles {
	a := p.run.Artifacts
	return callgraph.StageFiles{
		CallGraph: p.run.CallGraphFile(),
		Targets:   p.run.MetadataFile(a.FunctionTargets),
		Names:     p.run.MetadataFile(a.FunctionNames),
		Output:    p.run.DistFile(a.CallGraphDistance),
	}
}

// CFGFiles returns the artifact paths of the CFG step. The resolved block
// target list is used when present, the plain one otherwise.
func (p *Pipeline) CFGFiles() cfg.StageFiles {
	a := p.run.Artifacts
	targets := p.run.MetadataFile(a.ResolvedTargets)
	if !utils.FileExists(targets) {
		targets = p.run.MetadataFile(a.BlockTargets)
	}
	return cfg.StageFiles{
		DotDir:            p.run.DotFilesDir(),
		CallGraph:         p.run.CallGraphFile(),
		CallGraphDistance: p.run.DistFile(a.CallGraphDistance),
		BlockNames:        p.run.MetadataFile(a.BlockNames),
		BlockCalls:        p.run.MetadataFile(a.BlockCalls),
		Targets:           targets,
		FunctionDir:       p.run.FunctionDistDir(),
		Output:            p.run.DistFile(a.IntraCFGDistance),
	}
}

// PropagationFiles returns the artifact paths of the propagation step
func (p *Pipeline) PropagationFiles() propagation.StageFiles {
	a := p.run.Artifacts
	return propagation.StageFiles{
		DotDir:     p.run.DotFilesDir(),
		CallGraph:  p.run.CallGraphFile(),
		BlockNames: p.run.MetadataFile(a.BlockNames),
		BlockCalls: p.run.MetadataFile(a.BlockCalls),
		Input:      p.run.DistFile(a.IntraCFGDistance),
		Output:     p.run.DistFile(a.CFGDistance),
	}
}
