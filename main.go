package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/smith-xyz/golang-distance-generator/pkg/analysis/callgraph"
	"github.com/smith-xyz/golang-distance-generator/pkg/analysis/cfg"
	"github.com/smith-xyz/golang-distance-generator/pkg/analysis/propagation"
	"github.com/smith-xyz/golang-distance-generator/pkg/config"
	"github.com/smith-xyz/golang-distance-generator/pkg/models"
	"github.com/smith-xyz/golang-distance-generator/pkg/pipeline"
	"github.com/smith-xyz/golang-distance-generator/pkg/stats"
	"github.com/smith-xyz/golang-distance-generator/pkg/utils"
	"github.com/smith-xyz/golang-distance-generator/pkg/version"
)

// session carries what every command needs
type session struct {
	logger   *slog.Logger
	config   *config.Config
	analysis models.AnalysisConfig
	instr    *utils.Instrumentation
	stats    *stats.Run
}

func newSession(c *cli.Context) (*session, error) {
	verbose := c.Bool(globalVerbose)
	logger := utils.NewLogger(os.Stderr, verbose)

	var (
		cfgFile *config.Config
		err     error
	)
	if path := c.String(globalConfig); path != "" {
		cfgFile, err = config.LoadFromFile(path)
	} else {
		cfgFile, err = config.DefaultConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	analysis := cfgFile.AnalysisConfig(verbose)
	if workers := c.Int(globalWorkers); workers > 0 {
		analysis.Workers = workers
	}
	if entries := utils.ParseCommaDelimited(c.String(globalEntryPoints)); len(entries) > 0 {
		analysis.EntryPoints = entries
	}

	var progressOut io.Writer = os.Stderr
	if c.Bool(globalNoProgress) {
		progressOut = nil
	}

	return &session{
		logger:   logger,
		config:   cfgFile,
		analysis: analysis,
		instr:    utils.NewInstrumentation(logger, verbose, progressOut),
		stats:    stats.New(),
	}, nil
}

// finish writes the run counters when requested
func (s *session) finish(c *cli.Context) error {
	path := c.String(globalMetrics)
	if path == "" {
		return nil
	}
	return utils.WriteFileAtomic(path, func(w io.Writer) error {
		s.stats.WritePrometheus(w)
		return nil
	})
}

func main() {
	// A .env file may provide the project root
	_ = godotenv.Load()

	ctx, cancelCtx := context.WithCancel(context.Background())
	start := time.Now()

	app := &cli.App{
		Name:    "distance-generator",
		Usage:   "Compute call graph and basic block distances to target locations for directed fuzzing",
		Version: version.GetVersionWithCommit(),
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run every step for a program, resuming after the last completed step",
				Flags: mergeFlags(globalFlags, runFlags),
				Action: func(c *cli.Context) error {
					s, err := newSession(c)
					if err != nil {
						return err
					}

					rootDir := c.String(runRootDir)
					if rootDir == "" {
						rootDir = os.Getenv(s.config.Artifacts.ProjectRootEnvName)
					}
					if rootDir == "" && s.config.Tools.Parser != "" {
						return fmt.Errorf("failed to find project root directory, set --%s or %s", runRootDir, s.config.Artifacts.ProjectRootEnvName)
					}
					for _, dir := range []string{c.String(runDirectory), c.String(runTmpDir)} {
						if !utils.DirectoryExists(dir) {
							return fmt.Errorf("'%s' doesn't exist or is not a directory", dir)
						}
					}

					runCtx, err := config.NewRunContext(s.config, c.String(runDirectory), c.String(runBinary), c.String(runTmpDir), rootDir)
					if err != nil {
						return err
					}
					p := pipeline.New(s.logger, runCtx, s.analysis, s.instr, s.stats)
					if c.Bool(runRestore) {
						if err := p.Restore(); err != nil {
							return err
						}
					}
					if err := p.Run(ctx); err != nil {
						return err
					}
					return s.finish(c)
				},
			},
			{
				Name:  "cg",
				Usage: "Calculate call graph distances of functions to target functions",
				Flags: mergeFlags(globalFlags, cgFlags),
				Action: func(c *cli.Context) error {
					s, err := newSession(c)
					if err != nil {
						return err
					}
					err = callgraph.RunStage(s.logger, &s.analysis, callgraph.StageFiles{
						CallGraph: c.String(stageDotFile),
						Targets:   c.String(stageTargets),
						Names:     c.String(stageNames),
						Output:    c.String(stageOutput),
					}, s.stats)
					if err != nil {
						return err
					}
					return s.finish(c)
				},
			},
			{
				Name:  "cfg",
				Usage: "Calculate basic block distances inside every function CFG",
				Flags: mergeFlags(globalFlags, cfgFlags),
				Action: func(c *cli.Context) error {
					s, err := newSession(c)
					if err != nil {
						return err
					}
					runner := cfg.NewRunner(s.logger, &s.analysis, s.instr, s.stats)
					err = runner.Run(ctx, cfg.StageFiles{
						DotDir:            c.String(stageDotDir),
						CallGraph:         c.String(stageDotFile),
						CallGraphDistance: c.String(stageCGDistance),
						BlockNames:        c.String(stageBlockNames),
						BlockCalls:        c.String(stageBlockCalls),
						Targets:           c.String(stageTargets),
						FunctionDir:       c.String(stageFunctionDir),
						Output:            c.String(stageOutput),
					})
					if err != nil {
						return err
					}
					return s.finish(c)
				},
			},
			{
				Name:  "supplement",
				Usage: "Propagate block distances across function calls from the entry points",
				Flags: mergeFlags(globalFlags, supplementFlags),
				Action: func(c *cli.Context) error {
					s, err := newSession(c)
					if err != nil {
						return err
					}
					err = propagation.RunStage(s.logger, &s.analysis, propagation.StageFiles{
						DotDir:     c.String(stageDotDir),
						CallGraph:  c.String(stageDotFile),
						BlockNames: c.String(stageBlockNames),
						BlockCalls: c.String(stageBlockCalls),
						Input:      c.String(stageCFGDistance),
						Output:     c.String(stageOutput),
					}, s.stats)
					if err != nil {
						return err
					}
					return s.finish(c)
				},
			},
		},
	}

	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintln(c.App.Writer, version.GetFullVersionString())
		if version.IsPrerelease() {
			fmt.Fprintln(c.App.Writer, "Prerelease build, distance values may change between versions")
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Fprintln(os.Stderr, "\r- Execution cancelled")
		cancelCtx()
	}()

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("[E] %v", err)
	}
	log.Printf("Total time: %v", time.Since(start))
}
