package main

import (
	"github.com/urfave/cli/v2"
)

const (
	globalVerbose     = "verbose"
	globalConfig      = "config"
	globalWorkers     = "workers"
	globalEntryPoints = "entry-points"
	globalMetrics     = "metrics-file"
	globalNoProgress  = "disable-progress-bar"
)

var (
	globalFlags = []cli.Flag{
		&cli.BoolFlag{
			Name:  globalVerbose,
			Usage: "Enable debug logging",
		},
		&cli.StringFlag{
			Name:  globalConfig,
			Usage: "Path to a TOML config file. Defaults to the embedded config, overridden by ./config.toml when present",
		},
		&cli.IntFlag{
			Name:  globalWorkers,
			Usage: "Number of concurrent CFG workers. 0 uses the config value, or one per CPU",
		},
		&cli.StringFlag{
			Name:  globalEntryPoints,
			Usage: "Comma-separated entry function names, replacing the configured ones",
		},
		&cli.StringFlag{
			Name:  globalMetrics,
			Usage: "Write run counters in Prometheus text format to this file",
		},
		&cli.BoolFlag{
			Name:  globalNoProgress,
			Usage: "Do not draw the CFG progress bar",
		},
	}
)

const (
	runDirectory = "directory"
	runTmpDir    = "tmpdir"
	runBinary    = "binary"
	runRootDir   = "rootdir"
	runRestore   = "restore"
)

var (
	runFlags = []cli.Flag{
		&cli.StringFlag{
			Name:     runDirectory,
			Aliases:  []string{"d"},
			Usage:    "The directory where program binaries are located",
			Required: true,
		},
		&cli.StringFlag{
			Name:     runTmpDir,
			Aliases:  []string{"t"},
			Usage:    "The temporary directory holding targets, metadata and step logs",
			Required: true,
		},
		&cli.StringFlag{
			Name:     runBinary,
			Aliases:  []string{"b"},
			Usage:    "The program binary name",
			Required: true,
		},
		&cli.StringFlag{
			Name:    runRootDir,
			Aliases: []string{"r"},
			Usage:   "The project root directory passed to the parser",
			EnvVars: []string{"AFLGO_PLUS_PROJ_ROOT_PATH"},
		},
		&cli.BoolFlag{
			Name:  runRestore,
			Usage: "Forget recorded steps and recalculate every distance",
		},
	}
)

const (
	stageDotFile     = "dotfile"
	stageDotDir      = "cfgdir"
	stageTargets     = "targets"
	stageNames       = "names"
	stageOutput      = "outfile"
	stageCGDistance  = "cgdistance"
	stageBlockNames  = "bbnames"
	stageBlockCalls  = "bbcalls"
	stageCFGDistance = "cfgdistance"
	stageFunctionDir = "functiondir"
)

func requiredPath(name, alias, usage string) cli.Flag {
	flag := &cli.StringFlag{
		Name:     name,
		Usage:    usage,
		Required: true,
	}
	if alias != "" {
		flag.Aliases = []string{alias}
	}
	return flag
}

var (
	cgFlags = []cli.Flag{
		requiredPath(stageDotFile, "d", "The dot file of the call graph"),
		requiredPath(stageTargets, "t", "The file containing target functions"),
		requiredPath(stageNames, "n", "The file containing function names"),
		requiredPath(stageOutput, "o", "The output file of call graph distances"),
	}

	cfgFlags = []cli.Flag{
		requiredPath(stageDotDir, "", "The directory containing CFG dot files"),
		requiredPath(stageDotFile, "d", "The dot file of the call graph"),
		requiredPath(stageTargets, "t", "The file containing target blocks"),
		requiredPath(stageBlockNames, "n", "The file containing block names"),
		requiredPath(stageBlockCalls, "c", "The file containing block calls"),
		requiredPath(stageCGDistance, "g", "The file containing call graph distances"),
		requiredPath(stageFunctionDir, "", "The directory per-function distance files are written to"),
		requiredPath(stageOutput, "o", "The output file of merged CFG distances"),
	}

	supplementFlags = []cli.Flag{
		requiredPath(stageDotDir, "", "The directory containing CFG dot files"),
		requiredPath(stageDotFile, "d", "The dot file of the call graph"),
		requiredPath(stageBlockNames, "n", "The file containing block names"),
		requiredPath(stageBlockCalls, "c", "The file containing block calls"),
		requiredPath(stageCFGDistance, "i", "The file containing CFG distances"),
		requiredPath(stageOutput, "o", "The output file of propagated distances"),
	}
)

func mergeFlags(flags ...[]cli.Flag) []cli.Flag {
	var result []cli.Flag
	for _, f := range flags {
		result = append(result, f...)
	}
	return result
}
