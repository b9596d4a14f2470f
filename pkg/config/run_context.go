package config

import (
	"fmt"
	"path/filepath"
)

// RunContext wraps the base Config with the directories of one distance run
// so every step resolves artifact paths the same way
type RunContext struct {
	*Config
	BinDir      string // Directory containing the program bitcode
	BinName     string // Program binary name
	TmpDir      string // Temporary working directory holding metadata and step logs
	ProjectRoot string // Project root passed to the parser
}

// NewRunContext creates a run context over the given configuration
func NewRunContext(base *Config, binDir, binName, tmpDir, projectRoot string) (*RunContext, error) {
	if base == nil {
		var err error
		base, err = DefaultConfig()
		if err != nil {
			return nil, err
		}
	}
	if tmpDir == "" {
		return nil, fmt.Errorf("temporary directory is required")
	}

	return &RunContext{
		Config:      base,
		BinDir:      binDir,
		BinName:     binName,
		TmpDir:      tmpDir,
		ProjectRoot: projectRoot,
	}, nil
}

// MetadataDir returns the directory the parser writes its artifacts to
func (c *RunContext) MetadataDir() string {
	return filepath.Join(c.TmpDir, c.Artifacts.MetadataDir)
}

// MetadataFile returns the path of a named artifact in the metadata directory
func (c *RunContext) MetadataFile(name string) string {
	return filepath.Join(c.MetadataDir(), name)
}

// DotFilesDir returns the directory holding the call graph and per-function CFGs
func (c *RunContext) DotFilesDir() string {
	return filepath.Join(c.MetadataDir(), c.Artifacts.DotFilesDir)
}

// CallGraphFile returns the path of the call graph dot file
func (c *RunContext) CallGraphFile() string {
	return filepath.Join(c.DotFilesDir(), c.Artifacts.CallGraph)
}

// DistFilesDir returns the directory holding distance files
func (c *RunContext) DistFilesDir() string {
	return filepath.Join(c.MetadataDir(), c.Artifacts.DistFilesDir)
}

// DistFile returns the path of a named distance file
func (c *RunContext) DistFile(name string) string {
	return filepath.Join(c.DistFilesDir(), name)
}

// FunctionDistDir returns the directory holding per-function CFG distance files
func (c *RunContext) FunctionDistDir() string {
	return filepath.Join(c.DistFilesDir(), c.Artifacts.FunctionDistDir)
}

// BitcodeFile returns the path of the program bitcode
func (c *RunContext) BitcodeFile() string {
	return filepath.Join(c.BinDir, c.BinName+c.Artifacts.BitcodeSuffix)
}

// StepLogFile returns the path of the step progress log
func (c *RunContext) StepLogFile() string {
	return filepath.Join(c.TmpDir, c.Artifacts.StepLog)
}

// StepErrorLog returns the path stderr of the given step is captured to
func (c *RunContext) StepErrorLog(step int) string {
	return filepath.Join(c.TmpDir, fmt.Sprintf("step%d.err.log", step))
}
