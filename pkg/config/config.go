package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/smith-xyz/golang-distance-generator/pkg/models"
)

// Embedded default configuration
// Use 'go generate ./pkg/config' to update from root config.toml
//
//go:generate cp ../../config.toml default_config.toml
//go:embed default_config.toml
var embeddedConfigData []byte

// Config holds the application configuration.
type Config struct {
	Distance    DistanceConfig   `toml:"distance"`
	Artifacts   ArtifactConfig   `toml:"artifacts"`
	EntryPoints EntryPointConfig `toml:"entry_points"`
	Engine      EngineConfig     `toml:"engine"`
	Tools       ToolConfig       `toml:"tools"`
}

// DistanceConfig holds the coefficients of the distance engines.
type DistanceConfig struct {
	IntraCallCoefficient float64 `toml:"intra_call_coefficient"`
	CallHopCoefficient   float64 `toml:"call_hop_coefficient"`
	InnerCallDelta       float64 `toml:"inner_call_delta"`
}

// ArtifactConfig holds the names of the files exchanged between steps.
type ArtifactConfig struct {
	MetadataDir        string `toml:"metadata_dir"`
	DotFilesDir        string `toml:"dot_files_dir"`
	DistFilesDir       string `toml:"dist_files_dir"`
	FunctionDistDir    string `toml:"function_dist_dir"`
	CallGraph          string `toml:"callgraph"`
	FunctionNames      string `toml:"function_names"`
	FunctionTargets    string `toml:"function_targets"`
	BlockNames         string `toml:"block_names"`
	BlockCalls         string `toml:"block_calls"`
	BlockTargets       string `toml:"block_targets"`
	ResolvedTargets    string `toml:"resolved_block_targets"`
	CallGraphDistance  string `toml:"callgraph_distance"`
	IntraCFGDistance   string `toml:"intra_cfg_distance"`
	CFGDistance        string `toml:"cfg_distance"`
	StepLog            string `toml:"step_log"`
	BitcodeSuffix      string `toml:"bitcode_suffix"`
	ProjectRootEnvName string `toml:"project_root_env"`
}

// EntryPointConfig holds the function names treated as program entry points.
type EntryPointConfig struct {
	Names []string `toml:"names"`
}

// EngineConfig holds execution settings.
type EngineConfig struct {
	Workers       int `toml:"workers"`
	PathCacheSize int `toml:"path_cache_size"`
}

// ToolConfig holds external tool settings.
type ToolConfig struct {
	Parser string `toml:"parser"`
}

// DefaultConfig returns the default configuration with optional local overrides.
// It always starts with the embedded config, then optionally merges with local config.toml.
func DefaultConfig() (*Config, error) {
	var config Config
	if err := toml.Unmarshal(embeddedConfigData, &config); err != nil {
		return nil, fmt.Errorf("failed to parse embedded config: %w", err)
	}

	localConfigPaths := []string{
		"config.toml",       // Current directory (project root when running binary)
		"../config.toml",    // Parent directory (for tests in subdirs)
		"../../config.toml", // Two levels up (for tests in pkg/*/test)
	}

	for _, path := range localConfigPaths {
		if _, err := os.Stat(path); err == nil {
			// Local values are decoded over the embedded defaults, keys it omits keep their default
			if err := mergeFile(path, &config); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to load local config %s: %v\n", path, err)
			}
			break
		}
	}

	return &config, nil
}

// LoadFromFile loads configuration from a TOML file on top of the embedded defaults.
func LoadFromFile(filepath string) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(embeddedConfigData, &config); err != nil {
		return nil, fmt.Errorf("failed to parse embedded config: %w", err)
	}
	if err := mergeFile(filepath, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func mergeFile(filepath string, config *Config) error {
	if _, err := toml.DecodeFile(filepath, config); err != nil {
		return fmt.Errorf("failed to load config from %s: %w", filepath, err)
	}
	return nil
}

// AnalysisConfig converts the file configuration into engine settings.
func (c *Config) AnalysisConfig(verbose bool) models.AnalysisConfig {
	analysis := models.DefaultAnalysisConfig()
	if c.Distance.IntraCallCoefficient > 0 {
		analysis.IntraCallCoefficient = c.Distance.IntraCallCoefficient
	}
	if c.Distance.CallHopCoefficient > 0 {
		analysis.CallHopCoefficient = c.Distance.CallHopCoefficient
	}
	if c.Distance.InnerCallDelta > 0 {
		analysis.InnerCallDelta = c.Distance.InnerCallDelta
	}
	if len(c.EntryPoints.Names) > 0 {
		analysis.EntryPoints = append([]string(nil), c.EntryPoints.Names...)
	}
	if c.Engine.PathCacheSize > 0 {
		analysis.PathCacheSize = c.Engine.PathCacheSize
	}
	if c.Engine.Workers > 0 {
		analysis.Workers = c.Engine.Workers
	}
	analysis.Verbose = verbose
	return analysis
}
