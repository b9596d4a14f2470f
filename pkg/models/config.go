package models

// AnalysisConfig contains the tunables shared by the distance engines
type AnalysisConfig struct {
	// Distance Coefficients
	IntraCallCoefficient float64 // Weight of call-derived distance relative to structural distance
	CallHopCoefficient   float64 // Distance added per propagated call hop
	InnerCallDelta       float64 // Distance added when backfilling a call-site block

	// Graph Configuration
	EntryPoints   []string // Function names treated as program entry points
	PathCacheSize int      // Shortest-path results cached per graph

	// Execution Configuration
	Workers int // CFG workers, 0 means one per CPU

	// General Configuration
	Verbose bool // Enable verbose logging
}

// DefaultAnalysisConfig returns the reference configuration
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		IntraCallCoefficient: 10.0,
		CallHopCoefficient:   10.0,
		InnerCallDelta:       2.0,
		EntryPoints:          []string{"main", "wmain", "_tmain"},
		PathCacheSize:        4096,
		Workers:              0,
		Verbose:              false,
	}
}
