// Package cfg scores the basic blocks of one function by their distance to
// target blocks and to calls into functions close to the targets.
package cfg

import (
	"log/slog"

	"github.com/smith-xyz/golang-distance-generator/pkg/graph"
	"github.com/smith-xyz/golang-distance-generator/pkg/models"
)

// DistanceEngine computes block distances inside a single CFG. It keeps no state
// between calls and is safe for concurrent use.
type DistanceEngine struct {
	logger      *slog.Logger
	coefficient float64
}

// NewDistanceEngine creates a CFG distance engine
func NewDistanceEngine(logger *slog.Logger, analysisConfig *models.AnalysisConfig) *DistanceEngine {
	coefficient := models.DefaultAnalysisConfig().IntraCallCoefficient
	if analysisConfig != nil && analysisConfig.IntraCallCoefficient > 0 {
		coefficient = analysisConfig.IntraCallCoefficient
	}
	return &DistanceEngine{
		logger:      logger,
		coefficient: coefficient,
	}
}

// BlockDistance scores one block of cfg against the seed distances.
// ok is false when the block has no node in cfg.
func (e *DistanceEngine) BlockDistance(cfg *graph.Graph, seeds *models.BlockTable, name string) (distance models.Distance, ok bool) {
	if seed, exists := seeds.Get(name); exists && seed.Distance.IsClose() {
		return seed.Distance.Scale(e.coefficient), true
	}

	nodes := cfg.Lookup(name)
	if len(nodes) == 0 {
		return models.Unsure(), false
	}
	if seeds.Len() == 0 {
		return models.Unreachable(), true
	}

	known := seeds.Records()
	best := models.Unsure()
	found := false
	missed := false
	for _, u := range nodes {
		var d float64
		i := 0
		for _, v := range known {
			if !v.Distance.IsClose() {
				missed = true
				continue
			}
			weight := e.coefficient * v.Distance.Value()

			var dv float64
			iv := 0
			for _, t := range cfg.Lookup(v.Name) {
				length, reachable := cfg.ShortestPathLength(u, t)
				if !reachable {
					missed = true
					continue
				}
				dv += 1.0 / (1.0 + weight + float64(length))
				iv++
			}
			if iv > 0 {
				d += dv / float64(iv)
				i++
			}
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
	case missed:
		return models.Unreachable(), true
	default:
		return models.Unsure(), false
	}
}

// Calculate scores the named blocks in order. Blocks without a node in cfg
// are left out of the result.
func (e *DistanceEngine) Calculate(cfg *graph.Graph, seeds *models.BlockTable, names []string) []models.DistanceRecord {
	var records []models.DistanceRecord
	for _, name := range names {
		distance, ok := e.BlockDistance(cfg, seeds, name)
		if !ok {
			continue
		}
		records = append(records, models.DistanceRecord{Name: name, Distance: distance})
	}
	return records
}
