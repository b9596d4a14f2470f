package cfg

import (
	"github.com/smith-xyz/golang-distance-generator/pkg/artifacts"
	"github.com/smith-xyz/golang-distance-generator/pkg/graph"
	"github.com/smith-xyz/golang-distance-generator/pkg/models"
)

// Preliminary returns the preliminary distances of the blocks of one CFG.
// A block calling functions with a call graph distance starts at the
// closest callee distance. Target blocks start at zero. Blocks without a
// node in cfg are ignored.
func Preliminary(cfg *graph.Graph, cgDistances map[string]models.Distance, calls []artifacts.BlockCall, targets []string) *models.BlockTable {
	seeds := models.NewBlockTable()

	for _, call := range calls {
		if !cfg.Has(call.Block) {
			continue
		}
		distance, ok := cgDistances[call.Callee]
		if !ok {
			continue
		}
		if record, exists := seeds.Get(call.Block); exists {
			record.Distance = models.MinDistance(record.Distance, distance)
		} else {
			seeds.SetDistance(call.Block, distance)
		}
		seeds.AddCall(call.Block, call.Callee)
	}

	for _, target := range targets {
		if cfg.Has(target) {
			seeds.SetDistance(target, models.Known(0))
		}
	}

	return seeds
}
