package propagation

import (
	"github.com/smith-xyz/golang-distance-generator/pkg/artifacts"
	"github.com/smith-xyz/golang-distance-generator/pkg/models"
)

// LoadBlocks builds the block table from the block list, the block call
// map and the CFG distances, in that order. Every block starts unsure and
// keeps the first position it was seen at.
func LoadBlocks(blockNames, blockCalls, cfgDistances string) (*models.BlockTable, error) {
	names, err := artifacts.ReadLines(blockNames)
	if err != nil {
		return nil, err
	}
	calls, err := artifacts.ReadBlockCalls(blockCalls)
	if err != nil {
		return nil, err
	}
	distances, err := artifacts.ReadDistances(cfgDistances)
	if err != nil {
		return nil, err
	}

	blocks := models.NewBlockTable()
	for _, name := range names {
		blocks.Ensure(name)
	}
	for _, call := range calls {
		blocks.AddCall(call.Block, call.Callee)
	}
	for _, record := range distances {
		blocks.SetDistance(record.Name, record.Distance)
	}
	return blocks, nil
}
