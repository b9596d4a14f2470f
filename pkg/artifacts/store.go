package artifacts

import (
	"fmt"
	"path/filepath"

	"github.com/smith-xyz/golang-distance-generator/pkg/graph"
)

// CFGStore loads per-function CFGs on first use and keeps them for the
// rest of the run. It is not safe for concurrent use.
type CFGStore struct {
	dir           string
	pathCacheSize int
	cfgs          map[string]*graph.Graph
}

// NewCFGStore creates a store reading cfg.<function>.dot files from dir
func NewCFGStore(dir string, pathCacheSize int) *CFGStore {
	return &CFGStore{
		dir:           dir,
		pathCacheSize: pathCacheSize,
		cfgs:          make(map[string]*graph.Graph),
	}
}

// Load returns the CFG of function. A missing file yields ErrMissingArtifact
// and is not cached, so a later call may retry.
func (s *CFGStore) Load(function string) (*graph.Graph, error) {
	if cfg, ok := s.cfgs[function]; ok {
		return cfg, nil
	}

	path := filepath.Join(s.dir, CFGFileName(function))
	if err := RequireFile(path); err != nil {
		return nil, err
	}
	cfg, err := graph.LoadFile(path, graph.ControlFlowGraph, s.pathCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load CFG of %s: %w", function, err)
	}
	s.cfgs[function] = cfg
	return cfg, nil
}

// Cached returns the CFG of function if it was loaded before
func (s *CFGStore) Cached(function string) (*graph.Graph, bool) {
	cfg, ok := s.cfgs[function]
	return cfg, ok
}

// Len returns the number of cached CFGs
func (s *CFGStore) Len() int {
	return len(s.cfgs)
}
