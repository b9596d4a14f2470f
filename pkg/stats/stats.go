// Package stats counts what the distance engines did during one run.
package stats

import (
	"fmt"
	"io"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// Run holds the counters of a single run. A nil *Run is valid and records nothing.
type Run struct {
	set *metrics.Set

	functionsScored  *metrics.Counter
	functionsOmitted *metrics.Counter
	cfgsProcessed    *metrics.Counter
	cfgsSkipped      *metrics.Counter
	blocksScored     *metrics.Counter
	nodesVisited     *metrics.Counter
	visitsFailed     *metrics.Counter
	branchesPruned   *metrics.Counter
	blocksResolved   *metrics.Counter
	blocksBackfilled *metrics.Counter
}

// New creates an empty set of run counters
func New() *Run {
	set := metrics.NewSet()
	return &Run{
		set:              set,
		functionsScored:  set.NewCounter("distance_functions_scored_total"),
		functionsOmitted: set.NewCounter("distance_functions_omitted_total"),
		cfgsProcessed:    set.NewCounter("distance_cfgs_processed_total"),
		cfgsSkipped:      set.NewCounter("distance_cfgs_skipped_total"),
		blocksScored:     set.NewCounter("distance_blocks_scored_total"),
		nodesVisited:     set.NewCounter("distance_propagation_visits_total"),
		visitsFailed:     set.NewCounter("distance_propagation_failed_visits_total"),
		branchesPruned:   set.NewCounter("distance_propagation_pruned_total"),
		blocksResolved:   set.NewCounter("distance_propagation_resolved_blocks_total"),
		blocksBackfilled: set.NewCounter("distance_propagation_backfilled_blocks_total"),
	}
}

func add(c *metrics.Counter, n int) {
	if c != nil && n > 0 {
		c.Add(n)
	}
}

func get(c *metrics.Counter) uint64 {
	if c == nil {
		return 0
	}
	return c.Get()
}

// FunctionsScored records functions written by the call graph engine and
// those omitted because they have no node in the call graph
func (r *Run) FunctionsScored(scored, omitted int) {
	if r != nil {
		add(r.functionsScored, scored)
		add(r.functionsOmitted, omitted)
	}
}

// CFGProcessed records a CFG evaluated by the CFG engine and the blocks it scored
func (r *Run) CFGProcessed(blocks int) {
	if r != nil {
		add(r.cfgsProcessed, 1)
		add(r.blocksScored, blocks)
	}
}

// CFGSkipped records a CFG file that was empty or not part of the call graph
func (r *Run) CFGSkipped() {
	if r != nil {
		add(r.cfgsSkipped, 1)
	}
}

// NodeVisited records a successful propagation visit
func (r *Run) NodeVisited() {
	if r != nil {
		add(r.nodesVisited, 1)
	}
}

// VisitFailed records a propagation visit that could not load its CFG
func (r *Run) VisitFailed() {
	if r != nil {
		add(r.visitsFailed, 1)
	}
}

// BranchPruned records a visit whose incoming distance was too far to propagate
func (r *Run) BranchPruned() {
	if r != nil {
		add(r.branchesPruned, 1)
	}
}

// BlocksResolved records blocks given a distance by propagation
func (r *Run) BlocksResolved(n int) {
	if r != nil {
		add(r.blocksResolved, n)
	}
}

// BlockBackfilled records a call-site block resolved from its successors
func (r *Run) BlockBackfilled() {
	if r != nil {
		add(r.blocksBackfilled, 1)
	}
}

// ObserveStage adds the duration of a stage
func (r *Run) ObserveStage(stage string, start time.Time) {
	if r == nil {
		return
	}
	name := fmt.Sprintf(`distance_stage_duration_seconds_total{stage=%q}`, stage)
	r.set.GetOrCreateFloatCounter(name).Add(time.Since(start).Seconds())
}

// Summary is a point-in-time copy of the counters
type Summary struct {
	FunctionsScored  uint64
	FunctionsOmitted uint64
	CFGsProcessed    uint64
	CFGsSkipped      uint64
	BlocksScored     uint64
	NodesVisited     uint64
	VisitsFailed     uint64
	BranchesPruned   uint64
	BlocksResolved   uint64
	BlocksBackfilled uint64
}

// Summary returns the current counter values
func (r *Run) Summary() Summary {
	if r == nil {
		return Summary{}
	}
	return Summary{
		FunctionsScored:  get(r.functionsScored),
		FunctionsOmitted: get(r.functionsOmitted),
		CFGsProcessed:    get(r.cfgsProcessed),
		CFGsSkipped:      get(r.cfgsSkipped),
		BlocksScored:     get(r.blocksScored),
		NodesVisited:     get(r.nodesVisited),
		VisitsFailed:     get(r.visitsFailed),
		BranchesPruned:   get(r.branchesPruned),
		BlocksResolved:   get(r.blocksResolved),
		BlocksBackfilled: get(r.blocksBackfilled),
	}
}

// WritePrometheus writes the counters in Prometheus text format
func (r *Run) WritePrometheus(w io.Writer) {
	if r == nil {
		return
	}
	r.set.WritePrometheus(w)
}
