package utils

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
)

// Instrumentation provides timing and progress tracking capabilities
type Instrumentation struct {
	logger       *slog.Logger
	verbose      bool
	progressOut  io.Writer // Progress bars are rendered here when non-nil
	progressTmpl pb.ProgressBarTemplate
}

// NewInstrumentation creates a new instrumentation instance.
// Progress bars are drawn on progressOut; pass nil to disable them.
func NewInstrumentation(logger *slog.Logger, verbose bool, progressOut io.Writer) *Instrumentation {
	return &Instrumentation{
		logger:       logger,
		verbose:      verbose,
		progressOut:  progressOut,
		progressTmpl: `{{ string . "name" }} {{ counters . }} {{ bar . "[" "#" "#" "." "]" }} {{ percent . }} {{ etime . }}`,
	}
}

// TimedOperation wraps a function with timing instrumentation
func (i *Instrumentation) TimedOperation(name string, operation func() error) error {
	start := time.Now()
	i.logger.Debug("Starting operation", "operation", name)

	err := operation()
	duration := time.Since(start)

	if err != nil {
		i.logger.Error("Operation failed", "operation", name, "duration_seconds", duration.Seconds(), "error", err)
	} else {
		i.logger.Debug("Operation completed", "operation", name, "duration_seconds", duration.Seconds(), "memory_usage", GetMemoryUsage())
	}

	return err
}

// ProgressTracker provides progress tracking for long-running operations.
// Update is safe for concurrent use.
type ProgressTracker struct {
	name      string
	total     int
	processed int64
	startTime time.Time
	logger    *slog.Logger
	bar       *pb.ProgressBar
}

// NewProgressTracker creates a new progress tracker
func (i *Instrumentation) NewProgressTracker(name string, total int) *ProgressTracker {
	pt := &ProgressTracker{
		name:      name,
		total:     total,
		startTime: time.Now(),
		logger:    i.logger,
	}
	if i.progressOut != nil && total > 0 {
		pt.bar = i.progressTmpl.New(total)
		pt.bar.Set("name", name)
		pt.bar.SetWriter(i.progressOut)
		pt.bar.Start()
	}
	return pt
}

// Update increments the progress
func (pt *ProgressTracker) Update(increment int) {
	processed := atomic.AddInt64(&pt.processed, int64(increment))
	if pt.bar != nil {
		pt.bar.Add(increment)
	}
	if processed%100 == 0 {
		pt.logger.Debug("Progress update", "operation", pt.name, "processed", processed, "total", pt.total)
	}
}

// Processed returns the number of items processed so far
func (pt *ProgressTracker) Processed() int {
	return int(atomic.LoadInt64(&pt.processed))
}

// Complete marks the operation as finished
func (pt *ProgressTracker) Complete() {
	if pt.bar != nil {
		pt.bar.Finish()
	}
	pt.logger.Debug("Progress tracking completed",
		"operation", pt.name,
		"processed", atomic.LoadInt64(&pt.processed),
		"total", pt.total,
		"duration_seconds", time.Since(pt.startTime).Seconds())
}

// GetMemoryUsage returns current memory usage in a human-readable format
func GetMemoryUsage() string {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	allocMB := float64(m.Alloc) / 1024 / 1024
	sysMB := float64(m.Sys) / 1024 / 1024

	return fmt.Sprintf("%.1fMB allocated, %.1fMB system", allocMB, sysMB)
}
