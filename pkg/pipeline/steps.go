package pipeline

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Step is one resumable stage of a distance run
type Step int

const (
	StepParse Step = iota
	StepCallGraph
	StepCFG
	StepPropagation
	stepCount
)

func (s Step) String() string {
	switch s {
	case StepParse:
		return "parse"
	case StepCallGraph:
		return "callgraph"
	case StepCFG:
		return "cfg"
	case StepPropagation:
		return "propagation"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Done reports whether every step has completed
func (s Step) Done() bool {
	return s >= stepCount
}

const stepPrefix = "Step:"

// StepLog records completed steps as "Step:N" lines, N being the next step to run
type StepLog struct {
	path string
}

// NewStepLog creates a step log at path
func NewStepLog(path string) *StepLog {
	return &StepLog{path: path}
}

// Current returns the next step to run. A missing log means nothing ran yet.
// The last well-formed line wins.
func (l *StepLog) Current() (Step, error) {
	f, err := os.Open(l.path) // #nosec G304 - step log path comes from the run layout
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return StepParse, nil
		}
		return StepParse, fmt.Errorf("failed to open step log: %w", err)
	}
	defer f.Close()

	step := StepParse
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, stepPrefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, stepPrefix)))
		if err != nil {
			continue
		}
		step = Step(n)
	}
	if err := scanner.Err(); err != nil {
		return StepParse, fmt.Errorf("failed to read step log: %w", err)
	}
	return step, nil
}

// Complete appends the marker recording that step finished
func (l *StepLog) Complete(step Step) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0750); err != nil {
		return fmt.Errorf("failed to create step log directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to open step log: %w", err)
	}
	if _, err := io.WriteString(f, fmt.Sprintf("%s%d\n", stepPrefix, int(step)+1)); err != nil {
		f.Close()
		return fmt.Errorf("failed to write step log: %w", err)
	}
	return f.Close()
}

// Reset removes the step log and every step error log next to it
func (l *StepLog) Reset() error {
	dir := filepath.Dir(l.path)
	logs, err := doublestar.Glob(os.DirFS(dir), "step*.err.log", doublestar.WithFilesOnly())
	if err != nil {
		return fmt.Errorf("failed to list step error logs: %w", err)
	}
	paths := append([]string{l.path}, logs...)
	for i, p := range paths {
		if i > 0 {
			p = filepath.Join(dir, filepath.FromSlash(p))
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}
	return nil
}
