package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepString(t *testing.T) {
	tests := []struct {
		step Step
		want string
	}{
		{StepParse, "parse"},
		{StepCallGraph, "callgraph"},
		{StepCFG, "cfg"},
		{StepPropagation, "propagation"},
		{Step(9), "step(9)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.step.String())
	}
	assert.False(t, StepPropagation.Done())
	assert.True(t, (StepPropagation + 1).Done())
}

func TestStepLog(t *testing.T) {
	dir := t.TempDir()
	log := NewStepLog(filepath.Join(dir, "steps.log"))

	step, err := log.Current()
	require.NoError(t, err)
	assert.Equal(t, StepParse, step, "a missing log means nothing ran")

	require.NoError(t, log.Complete(StepParse))
	require.NoError(t, log.Complete(StepCallGraph))

	step, err = log.Current()
	require.NoError(t, err)
	assert.Equal(t, StepCFG, step)

	data, err := os.ReadFile(filepath.Join(dir, "steps.log"))
	require.NoError(t, err)
	assert.Equal(t, "Step:1\nStep:2\n", string(data))
}

func TestStepLogIgnoresGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steps.log")
	require.NoError(t, os.WriteFile(path, []byte("Step:1\nhello\nStep:x\n\nStep:3\n"), 0600))

	step, err := NewStepLog(path).Current()
	require.NoError(t, err)
	assert.Equal(t, StepPropagation, step)
}

func TestStepLogReset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "steps.log")
	for _, name := range []string{"steps.log", "step1.err.log", "step3.err.log", "keep.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x\n"), 0600))
	}

	log := NewStepLog(path)
	require.NoError(t, log.Reset())
	require.NoError(t, log.Reset(), "reset is repeatable")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"keep.txt"}, names)
}
