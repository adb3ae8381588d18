// Package cluster emits the batch-array dispatch script for running a sweep
// under an external Slurm-style scheduler. Unlike the local scheduler it
// performs no liveness polling and no reconciliation: once the script is
// submitted, retry and failure semantics belong to the cluster.
package cluster

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/FormingWorlds/sweepgridgo/internal/ctxlog"
	"github.com/FormingWorlds/sweepgridgo/internal/grid"
	"github.com/FormingWorlds/sweepgridgo/internal/materialize"
)

var (
	// durationPattern accepts Slurm time limits: MM:SS, HH:MM:SS and
	// D-HH:MM:SS forms.
	durationPattern = regexp.MustCompile(`^(\d+-)?\d{1,2}:\d{2}(:\d{2})?$`)
	// memoryPattern accepts Slurm per-CPU memory limits such as 4G or 4000M.
	memoryPattern = regexp.MustCompile(`^\d+[KMGT]?$`)
)

// Options controls script generation.
type Options struct {
	// MaxConcurrentJobs caps how many array tasks the cluster runs at once.
	// It also fixes the array size: the index space is clamped to
	// min(MaxConcurrentJobs, grid size) slots, and each slot strides through
	// the case list.
	MaxConcurrentJobs int

	// TestMode replaces the job command with an inexpensive echo, so the
	// emitted script can be validated without running real simulations.
	TestMode bool

	// MaxDuration is the Slurm time limit per array task, e.g. "1-00:00:00".
	MaxDuration string

	// MaxMemoryPerCPU is the Slurm per-CPU memory limit, e.g. "4G".
	MaxMemoryPerCPU string
}

func (o Options) validate(gridSize int) error {
	if o.MaxConcurrentJobs < 1 {
		return fmt.Errorf("max concurrent jobs must be at least 1, got %d", o.MaxConcurrentJobs)
	}
	if !durationPattern.MatchString(o.MaxDuration) {
		return fmt.Errorf("invalid duration %q: expected a Slurm time limit such as 1-00:00:00", o.MaxDuration)
	}
	if !memoryPattern.MatchString(o.MaxMemoryPerCPU) {
		return fmt.Errorf("invalid per-CPU memory %q: expected a Slurm memory limit such as 4G", o.MaxMemoryPerCPU)
	}
	if gridSize < 1 {
		return fmt.Errorf("grid is empty, nothing to dispatch")
	}
	return nil
}

// Generator emits the batch-array script for one grid.
type Generator struct {
	Layout    materialize.Layout
	Grid      *grid.Grid
	SweepName string

	// Command is the external job argv; each case's config path is appended
	// as the final argument of the generated invocation.
	Command []string
}

// ArraySize returns the number of array slots for the given concurrency cap:
// min(maxConcurrentJobs, grid size).
func (g *Generator) ArraySize(maxConcurrentJobs int) int {
	if maxConcurrentJobs > g.Grid.Size {
		return g.Grid.Size
	}
	return maxConcurrentJobs
}

// TaskCases returns the case indices handled by one array slot: slot,
// slot+arraySize, slot+2*arraySize, ... until the case list is exhausted.
func TaskCases(slot, arraySize, gridSize int) []int {
	var cases []int
	for i := slot; i < gridSize; i += arraySize {
		cases = append(cases, i)
	}
	return cases
}

// Generate validates the options, renders the dispatch script and writes it
// under the sweep's logs directory. It returns the script path.
func (g *Generator) Generate(ctx context.Context, opts Options) (string, error) {
	logger := ctxlog.FromContext(ctx)

	if err := opts.validate(g.Grid.Size); err != nil {
		return "", fmt.Errorf("cannot generate dispatch script: %w", err)
	}

	arraySize := g.ArraySize(opts.MaxConcurrentJobs)
	script := g.render(arraySize, opts)

	if err := os.MkdirAll(g.Layout.LogsDir(), 0755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}
	path := g.Layout.ScriptPath()
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		return "", fmt.Errorf("failed to write dispatch script %s: %w", path, err)
	}

	logger.Info("Cluster dispatch script written.",
		"path", path, "cases", g.Grid.Size, "array_size", arraySize, "test_mode", opts.TestMode)
	for slot := 0; slot < arraySize; slot++ {
		logger.Debug("Array slot plan.", "slot", slot, "cases", TaskCases(slot, arraySize, g.Grid.Size))
	}
	return path, nil
}

// render builds the script text. Each array task strides through the case
// list so that a capped array still covers every case.
func (g *Generator) render(arraySize int, opts Options) string {
	command := strings.Join(g.Command, " ")
	if opts.TestMode {
		command = "echo [test mode] would run: " + command
	}

	var b strings.Builder
	b.WriteString("#!/bin/bash\n")
	fmt.Fprintf(&b, "#SBATCH --job-name=sweep_%s\n", g.SweepName)
	fmt.Fprintf(&b, "#SBATCH --array=0-%d%%%d\n", arraySize-1, opts.MaxConcurrentJobs)
	fmt.Fprintf(&b, "#SBATCH --time=%s\n", opts.MaxDuration)
	fmt.Fprintf(&b, "#SBATCH --mem-per-cpu=%s\n", opts.MaxMemoryPerCPU)
	fmt.Fprintf(&b, "#SBATCH --output=%s/slurm-%%A_%%a.log\n", g.Layout.LogsDir())
	b.WriteString("\n")
	fmt.Fprintf(&b, "SIZE=%d\n", g.Grid.Size)
	fmt.Fprintf(&b, "STRIDE=%d\n", arraySize)
	b.WriteString("\n")
	b.WriteString("# Array slot t handles cases t, t+STRIDE, t+2*STRIDE, ...\n")
	b.WriteString("for (( i = SLURM_ARRAY_TASK_ID; i < SIZE; i += STRIDE )); do\n")
	fmt.Fprintf(&b, "    cfg=$(printf '%s/case_%%06d.toml' \"$i\")\n", g.Layout.ConfigDir())
	fmt.Fprintf(&b, "    %s \"$cfg\"\n", command)
	b.WriteString("done\n")
	return b.String()
}
