package app

import (
	"context"
	"fmt"

	"github.com/FormingWorlds/sweepgridgo/internal/cluster"
	"github.com/FormingWorlds/sweepgridgo/internal/ctxlog"
	"github.com/FormingWorlds/sweepgridgo/internal/grid"
	"github.com/FormingWorlds/sweepgridgo/internal/materialize"
	"github.com/FormingWorlds/sweepgridgo/internal/scheduler"
	"github.com/FormingWorlds/sweepgridgo/internal/simconfig"
)

// testCommand is the inexpensive stand-in for the real job command when the
// app runs in test mode.
var testCommand = []string{"true"}

// Run executes the selected mode against the loaded sweep definition.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "mode", a.config.Mode)

	set, err := grid.FromSweep(a.sweep)
	if err != nil {
		return fmt.Errorf("failed to build dimension set: %w", err)
	}

	g, err := set.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate grid: %w", err)
	}
	a.logger.Info("Grid generated.", "sweep", a.sweep.Name, "dimensions", len(g.Dimensions), "cases", g.Size)
	for _, d := range g.Dimensions {
		a.logger.Info("Dimension.", "name", d.Name, "parameter", d.Parameter, "values", len(d.Values))
	}

	if a.config.Mode == ModePlan {
		a.logger.Info("Plan complete, nothing written.", "cases", g.Size)
		return nil
	}

	base, err := simconfig.Load(a.sweep.BaseConfig)
	if err != nil {
		return err
	}

	mat := &materialize.Materializer{
		Layout:        materialize.Layout{Root: a.sweep.OutputDir},
		SweepName:     a.sweep.Name,
		OutputPathKey: a.sweep.OutputPathKey,
		ScratchDir:    a.sweep.ScratchDir,
	}
	if err := mat.Prepare(ctx); err != nil {
		return err
	}
	if err := mat.Run(ctx, g, base); err != nil {
		return fmt.Errorf("materialization failed: %w", err)
	}

	switch a.config.Mode {
	case ModeMaterialize:
		return nil

	case ModeLocal:
		command := a.sweep.Command
		if a.config.TestMode {
			command = testCommand
		}
		sched := scheduler.New(mat.Layout, g, command)
		if err := sched.Run(ctx, scheduler.Options{
			NumThreads:    a.config.Threads,
			TestMode:      a.config.TestMode,
			CheckInterval: a.config.CheckInterval,
			PrintInterval: a.config.PrintInterval,
		}); err != nil {
			return fmt.Errorf("local run failed: %w", err)
		}
		a.logger.Info("Local run finished.", "peak_running", sched.PeakRunning())
		return nil

	case ModeSlurm:
		gen := &cluster.Generator{
			Layout:    mat.Layout,
			Grid:      g,
			SweepName: a.sweep.Name,
			Command:   a.sweep.Command,
		}
		path, err := gen.Generate(ctx, cluster.Options{
			MaxConcurrentJobs: a.config.MaxJobs,
			TestMode:          a.config.TestMode,
			MaxDuration:       a.config.MaxDuration,
			MaxMemoryPerCPU:   a.config.MaxMemoryPerCPU,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.outW, "Dispatch script written to %s\n", path)
		return nil

	default:
		return fmt.Errorf("unknown mode %q", a.config.Mode)
	}
}
