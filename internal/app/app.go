package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/FormingWorlds/sweepgridgo/internal/ctxlog"
	"github.com/FormingWorlds/sweepgridgo/internal/model"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	sweep  *model.Sweep
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and the sweep
// definition already loaded.
func NewApp(outW io.Writer, cfg *Config) *App {
	runID := uuid.New().String()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW).With("run_id", runID)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	sweep, err := model.Load(ctx, cfg.SweepPath)
	if err != nil {
		// A failure to load the sweep definition is a fatal startup error.
		panic(fmt.Errorf("failed to load sweep definition: %w", err))
	}
	logger.Debug("Sweep definition loaded into model.", "sweep", sweep.Name)

	return &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		sweep:  sweep,
	}
}

// Sweep returns the loaded sweep model. This is primarily for testing.
func (a *App) Sweep() *model.Sweep {
	return a.sweep
}
