package app

import (
	"errors"
	"fmt"
	"time"
)

// Run modes selectable from the CLI.
const (
	ModePlan        = "plan"
	ModeMaterialize = "materialize"
	ModeLocal       = "local"
	ModeSlurm       = "slurm"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	SweepPath string // hcl file or directory with the sweep definition
	Mode      string

	LogFormat string
	LogLevel  string

	// Local scheduler settings.
	Threads       int
	CheckInterval time.Duration
	PrintInterval int

	// Cluster script settings.
	MaxJobs         int
	MaxDuration     string
	MaxMemoryPerCPU string

	// TestMode swaps the job command for an inexpensive stand-in and
	// shortens polling, for validating the dispatch machinery itself.
	TestMode bool
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.SweepPath == "" {
		return nil, errors.New("SweepPath is a required configuration field and cannot be empty")
	}

	switch cfg.Mode {
	case ModePlan, ModeMaterialize, ModeLocal, ModeSlurm:
	default:
		return nil, fmt.Errorf("invalid mode %q: must be one of plan, materialize, local, slurm", cfg.Mode)
	}

	return &cfg, nil
}
