package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/FormingWorlds/sweepgridgo/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("sweepgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
SweepGrid - A parameter-sweep execution engine for simulation configs.

Usage:
  sweepgrid [options] [SWEEP_PATH]

Arguments:
  SWEEP_PATH
    Path to a single .hcl sweep file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	sweepFlag := flagSet.String("sweep", "", "Path to the sweep file or directory.")
	sFlag := flagSet.String("s", "", "Path to the sweep file or directory (shorthand).")
	modeFlag := flagSet.String("mode", "local", "Run mode. Options: 'plan', 'materialize', 'local' or 'slurm'.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	threadsFlag := flagSet.Int("threads", 4, "Maximum concurrently running cases for local mode.")
	checkIntervalFlag := flagSet.Duration("check-interval", 0, "Liveness poll interval for local mode. 0 uses the default.")
	printIntervalFlag := flagSet.Int("print-interval", 0, "Loop iterations between progress lines. 0 uses the default.")
	maxJobsFlag := flagSet.Int("max-jobs", 10, "Concurrency cap for the slurm batch array.")
	durationFlag := flagSet.String("duration", "1-00:00:00", "Slurm time limit per array task.")
	memFlag := flagSet.String("mem-per-cpu", "4G", "Slurm memory limit per CPU.")
	testFlag := flagSet.Bool("test", false, "Replace the job command with a cheap stand-in and shorten polling.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *sweepFlag != "" {
		path = *sweepFlag
	} else if *sFlag != "" {
		path = *sFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Sweep path determined.", "path", path)

	if path == "" {
		slog.Debug("No sweep path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		SweepPath:       path,
		Mode:            strings.ToLower(*modeFlag),
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		Threads:         *threadsFlag,
		CheckInterval:   *checkIntervalFlag,
		PrintInterval:   *printIntervalFlag,
		MaxJobs:         *maxJobsFlag,
		MaxDuration:     *durationFlag,
		MaxMemoryPerCPU: *memFlag,
		TestMode:        *testFlag,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
