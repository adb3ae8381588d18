package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/FormingWorlds/sweepgridgo/internal/ctxlog"
	"github.com/FormingWorlds/sweepgridgo/internal/fsutil"
	"github.com/FormingWorlds/sweepgridgo/internal/grid"
	"github.com/FormingWorlds/sweepgridgo/internal/materialize"
	"github.com/FormingWorlds/sweepgridgo/internal/status"
)

// ErrConfigNotReady is returned when a case's config artifact never appears
// on durable storage within the bounded wait. It aborts the run before any
// further dispatch.
var ErrConfigNotReady = errors.New("case config artifact did not appear on disk")

const (
	defaultCheckInterval = 1 * time.Second
	testCheckInterval    = 20 * time.Millisecond
	defaultPrintInterval = 50
	defaultConfigWait    = 4 * time.Second
	configPollInterval   = 50 * time.Millisecond
	maxRampSleep         = 100 * time.Millisecond
)

// Options controls one scheduler run.
type Options struct {
	// NumThreads is the requested concurrency bound. It is clamped to
	// [1, min(requested, grid size, available CPUs)].
	NumThreads int

	// TestMode shortens the polling intervals and skips post-run
	// reconciliation, so the scheduler's own logic can be validated without
	// real simulation jobs.
	TestMode bool

	// CheckInterval is the sleep between control loop iterations. Zero
	// selects the default (1s, or 20ms in test mode).
	CheckInterval time.Duration

	// PrintInterval is the number of loop iterations between progress log
	// lines. Zero selects the default (50).
	PrintInterval int

	// ConfigWait bounds the per-case wait for its config artifact to appear
	// on disk. Zero selects the default (4s).
	ConfigWait time.Duration
}

func (o Options) withDefaults() Options {
	if o.CheckInterval <= 0 {
		if o.TestMode {
			o.CheckInterval = testCheckInterval
		} else {
			o.CheckInterval = defaultCheckInterval
		}
	}
	if o.PrintInterval <= 0 {
		o.PrintInterval = defaultPrintInterval
	}
	if o.ConfigWait <= 0 {
		o.ConfigWait = defaultConfigWait
	}
	return o
}

// Scheduler dispatches the cases of one grid as external processes under a
// concurrency bound. All mutable state is owned by the control loop in Run;
// the type is not safe for use from multiple goroutines.
type Scheduler struct {
	layout  materialize.Layout
	grid    *grid.Grid
	command []string

	states []CaseState
	procs  []*caseProc
	peak   int
}

// caseProc tracks one dispatched case's OS process.
type caseProc struct {
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error
	logFile *os.File
}

// New creates a scheduler for the given grid. command is the external job
// argv; each case's config path is appended as the final argument.
func New(layout materialize.Layout, g *grid.Grid, command []string) *Scheduler {
	return &Scheduler{layout: layout, grid: g, command: command}
}

// clampThreads bounds the requested concurrency by the number of cases and
// the machine's CPU count, with a floor of one.
func clampThreads(requested, gridSize, cpus int) int {
	threads := requested
	if threads > gridSize {
		threads = gridSize
	}
	if threads > cpus {
		threads = cpus
	}
	if threads < 1 {
		threads = 1
	}
	return threads
}

// States returns a copy of the scheduler-observed case states.
func (s *Scheduler) States() []CaseState {
	out := make([]CaseState, len(s.states))
	copy(out, s.states)
	return out
}

// PeakRunning returns the highest simultaneously-running case count observed
// during the last Run.
func (s *Scheduler) PeakRunning() int {
	return s.peak
}

// Run dispatches every case and blocks until all of them are Done. In
// non-test mode it finishes with a reconciliation pass over the cases'
// status artifacts.
func (s *Scheduler) Run(ctx context.Context, opts Options) error {
	logger := ctxlog.FromContext(ctx)
	opts = opts.withDefaults()

	size := s.grid.Size
	threads := clampThreads(opts.NumThreads, size, runtime.NumCPU())
	logger.Info("Local scheduler starting.",
		"cases", size, "threads", threads, "requested_threads", opts.NumThreads, "test_mode", opts.TestMode)

	// No case may be dispatched before its input exists on durable storage.
	// This guards against filesystem write latency on network storage.
	for index := 0; index < size; index++ {
		cfg := s.layout.ConfigPath(index)
		if err := fsutil.WaitForFile(cfg, opts.ConfigWait, configPollInterval); err != nil {
			return fmt.Errorf("%w: case %06d: %v", ErrConfigNotReady, index, err)
		}
	}
	logger.Debug("All case configs present on disk.")

	if err := os.MkdirAll(s.layout.LogsDir(), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	s.states = make([]CaseState, size)
	s.procs = make([]*caseProc, size)
	s.peak = 0

	rampSleep := opts.CheckInterval / 10
	if rampSleep > maxRampSleep {
		rampSleep = maxRampSleep
	}
	if rampSleep <= 0 {
		rampSleep = opts.CheckInterval
	}

	running, done, dispatched := 0, 0, 0
	for iteration := 0; done < size; iteration++ {
		// Reap every running case whose process has exited.
		for index, proc := range s.procs {
			if s.states[index] != Running {
				continue
			}
			select {
			case <-proc.done:
				s.reap(logger, index, proc)
				running--
				done++
			default:
			}
		}

		if iteration%opts.PrintInterval == 0 {
			queued := size - running - done
			logger.Info("Sweep progress.",
				"queued", fmt.Sprintf("%d (%.0f%%)", queued, pct(queued, size)),
				"running", fmt.Sprintf("%d (%.0f%%)", running, pct(running, size)),
				"done", fmt.Sprintf("%d (%.0f%%)", done, pct(done, size)))
		}

		// Dispatch the lowest-index queued case, at most one per iteration.
		if running < threads {
			for index := range s.states {
				if s.states[index] != Queued {
					continue
				}
				proc, err := s.start(index)
				if err != nil {
					return fmt.Errorf("case %06d: failed to start process: %w", index, err)
				}
				logger.Debug("Case dispatched.", "case", fmt.Sprintf("%06d", index), "pid", proc.cmd.Process.Pid)
				s.procs[index] = proc
				s.states[index] = Running
				running++
				dispatched++
				break
			}
		}
		if running > s.peak {
			s.peak = running
		}

		if done >= size {
			break
		}
		// Shorter sleeps while the first batch ramps up, to avoid a
		// thundering herd of near-simultaneous launches.
		if dispatched < threads {
			time.Sleep(rampSleep)
		} else {
			time.Sleep(opts.CheckInterval)
		}
	}

	logger.Info("All cases finished.", "cases", size, "peak_running", s.peak)

	if opts.TestMode {
		logger.Debug("Test mode: skipping status reconciliation.")
		return nil
	}
	return s.reconcile(ctx)
}

// start launches the external process for one case, routing its output to
// the case's log file.
func (s *Scheduler) start(index int) (*caseProc, error) {
	logFile, err := os.Create(s.layout.CaseLogPath(index))
	if err != nil {
		return nil, err
	}

	args := make([]string, 0, len(s.command))
	args = append(args, s.command[1:]...)
	args = append(args, s.layout.ConfigPath(index))
	cmd := exec.Command(s.command[0], args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		logFile.Close()
		return nil, err
	}

	proc := &caseProc{cmd: cmd, done: make(chan struct{}), logFile: logFile}
	go func() {
		proc.waitErr = cmd.Wait()
		close(proc.done)
	}()
	return proc, nil
}

// reap transitions a case to Done and releases its process resources. Exit
// codes are deliberately not interpreted: the job's own status artifact is
// the authoritative outcome.
func (s *Scheduler) reap(logger *slog.Logger, index int, proc *caseProc) {
	if proc.waitErr != nil {
		logger.Debug("Case process exited non-zero.", "case", fmt.Sprintf("%06d", index), "error", proc.waitErr)
	} else {
		logger.Debug("Case process exited.", "case", fmt.Sprintf("%06d", index))
	}
	proc.logFile.Close()
	s.states[index] = Done
}

// reconcile reads every case's self-reported status artifact. A case whose
// artifact still encodes an active state even though its process has exited
// is force-written with the Died code. A missing artifact is fatal: the job
// was killed before it could even create its output directory.
func (s *Scheduler) reconcile(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	succeeded, failed, died := 0, 0, 0
	for index := 0; index < s.grid.Size; index++ {
		path := s.layout.StatusPath(index)
		code, desc, err := status.Read(path)
		if err != nil {
			return fmt.Errorf("reconciliation failed for case %06d: %w", index, err)
		}

		switch {
		case code.Active():
			logger.Warn("Case died without reporting a terminal state.",
				"case", fmt.Sprintf("%06d", index), "last_code", int(code), "last_status", desc)
			if err := status.Write(path, status.Died, "Process exited without a terminal status"); err != nil {
				return fmt.Errorf("reconciliation failed for case %06d: %w", index, err)
			}
			died++
		case code.Success():
			succeeded++
		default:
			failed++
		}
	}

	logger.Info("Reconciliation complete.", "succeeded", succeeded, "failed", failed, "died", died)
	return nil
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}
