package scheduler

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FormingWorlds/sweepgridgo/internal/ctxlog"
	"github.com/FormingWorlds/sweepgridgo/internal/grid"
	"github.com/FormingWorlds/sweepgridgo/internal/materialize"
	"github.com/FormingWorlds/sweepgridgo/internal/status"
	"github.com/FormingWorlds/sweepgridgo/internal/testutil"
)

// quietCtx returns a context whose logger discards everything, keeping test
// output readable.
func quietCtx() context.Context {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

// testSweep builds a size-n single-dimension grid with its on-disk layout,
// including one dummy config artifact per case.
func testSweep(t *testing.T, n int) (materialize.Layout, *grid.Grid) {
	t.Helper()

	layout := materialize.Layout{Root: filepath.Join(t.TempDir(), "sweep")}
	require.NoError(t, os.MkdirAll(layout.ConfigDir(), 0755))
	require.NoError(t, os.MkdirAll(layout.LogsDir(), 0755))

	s := grid.NewSet()
	require.NoError(t, s.Add("a", "p.a"))
	require.NoError(t, s.SetLinspace("a", 0, float64(n-1), n))
	g, err := s.Generate()
	require.NoError(t, err)
	require.Equal(t, n, g.Size)

	for i := 0; i < n; i++ {
		require.NoError(t, os.WriteFile(layout.ConfigPath(i), []byte("case\n"), 0644))
	}
	return layout, g
}

// reportScript builds a job argv running a shell script that derives its
// case index from the config path argument and executes body, with ROOT
// expanded to the sweep root.
func reportScript(t *testing.T, layout materialize.Layout, body string) []string {
	t.Helper()
	script := `idx=$(basename "$1" .toml)
idx=${idx#case_}
mkdir -p "ROOT/$idx"
` + body + "\n"
	script = strings.ReplaceAll(script, "ROOT", layout.Root)
	path := testutil.WriteScript(t, t.TempDir(), "job.sh", script)
	return []string{"/bin/sh", path}
}

// noopCommand exits successfully without writing any status artifact.
func noopCommand() []string {
	return []string{"/bin/sh", "-c", ":"}
}

func fastOptions() Options {
	return Options{
		NumThreads:    2,
		CheckInterval: 2 * time.Millisecond,
		PrintInterval: 10,
		ConfigWait:    time.Second,
	}
}

func TestRun_AllCasesCompleteUnderConcurrencyBound(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	layout, g := testSweep(t, 5)
	command := reportScript(t, layout, `printf '10\nCompleted\n' > "ROOT/$idx/status"`)
	sched := New(layout, g, command)

	// --- Act ---
	err := sched.Run(quietCtx(), fastOptions())

	// --- Assert ---
	require.NoError(t, err)
	for i, state := range sched.States() {
		assert.Equal(t, Done, state, "case %d must be done", i)
	}
	assert.GreaterOrEqual(t, sched.PeakRunning(), 1)
	assert.LessOrEqual(t, sched.PeakRunning(), 2, "concurrency bound was violated")

	// Reconciliation ran and every job-written status survived untouched.
	for i := 0; i < g.Size; i++ {
		code, desc, err := status.Read(layout.StatusPath(i))
		require.NoError(t, err)
		assert.True(t, code.Terminal(), "case %d must report a terminal code", i)
		assert.Equal(t, status.Completed, code)
		assert.Equal(t, "Completed", desc)
	}
}

func TestRun_ReconciliationFlagsDiedCase(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Case 000001 exits while still reporting an active code, simulating a
	// job that crashed before reaching a terminal state.
	layout, g := testSweep(t, 3)
	command := reportScript(t, layout, `if [ "$idx" = "000001" ]; then
    printf '2\nRunning\n' > "ROOT/$idx/status"
else
    printf '10\nCompleted\n' > "ROOT/$idx/status"
fi`)
	sched := New(layout, g, command)

	// --- Act ---
	err := sched.Run(quietCtx(), fastOptions())

	// --- Assert ---
	require.NoError(t, err, "a silently dying case must not fail the sweep")

	code, desc, readErr := status.Read(layout.StatusPath(1))
	require.NoError(t, readErr)
	assert.Equal(t, status.Died, code, "active status must be overwritten with the died code")
	assert.Equal(t, "Process exited without a terminal status", desc)

	for _, i := range []int{0, 2} {
		code, _, readErr := status.Read(layout.StatusPath(i))
		require.NoError(t, readErr)
		assert.Equal(t, status.Completed, code, "case %d must retain its own status", i)
	}
}

func TestRun_MissingConfigArtifactIsFatal(t *testing.T) {
	t.Parallel()

	layout, g := testSweep(t, 3)
	require.NoError(t, os.Remove(layout.ConfigPath(2)))

	sched := New(layout, g, noopCommand())
	opts := fastOptions()
	opts.ConfigWait = 50 * time.Millisecond

	err := sched.Run(quietCtx(), opts)
	assert.ErrorIs(t, err, ErrConfigNotReady)
}

func TestRun_MissingStatusArtifactFailsReconciliation(t *testing.T) {
	t.Parallel()

	// The job exits without ever creating its output directory, so
	// reconciliation cannot find a status artifact to inspect.
	layout, g := testSweep(t, 1)
	sched := New(layout, g, noopCommand())

	err := sched.Run(quietCtx(), fastOptions())
	assert.ErrorContains(t, err, "reconciliation failed for case 000000")
}

func TestRun_TestModeSkipsReconciliation(t *testing.T) {
	t.Parallel()

	layout, g := testSweep(t, 2)
	sched := New(layout, g, noopCommand())

	opts := fastOptions()
	opts.TestMode = true
	err := sched.Run(quietCtx(), opts)

	require.NoError(t, err, "test mode must not inspect status artifacts")
	for _, state := range sched.States() {
		assert.Equal(t, Done, state)
	}
}

func TestClampThreads(t *testing.T) {
	t.Parallel()

	cases := []struct {
		requested, gridSize, cpus, want int
	}{
		{8, 5, 16, 5},   // bounded by grid size
		{8, 50, 4, 4},   // bounded by CPU count
		{3, 5, 8, 3},    // request honored
		{0, 5, 8, 1},    // floor of one
		{-2, 5, 8, 1},   // nonsense requests clamp to one
		{1, 1, 1, 1},    // degenerate sweep
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, clampThreads(tc.requested, tc.gridSize, tc.cpus),
			"clampThreads(%d, %d, %d)", tc.requested, tc.gridSize, tc.cpus)
	}
}

func TestCaseStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "queued", Queued.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "done", Done.String())
	assert.Equal(t, "unknown", CaseState(9).String())
}
