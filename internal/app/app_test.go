package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FormingWorlds/sweepgridgo/internal/testutil"
)

// writeSweep lays out a base config and a 2x3 sweep definition in a temp dir
// and returns the sweep file path and the sweep output root.
func writeSweep(t *testing.T) (sweepPath, outputDir string) {
	t.Helper()

	dir := t.TempDir()
	outputDir = filepath.Join(dir, "out", "redox")
	basePath := filepath.Join(dir, "base.toml")
	testutil.WriteFiles(t, dir, map[string]string{"base.toml": testutil.BaseConfigTOML})

	sweepHCL := fmt.Sprintf(`
sweep "redox" {
  base_config = %q
  output_dir  = %q
  command     = ["proteus", "start", "--config"]

  dimension "fo2" {
    parameter = "outgas.fO2_shift_IW"
    linspace {
      start = -2
      stop  = 2
      count = 3
    }
  }

  dimension "mass" {
    parameter = "struct.mass_tot"
    values = [1.0, 3.0]
  }
}
`, basePath, outputDir)

	sweepPath = filepath.Join(dir, "redox.hcl")
	testutil.WriteFiles(t, dir, map[string]string{"redox.hcl": sweepHCL})
	return sweepPath, outputDir
}

func testConfig(t *testing.T, sweepPath, mode string) *Config {
	t.Helper()
	cfg, err := NewConfig(Config{
		SweepPath:       sweepPath,
		Mode:            mode,
		LogFormat:       "text",
		LogLevel:        "debug",
		Threads:         2,
		MaxJobs:         2,
		MaxDuration:     "1-00:00:00",
		MaxMemoryPerCPU: "4G",
		TestMode:        true,
	})
	require.NoError(t, err)
	return cfg
}

func TestNewApp_PanicsOnUnloadableSweep(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{"broken.hcl": `sweep "x" {`})
	cfg := testConfig(t, filepath.Join(dir, "broken.hcl"), ModePlan)

	var out testutil.SafeBuffer
	require.Panics(t, func() { NewApp(&out, cfg) })
}

func TestRun_PlanModeWritesNothing(t *testing.T) {
	t.Parallel()

	sweepPath, outputDir := writeSweep(t)
	var out testutil.SafeBuffer
	a := NewApp(&out, testConfig(t, sweepPath, ModePlan))

	require.NoError(t, a.Run(context.Background()))

	assert.Contains(t, out.String(), "Grid generated.")
	assert.Contains(t, out.String(), "cases=6")
	_, err := os.Stat(outputDir)
	assert.True(t, os.IsNotExist(err), "plan mode must not touch the output dir")
}

func TestRun_MaterializeModeWritesAllConfigs(t *testing.T) {
	t.Parallel()

	sweepPath, outputDir := writeSweep(t)
	var out testutil.SafeBuffer
	a := NewApp(&out, testConfig(t, sweepPath, ModeMaterialize))

	require.NoError(t, a.Run(context.Background()))

	for i := 0; i < 6; i++ {
		path := filepath.Join(outputDir, "cfgs", fmt.Sprintf("case_%06d.toml", i))
		_, err := os.Stat(path)
		assert.NoError(t, err, "case %d config must exist", i)
	}
}

func TestRun_LocalTestModeCompletesAllCases(t *testing.T) {
	t.Parallel()

	sweepPath, outputDir := writeSweep(t)
	var out testutil.SafeBuffer
	a := NewApp(&out, testConfig(t, sweepPath, ModeLocal))

	require.NoError(t, a.Run(context.Background()))

	assert.Contains(t, out.String(), "All cases finished.")
	assert.Contains(t, out.String(), "Local run finished.")

	// Test mode dispatched a stand-in command, so per-case logs exist even
	// though no status artifacts were produced.
	for i := 0; i < 6; i++ {
		path := filepath.Join(outputDir, "logs", fmt.Sprintf("case_%06d.log", i))
		_, err := os.Stat(path)
		assert.NoError(t, err, "case %d log must exist", i)
	}
}

func TestRun_SlurmModeWritesScript(t *testing.T) {
	t.Parallel()

	sweepPath, outputDir := writeSweep(t)
	var out testutil.SafeBuffer
	a := NewApp(&out, testConfig(t, sweepPath, ModeSlurm))

	require.NoError(t, a.Run(context.Background()))

	scriptPath := filepath.Join(outputDir, "logs", "dispatch.slurm")
	raw, err := os.ReadFile(scriptPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "#SBATCH --array=0-1%2")
	assert.Contains(t, out.String(), "Dispatch script written to "+scriptPath)
}

func TestNewConfig_Validation(t *testing.T) {
	t.Parallel()

	t.Run("empty sweep path", func(t *testing.T) {
		_, err := NewConfig(Config{Mode: ModeLocal})
		assert.ErrorContains(t, err, "SweepPath is a required configuration field")
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := NewConfig(Config{SweepPath: "x.hcl", Mode: "warp"})
		assert.ErrorContains(t, err, "invalid mode")
	})
}
