package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FormingWorlds/sweepgridgo/internal/cli"
)

// TestRun_RecoversFromStartupPanic verifies that a panic during app startup,
// such as an unparsable sweep file, is converted into a clean error.
func TestRun_RecoversFromStartupPanic(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`sweep "x" {`), 0644))

	var out bytes.Buffer
	err := run(&out, []string{path})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "a critical startup error occurred")
}

// TestRun_HelpExitsCleanly verifies that requesting help is not an error.
func TestRun_HelpExitsCleanly(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	assert.NoError(t, run(&out, []string{"-h"}))
}

// TestRun_ParseErrorPropagates verifies that a CLI parsing failure surfaces
// as an ExitError with the conventional exit code.
func TestRun_ParseErrorPropagates(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	err := run(&out, []string{"--no-such-flag"})

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}
