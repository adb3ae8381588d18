// Package materialize turns grid points into runnable config artifacts. For
// every point it clones the base simulation config, applies the point's
// parameter overrides, assigns the case's output path and serializes the
// result under the sweep root. Materialization is deterministic: re-running
// it over the same grid and base config produces byte-identical artifacts.
package materialize

import (
	"context"
	"fmt"
	"os"

	"github.com/zclconf/go-cty/cty"

	"github.com/FormingWorlds/sweepgridgo/internal/ctxlog"
	"github.com/FormingWorlds/sweepgridgo/internal/fsutil"
	"github.com/FormingWorlds/sweepgridgo/internal/grid"
	"github.com/FormingWorlds/sweepgridgo/internal/simconfig"
)

// Materializer writes one config artifact per grid point.
type Materializer struct {
	Layout    Layout
	SweepName string

	// OutputPathKey is the dotted config field receiving the case output
	// path, e.g. "params.out.path".
	OutputPathKey string

	// ScratchDir, when set, redirects the sweep root there via a symlink
	// before anything is written.
	ScratchDir string
}

// Prepare creates the sweep directory skeleton, applying scratch redirection
// first when configured.
func (m *Materializer) Prepare(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	if m.ScratchDir != "" {
		logger.Debug("Redirecting sweep root to scratch storage.", "root", m.Layout.Root, "scratch", m.ScratchDir)
		if err := fsutil.RedirectRoot(m.Layout.Root, m.ScratchDir); err != nil {
			return err
		}
	}

	for _, dir := range []string{m.Layout.ConfigDir(), m.Layout.LogsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create sweep directory %s: %w", dir, err)
		}
	}
	return nil
}

// Run materializes every point of the grid against the base config. The
// first unresolvable parameter path aborts the whole materialization; cases
// before the failing one remain on disk.
func (m *Materializer) Run(ctx context.Context, g *grid.Grid, base *simconfig.Document) error {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Materializing case configs.", "cases", g.Size)

	for index, point := range g.Points {
		clone := base.Clone()

		if err := clone.Set(m.OutputPathKey, CaseOutputPath(m.SweepName, index)); err != nil {
			return fmt.Errorf("case %s: %w", caseName(index), err)
		}

		for _, entry := range point.Entries {
			value, err := goValue(entry.Value)
			if err != nil {
				return fmt.Errorf("case %s: parameter %q: %w", caseName(index), entry.Parameter, err)
			}
			if err := clone.Set(entry.Parameter, value); err != nil {
				return fmt.Errorf("case %s: %w", caseName(index), err)
			}
		}

		if err := clone.WriteFile(m.Layout.ConfigPath(index)); err != nil {
			return fmt.Errorf("case %s: %w", caseName(index), err)
		}
		logger.Debug("Case config written.", "case", caseName(index), "path", m.Layout.ConfigPath(index))
	}

	logger.Info("All case configs materialized.", "cases", g.Size, "dir", m.Layout.ConfigDir())
	return nil
}

// goValue converts a dimension value from its HCL representation to the Go
// value handed to the config document.
func goValue(v cty.Value) (any, error) {
	switch v.Type() {
	case cty.String:
		return v.AsString(), nil
	case cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return f, nil
	case cty.Bool:
		return v.True(), nil
	default:
		return nil, fmt.Errorf("unsupported value type %s", v.Type().FriendlyName())
	}
}
