package model

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/FormingWorlds/sweepgridgo/internal/ctxlog"
	"github.com/FormingWorlds/sweepgridgo/internal/fsutil"
)

// DefaultOutputPathKey is the config field that receives each case's output
// directory unless the sweep overrides it.
const DefaultOutputPathKey = "params.out.path"

// Sweep is the format-agnostic representation of a `sweep` block.
type Sweep struct {
	Name          string
	BaseConfig    string
	OutputDir     string
	ScratchDir    string
	Command       []string
	OutputPathKey string
	Dimensions    []*Dimension
}

// hclSweepFile represents the top-level structure of a sweep file for decoding.
type hclSweepFile struct {
	Sweeps []*hclSweep `hcl:"sweep,block"`
}

// hclSweep represents a single 'sweep' block for initial decoding from HCL.
type hclSweep struct {
	Name          string          `hcl:"name,label"`
	BaseConfig    string          `hcl:"base_config"`
	OutputDir     string          `hcl:"output_dir"`
	ScratchDir    *string         `hcl:"scratch_dir,optional"`
	Command       []string        `hcl:"command"`
	OutputPathKey *string         `hcl:"output_path_key,optional"`
	Dimensions    []*hclDimension `hcl:"dimension,block"`
}

// newSweepFromHCL parses a single HCL file and returns the sweep blocks found
// within it.
func newSweepFromHCL(filePath string, parser *hclparse.Parser) ([]*Sweep, error) {
	hclFile, diags := parser.ParseHCLFile(filePath)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filePath, diags)
	}

	var parsedFile hclSweepFile
	diags = gohcl.DecodeBody(hclFile.Body, nil, &parsedFile)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filePath, diags)
	}

	sweeps := make([]*Sweep, 0, len(parsedFile.Sweeps))
	for _, parsedSweep := range parsedFile.Sweeps {
		sweep, err := newSweep(parsedSweep)
		if err != nil {
			return nil, fmt.Errorf("error in sweep %q in file %s: %w", parsedSweep.Name, filePath, err)
		}
		sweeps = append(sweeps, sweep)
	}

	return sweeps, nil
}

// newSweep translates a decoded sweep block into the typed model, validating
// its structure.
func newSweep(parsed *hclSweep) (*Sweep, error) {
	if len(parsed.Command) == 0 {
		return nil, fmt.Errorf("command must name the external job executable")
	}
	if len(parsed.Dimensions) == 0 {
		return nil, fmt.Errorf("a sweep must declare at least one dimension block")
	}

	sweep := &Sweep{
		Name:          parsed.Name,
		BaseConfig:    parsed.BaseConfig,
		OutputDir:     parsed.OutputDir,
		Command:       parsed.Command,
		OutputPathKey: DefaultOutputPathKey,
	}
	if parsed.ScratchDir != nil {
		sweep.ScratchDir = *parsed.ScratchDir
	}
	if parsed.OutputPathKey != nil {
		sweep.OutputPathKey = *parsed.OutputPathKey
	}

	seen := make(map[string]struct{}, len(parsed.Dimensions))
	for _, parsedDim := range parsed.Dimensions {
		if _, dup := seen[parsedDim.Name]; dup {
			return nil, fmt.Errorf("dimension %q is declared twice", parsedDim.Name)
		}
		seen[parsedDim.Name] = struct{}{}

		dim, err := newDimension(parsedDim)
		if err != nil {
			return nil, err
		}
		sweep.Dimensions = append(sweep.Dimensions, dim)
	}

	return sweep, nil
}

// Load finds and parses the HCL sweep definition at sweepPath, which may be a
// single .hcl file or a directory. Exactly one sweep block must be defined
// across all files.
func Load(ctx context.Context, sweepPath string) (*Sweep, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading sweep definition", "path", sweepPath)

	files, err := fsutil.FindFilesByExtension(sweepPath, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to find sweep files in %s: %w", sweepPath, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl sweep files found in %s", sweepPath)
	}

	var sweeps []*Sweep
	parser := hclparse.NewParser()
	for _, file := range files {
		parsed, err := newSweepFromHCL(file, parser)
		if err != nil {
			return nil, err
		}
		sweeps = append(sweeps, parsed...)
	}

	switch len(sweeps) {
	case 0:
		return nil, fmt.Errorf("no sweep block defined in %s", sweepPath)
	case 1:
		logger.Debug("Sweep definition loaded", "sweep", sweeps[0].Name, "dimensions", len(sweeps[0].Dimensions))
		return sweeps[0], nil
	default:
		return nil, fmt.Errorf("expected exactly one sweep block, found %d in %s", len(sweeps), sweepPath)
	}
}
