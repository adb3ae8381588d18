package materialize

import (
	"fmt"
	"path/filepath"
)

// Layout fixes the on-disk structure of a sweep root. The case directories
// are partitioned by index, so no two cases ever share a directory:
//
//	{root}/cfgs/case_000042.toml   materialized config artifacts
//	{root}/logs/                   scheduler, per-case and cluster logs
//	{root}/000042/status           per-case status artifact (job-owned)
type Layout struct {
	Root string
}

// caseName renders the fixed-width decimal case index.
func caseName(index int) string {
	return fmt.Sprintf("%06d", index)
}

// ConfigDir returns the directory holding all case config artifacts.
func (l Layout) ConfigDir() string {
	return filepath.Join(l.Root, "cfgs")
}

// ConfigPath returns the config artifact path for a case index.
func (l Layout) ConfigPath(index int) string {
	return filepath.Join(l.ConfigDir(), "case_"+caseName(index)+".toml")
}

// CaseDir returns the output directory owned by a case index.
func (l Layout) CaseDir(index int) string {
	return filepath.Join(l.Root, caseName(index))
}

// StatusPath returns the status artifact path inside a case's directory.
func (l Layout) StatusPath(index int) string {
	return filepath.Join(l.CaseDir(index), "status")
}

// LogsDir returns the directory for scheduler and per-case logs.
func (l Layout) LogsDir() string {
	return filepath.Join(l.Root, "logs")
}

// CaseLogPath returns the file receiving a case process's stdout and stderr.
func (l Layout) CaseLogPath(index int) string {
	return filepath.Join(l.LogsDir(), "case_"+caseName(index)+".log")
}

// ScriptPath returns the location of the emitted cluster dispatch script.
func (l Layout) ScriptPath() string {
	return filepath.Join(l.LogsDir(), "dispatch.slurm")
}

// CaseOutputPath returns the value written into each case's config as its
// output location, relative to the simulation's own output root.
func CaseOutputPath(sweepName string, index int) string {
	return sweepName + "/" + caseName(index) + "/"
}
