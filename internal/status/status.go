// Package status defines the on-disk status artifact that every case job
// writes into its own output directory, and that the local scheduler reads
// back during post-run reconciliation.
//
// The artifact is a small text file: the first line is an integer status
// code, the second line a human-readable description. The job owns the file
// for its entire lifetime; the scheduler only reads it after the process has
// exited, and overwrites it in exactly one situation — forcing a case that
// died without reporting a terminal outcome into the Died state.
package status

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Code is a case's self-reported lifecycle code.
type Code int

const (
	// Queued means the job has been created but has not started yet.
	Queued Code = 0
	// Started means the job process has begun executing.
	Started Code = 1
	// Running means the job is actively simulating.
	Running Code = 2

	// Completed means the job finished and reported success.
	Completed Code = 10

	// Error means the job reported a failure itself.
	Error Code = 20
	// Died is written by the scheduler when a job's process exited without
	// the job ever reporting a terminal code.
	Died Code = 25
)

// Active reports whether the code denotes a job that has not yet reached a
// terminal outcome. Codes 0-9 are reserved for active states.
func (c Code) Active() bool {
	return c >= 0 && c <= 9
}

// Success reports whether the code denotes a successful terminal outcome.
// Codes 10-19 are reserved for success states.
func (c Code) Success() bool {
	return c >= 10 && c <= 19
}

// Failed reports whether the code denotes an error terminal outcome.
// Codes 20-29 are reserved for error states.
func (c Code) Failed() bool {
	return c >= 20 && c <= 29
}

// Terminal reports whether the code denotes any terminal outcome.
func (c Code) Terminal() bool {
	return !c.Active()
}

// Write records the code and description to the artifact at path,
// overwriting any previous content.
func Write(path string, code Code, description string) error {
	content := fmt.Sprintf("%d\n%s\n", code, description)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write status artifact %s: %w", path, err)
	}
	return nil
}

// Read parses the artifact at path and returns its code and description.
func Read(path string) (Code, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, "", fmt.Errorf("failed to read status artifact %s: %w", path, err)
	}

	lines := strings.SplitN(strings.TrimRight(string(raw), "\n"), "\n", 2)
	code, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return 0, "", fmt.Errorf("malformed status artifact %s: first line is not an integer: %w", path, err)
	}

	description := ""
	if len(lines) > 1 {
		description = strings.TrimSpace(lines[1])
	}
	return Code(code), description, nil
}
