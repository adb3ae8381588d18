// Package model provides the Go struct representation of a sweep's HCL
// description. Its core purpose is to create a strongly-typed, in-memory
// model of the user's sweep definition by parsing the raw HCL files.
//
// # Core Concepts
//
// The model is built around two structures:
//
//   - Sweep: the root container for one parameter exploration. It names the
//     sweep, points at the base simulation config, fixes the output root and
//     the external job command, and aggregates the dimension blocks.
//
//   - Dimension: one axis of the sweep. Each dimension targets a dotted
//     parameter path and carries exactly one value-generation method:
//     a direct value list, linspace, logspace, or arange.
//
// Why a separate model package?
//
// This package acts as an intermediate layer between raw HCL and the grid
// generator. Parsing and structural validation happen here, so that by the
// time a Sweep reaches grid.FromSweep every dimension is known to be
// well-formed. Decode errors carry HCL diagnostics with file positions, which
// is what users see when a sweep file is malformed.
package model
