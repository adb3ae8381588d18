// Package grid builds the Cartesian product at the heart of a parameter
// sweep. A Set collects named dimensions, each addressing one dotted
// parameter path in the simulation configuration and carrying an ordered
// list of values. Generate expands the Set into a Grid: a flat, ordered list
// of points, one per combination of dimension values.
//
// Why a separate grid package?
//
// The grid is pure data with no side effects. Keeping generation free of I/O
// lets the materializer, the local scheduler and the cluster script generator
// all consume the same read-only Grid without caring how it was described.
// Values are cty.Value because they originate from HCL evaluation; they are
// only converted to plain Go values at materialization time.
package grid
