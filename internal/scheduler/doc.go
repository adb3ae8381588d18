// Package scheduler provides the bounded-concurrency local dispatcher. It
// launches one external simulation process per case, never letting more than
// the configured number run at once, and polls process liveness instead of
// blocking on any single case.
//
// # How It Works
//
// A single control loop owns all scheduler state:
//  1. Reap: every Running case whose process has exited transitions to Done
//     and releases its process resources.
//  2. Report: queued/running/done counts are logged periodically.
//  3. Dispatch: if capacity remains, the lowest-index Queued case is started.
//     At most one case is newly dispatched per iteration.
//  4. Sleep: a short fixed interval, shorter still while the initial batch is
//     ramping up.
//
// # Failure Semantics
//
// The scheduler never interprets process exit codes. Each job writes its own
// authoritative status artifact; after the loop finishes, reconciliation
// reads every artifact and force-writes the Died code for any case whose
// process exited while its artifact still reported an active state. A silent
// case death therefore never aborts the sweep; a config artifact that fails
// to appear on durable storage before dispatch does.
package scheduler
