package scheduler

// CaseState is the scheduler-observed lifecycle of a case. It is distinct
// from the job-reported status artifact: CaseState tracks only what the
// control loop itself has seen of the process.
type CaseState int32

const (
	// Queued means the case has not been dispatched yet.
	Queued CaseState = iota
	// Running means the case's process has been started and not yet reaped.
	Running
	// Done means the scheduler observed the case's process exit.
	Done
)

// String returns the human-readable state name.
func (s CaseState) String() string {
	switch s {
	case Queued:
		return "queued"
	case Running:
		return "running"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}
