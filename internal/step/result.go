// Package step implements the leaf execution unit of an action: freshness
// testing, shell dispatch, and the short-circuit-on-failed-upstream rule,
// ported from the teacher's internal/dag.Executor.RunSerial over a Step
// type instead of a Task.
package step

// ResultCode is the error-taxonomy enum from spec.md §7.
type ResultCode string

const (
	NoAction        ResultCode = "NO_ACTION"
	Succeeded       ResultCode = "SUCCEEDED"
	AlreadyUpToDate ResultCode = "ALREADY_UP_TO_DATE"
	MissingInput    ResultCode = "MISSING_INPUT"
	CommandFailed   ResultCode = "COMMAND_FAILED"
	DependencyError ResultCode = "DEPENDENCY_ERROR"
	InvalidOption   ResultCode = "INVALID_OPTION"
)

// Success reports whether code counts as non-failure for propagation
// purposes: a dependent step/phase may proceed past it.
func (c ResultCode) Success() bool {
	switch c {
	case NoAction, Succeeded, AlreadyUpToDate:
		return true
	default:
		return false
	}
}

// Result is the outcome recorded for a Step or a phase's action, matching
// the teacher's NodeResult/ExecutionState split (internal/dag).
type Result struct {
	Code  ResultCode
	Notes string
}
