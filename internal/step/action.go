package step

import "context"

// Action is the set of Steps a phase's handler registers for one action
// invocation. Steps run in registration order (already upstream-ordered by
// the handler that built them); a later step's own Upstream links, not this
// list's order, gate whether it actually executes.
type Action struct {
	Name  string
	Steps []*Step
}

// Run executes every step in order and folds the per-step results into one
// aggregate Result for the phase's action record: a failure (CommandFailed,
// MissingInput, DependencyError or InvalidOption) dominates (first one
// found, in step order), then Succeeded if any step actually ran, else
// AlreadyUpToDate, else NoAction for an empty action.
func (a *Action) Run(ctx context.Context) Result {
	if len(a.Steps) == 0 {
		return Result{Code: NoAction}
	}
	sawSucceeded := false
	var firstFailure *Result
	for _, s := range a.Steps {
		res := s.Execute(ctx)
		switch res.Code {
		case CommandFailed, MissingInput, DependencyError, InvalidOption:
			if firstFailure == nil {
				firstFailure = &res
			}
		case Succeeded:
			sawSucceeded = true
		}
	}
	if firstFailure != nil {
		return *firstFailure
	}
	if sawSucceeded {
		return Result{Code: Succeeded}
	}
	return Result{Code: AlreadyUpToDate}
}
