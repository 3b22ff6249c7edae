package step

import (
	"context"
	"fmt"
	"os"
)

// Step is a single leaf execution unit within an Action: it tests freshness,
// optionally runs a shell command, and records exactly one Result. Its
// Upstream list carries explicit same-phase dependencies (e.g. a compile
// step depends on the mkdir step for its object's parent); a failed
// upstream short-circuits this step without running it.
type Step struct {
	Name     string
	Upstream []*Step
	Inputs   []string
	Outputs  []string
	Echo     string

	// Freshness reports whether Outputs already dominate Inputs; when true
	// the step records AlreadyUpToDate without invoking Run.
	Freshness func() (bool, error)

	// Run performs the step's work (usually step.RunShell against Echo).
	// A nil Run means the step's only job is its freshness test (e.g. a
	// softlink step whose "work" is performed by create-softlink logic
	// elsewhere); it records Succeeded once freshness says it must run.
	Run func(ctx context.Context) (notes string, err error)

	ran    bool
	result Result
}

// Execute runs the step exactly once (memoized on the Step itself, since a
// Step belongs to a single Action and Actions are discarded after one run).
// Upstream steps are executed first, depth-first, in declared order.
func (s *Step) Execute(ctx context.Context) Result {
	if s.ran {
		return s.result
	}
	s.ran = true

	for _, u := range s.Upstream {
		res := u.Execute(ctx)
		if !res.Code.Success() {
			s.result = Result{Code: DependencyError, Notes: fmt.Sprintf("upstream step %q: %s", u.Name, res.Notes)}
			return s.result
		}
	}

	for _, in := range s.Inputs {
		if _, err := os.Stat(in); err != nil {
			s.result = Result{Code: MissingInput, Notes: "missing input " + in}
			return s.result
		}
	}

	upToDate, err := s.Freshness()
	if err != nil {
		s.result = Result{Code: CommandFailed, Notes: err.Error()}
		return s.result
	}
	if upToDate {
		s.result = Result{Code: AlreadyUpToDate}
		return s.result
	}

	if s.Run == nil {
		s.result = Result{Code: Succeeded}
		return s.result
	}
	notes, err := s.Run(ctx)
	if err != nil {
		s.result = Result{Code: CommandFailed, Notes: notes}
		return s.result
	}
	s.result = Result{Code: Succeeded, Notes: notes}
	return s.result
}

// Result returns the step's recorded outcome; it is the zero Result until
// Execute has run.
func (s *Step) Result() Result { return s.result }
