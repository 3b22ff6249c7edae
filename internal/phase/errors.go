package phase

import (
	"errors"
	"fmt"
)

// ErrCircularDependency is the sentinel a caller checks with errors.Is when
// AddDependency would close a cycle in the phase graph.
var ErrCircularDependency = errors.New("circular dependency")

// CircularDependencyError names the two phases involved in the rejected edge.
type CircularDependencyError struct {
	Target string
	New    string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("%s: %s already reaches %s", ErrCircularDependency.Error(), e.New, e.Target)
}

func (e *CircularDependencyError) Unwrap() error { return ErrCircularDependency }
