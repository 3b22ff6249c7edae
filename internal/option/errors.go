package option

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic checks via errors.Is(), mirroring the
// taxonomy the teacher's internal/graph package uses for its own error kinds.
var (
	ErrInvalidOperation = errors.New("invalid option operation")
	ErrInvalidValue     = errors.New("invalid option value")
	ErrInvalidKey       = errors.New("invalid option key")
)

// OperationError reports a type/operator mismatch at fold time: an operator
// applied to a value kind the operator table in spec.md §4.1 does not define.
type OperationError struct {
	Op      Op
	Kind    Kind
	Message string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %s on %s: %s", ErrInvalidOperation, e.Op, e.Kind, e.Message)
}

func (e *OperationError) Unwrap() error { return ErrInvalidOperation }

// ValueError reports an unparseable string-grammar literal.
type ValueError struct {
	Input   string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: %q: %s", ErrInvalidValue, e.Input, e.Message)
}

func (e *ValueError) Unwrap() error { return ErrInvalidValue }

// KeyError reports a typed-accessor mismatch or lookup of an option a phase
// never declared a default for.
type KeyError struct {
	Key     string
	Message string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("%s: %q: %s", ErrInvalidKey, e.Key, e.Message)
}

func (e *KeyError) Unwrap() error { return ErrInvalidKey }
