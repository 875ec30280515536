package types

import "fmt"

// ValidationError is a field-scoped, recoverable failure that blocks only the
// transition that produced it.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// PersistenceError is logged and swallowed; the form stays editable but may
// not be resumable.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ResolutionError records a failed dependent-list fetch. It is surfaced as
// list status, never returned from a transition.
type ResolutionError struct {
	Parent string
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Parent == "" {
		return fmt.Sprintf("resolve: %v", e.Err)
	}
	return fmt.Sprintf("resolve %q: %v", e.Parent, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
