package remote

import (
	"errors"
	"fmt"
)

var (
	ErrUnreachable = errors.New("remote unreachable")
	ErrServerError = errors.New("remote server error")
	ErrRejected    = errors.New("remote rejected request")
)

// Error describes a failed call against the expenses service. Kind is one of
// ErrUnreachable, ErrServerError or ErrRejected, so callers can use errors.Is.
type Error struct {
	Op     string
	Kind   error
	Status int
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
