package config

import (
	"errors"
	"fmt"
)

// ErrInvalid is matched by every *Error.
var ErrInvalid = errors.New("invalid configuration")

// Error reports an inconsistent or out-of-range hyperparameter.
type Error struct {
	Field  string // YAML key of the offending option
	Reason string // What is wrong with it
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid configuration: %s", e.Reason)
	}
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrInvalid) succeed for any *Error.
func (e *Error) Is(target error) bool {
	return target == ErrInvalid
}

func invalid(field, format string, args ...any) *Error {
	return &Error{Field: field, Reason: fmt.Sprintf(format, args...)}
}
