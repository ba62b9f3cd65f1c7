package data

import (
	"errors"
	"fmt"
)

// ErrInsufficientData is matched by every *InsufficientDataError.
var ErrInsufficientData = errors.New("insufficient data")

// InsufficientDataError reports a split too short to hold one window.
type InsufficientDataError struct {
	Split  Split // Region that is too short
	Length int   // Tokens in the region
	Need   int   // block_size + 1
}

// Error implements the error interface.
func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %s split has %d tokens, need at least %d", e.Split, e.Length, e.Need)
}

// Is makes errors.Is(err, ErrInsufficientData) succeed.
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}
