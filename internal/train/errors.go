package train

import (
	"errors"
	"fmt"
)

// Errors returned by the trainer.
var (
	// ErrNumericalInstability is matched by every *NumericalInstabilityError.
	ErrNumericalInstability = errors.New("numerical instability")

	// ErrNotIdle is returned when Run is called on a trainer that already ran.
	ErrNotIdle = errors.New("trainer is not idle")
)

// NumericalInstabilityError reports a NaN or infinite training loss.
type NumericalInstabilityError struct {
	Step int     // Step whose loss was not finite
	Loss float64 // The offending value
}

// Error implements the error interface.
func (e *NumericalInstabilityError) Error() string {
	return fmt.Sprintf("numerical instability: loss %v at step %d", e.Loss, e.Step)
}

// Is makes errors.Is(err, ErrNumericalInstability) succeed.
func (e *NumericalInstabilityError) Is(target error) bool {
	return target == ErrNumericalInstability
}
