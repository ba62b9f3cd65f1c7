package model

import (
	"errors"
	"fmt"

	"github.com/born-ml/gptlab/internal/tensor"
)

// Errors returned by Forward and NextTokenLogits.
var (
	// ErrContextLength is matched by every *ContextLengthError.
	ErrContextLength = errors.New("context length exceeds block size")

	// ErrTokenOutOfRange is wrapped when an input or target id is outside
	// [0, vocab_size).
	ErrTokenOutOfRange = tensor.ErrTokenRange

	// ErrShape is wrapped for empty inputs or targets that do not line up with inputs.
	ErrShape = errors.New("invalid token shape")
)

// ContextLengthError reports a sequence longer than the positional table.
type ContextLengthError struct {
	Length    int // T of the offending input
	BlockSize int // Maximum supported T
}

// Error implements the error interface.
func (e *ContextLengthError) Error() string {
	return fmt.Sprintf("context length %d exceeds block size %d", e.Length, e.BlockSize)
}

// Is makes errors.Is(err, ErrContextLength) succeed.
func (e *ContextLengthError) Is(target error) bool {
	return target == ErrContextLength
}
