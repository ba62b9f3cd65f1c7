package tensor

import (
	"errors"
	"fmt"
)

// ErrTokenRange is wrapped by range checks on token ids.
var ErrTokenRange = errors.New("token id out of range")

// Tokens is a rectangular [batch, seq] grid of int32 token ids.
type Tokens struct {
	batch  int
	seqLen int
	data   []int32
}

// NewTokens wraps row-major ids as a [batch, seqLen] grid without copying.
func NewTokens(data []int32, batch, seqLen int) (*Tokens, error) {
	if batch <= 0 || seqLen <= 0 {
		return nil, fmt.Errorf("invalid token grid %dx%d", batch, seqLen)
	}
	if len(data) != batch*seqLen {
		return nil, fmt.Errorf("token data length %d does not match %dx%d", len(data), batch, seqLen)
	}
	return &Tokens{batch: batch, seqLen: seqLen, data: data}, nil
}

// Sequence wraps a single context as a [1, len(ids)] grid.
func Sequence(ids []int32) (*Tokens, error) {
	return NewTokens(ids, 1, len(ids))
}

// Batch returns the number of rows.
func (t *Tokens) Batch() int { return t.batch }

// SeqLen returns the number of positions per row.
func (t *Tokens) SeqLen() int { return t.seqLen }

// Shape returns [batch, seqLen].
func (t *Tokens) Shape() Shape { return Shape{t.batch, t.seqLen} }

// Data returns the row-major ids.
func (t *Tokens) Data() []int32 { return t.data }

// Row returns the ids of row i.
func (t *Tokens) Row(i int) []int32 {
	return t.data[i*t.seqLen : (i+1)*t.seqLen]
}

// At returns the id at row i, position j.
func (t *Tokens) At(i, j int) int32 {
	return t.data[i*t.seqLen+j]
}

// CheckRange returns an error naming the first id outside [0, vocabSize).
func (t *Tokens) CheckRange(vocabSize int) error {
	return CheckRange(t.data, vocabSize)
}

// CheckRange returns an error wrapping ErrTokenRange for the first id of ids
// outside [0, vocabSize).
func CheckRange(ids []int32, vocabSize int) error {
	for i, id := range ids {
		if id < 0 || int(id) >= vocabSize {
			return fmt.Errorf("token %d at index %d outside vocabulary [0, %d): %w", id, i, vocabSize, ErrTokenRange)
		}
	}
	return nil
}
