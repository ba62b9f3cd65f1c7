package tensor

import "fmt"

// Shape represents the dimensions of a tensor.
type Shape []int

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// Last returns the size of the innermost dimension.
func (s Shape) Last() int {
	if len(s) == 0 {
		return 1
	}
	return s[len(s)-1]
}

// Rows flattens every dimension except the last one.
//
// A [batch, seq, features] shape yields rows = batch*seq, cols = features,
// which is the view that row-wise kernels (Linear, LayerNorm, Softmax) use.
func (s Shape) Rows() (rows, cols int) {
	cols = s.Last()
	if cols == 0 {
		return 0, 0
	}
	return s.NumElements() / cols, cols
}

// Matrices splits a rank >= 2 shape into a batch of matrices.
//
// [b1, b2, m, n] yields batch = b1*b2, m, n.
func (s Shape) Matrices() (batch, m, n int) {
	if len(s) < 2 {
		panic(fmt.Sprintf("Shape.Matrices: need rank >= 2, got %v", s))
	}
	m, n = s[len(s)-2], s[len(s)-1]
	batch = 1
	for _, d := range s[:len(s)-2] {
		batch *= d
	}
	return batch, m, n
}

// HasSuffix reports whether suffix matches the trailing dimensions of s.
//
// Used to validate broadcasts such as [batch, seq, embd] + [seq, embd].
func (s Shape) HasSuffix(suffix Shape) bool {
	if len(suffix) > len(s) {
		return false
	}
	return Shape(s[len(s)-len(suffix):]).Equal(suffix)
}

// WithLast returns a copy of s with the innermost dimension replaced.
func (s Shape) WithLast(n int) Shape {
	out := s.Clone()
	if len(out) == 0 {
		return Shape{n}
	}
	out[len(out)-1] = n
	return out
}
