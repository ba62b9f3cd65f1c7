// Package tensor provides the dense float32 tensor and int32 token containers
// that every other gptlab package computes on.
//
// Tensors are row-major and own a flat data slice. The autodiff tape keys
// gradients by *Tensor, so operations always return fresh tensors instead of
// aliasing views of their inputs.
package tensor

import (
	"fmt"
	"math"
)

// Tensor is a dense row-major float32 tensor.
type Tensor struct {
	shape Shape
	data  []float32
}

// New allocates a zero-filled tensor with the given shape.
//
// Panics if the shape has a non-positive dimension.
func New(shape Shape) *Tensor {
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("tensor.New: %v", err))
	}
	return &Tensor{
		shape: shape.Clone(),
		data:  make([]float32, shape.NumElements()),
	}
}

// FromSlice wraps data in a tensor of the given shape without copying.
func FromSlice(data []float32, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)",
			len(data), shape, shape.NumElements())
	}
	return &Tensor{shape: shape.Clone(), data: data}, nil
}

// Shape returns the tensor dimensions. Callers must not modify it.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Data returns the underlying row-major storage.
func (t *Tensor) Data() []float32 {
	return t.data
}

// Dim returns the size of dimension i. Negative i counts from the end.
func (t *Tensor) Dim(i int) int {
	if i < 0 {
		i += len(t.shape)
	}
	return t.shape[i]
}

// NumElements returns the element count.
func (t *Tensor) NumElements() int {
	return len(t.data)
}

// Item returns the value of a single-element tensor.
func (t *Tensor) Item() float32 {
	if len(t.data) != 1 {
		panic(fmt.Sprintf("Tensor.Item: tensor has %d elements, shape %v", len(t.data), t.shape))
	}
	return t.data[0]
}

// Row returns the i-th row of the [rows, cols] view of the tensor.
func (t *Tensor) Row(i int) []float32 {
	_, cols := t.shape.Rows()
	return t.data[i*cols : (i+1)*cols]
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	data := make([]float32, len(t.data))
	copy(data, t.data)
	return &Tensor{shape: t.shape.Clone(), data: data}
}

// IsFinite reports whether every element is neither NaN nor ±Inf.
func (t *Tensor) IsFinite() bool {
	for _, v := range t.data {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// String renders the shape and, for small tensors, the values.
func (t *Tensor) String() string {
	if len(t.data) <= 16 {
		return fmt.Sprintf("Tensor%v%v", t.shape, t.data)
	}
	return fmt.Sprintf("Tensor%v[%d elements]", t.shape, len(t.data))
}
