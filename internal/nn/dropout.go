package nn

import (
	"github.com/born-ml/gptlab/internal/autodiff"
	"github.com/born-ml/gptlab/internal/tensor"
)

// Dropout zeroes activations with probability P while the backend is in
// training mode and is the identity otherwise.
type Dropout struct {
	P       float32
	backend *autodiff.Backend
}

// NewDropout creates a Dropout layer.
func NewDropout(p float32, backend *autodiff.Backend) *Dropout {
	return &Dropout{P: p, backend: backend}
}

// Forward applies dropout.
func (d *Dropout) Forward(x *tensor.Tensor) *tensor.Tensor {
	return d.backend.Dropout(x, d.P)
}

// Parameters returns nil.
func (d *Dropout) Parameters() []*Parameter {
	return nil
}
