package ops

import (
	"github.com/born-ml/gptlab/internal/backend/cpu"
	"github.com/born-ml/gptlab/internal/tensor"
)

// ScaleOp multiplies a tensor by a constant: output = x * s.
//
// Used for the 1/sqrt(head_size) attention temperature.
type ScaleOp struct {
	input  *tensor.Tensor
	output *tensor.Tensor
	scale  float32
}

// NewScaleOp creates a new ScaleOp.
func NewScaleOp(input, output *tensor.Tensor, scale float32) *ScaleOp {
	return &ScaleOp{input: input, output: output, scale: scale}
}

// Backward returns outputGrad * s.
func (op *ScaleOp) Backward(outputGrad *tensor.Tensor, backend *cpu.CPUBackend) []*tensor.Tensor {
	return []*tensor.Tensor{grad(backend.Scale(outputGrad.Data(), op.scale), op.input)}
}

// Inputs returns [x].
func (op *ScaleOp) Inputs() []*tensor.Tensor {
	return []*tensor.Tensor{op.input}
}

// Output returns x * s.
func (op *ScaleOp) Output() *tensor.Tensor {
	return op.output
}
