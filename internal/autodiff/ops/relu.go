package ops

import (
	"github.com/born-ml/gptlab/internal/backend/cpu"
	"github.com/born-ml/gptlab/internal/tensor"
)

// ReLUOp represents the rectified linear unit: output = max(x, 0).
//
// Backward pass:
//   - d(ReLU(x))/dx = 1 if x > 0, else 0
type ReLUOp struct {
	input  *tensor.Tensor
	output *tensor.Tensor
}

// NewReLUOp creates a new ReLUOp.
func NewReLUOp(input, output *tensor.Tensor) *ReLUOp {
	return &ReLUOp{input: input, output: output}
}

// Backward masks the output gradient by the sign of the input.
func (op *ReLUOp) Backward(outputGrad *tensor.Tensor, _ *cpu.CPUBackend) []*tensor.Tensor {
	x := op.input.Data()
	g := outputGrad.Data()
	gradIn := make([]float32, len(x))
	for i, v := range x {
		if v > 0 {
			gradIn[i] = g[i]
		}
	}
	return []*tensor.Tensor{grad(gradIn, op.input)}
}

// Inputs returns [x].
func (op *ReLUOp) Inputs() []*tensor.Tensor {
	return []*tensor.Tensor{op.input}
}

// Output returns ReLU(x).
func (op *ReLUOp) Output() *tensor.Tensor {
	return op.output
}
