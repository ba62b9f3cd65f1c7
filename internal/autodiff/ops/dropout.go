package ops

import (
	"github.com/born-ml/gptlab/internal/backend/cpu"
	"github.com/born-ml/gptlab/internal/tensor"
)

// DropoutOp represents inverted dropout: output = x * mask.
//
// mask holds 0 for dropped units and 1/(1-p) for kept ones, so the
// expected activation is unchanged and inference needs no rescaling.
type DropoutOp struct {
	input  *tensor.Tensor
	output *tensor.Tensor
	mask   []float32
}

// NewDropoutOp creates a new DropoutOp.
func NewDropoutOp(input, output *tensor.Tensor, mask []float32) *DropoutOp {
	return &DropoutOp{input: input, output: output, mask: mask}
}

// Backward applies the same mask to the output gradient.
func (op *DropoutOp) Backward(outputGrad *tensor.Tensor, backend *cpu.CPUBackend) []*tensor.Tensor {
	return []*tensor.Tensor{grad(backend.Mul(outputGrad.Data(), op.mask), op.input)}
}

// Inputs returns [x].
func (op *DropoutOp) Inputs() []*tensor.Tensor {
	return []*tensor.Tensor{op.input}
}

// Output returns the masked tensor.
func (op *DropoutOp) Output() *tensor.Tensor {
	return op.output
}
