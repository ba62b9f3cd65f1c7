package ops

import (
	"github.com/born-ml/gptlab/internal/backend/cpu"
	"github.com/born-ml/gptlab/internal/tensor"
)

// CatOp represents concatenation along the last axis.
//
// All inputs share their leading dimensions; output[..., :] is the
// row-wise join of the inputs in order. Multi-head attention uses this to
// rebuild [.., T, n_embd] from num_heads [.., T, head_size] outputs.
//
// Backward splits each output-gradient row back into per-input slices.
type CatOp struct {
	inputs []*tensor.Tensor
	output *tensor.Tensor
}

// NewCatOp creates a new CatOp.
func NewCatOp(inputs []*tensor.Tensor, output *tensor.Tensor) *CatOp {
	return &CatOp{inputs: inputs, output: output}
}

// Backward slices the output gradient into one gradient per input.
func (op *CatOp) Backward(outputGrad *tensor.Tensor, _ *cpu.CPUBackend) []*tensor.Tensor {
	rows, total := op.output.Shape().Rows()
	g := outputGrad.Data()
	grads := make([]*tensor.Tensor, len(op.inputs))

	offset := 0
	for i, in := range op.inputs {
		w := in.Dim(-1)
		data := make([]float32, rows*w)
		for r := 0; r < rows; r++ {
			copy(data[r*w:(r+1)*w], g[r*total+offset:r*total+offset+w])
		}
		grads[i] = grad(data, in)
		offset += w
	}
	return grads
}

// Inputs returns the concatenated tensors.
func (op *CatOp) Inputs() []*tensor.Tensor {
	return op.inputs
}

// Output returns the joined tensor.
func (op *CatOp) Output() *tensor.Tensor {
	return op.output
}
