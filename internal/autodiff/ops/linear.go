package ops

import (
	"github.com/born-ml/gptlab/internal/backend/cpu"
	"github.com/born-ml/gptlab/internal/tensor"
)

// LinearOp represents an affine map over the last axis: output = x @ W^T + b.
//
// x is viewed as [rows, in], W is [out, in] and b (optional) is [out].
//
// Backward pass:
//   - grad_x = outputGrad @ W
//   - grad_W = outputGrad^T @ x
//   - grad_b = outputGrad summed over rows
type LinearOp struct {
	inputs []*tensor.Tensor // [x, W] or [x, W, b]
	output *tensor.Tensor
}

// NewLinearOp creates a new LinearOp. bias may be nil.
func NewLinearOp(x, weight, bias, output *tensor.Tensor) *LinearOp {
	inputs := []*tensor.Tensor{x, weight}
	if bias != nil {
		inputs = append(inputs, bias)
	}
	return &LinearOp{inputs: inputs, output: output}
}

// Backward computes gradients for x, W and b.
func (op *LinearOp) Backward(outputGrad *tensor.Tensor, backend *cpu.CPUBackend) []*tensor.Tensor {
	x, w := op.inputs[0], op.inputs[1]
	rows, in := x.Shape().Rows()
	out := w.Dim(0)
	g := outputGrad.Data()

	// grad_x [rows, in] = g [rows, out] @ W [out, in]
	gradX := make([]float32, rows*in)
	backend.Gemm(false, false, rows, in, out, g, w.Data(), 0, gradX)

	// grad_W [out, in] = g^T [out, rows] @ x [rows, in]
	gradW := make([]float32, out*in)
	backend.Gemm(true, false, out, in, rows, g, x.Data(), 0, gradW)

	grads := []*tensor.Tensor{grad(gradX, x), grad(gradW, w)}
	if len(op.inputs) == 3 {
		b := op.inputs[2]
		grads = append(grads, grad(backend.SumToSuffix(g, out), b))
	}
	return grads
}

// Inputs returns [x, W] or [x, W, b].
func (op *LinearOp) Inputs() []*tensor.Tensor {
	return op.inputs
}

// Output returns x @ W^T + b.
func (op *LinearOp) Output() *tensor.Tensor {
	return op.output
}
